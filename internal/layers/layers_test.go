package layers

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/spraycan/internal/render"
)

func solid(t *testing.T, w, h int, c color.NRGBA) *image.NRGBA {
	t.Helper()
	img, err := render.New(w, h, c)
	require.NoError(t, err)
	return img
}

func TestRecompositeIsIdempotent(t *testing.T) {
	s, err := NewStack(20, 10)
	require.NoError(t, err)
	require.NoError(t, s.SetBackground(solid(t, 20, 10, color.NRGBA{10, 200, 30, 255})))
	s.SetTemplate(&Template{Image: solid(t, 6, 6, color.NRGBA{0, 0, 0, 77}), Offset: image.Pt(15, -2)})
	s.Drawing.SetNRGBA(3, 3, color.NRGBA{255, 0, 0, 120})

	first := s.Composite()
	second := s.Composite()
	assert.True(t, render.Equal(first, second))
	assert.NotSame(t, first, second)
}

func TestRecompositeEmptyIsWhite(t *testing.T) {
	s, err := NewStack(4, 4)
	require.NoError(t, err)
	out := s.Composite()
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, Base, out.NRGBAAt(x, y))
		}
	}
}

func TestRecompositeOrder(t *testing.T) {
	s, err := NewStack(4, 1)
	require.NoError(t, err)
	bg := solid(t, 4, 1, color.NRGBA{0, 0, 255, 255})
	require.NoError(t, s.SetBackground(bg))
	s.SetTemplate(&Template{Image: solid(t, 2, 1, color.NRGBA{0, 255, 0, 255}), Offset: image.Pt(1, 0)})
	s.Drawing.SetNRGBA(2, 0, color.NRGBA{255, 0, 0, 255})

	out := s.Composite()
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, out.NRGBAAt(0, 0), "background only")
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, out.NRGBAAt(1, 0), "template over background")
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(2, 0), "drawing on top")
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, out.NRGBAAt(3, 0))
}

func TestRecompositeDoesNotMutateLayers(t *testing.T) {
	s, err := NewStack(5, 5)
	require.NoError(t, err)
	bg := solid(t, 5, 5, color.NRGBA{1, 2, 3, 255})
	require.NoError(t, s.SetBackground(bg))
	s.Drawing.SetNRGBA(1, 1, color.NRGBA{9, 9, 9, 9})
	bgCopy, drawCopy := render.Copy(bg), render.Copy(s.Drawing)

	_ = s.Composite()
	assert.True(t, render.Equal(bg, bgCopy))
	assert.True(t, render.Equal(s.Drawing, drawCopy))
}

func TestResetDrawingKeepsBackground(t *testing.T) {
	s, err := NewStack(6, 6)
	require.NoError(t, err)
	bg := solid(t, 6, 6, color.NRGBA{40, 50, 60, 255})
	require.NoError(t, s.SetBackground(bg))
	s.Drawing.SetNRGBA(2, 2, color.NRGBA{255, 0, 0, 255})

	s.ResetDrawing()
	assert.True(t, render.Equal(bg, s.Composite()))
	assert.Equal(t, color.NRGBA{}, s.Drawing.NRGBAAt(2, 2))
}

func TestSetBackgroundRejectsWrongSize(t *testing.T) {
	s, err := NewStack(6, 6)
	require.NoError(t, err)
	assert.Error(t, s.SetBackground(solid(t, 5, 6, color.NRGBA{A: 255})))
	assert.Nil(t, s.Background)
	assert.NoError(t, s.SetBackground(nil))
}
