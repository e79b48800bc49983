package spray

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/spraycan/internal/render"
)

var red = color.NRGBA{R: 231, G: 76, B: 60, A: 255}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func canvas(t *testing.T, w, h int) *image.NRGBA {
	t.Helper()
	img, err := render.New(w, h, color.NRGBA{})
	require.NoError(t, err)
	return img
}

func TestSprayPaintsCentreAndStaysWithinReach(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		drawing := canvas(t, 200, 200)
		e := New(seeded(seed))
		area := e.SprayAt(drawing, image.Pt(100, 100), Brush{Color: red, Radius: 20, Opacity: 100})
		require.False(t, area.Empty())

		assert.Greater(t, drawing.NRGBAAt(100, 100).A, uint8(0), "seed %d: centre pixel unpainted", seed)
		for y := 0; y < 200; y++ {
			for x := 0; x < 200; x++ {
				d := math.Hypot(float64(x-100), float64(y-100))
				if d > 40 {
					require.Zero(t, drawing.NRGBAAt(x, y).A, "seed %d: paint at (%d,%d) distance %.1f", seed, x, y, d)
				}
			}
		}
	}
}

func TestSprayIsDeterministicForSeed(t *testing.T) {
	a := canvas(t, 120, 120)
	b := canvas(t, 120, 120)
	brush := Brush{Color: red, Radius: 15, Opacity: 80}
	New(seeded(42)).SprayAt(a, image.Pt(60, 60), brush)
	New(seeded(42)).SprayAt(b, image.Pt(60, 60), brush)
	assert.True(t, render.Equal(a, b))

	c := canvas(t, 120, 120)
	New(seeded(43)).SprayAt(c, image.Pt(60, 60), brush)
	assert.False(t, render.Equal(a, c))
}

func TestSprayBuildsUpUnderCeiling(t *testing.T) {
	brush := Brush{Color: color.NRGBA{R: 255, A: 255}, Radius: 20, Opacity: 100}
	centre := image.Pt(100, 100)
	for seed := uint64(1); seed <= 50; seed++ {
		drawing := canvas(t, 200, 200)
		e := New(seeded(seed))
		limit := e.Config().MaxAlpha

		e.SprayAt(drawing, centre, brush)
		first := drawing.NRGBAAt(100, 100).A
		e.SprayAt(drawing, centre, brush)
		second := drawing.NRGBAAt(100, 100).A

		require.Greater(t, first, uint8(0), "seed %d", seed)
		require.Less(t, first, limit, "seed %d: one pass saturated", seed)
		require.Greater(t, second, first, "seed %d: no buildup", seed)
		require.LessOrEqual(t, second, limit, "seed %d", seed)

		for i := 0; i < 20; i++ {
			e.SprayAt(drawing, centre, brush)
		}
		for y := 0; y < 200; y++ {
			for x := 0; x < 200; x++ {
				require.LessOrEqual(t, drawing.NRGBAAt(x, y).A, limit)
			}
		}
	}
}

func TestPassCeilingFollowsMaxAlpha(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAlpha = 150
	cfg.PassFraction = 0.5
	assert.Equal(t, uint8(75), New(seeded(1), WithConfig(cfg)).passCeiling())

	cfg.PassFraction = 0
	assert.Equal(t, uint8(150), New(seeded(1), WithConfig(cfg)).passCeiling())
}

func TestSprayOutsideCanvasIsNoop(t *testing.T) {
	drawing := canvas(t, 50, 50)
	e := New(seeded(3))
	area := e.SprayAt(drawing, image.Pt(-200, -200), Brush{Color: red, Radius: 20, Opacity: 100})
	assert.True(t, area.Empty())
	assert.True(t, render.Equal(canvas(t, 50, 50), drawing))
}

func TestSprayNearEdgeClips(t *testing.T) {
	drawing := canvas(t, 50, 50)
	e := New(seeded(5))
	area := e.SprayAt(drawing, image.Pt(0, 0), Brush{Color: red, Radius: 20, Opacity: 100})
	assert.True(t, area.In(drawing.Bounds()))
	assert.Greater(t, drawing.NRGBAAt(0, 0).A, uint8(0))
}

func TestSprayZeroOpacityIsNoop(t *testing.T) {
	drawing := canvas(t, 40, 40)
	New(seeded(1)).SprayAt(drawing, image.Pt(20, 20), Brush{Color: red, Radius: 10, Opacity: 0})
	assert.True(t, render.Equal(canvas(t, 40, 40), drawing))
}

func TestSprayKeepsColour(t *testing.T) {
	drawing := canvas(t, 60, 60)
	New(seeded(11)).SprayAt(drawing, image.Pt(30, 30), Brush{Color: red, Radius: 10, Opacity: 100})
	c := drawing.NRGBAAt(30, 30)
	assert.Equal(t, red.R, c.R)
	assert.Equal(t, red.G, c.G)
	assert.Equal(t, red.B, c.B)
}

func TestEraseClearsOnlyInsideRadius(t *testing.T) {
	drawing, err := render.New(60, 60, color.NRGBA{R: 10, G: 20, B: 30, A: 200})
	require.NoError(t, err)
	before := render.Copy(drawing)
	e := New(seeded(1))
	area := e.Apply(drawing, image.Pt(30, 30), Brush{Radius: 10, Eraser: true})
	assert.Equal(t, image.Rect(20, 20, 41, 41), area)

	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			dx, dy := x-30, y-30
			if dx*dx+dy*dy <= 100 {
				require.Equal(t, color.NRGBA{}, drawing.NRGBAAt(x, y))
			} else {
				require.Equal(t, before.NRGBAAt(x, y), drawing.NRGBAAt(x, y))
			}
		}
	}
}

func TestFalloff(t *testing.T) {
	e := New(seeded(1))
	assert.InDelta(t, 1.0, e.falloff(0, 20, 40), 1e-9)
	assert.InDelta(t, 0.0, e.falloff(20, 20, 40), 1e-9)
	assert.InDelta(t, 0.15, e.falloff(20.000001, 20, 40), 1e-6)
	assert.InDelta(t, 0.0, e.falloff(40, 20, 40), 1e-9)
	assert.Less(t, e.falloff(15, 20, 40), e.falloff(5, 20, 40))
}

func TestLevelsClamp(t *testing.T) {
	l := NewLevels([]int{5, 10, 20}, 7)
	assert.Equal(t, 20, l.Value())
	assert.False(t, l.Increase())
	assert.True(t, l.Decrease())
	assert.True(t, l.Decrease())
	assert.False(t, l.Decrease())
	assert.Equal(t, 5, l.Value())
	assert.Equal(t, 10, l.Select(1))
	assert.Equal(t, []int{5, 10, 20}, l.Values())

	var empty Levels
	assert.Zero(t, empty.Value())
	assert.False(t, empty.Increase())
}
