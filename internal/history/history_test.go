package history

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/spraycan/internal/layers"
	"github.com/example/spraycan/internal/render"
)

func marker(i int) Entry {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: uint8(i), A: 255})
	return Entry{Composite: img, Drawing: img}
}

func id(e Entry) int { return int(e.Composite.NRGBAAt(0, 0).R) }

func TestPushEvictsOldestFirst(t *testing.T) {
	s := New(50)
	for i := 0; i < 60; i++ {
		s.Push(marker(i))
	}
	require.Equal(t, 50, s.Len())
	top, ok := s.Top()
	require.True(t, ok)
	assert.Equal(t, 59, id(top))
	assert.Equal(t, 10, id(s.entries[0]), "entries 0-9 evicted")
	for i, e := range s.entries {
		assert.Equal(t, i+10, id(e))
	}
}

func TestUndoFloor(t *testing.T) {
	s := New(0)
	assert.Equal(t, DefaultDepth, s.Depth())
	s.Push(marker(1))

	e, ok := s.Undo()
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, id(e))

	e, ok = s.Undo()
	assert.False(t, ok)
	assert.Equal(t, 1, id(e))
}

func TestUndoReturnsPreviousEntry(t *testing.T) {
	s := New(5)
	s.Push(marker(1))
	s.Push(marker(2))
	s.Push(marker(3))

	e, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, 2, id(e))
	e, ok = s.Undo()
	require.True(t, ok)
	assert.Equal(t, 1, id(e))
	_, ok = s.Undo()
	assert.False(t, ok)
}

func TestReplaceTopAndDrop(t *testing.T) {
	s := New(5)
	s.ReplaceTop(marker(1))
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Drop())

	s.Push(marker(2))
	s.ReplaceTop(marker(3))
	top, _ := s.Top()
	assert.Equal(t, 3, id(top))
	assert.True(t, s.Drop())
	top, _ = s.Top()
	assert.Equal(t, 1, id(top))
}

func TestReset(t *testing.T) {
	s := New(5)
	for i := 0; i < 4; i++ {
		s.Push(marker(i))
	}
	s.Reset(marker(9))
	assert.Equal(t, 1, s.Len())
	top, _ := s.Top()
	assert.Equal(t, 9, id(top))
}

func TestSnapshotIsIsolated(t *testing.T) {
	st, err := layers.NewStack(4, 4)
	require.NoError(t, err)
	st.Drawing.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 200})
	e := Snapshot(st, nil)

	st.Drawing.SetNRGBA(1, 1, color.NRGBA{G: 255, A: 255})
	st.ResetDrawing()
	assert.Equal(t, color.NRGBA{R: 255, A: 200}, e.Drawing.NRGBAAt(1, 1))
	assert.True(t, render.Equal(e.Composite, layers.Recomposite(nil, nil, e.Drawing)))

	comp := st.Composite()
	e2 := Snapshot(st, comp)
	assert.NotSame(t, comp, e2.Composite)
	assert.True(t, render.Equal(comp, e2.Composite))
}
