// Package history keeps a bounded stack of raster snapshots for undo.
package history

import (
	"image"

	"github.com/example/spraycan/internal/layers"
	"github.com/example/spraycan/internal/render"
)

// DefaultDepth is the number of entries kept before the oldest is evicted.
const DefaultDepth = 50

// Entry is a snapshot of the canvas at one point in time. Composite and
// Drawing are private copies; Background and Template are shared references
// to layers that are replaced wholesale and never mutated.
type Entry struct {
	Composite  *image.NRGBA
	Drawing    *image.NRGBA
	Background *image.NRGBA
	Template   *layers.Template
}

// Snapshot deep-copies the mutable parts of a layer stack into an Entry.
// composite may be nil, in which case it is rebuilt from the layers.
func Snapshot(s *layers.Stack, composite *image.NRGBA) Entry {
	if composite == nil {
		composite = s.Composite()
	} else {
		composite = render.Copy(composite)
	}
	return Entry{
		Composite:  composite,
		Drawing:    render.Copy(s.Drawing),
		Background: s.Background,
		Template:   s.Template,
	}
}

// Stack is an ordered list of entries, oldest first. It is not safe for
// concurrent use.
type Stack struct {
	entries []Entry
	depth   int
}

// New returns an empty stack holding at most depth entries. A depth below one
// selects DefaultDepth.
func New(depth int) *Stack {
	if depth < 1 {
		depth = DefaultDepth
	}
	return &Stack{depth: depth}
}

// Depth returns the eviction bound.
func (s *Stack) Depth() int { return s.depth }

// Len returns the number of entries.
func (s *Stack) Len() int { return len(s.entries) }

// Push appends e, evicting the oldest entries past the depth bound.
func (s *Stack) Push(e Entry) {
	s.entries = append(s.entries, e)
	if over := len(s.entries) - s.depth; over > 0 {
		clear(s.entries[:over])
		s.entries = append(s.entries[:0], s.entries[over:]...)
	}
}

// Top returns the newest entry.
func (s *Stack) Top() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// ReplaceTop overwrites the newest entry, or pushes e onto an empty stack.
func (s *Stack) ReplaceTop(e Entry) {
	if len(s.entries) == 0 {
		s.Push(e)
		return
	}
	s.entries[len(s.entries)-1] = e
}

// Drop removes the newest entry without returning a state to restore. It
// never removes the last remaining entry.
func (s *Stack) Drop() bool {
	if len(s.entries) <= 1 {
		return false
	}
	s.entries[len(s.entries)-1] = Entry{}
	s.entries = s.entries[:len(s.entries)-1]
	return true
}

// Undo pops the newest entry and returns the one beneath it, which is the
// state to restore. With one entry or fewer it returns the current top and
// false.
func (s *Stack) Undo() (Entry, bool) {
	if len(s.entries) <= 1 {
		top, _ := s.Top()
		return top, false
	}
	s.entries[len(s.entries)-1] = Entry{}
	s.entries = s.entries[:len(s.entries)-1]
	return s.entries[len(s.entries)-1], true
}

// Reset discards every entry and starts over from e.
func (s *Stack) Reset(e Entry) {
	clear(s.entries)
	s.entries = append(s.entries[:0], e)
}
