package spray

// Levels is an ordered set of discrete values with a current index. Moving
// past either end clamps instead of wrapping.
type Levels struct {
	values []int
	idx    int
}

// NewLevels copies values and selects idx, clamped to the valid range.
func NewLevels(values []int, idx int) Levels {
	l := Levels{values: append([]int(nil), values...)}
	l.idx = l.clamp(idx)
	return l
}

func (l Levels) clamp(idx int) int {
	if len(l.values) == 0 || idx < 0 {
		return 0
	}
	if idx >= len(l.values) {
		return len(l.values) - 1
	}
	return idx
}

// Value returns the selected value, or 0 for an empty set.
func (l Levels) Value() int {
	if len(l.values) == 0 {
		return 0
	}
	return l.values[l.idx]
}

// Index returns the selected index.
func (l Levels) Index() int { return l.idx }

// Len returns the number of levels.
func (l Levels) Len() int { return len(l.values) }

// Values returns a copy of the available levels.
func (l Levels) Values() []int {
	return append([]int(nil), l.values...)
}

// Select moves to idx, clamped, and returns the new value.
func (l *Levels) Select(idx int) int {
	l.idx = l.clamp(idx)
	return l.Value()
}

// Increase moves one level up. It reports false when already at the top.
func (l *Levels) Increase() bool {
	if l.idx >= len(l.values)-1 {
		return false
	}
	l.idx++
	return true
}

// Decrease moves one level down. It reports false when already at the bottom.
func (l *Levels) Decrease() bool {
	if l.idx <= 0 {
		return false
	}
	l.idx--
	return true
}
