package buffer

type Dir int

const (
	Left Dir = iota
	Right
	Up
	Down
)

func (d Dir) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// Cursor is an insertion point or selection. Pos is where text goes in;
// Base is the far end of the selection and equals Pos when nothing is
// selected.
type Cursor struct {
	Base, Pos int
}

func At(pos int) Cursor {
	return Cursor{Base: pos, Pos: pos}
}

func (c Cursor) HasSelection() bool {
	return c.Base != c.Pos
}

// Range returns the selection bounds in ascending order.
func (c Cursor) Range() (start, end int) {
	if c.Base < c.Pos {
		return c.Base, c.Pos
	}
	return c.Pos, c.Base
}

// InsideReach reports whether p lies in [start, end).
func (c Cursor) InsideReach(p int) bool {
	start, end := c.Range()
	return p >= start && p < end
}

// Encloses reports whether p lies in [start, end].
func (c Cursor) Encloses(p int) bool {
	start, end := c.Range()
	return p >= start && p <= end
}

// Unreach collapses a selection onto the edge facing dir and reports whether
// there was anything to collapse.
func (c *Cursor) Unreach(dir Dir) bool {
	if !c.HasSelection() {
		return false
	}
	start, end := c.Range()
	switch dir {
	case Left, Up:
		c.Pos = start
	default:
		c.Pos = end
	}
	c.Base = c.Pos
	return true
}

// ShiftRelativeTo rebases the cursor after delta characters were inserted
// (positive) or removed (negative) at editPos.
func (c *Cursor) ShiftRelativeTo(editPos, delta int) {
	c.Pos = shift(c.Pos, editPos, delta)
	c.Base = shift(c.Base, editPos, delta)
}

func shift(v, editPos, delta int) int {
	if v < editPos {
		return v
	}
	return max(v+delta, editPos)
}

// Clamp keeps both ends within [0, limit].
func (c *Cursor) Clamp(limit int) {
	c.Pos = max(0, min(c.Pos, limit))
	c.Base = max(0, min(c.Base, limit))
}
