package buffer

// Guard is a buffer seen through one of its cursors. The editor hands one
// out per command; it must not be kept past the command.
type Guard struct {
	buf *Shared
	id  CursorID
}

func (g *Guard) Buffer() *Shared { return g.buf }

func (g *Guard) CursorID() CursorID { return g.id }

func (g *Guard) Config() Config { return g.buf.cfg }

func (g *Guard) Content() *Content { return g.buf.state.Content }

func (g *Guard) Len() int { return g.buf.Len() }

func (g *Guard) LineCount() int { return g.buf.state.Content.LineCount() }

func (g *Guard) Line(row int) (Line, bool) { return g.buf.state.Content.Line(row) }

func (g *Guard) CharAt(pos int) (rune, bool) { return g.buf.state.Content.CharAt(pos) }

func (g *Guard) Cursor() Cursor {
	c, _ := g.buf.Cursor(g.id)
	return c
}

func (g *Guard) SetCursor(c Cursor) { g.buf.SetCursor(g.id, c) }

// SetPos moves the cursor to pos, collapsing any selection.
func (g *Guard) SetPos(pos int) { g.SetCursor(At(pos)) }

func (g *Guard) Insert(r rune) { g.buf.Insert(g.id, r) }

func (g *Guard) InsertString(s string) { g.buf.InsertString(g.id, s) }

func (g *Guard) Backspace() { g.buf.Backspace(g.id) }

func (g *Guard) Delete() { g.buf.Delete(g.id) }

func (g *Guard) PosLoc(pos int) Loc { return g.buf.PosLoc(pos) }

func (g *Guard) LocPos(loc Loc) int { return g.buf.LocPos(loc) }

// Row returns the line the cursor is on.
func (g *Guard) Row() int {
	_, row := g.buf.state.Content.PosToRankLine(g.Cursor().Pos)
	return min(row, g.LineCount()-1)
}

// SelectedText returns the selected characters, or "" without a selection.
func (g *Guard) SelectedText() string {
	start, end := g.Cursor().Range()
	if start == end {
		return ""
	}
	return g.buf.Text(start, end)
}

// DeleteSelection removes the selected text and reports whether there was
// any.
func (g *Guard) DeleteSelection() bool {
	c := g.Cursor()
	if !c.HasSelection() {
		return false
	}
	start, end := c.Range()
	g.buf.RemoveRange(start, end)
	g.SetPos(start)
	return true
}
