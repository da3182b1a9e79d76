package buffer

import (
	"iter"
	"strings"
)

// Config holds the display settings the position math depends on.
type Config struct {
	TabWidth int
}

func DefaultConfig() Config {
	return Config{TabWidth: 4}
}

func (c Config) tabWidth() int {
	if c.TabWidth <= 0 {
		return 4
	}
	return c.TabWidth
}

// Loc is a display location: a glyph column within a row.
type Loc struct {
	Col, Row int
}

// Content is the line-oriented text of one buffer. Lines never store their
// newline; every line but the last is followed by one when iterated.
type Content struct {
	lines [][]rune
}

func NewContent(s string) *Content {
	parts := strings.Split(s, "\n")
	lines := make([][]rune, len(parts))
	for i, p := range parts {
		lines[i] = []rune(p)
	}
	return &Content{lines: lines}
}

// Len returns the number of addressable characters, newlines included.
func (c *Content) Len() int {
	n := 0
	for _, l := range c.lines {
		n += len(l) + 1
	}
	return n - 1
}

func (c *Content) LineCount() int {
	return len(c.lines)
}

func (c *Content) Lines() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		for _, l := range c.lines {
			if !yield(Line{chars: l}) {
				return
			}
		}
	}
}

func (c *Content) Line(i int) (Line, bool) {
	if i < 0 || i >= len(c.lines) {
		return Line{}, false
	}
	return Line{chars: c.lines[i]}, true
}

func (c *Content) Chars() iter.Seq[rune] {
	return func(yield func(rune) bool) {
		for i, l := range c.lines {
			if i > 0 && !yield('\n') {
				return
			}
			for _, r := range l {
				if !yield(r) {
					return
				}
			}
		}
	}
}

func (c *Content) CharAt(pos int) (rune, bool) {
	if pos < 0 || pos >= c.Len() {
		return 0, false
	}
	rank, line := c.PosToRankLine(pos)
	l := c.lines[line]
	if rank == len(l) {
		return '\n', true
	}
	return l[rank], true
}

func (c *Content) String() string {
	var sb strings.Builder
	for r := range c.Chars() {
		sb.WriteRune(r)
	}
	return sb.String()
}

func (c *Content) Clone() *Content {
	lines := make([][]rune, len(c.lines))
	for i, l := range c.lines {
		lines[i] = append([]rune(nil), l...)
	}
	return &Content{lines: lines}
}

// PosToRankLine maps an absolute position to its in-line offset and line
// index. Positions past the end yield a line index of LineCount().
func (c *Content) PosToRankLine(pos int) (rank, line int) {
	for _, l := range c.lines {
		if pos < len(l)+1 {
			break
		}
		pos -= len(l) + 1
		line++
	}
	return pos, line
}

// LineStart returns the absolute position of the first character of a row.
func (c *Content) LineStart(row int) int {
	pos := 0
	for i := 0; i < row && i < len(c.lines); i++ {
		pos += len(c.lines[i]) + 1
	}
	return min(pos, c.Len())
}

func (c *Content) Insert(pos int, r rune) {
	rank, line := c.PosToRankLine(pos)
	if pos < 0 || line >= len(c.lines) {
		return
	}

	l := c.lines[line]
	if r == '\n' {
		tail := append([]rune(nil), l[rank:]...)
		c.lines[line] = l[:rank:rank]
		c.lines = append(c.lines, nil)
		copy(c.lines[line+2:], c.lines[line+1:])
		c.lines[line+1] = tail
		return
	}

	l = append(l, 0)
	copy(l[rank+1:], l[rank:])
	l[rank] = r
	c.lines[line] = l
}

// Remove deletes the character at pos. Removing a line's implied newline
// joins the next line onto it; positions with nothing to remove are ignored.
func (c *Content) Remove(pos int) {
	rank, line := c.PosToRankLine(pos)
	if pos < 0 || line >= len(c.lines) {
		return
	}

	l := c.lines[line]
	if rank == len(l) {
		if line < len(c.lines)-1 {
			c.lines[line] = append(l, c.lines[line+1]...)
			c.lines = append(c.lines[:line+1], c.lines[line+2:]...)
		}
		return
	}
	c.lines[line] = append(l[:rank], l[rank+1:]...)
}

// InsertLine places text as a new line at index i without touching cursors.
func (c *Content) InsertLine(i int, text string) {
	i = max(0, min(i, len(c.lines)))
	c.lines = append(c.lines, nil)
	copy(c.lines[i+1:], c.lines[i:])
	c.lines[i] = []rune(text)
}

// PosLoc converts an absolute position into the display column and row it
// is drawn at.
func (c *Content) PosLoc(pos int, cfg Config) Loc {
	rank, row := c.PosToRankLine(pos)
	line, ok := c.Line(row)
	if !ok {
		return Loc{Row: row}
	}

	col := 0
	for g := range line.Glyphs(cfg) {
		if !g.Source || g.Pos == rank {
			break
		}
		col++
	}
	return Loc{Col: col, Row: row}
}

// LocPos is the inverse of PosLoc. Columns inside a tab resolve to the tab
// and columns past the end of the row resolve to the row's end.
func (c *Content) LocPos(loc Loc, cfg Config) int {
	if loc.Row >= len(c.lines) {
		return c.Len()
	}
	pos := c.LineStart(loc.Row)
	line := Line{chars: c.lines[loc.Row]}

	col := 0
	for g := range line.Glyphs(cfg) {
		if col == loc.Col {
			if g.Source {
				pos += g.Pos
			} else {
				pos += line.Len() - 1
			}
			break
		}
		col++
	}
	return min(pos, c.Len())
}
