package editor

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"zte/buffer"
	"zte/config"
	"zte/highlight"
	"zte/ui"
)

// Render draws every view side by side with the status row below them.
func (e *Editor) Render() {
	if e.screen == nil {
		return
	}
	theme := e.cfg.GetTheme()
	e.screen.SetStyle(tcell.StyleDefault.Background(theme.Background).Foreground(theme.Foreground))
	e.screen.Clear()
	e.screen.HideCursor()

	w, h := e.screen.Size()
	top := 0
	if len(e.reg.Buffers()) > 1 && h > 2 {
		e.updateBar()
		e.bar.Render(e.screen, 0, 0, w)
		top = 1
	}
	bodyH := h - 1 - top
	if w <= 0 || bodyH <= 0 {
		e.screen.Show()
		return
	}

	n := len(e.views)
	each := max((w-(n-1))/n, 1)
	divider := tcell.StyleDefault.Background(theme.Background).Foreground(theme.Divider)
	x := 0
	for i, v := range e.views {
		vw := each
		if i == n-1 {
			vw = max(w-x, 1)
		}
		e.renderView(v, i == e.active, x, top, vw, bodyH, theme)
		x += vw
		if i < n-1 {
			for y := top; y < top+bodyH; y++ {
				e.screen.SetContent(x, y, '│', nil, divider)
			}
			x++
		}
	}

	if p := e.prompt; p != nil {
		style := tcell.StyleDefault.Background(theme.StatusBarBg).Foreground(theme.StatusBarFg)
		for cx := range w {
			e.screen.SetContent(cx, h-1, ' ', nil, style)
		}
		end := drawCells(e.screen, 0, h-1, w, p.text(), style)
		e.screen.ShowCursor(min(end, w-1), h-1)
	} else {
		e.updateStatus()
		e.status.Render(e.screen, 0, h-1, w)
	}
	e.screen.Show()
}

func gutterWidth(lines int) int {
	digits := 1
	for ; lines >= 10; lines /= 10 {
		digits++
	}
	return digits + 2
}

// cellCol returns the screen column, relative to the line start, of the
// first glyph for the character at rank.
func cellCol(line buffer.Line, cfg buffer.Config, rank int) int {
	col := 0
	for g := range line.Glyphs(cfg) {
		if !g.Source || g.Pos >= rank {
			break
		}
		col += glyphWidth(g.Char)
	}
	return col
}

func glyphWidth(r rune) int {
	if w := runewidth.RuneWidth(r); w > 0 {
		return w
	}
	return 1
}

// scrollTo adjusts v so the cell at (row, col) is inside a textW x h window.
func (v *view) scrollTo(row, col, textW, h int) {
	if row < v.scrollY {
		v.scrollY = row
	}
	if row >= v.scrollY+h {
		v.scrollY = row - h + 1
	}
	if col < v.scrollX {
		v.scrollX = col
	}
	if col >= v.scrollX+textW {
		v.scrollX = col - textW + 1
	}
}

func (e *Editor) renderView(v *view, focused bool, x, y, w, h int, theme *config.ColorScheme) {
	buf, ok := e.reg.Buffer(v.proc.View().Buffer)
	if !ok {
		return
	}
	cur, _ := buf.Cursor(v.proc.View().Cursor)
	content := buf.Content()
	cfg := buf.Config()

	v.proc.SetPageSize(max(min(e.cfg.PageSize, h-1), 1))

	gutterW := gutterWidth(content.LineCount())
	textW := w - gutterW
	if textW <= 0 {
		return
	}

	rank, row := content.PosToRankLine(cur.Pos)
	curLine, _ := content.Line(row)
	v.scrollTo(row, cellCol(curLine, cfg, rank), textW, h)

	base := tcell.StyleDefault.Background(theme.Background).Foreground(theme.Foreground)
	gutterStyle := tcell.StyleDefault.Background(theme.Background).Foreground(theme.LineNumber)
	activeGutter := tcell.StyleDefault.Background(theme.Background).Foreground(theme.LineNumberActive)
	selStyle := tcell.StyleDefault.Background(theme.Selection).Foreground(theme.Foreground)

	lines := make([]string, 0, content.LineCount())
	for l := range content.Lines() {
		lines = append(lines, l.String())
	}
	end := min(v.scrollY+h, len(lines))
	styled := e.hl.Lines(lines, highlight.DetectLanguage(buf.Path()), v.scrollY, end)

	for r := range h {
		sy := y + r
		lineIdx := v.scrollY + r
		line, ok := content.Line(lineIdx)
		if !ok {
			e.screen.SetContent(x, sy, '~', nil, gutterStyle)
			continue
		}

		gs := gutterStyle
		if lineIdx == row {
			gs = activeGutter
		}
		num := fmt.Sprintf("%*d ", gutterW-1, lineIdx+1)
		drawCells(e.screen, x, sy, x+gutterW, num, gs)

		var runeStyles []tcell.Style
		if r < len(styled) {
			runeStyles = flatten(styled[r], theme)
		}

		start := content.LineStart(lineIdx)
		col := 0
		for g := range line.Glyphs(cfg) {
			if col >= v.scrollX+textW {
				break
			}
			gw := glyphWidth(g.Char)
			style := base
			if g.Source && g.Pos < len(runeStyles) {
				style = runeStyles[g.Pos]
			}
			if g.Source && cur.InsideReach(start+g.Pos) {
				style = selStyle
			}
			if focused && g.Source && start+g.Pos == cur.Pos && col >= v.scrollX {
				e.screen.ShowCursor(x+gutterW+col-v.scrollX, sy)
			}
			ch := g.Char
			if ch == '\n' {
				ch = ' '
			}
			if col >= v.scrollX && col+gw <= v.scrollX+textW {
				e.screen.SetContent(x+gutterW+col-v.scrollX, sy, ch, nil, style)
			}
			col += gw
		}
	}
}

// flatten turns a highlighted line into one style per character, mapping
// the terminal defaults onto the theme colors.
func flatten(line highlight.StyledLine, theme *config.ColorScheme) []tcell.Style {
	var out []tcell.Style
	for _, tok := range line.Tokens {
		st := tok.Style.Background(theme.Background)
		if fg, _, _ := st.Decompose(); fg == tcell.ColorDefault {
			st = st.Foreground(theme.Foreground)
		}
		for range []rune(tok.Text) {
			out = append(out, st)
		}
	}
	return out
}

// updateBar lists the open buffers in the order they were opened.
func (e *Editor) updateBar() {
	active := e.activeView().proc.View().Buffer
	e.bar.Tabs = e.bar.Tabs[:0]
	for i, id := range e.reg.Buffers() {
		buf, ok := e.reg.Buffer(id)
		if !ok {
			continue
		}
		if id == active {
			e.bar.Active = i
		}
		e.bar.Tabs = append(e.bar.Tabs, ui.Tab{
			Title:    buf.Title(),
			Modified: buf.Dirty() && (buf.Path() != "" || buf.Len() > 0),
			External: buf.ExternallyModified(),
		})
	}
}

// updateStatus copies the focused view's state into the status bar.
func (e *Editor) updateStatus() {
	v := e.activeView()
	buf, ok := e.reg.Buffer(v.proc.View().Buffer)
	if !ok {
		return
	}
	cur, _ := buf.Cursor(v.proc.View().Cursor)
	s := e.status

	s.Title = buf.Title()
	s.Dirty = buf.Dirty()
	s.External = buf.ExternallyModified()
	loc := buf.PosLoc(cur.Pos)
	s.Line, s.Col = loc.Row, loc.Col
	s.Language = highlight.DetectLanguage(buf.Path())

	tw := buf.Config().TabWidth
	if v.proc.Options().SoftTabs {
		s.TabInfo = fmt.Sprintf("Spaces: %d", tw)
	} else {
		s.TabInfo = fmt.Sprintf("Tabs: %d", tw)
	}

	s.SelChars, s.SelLines = 0, 0
	if cur.HasSelection() {
		start, end := cur.Range()
		s.SelChars = end - start
		_, first := buf.Content().PosToRankLine(start)
		_, last := buf.Content().PosToRankLine(end)
		s.SelLines = last - first + 1
	}
	s.View, s.Views = e.active+1, len(e.views)
}

// drawCells writes text from x, stopping at limit, and returns the column
// after the last cell written.
func drawCells(screen tcell.Screen, x, y, limit int, text string, style tcell.Style) int {
	for _, ch := range text {
		w := glyphWidth(ch)
		if x+w > limit {
			break
		}
		screen.SetContent(x, y, ch, nil, style)
		x += w
	}
	return x
}
