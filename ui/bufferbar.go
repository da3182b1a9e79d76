package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"zte/config"
)

// Tab is one open buffer as shown in the buffer bar.
type Tab struct {
	Title    string
	Modified bool
	External bool // file changed on disk while the buffer had edits
}

// BufferBar is the row of open buffers above the views.
type BufferBar struct {
	Tabs      []Tab
	Active    int
	scrollOff int
	Theme     *config.ColorScheme
}

func NewBufferBar() *BufferBar {
	return &BufferBar{}
}

func (bb *BufferBar) tabTitle(tab Tab) string {
	switch {
	case tab.External:
		return "!" + tab.Title
	case tab.Modified:
		return "*" + tab.Title
	}
	return tab.Title
}

// tabWidthAt is the cell width of tab index, separator included.
func (bb *BufferBar) tabWidthAt(index int) int {
	if index < 0 || index >= len(bb.Tabs) {
		return 0
	}
	w := 1 + runewidth.StringWidth(bb.tabTitle(bb.Tabs[index])) + 1
	if index < len(bb.Tabs)-1 {
		w++
	}
	return w
}

func (bb *BufferBar) clampScroll() {
	bb.scrollOff = max(min(bb.scrollOff, len(bb.Tabs)-1), 0)
}

func (bb *BufferBar) visibleLast(width int) int {
	remaining := width
	last := bb.scrollOff - 1
	for i := bb.scrollOff; i < len(bb.Tabs); i++ {
		w := bb.tabWidthAt(i)
		if w > remaining {
			break
		}
		remaining -= w
		last = i
	}
	return last
}

func (bb *BufferBar) ensureActiveVisible(width int) {
	bb.clampScroll()
	if len(bb.Tabs) == 0 || width <= 0 {
		return
	}
	bb.Active = max(min(bb.Active, len(bb.Tabs)-1), 0)
	if bb.Active < bb.scrollOff {
		bb.scrollOff = bb.Active
	}
	for bb.Active > bb.visibleLast(width) && bb.scrollOff < bb.Active {
		bb.scrollOff++
	}
}

func (bb *BufferBar) Render(screen tcell.Screen, x, y, width int) {
	bb.ensureActiveVisible(width)

	theme := bb.Theme
	if theme == nil {
		theme = config.Themes["monokai"]
	}
	barStyle := tcell.StyleDefault.Background(theme.StatusBarBg).Foreground(theme.StatusBarFg)
	activeStyle := tcell.StyleDefault.Background(theme.StatusBarModeBg).Foreground(tcell.ColorWhite).Bold(true)
	externalStyle := barStyle.Foreground(theme.Warning)

	for cx := x; cx < x+width; cx++ {
		screen.SetContent(cx, y, ' ', nil, barStyle)
	}

	col := x
	limit := x + width
	for i := bb.scrollOff; i < len(bb.Tabs) && col < limit; i++ {
		tab := bb.Tabs[i]
		style := barStyle
		if tab.External {
			style = externalStyle
		}
		if i == bb.Active {
			style = activeStyle
		}
		col = drawText(screen, col, y, limit, " "+bb.tabTitle(tab)+" ", style)
		if col < limit && i < len(bb.Tabs)-1 {
			screen.SetContent(col, y, '│', nil, barStyle)
			col++
		}
	}
}
