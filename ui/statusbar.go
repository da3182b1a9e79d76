package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"zte/config"
)

type StatusBar struct {
	Title    string
	Dirty    bool
	External bool // file changed on disk while the buffer had edits
	Line     int
	Col      int
	Language string
	TabInfo  string // "Tabs: 4" or "Spaces: 4"
	SelChars int    // selected characters, 0 without a selection
	SelLines int
	View     int // 1-based index of the focused view
	Views    int
	Message  string
	IsError  bool
	Theme    *config.ColorScheme
}

func NewStatusBar() *StatusBar {
	return &StatusBar{Views: 1, View: 1}
}

// Left is the text shown at the left edge.
func (s *StatusBar) Left() string {
	if s.Message != "" {
		return s.Message
	}
	title := s.Title
	if title == "" {
		title = "untitled"
	}
	if s.Dirty {
		title += " ●"
	}
	if s.External {
		title += " (changed on disk)"
	}
	return title
}

// Right is the right-aligned cursor and file summary.
func (s *StatusBar) Right() string {
	lang := s.Language
	if lang == "" {
		lang = "Plain Text"
	}
	right := fmt.Sprintf("Ln %d, Col %d │ %s │ %s ", s.Line+1, s.Col+1, lang, s.TabInfo)
	if s.SelChars > 0 {
		right = fmt.Sprintf("Sel: %d chars, %d lines │ ", s.SelChars, s.SelLines) + right
	}
	if s.Views > 1 {
		right = fmt.Sprintf("View %d/%d │ ", s.View, s.Views) + right
	}
	return right
}

func (s *StatusBar) Render(screen tcell.Screen, x, y, width int) {
	theme := s.Theme
	if theme == nil {
		theme = config.Themes["monokai"]
	}
	style := tcell.StyleDefault.Background(theme.StatusBarBg).Foreground(theme.StatusBarFg)
	modeStyle := tcell.StyleDefault.Background(theme.StatusBarModeBg).Foreground(tcell.ColorWhite).Bold(true)
	leftStyle := style
	if s.IsError || (s.Message == "" && s.External) {
		leftStyle = style.Foreground(theme.Warning).Bold(true)
	}

	for cx := x; cx < x+width; cx++ {
		screen.SetContent(cx, y, ' ', nil, style)
	}

	col := drawText(screen, x, y, x+width, " ZTE ", modeStyle)
	col = drawText(screen, col+1, y, x+width, s.Left(), leftStyle)
	if s.Message != "" {
		return
	}

	right := s.Right()
	start := x + width - runewidth.StringWidth(right)
	if start > col+1 {
		drawText(screen, start, y, x+width, right, style)
	}
}

// drawText writes text from x, stopping at limit, and returns the column
// after the last cell written.
func drawText(screen tcell.Screen, x, y, limit int, text string, style tcell.Style) int {
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			w = 1
		}
		if x+w > limit {
			break
		}
		screen.SetContent(x, y, ch, nil, style)
		x += w
	}
	return x
}
