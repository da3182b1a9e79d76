package editor

import (
	"github.com/gdamore/tcell/v2"
)

// prompt is a one-line input shown in place of the status bar.
type prompt struct {
	label    string
	input    []rune
	onSubmit func(text string)
}

// handleKey edits the input and reports whether the prompt is finished.
func (p *prompt) handleKey(ev *tcell.EventKey) (done bool) {
	switch ev.Key() {
	case tcell.KeyEscape:
		return true
	case tcell.KeyEnter:
		if len(p.input) > 0 && p.onSubmit != nil {
			p.onSubmit(string(p.input))
		}
		return true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(p.input) > 0 {
			p.input = p.input[:len(p.input)-1]
		}
	case tcell.KeyRune:
		p.input = append(p.input, ev.Rune())
	}
	return false
}

func (p *prompt) text() string {
	return p.label + string(p.input)
}
