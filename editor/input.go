package editor

import (
	"github.com/gdamore/tcell/v2"

	"zte/buffer"
)

var arrowDirs = map[tcell.Key]buffer.Dir{
	tcell.KeyLeft:  buffer.Left,
	tcell.KeyRight: buffer.Right,
	tcell.KeyUp:    buffer.Up,
	tcell.KeyDown:  buffer.Down,
}

// Decode maps a key press to a command. It reports false for keys that
// have no binding.
func Decode(ev *tcell.EventKey) (Command, bool) {
	mods := ev.Modifiers()
	shift := mods&tcell.ModShift != 0
	ctrl := mods&tcell.ModCtrl != 0
	alt := mods&tcell.ModAlt != 0

	if dir, ok := arrowDirs[ev.Key()]; ok {
		switch {
		case alt && (dir == buffer.Left || dir == buffer.Right):
			return FocusView{Dir: dir}, true
		case ctrl:
			return Jump{Dir: dir, Reach: shift}, true
		default:
			return Move{Dir: dir, Reach: shift}, true
		}
	}

	switch ev.Key() {
	case tcell.KeyCtrlQ:
		return Quit{}, true
	case tcell.KeyCtrlS:
		return Save{}, true
	case tcell.KeyCtrlN:
		return NewBuffer{}, true
	case tcell.KeyCtrlW:
		return CloseBuffer{}, true
	case tcell.KeyCtrlO:
		return OpenPrompt{}, true
	case tcell.KeyCtrlP:
		return OpenSwitcher{}, true
	case tcell.KeyCtrlZ:
		return Undo{}, true
	case tcell.KeyCtrlY:
		return Redo{}, true
	case tcell.KeyCtrlC:
		return Copy{}, true
	case tcell.KeyCtrlX:
		return Cut{}, true
	case tcell.KeyCtrlV:
		return Paste{}, true
	case tcell.KeyCtrlA:
		return SelectAll{}, true
	case tcell.KeyCtrlD:
		return Duplicate{}, true
	case tcell.KeyCtrlUnderscore:
		return Comment{}, true
	case tcell.KeyCtrlBackslash:
		return SplitView{}, true
	case tcell.KeyCtrlRightSq:
		return FocusView{Dir: buffer.Right}, true
	case tcell.KeyEscape:
		return Escape{}, true
	case tcell.KeyEnter:
		return Insert{Char: '\n'}, true
	case tcell.KeyTab:
		return Insert{Char: '\t'}, true
	case tcell.KeyBacktab:
		return Dedent{}, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if ctrl || alt {
			return BackspaceWord{}, true
		}
		return Backspace{}, true
	case tcell.KeyDelete:
		return Delete{}, true
	case tcell.KeyPgUp:
		return PageMove{Dir: buffer.Up, Reach: shift}, true
	case tcell.KeyPgDn:
		return PageMove{Dir: buffer.Down, Reach: shift}, true
	case tcell.KeyRune:
		if k, ok := ctrlKey(ev.Rune()); ok && ctrl {
			return Decode(tcell.NewEventKey(k, 0, mods))
		}
		return decodeRune(ev.Rune(), ctrl, alt)
	}
	return nil, false
}

// ctrlKey maps a letter reported as a rune with ModCtrl to its control key.
func ctrlKey(r rune) (tcell.Key, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return tcell.KeyCtrlA + tcell.Key(r-'a'), true
	case r >= 'A' && r <= 'Z':
		return tcell.KeyCtrlA + tcell.Key(r-'A'), true
	}
	return 0, false
}

func decodeRune(r rune, ctrl, alt bool) (Command, bool) {
	switch {
	case alt && r == 'w':
		return CloseView{}, true
	case ctrl && r == '/':
		return Comment{}, true
	case ctrl || alt:
		return nil, false
	}
	return Insert{Char: r}, true
}
