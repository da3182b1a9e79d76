package editor

import "zte/buffer"

// Command is one discrete editing request. The set is closed: every
// command type lives in this file.
type Command interface {
	command()
}

type (
	// Insert types a character, replacing any selection.
	Insert struct{ Char rune }

	Backspace     struct{}
	BackspaceWord struct{}
	Delete        struct{}
	Undo          struct{}
	Redo          struct{}

	// Move steps the cursor one unit; Reach extends the selection.
	Move struct {
		Dir   buffer.Dir
		Reach bool
	}

	// Jump moves by word (Left, Right) or by brace block (Up, Down).
	Jump struct {
		Dir   buffer.Dir
		Reach bool
	}

	// PageMove moves the cursor a page up or down.
	PageMove struct {
		Dir   buffer.Dir
		Reach bool
	}

	SelectAll struct{}
	Duplicate struct{}
	Comment   struct{}
	Dedent    struct{}
	Cut       struct{}
	Copy      struct{}
	Paste     struct{}
	Save      struct{}

	SaveAs struct{ Path string }

	NewBuffer struct{}

	OpenFile struct{ Path string }

	CloseBuffer struct{ Force bool }

	SwitchBuffer struct{ ID buffer.BufferID }
)

// UI-level commands. The processor hands these back unhandled.
type (
	Quit struct{}

	SplitView struct{}

	CloseView struct{}

	FocusView struct{ Dir buffer.Dir }

	OpenPrompt struct{}

	OpenSwitcher struct{}

	Escape struct{}
)

func (Insert) command()        {}
func (Backspace) command()     {}
func (BackspaceWord) command() {}
func (Delete) command()        {}
func (Undo) command()          {}
func (Redo) command()          {}
func (Move) command()          {}
func (Jump) command()          {}
func (PageMove) command()      {}
func (SelectAll) command()     {}
func (Duplicate) command()     {}
func (Comment) command()       {}
func (Dedent) command()        {}
func (Cut) command()           {}
func (Copy) command()          {}
func (Paste) command()         {}
func (Save) command()          {}
func (SaveAs) command()        {}
func (NewBuffer) command()     {}
func (OpenFile) command()      {}
func (CloseBuffer) command()   {}
func (SwitchBuffer) command()  {}
func (Quit) command()          {}
func (SplitView) command()     {}
func (CloseView) command()     {}
func (FocusView) command()     {}
func (OpenPrompt) command()    {}
func (OpenSwitcher) command()  {}
func (Escape) command()        {}
