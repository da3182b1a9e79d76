package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBuffer means a handle outlived the buffer it points at.
	ErrNoBuffer = errors.New("buffer not found")

	// ErrNoCursor means the handle's cursor was already released.
	ErrNoCursor = errors.New("cursor not found")

	// ErrBufferBusy is returned when a buffer is accessed again while a
	// command is still running against it.
	ErrBufferBusy = errors.New("buffer is busy")

	// ErrBufferInUse is returned when closing a buffer other views still show.
	ErrBufferInUse = errors.New("buffer is open in another view")

	// ErrUnsavedChanges is returned when closing a dirty buffer without force.
	ErrUnsavedChanges = errors.New("buffer has unsaved changes")
)

// UnhandledError carries a command the processor does not act on back to
// the caller, which may treat it as a UI-level command.
type UnhandledError struct {
	Command Command
}

func (e *UnhandledError) Error() string {
	return fmt.Sprintf("unhandled command %T", e.Command)
}

// AsUnhandled extracts the command from an UnhandledError.
func AsUnhandled(err error) (Command, bool) {
	var u *UnhandledError
	if errors.As(err, &u) {
		return u.Command, true
	}
	return nil, false
}
