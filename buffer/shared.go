package buffer

import (
	"path/filepath"
	"time"
)

// Shared owns one buffer: its live state, undo history, backing path and
// dirty flag. Every mutation goes through its methods so that all cursors
// are rebased after each edit, whichever cursor made it.
type Shared struct {
	cfg   Config
	path  string
	state *State
	hist  history
	clock Clock

	lastCursor CursorID
	retired    map[CursorID]struct{} // removed ids that old snapshots may still hold
	dirty      bool
	external   bool
}

// Option configures a Shared buffer on creation.
type Option func(*Shared)

func WithConfig(cfg Config) Option {
	return func(b *Shared) {
		b.cfg = cfg
	}
}

func WithClock(c Clock) Option {
	return func(b *Shared) {
		if c != nil {
			b.clock = c
		}
	}
}

func WithHistoryLimit(n int) Option {
	return func(b *Shared) {
		if n > 0 {
			b.hist.limit = n
		}
	}
}

func WithUndoWindow(d time.Duration) Option {
	return func(b *Shared) {
		if d >= 0 {
			b.hist.window = d
		}
	}
}

// New creates an empty, unsaved scratch buffer.
func New(opts ...Option) *Shared {
	return newShared(NewContent(""), true, opts...)
}

// NewFromString creates an unsaved buffer holding text.
func NewFromString(text string, opts ...Option) *Shared {
	return newShared(NewContent(text), true, opts...)
}

func newShared(content *Content, dirty bool, opts ...Option) *Shared {
	b := &Shared{
		cfg:   DefaultConfig(),
		state: NewState(content),
		clock: systemClock{},
		dirty: dirty,
		hist: history{
			limit:  DefaultHistoryLimit,
			window: DefaultUndoWindow,
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Shared) Config() Config { return b.cfg }

func (b *Shared) SetConfig(cfg Config) { b.cfg = cfg }

func (b *Shared) Content() *Content { return b.state.Content }

func (b *Shared) Len() int { return b.state.Content.Len() }

func (b *Shared) String() string { return b.state.Content.String() }

func (b *Shared) Path() string { return b.path }

func (b *Shared) Dirty() bool { return b.dirty }

func (b *Shared) ExternallyModified() bool { return b.external }

func (b *Shared) MarkExternallyModified() { b.external = true }

// Title is the file name, or "untitled" for scratch buffers.
func (b *Shared) Title() string {
	if b.path == "" {
		return "untitled"
	}
	return filepath.Base(b.path)
}

func (b *Shared) InsertCursor(c Cursor) CursorID {
	b.lastCursor++
	c.Clamp(b.Len())
	b.state.Cursors[b.lastCursor] = c
	return b.lastCursor
}

// RemoveCursor drops id for good: undo and redo will not bring it back.
func (b *Shared) RemoveCursor(id CursorID) {
	if _, ok := b.state.Cursors[id]; !ok {
		return
	}
	delete(b.state.Cursors, id)
	if b.retired == nil {
		b.retired = make(map[CursorID]struct{})
	}
	b.retired[id] = struct{}{}
}

// restore adopts st as the live state, skipping retired cursors.
func (b *Shared) restore(st *State) {
	b.state.AlignWith(st)
	for id := range b.retired {
		delete(b.state.Cursors, id)
	}
}

func (b *Shared) Cursor(id CursorID) (Cursor, bool) {
	c, ok := b.state.Cursors[id]
	return c, ok
}

// SetCursor replaces a cursor, clamped to the text. It reports false for an
// unknown id.
func (b *Shared) SetCursor(id CursorID, c Cursor) bool {
	if _, ok := b.state.Cursors[id]; !ok {
		return false
	}
	c.Clamp(b.Len())
	b.state.Cursors[id] = c
	return true
}

func (b *Shared) CursorCount() int { return len(b.state.Cursors) }

func (b *Shared) rebase(pos, delta int) {
	for id, c := range b.state.Cursors {
		c.ShiftRelativeTo(pos, delta)
		b.state.Cursors[id] = c
	}
}

// InsertAt inserts r at pos and rebases every cursor.
func (b *Shared) InsertAt(pos int, r rune) {
	if pos < 0 || pos > b.Len() {
		return
	}
	b.record()
	b.state.Content.Insert(pos, r)
	b.rebase(pos, 1)
	b.dirty = true
}

// RemoveAt removes the character at pos and rebases every cursor.
func (b *Shared) RemoveAt(pos int) {
	if pos < 0 || pos >= b.Len() {
		return
	}
	b.record()
	b.state.Content.Remove(pos)
	b.rebase(pos, -1)
	b.dirty = true
}

func (b *Shared) InsertStringAt(pos int, s string) {
	for _, r := range s {
		b.InsertAt(pos, r)
		pos++
	}
}

// RemoveRange removes the characters in [start, end).
func (b *Shared) RemoveRange(start, end int) {
	start = max(0, start)
	end = min(end, b.Len())
	for i := start; i < end; i++ {
		b.RemoveAt(start)
	}
}

// Text returns the characters in [start, end).
func (b *Shared) Text(start, end int) string {
	runes := make([]rune, 0, max(0, end-start))
	i := 0
	for r := range b.state.Content.Chars() {
		if i >= end {
			break
		}
		if i >= start {
			runes = append(runes, r)
		}
		i++
	}
	return string(runes)
}

// InsertLine adds text as a new line at row, shifting cursors below it.
func (b *Shared) InsertLine(row int, text string) {
	content := b.state.Content
	if row <= 0 {
		b.InsertStringAt(0, text+"\n")
		return
	}
	if row >= content.LineCount() {
		b.InsertStringAt(b.Len(), "\n"+text)
		return
	}
	b.InsertStringAt(content.LineStart(row), text+"\n")
}

func (b *Shared) Insert(id CursorID, r rune) {
	if c, ok := b.Cursor(id); ok {
		b.InsertAt(c.Pos, r)
	}
}

func (b *Shared) InsertString(id CursorID, s string) {
	for _, r := range s {
		b.Insert(id, r)
	}
}

func (b *Shared) Backspace(id CursorID) {
	if c, ok := b.Cursor(id); ok && c.Pos > 0 {
		b.RemoveAt(c.Pos - 1)
	}
}

func (b *Shared) Delete(id CursorID) {
	if c, ok := b.Cursor(id); ok {
		b.RemoveAt(c.Pos)
	}
}

func (b *Shared) PosLoc(pos int) Loc {
	return b.state.Content.PosLoc(pos, b.cfg)
}

func (b *Shared) LocPos(loc Loc) int {
	return b.state.Content.LocPos(loc, b.cfg)
}

// Guard binds the buffer to one cursor for the duration of a command.
func (b *Shared) Guard(id CursorID) (*Guard, bool) {
	if _, ok := b.state.Cursors[id]; !ok {
		return nil, false
	}
	return &Guard{buf: b, id: id}, true
}
