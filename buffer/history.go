package buffer

import (
	"maps"
	"time"
)

const (
	DefaultHistoryLimit = 256
	DefaultUndoWindow   = 300 * time.Millisecond
)

// Clock supplies the time used to coalesce edits into undo steps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type historyEntry struct {
	state *State
	stamp time.Time // zero for entries pushed by redo
}

// history keeps past states oldest first and future states with the next
// redo last.
type history struct {
	past   []historyEntry
	future []*State
	limit  int
	window time.Duration
}

func (h *history) pushPast(e historyEntry) {
	h.past = append(h.past, e)
	if over := len(h.past) - h.limit; over > 0 {
		clear(h.past[:over])
		h.past = h.past[over:]
	}
}

// record is called before every primitive mutation. Edits landing within
// the window of the newest entry extend it instead of adding a new one.
func (b *Shared) record() {
	b.hist.future = nil

	now := b.clock.Now()
	if n := len(b.hist.past); n > 0 {
		last := &b.hist.past[n-1]
		if !last.stamp.IsZero() && now.Sub(last.stamp) < b.hist.window {
			last.stamp = now
			return
		}
	}
	b.hist.pushPast(historyEntry{state: b.state.Clone(), stamp: now})
}

// detach hands the live state over to a history stack. The live content is
// replaced right after, so only the cursor map needs copying.
func (b *Shared) detach() *State {
	return &State{Content: b.state.Content, Cursors: maps.Clone(b.state.Cursors)}
}

func (b *Shared) CanUndo() bool { return len(b.hist.past) > 0 }

func (b *Shared) CanRedo() bool { return len(b.hist.future) > 0 }

// Undo restores the newest past state. It reports false when there is
// nothing to undo.
func (b *Shared) Undo() bool {
	n := len(b.hist.past)
	if n == 0 {
		return false
	}
	prev := b.hist.past[n-1]
	b.hist.past[n-1] = historyEntry{}
	b.hist.past = b.hist.past[:n-1]

	b.hist.future = append(b.hist.future, b.detach())
	b.restore(prev.state)
	b.dirty = true
	return true
}

func (b *Shared) Redo() bool {
	n := len(b.hist.future)
	if n == 0 {
		return false
	}
	next := b.hist.future[n-1]
	b.hist.future[n-1] = nil
	b.hist.future = b.hist.future[:n-1]

	b.hist.pushPast(historyEntry{state: b.detach()})
	b.restore(next)
	b.dirty = true
	return true
}
