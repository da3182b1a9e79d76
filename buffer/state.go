package buffer

import "maps"

type BufferID int

type CursorID int

// State is one point-in-time pairing of text and cursors; it is the unit
// that undo and redo swap in and out.
type State struct {
	Content *Content
	Cursors map[CursorID]Cursor
}

func NewState(content *Content) *State {
	return &State{
		Content: content,
		Cursors: make(map[CursorID]Cursor),
	}
}

func (s *State) Clone() *State {
	return &State{
		Content: s.Content.Clone(),
		Cursors: maps.Clone(s.Cursors),
	}
}

// AlignWith adopts other's text and cursors. Cursors that only exist in s
// are kept, clamped to the new text.
func (s *State) AlignWith(other *State) {
	s.Content = other.Content
	for id, c := range other.Cursors {
		s.Cursors[id] = c
	}
	limit := s.Content.Len()
	for id, c := range s.Cursors {
		c.Clamp(limit)
		s.Cursors[id] = c
	}
}
