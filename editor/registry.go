package editor

import (
	"fmt"
	"slices"

	"zte/buffer"
	"zte/log"
)

// closeThreshold is the reference count at which a buffer may be closed:
// the most-recently-used entry plus the handle doing the closing.
const closeThreshold = 2

type refCount struct {
	n int
}

// Handle addresses one cursor in one buffer. Views hold handles instead of
// buffers; every access goes through the Registry.
type Handle struct {
	Buffer buffer.BufferID
	Cursor buffer.CursorID
	refs   *refCount
}

type entry struct {
	buf  *buffer.Shared
	refs *refCount
	busy bool
}

// Registry owns every open buffer.
type Registry struct {
	buffers map[buffer.BufferID]*entry
	lastID  buffer.BufferID
	recent  []Handle // least recently used first
	opts    []buffer.Option
}

func NewRegistry(opts ...buffer.Option) *Registry {
	return &Registry{
		buffers: make(map[buffer.BufferID]*entry),
		opts:    opts,
	}
}

// Insert registers buf and records it as the most recently used buffer.
func (r *Registry) Insert(buf *buffer.Shared) buffer.BufferID {
	r.lastID++
	id := r.lastID
	r.buffers[id] = &entry{buf: buf, refs: &refCount{}}
	if h, ok := r.NewHandle(id); ok {
		r.recent = append(r.recent, h)
	}
	log.Debug(log.CatRegistry, "buffer registered", "id", id, "title", buf.Title())
	return id
}

func (r *Registry) NewBuffer() buffer.BufferID {
	return r.Insert(buffer.New(r.opts...))
}

// Open returns a fresh handle to path, reusing the buffer if the file is
// already open.
func (r *Registry) Open(path string) (Handle, error) {
	full, err := buffer.CanonicalPath(path)
	if err != nil {
		return Handle{}, fmt.Errorf("open %s: %w", path, err)
	}

	id, ok := r.findPath(full)
	if !ok {
		buf, err := buffer.Open(full, r.opts...)
		if err != nil {
			return Handle{}, err
		}
		id = r.Insert(buf)
	}

	h, ok := r.NewHandle(id)
	if !ok {
		return Handle{}, ErrNoBuffer
	}
	return h, nil
}

func (r *Registry) findPath(full string) (buffer.BufferID, bool) {
	for _, id := range r.Buffers() {
		if r.buffers[id].buf.Path() == full {
			return id, true
		}
	}
	return 0, false
}

// NewHandle attaches a new cursor at the start of the buffer.
func (r *Registry) NewHandle(id buffer.BufferID) (Handle, bool) {
	e, ok := r.buffers[id]
	if !ok {
		return Handle{}, false
	}
	e.refs.n++
	return Handle{
		Buffer: id,
		Cursor: e.buf.InsertCursor(buffer.At(0)),
		refs:   e.refs,
	}, true
}

// DuplicateHandle attaches a new cursor that starts as a copy of h's.
func (r *Registry) DuplicateHandle(h Handle) (Handle, bool) {
	e, ok := r.buffers[h.Buffer]
	if !ok {
		return Handle{}, false
	}
	c, ok := e.buf.Cursor(h.Cursor)
	if !ok {
		return Handle{}, false
	}
	e.refs.n++
	return Handle{
		Buffer: h.Buffer,
		Cursor: e.buf.InsertCursor(c),
		refs:   e.refs,
	}, true
}

// Release drops h's cursor. The buffer stays registered.
func (r *Registry) Release(h Handle) {
	if h.refs != nil && h.refs.n > 0 {
		h.refs.n--
	}
	if e, ok := r.buffers[h.Buffer]; ok {
		e.buf.RemoveCursor(h.Cursor)
	}
}

// With runs fn with exclusive access to h's buffer through h's cursor.
func (r *Registry) With(h Handle, fn func(g *buffer.Guard) error) error {
	e, ok := r.buffers[h.Buffer]
	if !ok {
		return ErrNoBuffer
	}
	if e.busy {
		return ErrBufferBusy
	}
	g, ok := e.buf.Guard(h.Cursor)
	if !ok {
		return ErrNoCursor
	}

	e.busy = true
	defer func() { e.busy = false }()
	return fn(g)
}

func (r *Registry) Buffer(id buffer.BufferID) (*buffer.Shared, bool) {
	e, ok := r.buffers[id]
	if !ok {
		return nil, false
	}
	return e.buf, true
}

// Buffers lists the registered buffer ids in creation order.
func (r *Registry) Buffers() []buffer.BufferID {
	ids := make([]buffer.BufferID, 0, len(r.buffers))
	for id := range r.buffers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Recent lists the most-recently-used entries, newest first.
func (r *Registry) Recent() []Handle {
	out := slices.Clone(r.recent)
	slices.Reverse(out)
	return out
}

// SetRecent makes h's buffer the most recently used one, remembering a
// copy of h's cursor.
func (r *Registry) SetRecent(h Handle) {
	dup, ok := r.DuplicateHandle(h)
	if !ok {
		return
	}
	r.dropRecent(h.Buffer)
	r.recent = append(r.recent, dup)
}

func (r *Registry) dropRecent(id buffer.BufferID) {
	r.recent = slices.DeleteFunc(r.recent, func(old Handle) bool {
		if old.Buffer != id {
			return false
		}
		r.Release(old)
		return true
	})
}

func (r *Registry) RefCount(id buffer.BufferID) int {
	e, ok := r.buffers[id]
	if !ok {
		return 0
	}
	return e.refs.n
}

// CanClose reports whether no view besides the closing one still shows
// the buffer.
func (r *Registry) CanClose(id buffer.BufferID) bool {
	e, ok := r.buffers[id]
	return ok && e.refs.n <= closeThreshold
}

// Close removes h's buffer and its history. Dirty buffers are only closed
// with force.
func (r *Registry) Close(h Handle, force bool) error {
	e, ok := r.buffers[h.Buffer]
	if !ok {
		return ErrNoBuffer
	}
	if e.busy {
		return ErrBufferBusy
	}
	if !r.CanClose(h.Buffer) {
		return ErrBufferInUse
	}
	if e.buf.Dirty() && !force {
		return ErrUnsavedChanges
	}

	r.dropRecent(h.Buffer)
	r.Release(h)
	delete(r.buffers, h.Buffer)
	log.Debug(log.CatRegistry, "buffer closed", "id", h.Buffer, "title", e.buf.Title())
	return nil
}
