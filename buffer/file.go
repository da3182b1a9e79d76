package buffer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CanonicalPath resolves path to the absolute, symlink-free form used to
// tell whether a file is already open.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// Open loads path into a new buffer. A missing file yields an empty buffer
// bound to that path and marked dirty, since nothing has been written yet.
func Open(path string, opts ...Option) (*Shared, error) {
	full, err := CanonicalPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b := newShared(NewContent(""), true, opts...)
			b.path = full
			return b, nil
		}
		return nil, fmt.Errorf("read %s: %w", full, err)
	}

	b := newShared(NewContent(string(data)), false, opts...)
	b.path = full
	return b, nil
}

// Save writes the text to the buffer's path. Scratch buffers have no path
// and are left untouched until one is attached with SaveAs.
func (b *Shared) Save() error {
	if b.path == "" {
		return nil
	}
	if err := os.WriteFile(b.path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write %s: %w", b.path, err)
	}
	b.dirty = false
	b.external = false
	return nil
}

// SetPath binds the buffer to path without writing it.
func (b *Shared) SetPath(path string) error {
	full, err := CanonicalPath(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	b.path = full
	return nil
}

func (b *Shared) SaveAs(path string) error {
	if err := b.SetPath(path); err != nil {
		return err
	}
	return b.Save()
}

// Reload replaces the text with the file's current contents. The previous
// text stays reachable through undo. Reloading unchanged contents leaves
// the history alone.
func (b *Shared) Reload() error {
	if b.path == "" {
		return nil
	}
	data, err := os.ReadFile(b.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", b.path, err)
	}
	b.external = false
	if string(data) == b.String() {
		b.dirty = false
		return nil
	}

	b.hist.future = nil
	b.hist.pushPast(historyEntry{state: b.detach()})
	b.state.AlignWith(&State{Content: NewContent(string(data))})
	b.dirty = false
	return nil
}
