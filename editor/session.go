package editor

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"zte/buffer"
	"zte/log"
)

type sessionData struct {
	WorkingDir string      `json:"working_dir"`
	Active     int         `json:"active_view"`
	Views      []viewState `json:"views"`
}

type viewState struct {
	Path    string `json:"path"`
	Base    int    `json:"base"`
	Pos     int    `json:"pos"`
	ScrollY int    `json:"scroll_y"`
	ScrollX int    `json:"scroll_x"`
}

// DataDir is where sessions and recovery backups are kept.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "zte")
}

func sessionPath(dataDir, workDir string) string {
	hash := sha256.Sum256([]byte(workDir))
	return filepath.Join(dataDir, "sessions", fmt.Sprintf("%x.json", hash[:8]))
}

// SaveSession records the file-backed views for the working directory.
// With none open, any earlier session for it is removed.
func (e *Editor) SaveSession() error {
	if e.dataDir == "" {
		return nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}
	path := sessionPath(e.dataDir, wd)

	session := sessionData{WorkingDir: wd}
	for i, v := range e.views {
		h := v.proc.View()
		buf, ok := e.reg.Buffer(h.Buffer)
		if !ok || buf.Path() == "" {
			continue
		}
		cur, _ := buf.Cursor(h.Cursor)
		if i == e.active {
			session.Active = len(session.Views)
		}
		session.Views = append(session.Views, viewState{
			Path:    buf.Path(),
			Base:    cur.Base,
			Pos:     cur.Pos,
			ScrollY: v.scrollY,
			ScrollX: v.scrollX,
		})
	}

	if len(session.Views) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	log.Debug(log.CatUI, "session saved", "views", len(session.Views))
	return nil
}

// RestoreSession reopens the views saved for the working directory. It
// only runs before any view exists and reports whether one was restored.
func (e *Editor) RestoreSession() bool {
	if len(e.views) > 0 || e.dataDir == "" {
		return false
	}
	wd, err := os.Getwd()
	if err != nil {
		return false
	}
	data, err := os.ReadFile(sessionPath(e.dataDir, wd))
	if err != nil {
		return false
	}
	var session sessionData
	if err := json.Unmarshal(data, &session); err != nil {
		log.Warn(log.CatUI, "ignoring corrupt session", "error", err)
		return false
	}
	if session.WorkingDir != wd {
		return false
	}

	var views []*view
	active := 0
	for i, vs := range session.Views {
		if _, err := os.Stat(vs.Path); err != nil {
			continue
		}
		h, err := e.reg.Open(vs.Path)
		if err != nil {
			log.Warn(log.CatUI, "cannot restore view", "path", vs.Path, "error", err)
			continue
		}
		buf, _ := e.reg.Buffer(h.Buffer)
		buf.SetCursor(h.Cursor, buffer.Cursor{Base: vs.Base, Pos: vs.Pos})

		v := &view{proc: NewProcessor(e.reg, h, Options{}, e.clip)}
		e.syncView(v)
		v.scrollY, v.scrollX = vs.ScrollY, vs.ScrollX
		if i == session.Active {
			active = len(views)
		}
		views = append(views, v)
	}
	if len(views) == 0 {
		return false
	}

	e.views = views
	e.active = active
	e.reg.SetRecent(views[active].proc.View())
	log.Info(log.CatUI, "session restored", "views", len(views))
	return true
}
