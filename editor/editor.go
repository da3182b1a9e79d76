package editor

import (
	"errors"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/gdamore/tcell/v2"

	"zte/buffer"
	"zte/config"
	"zte/highlight"
	"zte/log"
	"zte/ui"
)

// view is one pane. Several views may show the same buffer through
// different handles.
type view struct {
	proc    *Processor
	scrollY int
	scrollX int
}

// Editor is the terminal front-end: it decodes keys, routes commands to the
// focused view and handles the commands the processor hands back.
type Editor struct {
	cfg    *config.Config
	reg    *Registry
	clip   Clipboard
	hl     *highlight.Highlighter
	status *ui.StatusBar
	bar    *ui.BufferBar
	screen tcell.Screen
	watch  *Watcher

	views   []*view
	active  int
	prompt  *prompt
	dataDir string // sessions and recovery backups; empty disables both

	quit         bool
	quitPending  bool // a second Quit discards unsaved changes
	closePending bool // a second CloseBuffer forces the close
}

func New(cfg *config.Config, clip Clipboard) *Editor {
	e := &Editor{
		cfg:    cfg,
		reg:    NewRegistry(cfg.BufferOptions()...),
		clip:   clip,
		hl:     highlight.New(),
		status: ui.NewStatusBar(),
		bar:    ui.NewBufferBar(),

		dataDir: DataDir(),
	}
	e.status.Theme = cfg.GetTheme()
	e.bar.Theme = e.status.Theme
	return e
}

// OptionsFor derives the editing policy for a file in lang from cfg.
func OptionsFor(cfg *config.Config, lang string) Options {
	return Options{
		SoftTabs:       cfg.SoftTabs,
		AutoIndent:     cfg.AutoIndent,
		ExpandBrackets: cfg.ExpandBrackets,
		AutoClose:      cfg.AutoClose,
		PageSize:       cfg.PageSize,
		CommentPrefix:  highlight.CommentPrefix(lang),
	}
}

// Open loads files into the registry and shows the first one. Without
// files the editor starts on a scratch buffer.
func (e *Editor) Open(files []string) error {
	var first Handle
	have := false
	for _, f := range files {
		h, err := e.reg.Open(f)
		if err != nil {
			return err
		}
		if !have {
			first, have = h, true
			continue
		}
		e.reg.Release(h)
	}
	if !have {
		h, ok := e.reg.NewHandle(e.reg.NewBuffer())
		if !ok {
			return ErrNoBuffer
		}
		first = h
	}
	e.reg.SetRecent(first)

	v := &view{proc: NewProcessor(e.reg, first, Options{}, e.clip)}
	e.views = []*view{v}
	e.active = 0
	e.syncView(v)
	return nil
}

// Run drives the event loop on screen until Quit.
func (e *Editor) Run(screen tcell.Screen) error {
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	e.screen = screen

	if w, err := NewWatcher(screen.PostEvent); err != nil {
		log.ErrorErr(log.CatWatcher, "file watching disabled", err)
	} else {
		e.watch = w
		defer w.Close()
		for _, id := range e.reg.Buffers() {
			if buf, ok := e.reg.Buffer(id); ok {
				e.watchPath(buf.Path())
			}
		}
	}

	stopBackups := startBackups(screen.PostEvent)
	defer stopBackups()

	for !e.quit {
		e.Render()
		ev := screen.PollEvent()
		if ev == nil {
			break
		}
		e.HandleEvent(ev)
	}

	if err := e.SaveSession(); err != nil {
		log.ErrorErr(log.CatUI, "session not saved", err)
	}
	e.cleanAllBackups()
	return nil
}

func (e *Editor) Done() bool { return e.quit }

func (e *Editor) HandleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		if e.screen != nil {
			e.screen.Sync()
		}
	case *tcell.EventKey:
		if p := e.prompt; p != nil {
			if p.handleKey(ev) && e.prompt == p {
				e.prompt = nil
			}
			return
		}
		if cmd, ok := Decode(ev); ok {
			e.Dispatch(cmd)
		}
	case *FileEvent:
		e.handleFileEvent(ev)
	case *backupEvent:
		e.saveBackups()
	}
}

func (e *Editor) activeView() *view {
	return e.views[e.active]
}

func (e *Editor) activeBuffer() *buffer.Shared {
	buf, _ := e.reg.Buffer(e.activeView().proc.View().Buffer)
	return buf
}

// Dispatch runs cmd against the focused view.
func (e *Editor) Dispatch(cmd Command) {
	if _, ok := cmd.(Quit); !ok {
		e.quitPending = false
	}
	if c, ok := cmd.(CloseBuffer); ok {
		if e.closePending {
			c.Force = true
			cmd = c
		}
	} else {
		e.closePending = false
	}
	e.setMessage("")

	v := e.activeView()
	closing := e.activeBuffer().Path()

	err := v.proc.Handle(cmd)
	if uiCmd, ok := AsUnhandled(err); ok {
		e.handleUI(uiCmd)
		return
	}
	if err != nil {
		e.reportError(cmd, err)
		return
	}

	switch cmd.(type) {
	case Save:
		buf := e.activeBuffer()
		if buf.Path() == "" {
			e.promptSaveAs()
			return
		}
		e.cleanBackup(buf.Path())
		e.setMessage("Saved " + buf.Title())
	case SaveAs:
		e.syncView(v)
		e.cleanBackup(e.activeBuffer().Path())
		e.setMessage("Saved " + e.activeBuffer().Title())
	case CloseBuffer:
		e.closePending = false
		if e.watch != nil && closing != "" {
			e.watch.Unwatch(closing)
		}
		e.cleanBackup(closing)
		e.syncView(v)
	case NewBuffer, OpenFile, SwitchBuffer:
		e.syncView(v)
	}
}

func (e *Editor) reportError(cmd Command, err error) {
	log.ErrorErr(log.CatCommand, "command failed", err, "command", fmt.Sprintf("%T", cmd))
	switch {
	case errors.Is(err, ErrUnsavedChanges):
		e.closePending = true
		e.setError(e.activeBuffer().Title() + " has unsaved changes, close again to discard them")
	case errors.Is(err, ErrBufferInUse):
		e.setError("buffer is shown in another view")
	default:
		e.setError(err.Error())
	}
}

func (e *Editor) handleUI(cmd Command) {
	switch cmd := cmd.(type) {
	case Quit:
		e.requestQuit()
	case SplitView:
		e.split()
	case CloseView:
		e.closeView()
	case FocusView:
		e.focus(cmd.Dir)
	case OpenPrompt:
		e.prompt = &prompt{label: "Open: ", onSubmit: func(path string) {
			e.Dispatch(OpenFile{Path: path})
		}}
	case OpenSwitcher:
		e.switchToPrevious()
	case Escape:
		e.prompt = nil
	}
}

func (e *Editor) requestQuit() {
	dirty := false
	for _, id := range e.reg.Buffers() {
		if buf, ok := e.reg.Buffer(id); ok && buf.Dirty() && (buf.Path() != "" || buf.Len() > 0) {
			dirty = true
			break
		}
	}
	if dirty && !e.quitPending {
		e.quitPending = true
		e.setError("unsaved changes, quit again to discard them")
		return
	}
	e.quit = true
}

func (e *Editor) split() {
	cur := e.activeView()
	h, ok := e.reg.DuplicateHandle(cur.proc.View())
	if !ok {
		e.setError(ErrNoCursor.Error())
		return
	}
	v := &view{
		proc:    NewProcessor(e.reg, h, cur.proc.Options(), e.clip),
		scrollY: cur.scrollY,
	}
	e.active++
	e.views = append(e.views[:e.active], append([]*view{v}, e.views[e.active:]...)...)
	log.Debug(log.CatUI, "split view", "views", len(e.views))
}

func (e *Editor) closeView() {
	if len(e.views) == 1 {
		e.setError("cannot close the last view")
		return
	}
	e.reg.Release(e.activeView().proc.View())
	e.views = append(e.views[:e.active], e.views[e.active+1:]...)
	e.active = min(e.active, len(e.views)-1)
}

func (e *Editor) focus(dir buffer.Dir) {
	n := len(e.views)
	switch dir {
	case buffer.Left, buffer.Up:
		e.active = (e.active - 1 + n) % n
	default:
		e.active = (e.active + 1) % n
	}
}

// switchToPrevious flips to the most recently used other buffer.
func (e *Editor) switchToPrevious() {
	current := e.activeView().proc.View().Buffer
	for _, h := range e.reg.Recent() {
		if h.Buffer != current {
			e.Dispatch(SwitchBuffer{ID: h.Buffer})
			return
		}
	}
	e.setMessage("no other buffer")
}

func (e *Editor) promptSaveAs() {
	e.prompt = &prompt{label: "Save as: ", onSubmit: func(path string) {
		e.Dispatch(SaveAs{Path: path})
	}}
}

// syncView applies per-file settings to v's buffer and processor.
func (e *Editor) syncView(v *view) {
	buf, ok := e.reg.Buffer(v.proc.View().Buffer)
	if !ok {
		return
	}
	fc := e.cfg.ForFile(buf.Path())
	buf.SetConfig(buffer.Config{TabWidth: fc.TabSize})
	v.proc.SetOptions(OptionsFor(fc, highlight.DetectLanguage(buf.Path())))
	v.scrollX, v.scrollY = 0, 0
	e.watchPath(buf.Path())
}

func (e *Editor) watchPath(path string) {
	if e.watch == nil || path == "" {
		return
	}
	if err := e.watch.Watch(path); err != nil {
		log.Warn(log.CatWatcher, "cannot watch file", "path", path, "error", err)
	}
}

func (e *Editor) bufferAt(path string) *buffer.Shared {
	for _, id := range e.reg.Buffers() {
		if buf, ok := e.reg.Buffer(id); ok && buf.Path() == path {
			return buf
		}
	}
	return nil
}

// handleFileEvent reloads a clean buffer whose file changed and flags a
// dirty one instead.
func (e *Editor) handleFileEvent(ev *FileEvent) {
	buf := e.bufferAt(ev.Path)
	if buf == nil {
		return
	}

	if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		if _, err := os.Stat(ev.Path); err != nil {
			buf.MarkExternallyModified()
			e.setError(buf.Title() + " was removed on disk")
			return
		}
	}

	if buf.Dirty() {
		buf.MarkExternallyModified()
		e.setError(buf.Title() + " changed on disk")
		log.Info(log.CatWatcher, "conflict", "path", ev.Path)
		return
	}
	if err := buf.Reload(); err != nil {
		log.ErrorErr(log.CatWatcher, "reload failed", err, "path", ev.Path)
		e.setError(err.Error())
		return
	}
	e.hl.Invalidate()
	log.Debug(log.CatWatcher, "reloaded", "path", ev.Path)
}

func (e *Editor) setMessage(msg string) {
	e.status.Message = msg
	e.status.IsError = false
}

func (e *Editor) setError(msg string) {
	e.status.Message = msg
	e.status.IsError = true
}
