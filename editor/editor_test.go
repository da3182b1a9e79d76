package editor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zte/buffer"
	"zte/config"
)

func newTestEditor(t *testing.T, files ...string) (*Editor, tcell.SimulationScreen) {
	t.Helper()
	e := New(config.Default(), &memClipboard{})
	e.dataDir = t.TempDir()
	require.NoError(t, e.Open(files))

	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(40, 8)
	e.screen = screen
	return e, screen
}

func writeFile(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	full, err := buffer.CanonicalPath(path)
	require.NoError(t, err)
	return full
}

func press(e *Editor, k tcell.Key, mod tcell.ModMask) {
	e.HandleEvent(tcell.NewEventKey(k, 0, mod))
}

func typeText(e *Editor, s string) {
	for _, r := range s {
		e.HandleEvent(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func screenRow(screen tcell.SimulationScreen, y int) string {
	w, _ := screen.Size()
	var b strings.Builder
	for x := range w {
		r, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func viewCursor(e *Editor, i int) buffer.Cursor {
	h := e.views[i].proc.View()
	buf, _ := e.reg.Buffer(h.Buffer)
	c, _ := buf.Cursor(h.Cursor)
	return c
}

func TestEditorTyping(t *testing.T) {
	e, _ := newTestEditor(t)

	typeText(e, "hi")
	press(e, tcell.KeyEnter, tcell.ModNone)
	typeText(e, "x")

	assert.Equal(t, "hi\nx", e.activeBuffer().String())
	assert.Equal(t, buffer.At(4), viewCursor(e, 0))
}

func TestEditorSplitSharesBuffer(t *testing.T) {
	e, _ := newTestEditor(t)
	typeText(e, "abc")

	press(e, tcell.KeyCtrlBackslash, tcell.ModNone)
	require.Len(t, e.views, 2)
	assert.Equal(t, 1, e.active)
	assert.Equal(t, e.views[0].proc.View().Buffer, e.views[1].proc.View().Buffer)
	assert.Equal(t, buffer.At(3), viewCursor(e, 1), "split copies the cursor")

	for range 3 {
		e.Dispatch(Move{Dir: buffer.Left})
	}
	typeText(e, "X")

	assert.Equal(t, "Xabc", e.activeBuffer().String())
	assert.Equal(t, buffer.At(4), viewCursor(e, 0), "other view follows the edit")
	assert.Equal(t, buffer.At(1), viewCursor(e, 1))

	id := e.views[0].proc.View().Buffer
	refs := e.reg.RefCount(id)
	e.Dispatch(CloseView{})
	assert.Len(t, e.views, 1)
	assert.Equal(t, 0, e.active)
	assert.Equal(t, refs-1, e.reg.RefCount(id))

	e.Dispatch(CloseView{})
	assert.Len(t, e.views, 1)
	assert.True(t, e.status.IsError)
}

func TestEditorFocusWraps(t *testing.T) {
	e, _ := newTestEditor(t)
	e.Dispatch(SplitView{})
	e.Dispatch(SplitView{})
	require.Len(t, e.views, 3)
	assert.Equal(t, 2, e.active)

	e.Dispatch(FocusView{Dir: buffer.Right})
	assert.Equal(t, 0, e.active)
	e.Dispatch(FocusView{Dir: buffer.Left})
	assert.Equal(t, 2, e.active)
}

func TestEditorQuit(t *testing.T) {
	e, _ := newTestEditor(t)
	press(e, tcell.KeyCtrlQ, tcell.ModNone)
	assert.True(t, e.Done(), "an empty scratch buffer does not block quitting")
}

func TestEditorQuitWithUnsavedChanges(t *testing.T) {
	e, _ := newTestEditor(t)
	typeText(e, "a")

	e.Dispatch(Quit{})
	assert.False(t, e.Done())
	assert.True(t, e.status.IsError)

	typeText(e, "b")
	e.Dispatch(Quit{})
	assert.False(t, e.Done(), "an edit in between resets the confirmation")

	e.Dispatch(Quit{})
	assert.True(t, e.Done())
}

func TestEditorCloseBufferTwiceDiscards(t *testing.T) {
	path := writeFile(t, "a.txt", "text")
	e, _ := newTestEditor(t, path)
	typeText(e, "x")

	e.Dispatch(CloseBuffer{})
	assert.Equal(t, path, e.activeBuffer().Path())
	assert.True(t, e.status.IsError)

	e.Dispatch(CloseBuffer{})
	assert.Empty(t, e.activeBuffer().Path())
	assert.Len(t, e.reg.Buffers(), 1)
	assert.False(t, e.closePending)
}

func TestEditorOpenPrompt(t *testing.T) {
	path := writeFile(t, "notes.txt", "from disk")
	e, screen := newTestEditor(t)

	press(e, tcell.KeyCtrlO, tcell.ModNone)
	require.NotNil(t, e.prompt)
	typeText(e, path+"!")
	press(e, tcell.KeyBackspace2, tcell.ModNone)

	e.Render()
	_, h := screen.Size()
	assert.True(t, strings.HasPrefix(screenRow(screen, h-1), "Open: "))

	press(e, tcell.KeyEnter, tcell.ModNone)
	assert.Nil(t, e.prompt)
	assert.Equal(t, path, e.activeBuffer().Path())
	assert.Equal(t, "from disk", e.activeBuffer().String())
}

func TestEditorPromptEscape(t *testing.T) {
	e, _ := newTestEditor(t)
	press(e, tcell.KeyCtrlO, tcell.ModNone)
	typeText(e, "abc")
	press(e, tcell.KeyEscape, tcell.ModNone)

	assert.Nil(t, e.prompt)
	assert.Empty(t, e.activeBuffer().String(), "prompt input never reaches the buffer")
}

func TestEditorSaveUntitledPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	e, _ := newTestEditor(t)
	typeText(e, "data")

	press(e, tcell.KeyCtrlS, tcell.ModNone)
	require.NotNil(t, e.prompt)
	assert.Equal(t, "Save as: ", e.prompt.text())

	typeText(e, path)
	press(e, tcell.KeyEnter, tcell.ModNone)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	assert.Equal(t, "out.txt", e.activeBuffer().Title())
	assert.False(t, e.activeBuffer().Dirty())
	assert.Equal(t, "Saved out.txt", e.status.Message)
}

func TestEditorSwitcherTogglesRecent(t *testing.T) {
	a := writeFile(t, "a.txt", "alpha")
	b := writeFile(t, "b.txt", "beta")
	e, _ := newTestEditor(t, a, b)
	require.Equal(t, a, e.activeBuffer().Path())

	e.Dispatch(Move{Dir: buffer.Right})
	e.Dispatch(Move{Dir: buffer.Right})

	press(e, tcell.KeyCtrlP, tcell.ModNone)
	assert.Equal(t, b, e.activeBuffer().Path())

	press(e, tcell.KeyCtrlP, tcell.ModNone)
	assert.Equal(t, a, e.activeBuffer().Path())
	assert.Equal(t, buffer.At(2), viewCursor(e, 0), "switching back restores the position")
}

func TestEditorReloadsCleanBuffer(t *testing.T) {
	path := writeFile(t, "w.txt", "one")
	e, _ := newTestEditor(t, path)

	require.NoError(t, os.WriteFile(path, []byte("two"), 0644))
	e.HandleEvent(&FileEvent{Path: path, Op: fsnotify.Write})

	buf := e.activeBuffer()
	assert.Equal(t, "two", buf.String())
	assert.False(t, buf.Dirty())
	assert.False(t, buf.ExternallyModified())
}

func TestEditorFlagsDirtyBufferOnChange(t *testing.T) {
	path := writeFile(t, "w.txt", "one")
	e, _ := newTestEditor(t, path)
	typeText(e, "x")

	require.NoError(t, os.WriteFile(path, []byte("two"), 0644))
	e.HandleEvent(&FileEvent{Path: path, Op: fsnotify.Write})

	buf := e.activeBuffer()
	assert.Equal(t, "xone", buf.String())
	assert.True(t, buf.ExternallyModified())
	assert.True(t, e.status.IsError)
}

func TestEditorFlagsRemovedFile(t *testing.T) {
	path := writeFile(t, "w.txt", "one")
	e, _ := newTestEditor(t, path)

	require.NoError(t, os.Remove(path))
	e.HandleEvent(&FileEvent{Path: path, Op: fsnotify.Remove})

	buf := e.activeBuffer()
	assert.Equal(t, "one", buf.String())
	assert.True(t, buf.ExternallyModified())
	assert.Contains(t, e.status.Message, "removed")
}

func TestEditorIgnoresEventsForUnknownFiles(t *testing.T) {
	e, _ := newTestEditor(t)
	e.HandleEvent(&FileEvent{Path: "/nowhere/else.txt", Op: fsnotify.Write})
	assert.Empty(t, e.status.Message)
}

func TestEditorRender(t *testing.T) {
	path := writeFile(t, "hello.txt", "hello\nworld")
	e, screen := newTestEditor(t, path)
	screen.SetSize(30, 5)

	e.Render()
	assert.True(t, strings.HasPrefix(screenRow(screen, 0), " 1 hello"), screenRow(screen, 0))
	assert.True(t, strings.HasPrefix(screenRow(screen, 1), " 2 world"), screenRow(screen, 1))
	assert.Equal(t, '~', []rune(screenRow(screen, 2))[0])
	assert.Contains(t, screenRow(screen, 4), "hello.txt")

	x, y, visible := screen.GetCursor()
	assert.True(t, visible)
	assert.Equal(t, 3, x)
	assert.Equal(t, 0, y)

	e.Dispatch(Move{Dir: buffer.Down})
	e.Dispatch(Move{Dir: buffer.Right})
	e.Render()
	x, y, _ = screen.GetCursor()
	assert.Equal(t, 4, x)
	assert.Equal(t, 1, y)
}

func TestEditorRenderExpandsTabs(t *testing.T) {
	path := writeFile(t, "tabs.txt", "\tx")
	e, screen := newTestEditor(t, path)

	e.Render()
	assert.True(t, strings.HasPrefix(screenRow(screen, 0), " 1     x"), screenRow(screen, 0))
}

func TestEditorRenderScrollsToCursor(t *testing.T) {
	path := writeFile(t, "long.txt", "a\nb\nc\nd\ne\nf")
	e, screen := newTestEditor(t, path)
	screen.SetSize(20, 4)

	for range 5 {
		e.Dispatch(Move{Dir: buffer.Down})
	}
	e.Render()

	assert.Equal(t, 3, e.views[0].scrollY)
	assert.True(t, strings.HasPrefix(screenRow(screen, 2), " 6 f"), screenRow(screen, 2))
	_, y, _ := screen.GetCursor()
	assert.Equal(t, 2, y)
}

func TestEditorRenderSplitDivider(t *testing.T) {
	e, screen := newTestEditor(t)
	screen.SetSize(41, 6)
	e.Dispatch(SplitView{})

	e.Render()
	row := []rune(screenRow(screen, 0))
	assert.Equal(t, '│', row[20])
	assert.Equal(t, 2, e.status.View)
	assert.Equal(t, 2, e.status.Views)
}

func TestEditorStatusSelection(t *testing.T) {
	e, _ := newTestEditor(t)
	typeText(e, "ab")
	press(e, tcell.KeyEnter, tcell.ModNone)
	typeText(e, "cd")

	e.Dispatch(Move{Dir: buffer.Up, Reach: true})
	e.updateStatus()
	assert.Equal(t, 3, e.status.SelChars)
	assert.Equal(t, 2, e.status.SelLines)
	assert.Equal(t, 0, e.status.Line)
	assert.Equal(t, 2, e.status.Col)
	assert.Equal(t, "Spaces: 4", e.status.TabInfo)
}

func TestEditorBufferBarWithSeveralBuffers(t *testing.T) {
	a := writeFile(t, "a.txt", "alpha")
	b := writeFile(t, "b.txt", "beta")
	e, screen := newTestEditor(t, a, b)

	e.Render()
	bar := screenRow(screen, 0)
	assert.Contains(t, bar, "a.txt")
	assert.Contains(t, bar, "b.txt")
	assert.Equal(t, 0, e.bar.Active)
	assert.True(t, strings.HasPrefix(screenRow(screen, 1), " 1 alpha"), screenRow(screen, 1))

	typeText(e, "x")
	e.Render()
	assert.Contains(t, screenRow(screen, 0), "*a.txt")
}
