package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zte/buffer"
)

type memClipboard struct {
	text string
}

func (m *memClipboard) Read() string { return m.text }

func (m *memClipboard) Write(text string) bool {
	m.text = text
	return true
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

type fixture struct {
	reg   *Registry
	p     *Processor
	clip  *memClipboard
	clock *stepClock
}

func newFixture(t *testing.T, text string, opts Options) *fixture {
	t.Helper()
	clock := &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg := NewRegistry(buffer.WithClock(clock))
	id := reg.Insert(buffer.NewFromString(text, buffer.WithClock(clock)))
	h, ok := reg.NewHandle(id)
	require.True(t, ok)
	clip := &memClipboard{}
	return &fixture{reg: reg, p: NewProcessor(reg, h, opts, clip), clip: clip, clock: clock}
}

func (f *fixture) text() string {
	buf, _ := f.reg.Buffer(f.p.View().Buffer)
	return buf.String()
}

func (f *fixture) cursor() buffer.Cursor {
	buf, _ := f.reg.Buffer(f.p.View().Buffer)
	c, _ := buf.Cursor(f.p.View().Cursor)
	return c
}

func (f *fixture) setCursor(c buffer.Cursor) {
	buf, _ := f.reg.Buffer(f.p.View().Buffer)
	buf.SetCursor(f.p.View().Cursor, c)
}

func (f *fixture) run(t *testing.T, cmds ...Command) {
	t.Helper()
	for _, cmd := range cmds {
		require.NoError(t, f.p.Handle(cmd), "command %T", cmd)
	}
}

func plainOptions() Options {
	return Options{PageSize: 2, CommentPrefix: "//"}
}

func TestInsertNewlineWithoutAutoIndent(t *testing.T) {
	f := newFixture(t, "hello\nworld", plainOptions())
	f.setCursor(buffer.At(5))

	f.run(t, Insert{Char: '\n'})

	assert.Equal(t, "hello\n\nworld", f.text())
	assert.Equal(t, buffer.At(6), f.cursor())
}

func TestInsertNewlineExpandsBracePair(t *testing.T) {
	f := newFixture(t, "if x {}", DefaultOptions())
	f.setCursor(buffer.At(6))

	f.run(t, Insert{Char: '\n'})

	assert.Equal(t, "if x {\n    \n}", f.text())
	assert.Equal(t, buffer.At(11), f.cursor())
	buf, _ := f.reg.Buffer(f.p.View().Buffer)
	assert.Equal(t, buffer.Loc{Col: 4, Row: 1}, buf.PosLoc(f.cursor().Pos))
}

func TestInsertNewlineCopiesIndent(t *testing.T) {
	f := newFixture(t, "\tfoo", Options{AutoIndent: true, ExpandBrackets: true})
	f.setCursor(buffer.At(4))

	f.run(t, Insert{Char: '\n'})

	assert.Equal(t, "\tfoo\n\t", f.text())
	assert.Equal(t, buffer.At(6), f.cursor())
}

func TestInsertNewlineAfterOpenerWithoutCloserAddsOneLevel(t *testing.T) {
	f := newFixture(t, "  f(", Options{AutoIndent: true, ExpandBrackets: true})
	f.setCursor(buffer.At(4))

	f.run(t, Insert{Char: '\n'})

	assert.Equal(t, "  f(\n  \t", f.text())
	assert.Equal(t, buffer.At(8), f.cursor())
}

func TestInsertReplacesSelection(t *testing.T) {
	f := newFixture(t, "abcdef", plainOptions())
	f.setCursor(buffer.Cursor{Base: 4, Pos: 1})

	f.run(t, Insert{Char: 'x'})

	assert.Equal(t, "axef", f.text())
	assert.Equal(t, buffer.At(2), f.cursor())
}

func TestInsertAutoClosesBrackets(t *testing.T) {
	opts := plainOptions()
	opts.AutoClose = true
	f := newFixture(t, "", opts)

	f.run(t, Insert{Char: '('}, Insert{Char: 'a'})

	assert.Equal(t, "(a)", f.text())
	assert.Equal(t, buffer.At(2), f.cursor())
}

func TestInsertStepsOverAutoClosedBracket(t *testing.T) {
	opts := plainOptions()
	opts.AutoClose = true
	f := newFixture(t, "", opts)

	f.run(t, Insert{Char: '('}, Insert{Char: ')'})
	assert.Equal(t, "()", f.text())
	assert.Equal(t, buffer.At(2), f.cursor())

	f.run(t, Insert{Char: ')'})
	assert.Equal(t, "())", f.text())
}

func TestInsertStepsOverNestedClosers(t *testing.T) {
	opts := plainOptions()
	opts.AutoClose = true
	f := newFixture(t, "", opts)

	f.run(t, Insert{Char: '('}, Insert{Char: '['}, Insert{Char: 'a'}, Insert{Char: ']'}, Insert{Char: ')'})

	assert.Equal(t, "([a])", f.text())
	assert.Equal(t, buffer.At(5), f.cursor())
}

func TestAutoClosedBracketForgottenAfterMove(t *testing.T) {
	opts := plainOptions()
	opts.AutoClose = true
	f := newFixture(t, "", opts)

	f.run(t, Insert{Char: '('}, Move{Dir: buffer.Left}, Move{Dir: buffer.Right}, Insert{Char: ')'})

	assert.Equal(t, "())", f.text())
}

func TestTwoViewsShareRebasing(t *testing.T) {
	f := newFixture(t, "abcdefghij", plainOptions())
	f.setCursor(buffer.At(3))

	other, ok := f.reg.NewHandle(f.p.View().Buffer)
	require.True(t, ok)
	buf, _ := f.reg.Buffer(other.Buffer)
	buf.SetCursor(other.Cursor, buffer.At(8))

	f.run(t, Insert{Char: 'x'})

	assert.Equal(t, buffer.At(4), f.cursor())
	c, _ := buf.Cursor(other.Cursor)
	assert.Equal(t, buffer.At(9), c)
}

func TestSoftTabInsertsToNextStop(t *testing.T) {
	opts := plainOptions()
	opts.SoftTabs = true
	f := newFixture(t, "ab", opts)
	f.setCursor(buffer.At(2))

	f.run(t, Insert{Char: '\t'})

	assert.Equal(t, "ab  ", f.text())
	assert.Equal(t, buffer.At(4), f.cursor())
}

func TestHardTabInsertsTab(t *testing.T) {
	f := newFixture(t, "ab", plainOptions())
	f.setCursor(buffer.At(2))
	f.run(t, Insert{Char: '\t'})
	assert.Equal(t, "ab\t", f.text())
}

func TestTabOverMultiLineSelectionIndents(t *testing.T) {
	opts := plainOptions()
	opts.SoftTabs = true
	f := newFixture(t, "a\nb\nc", opts)
	f.setCursor(buffer.Cursor{Base: 1, Pos: 3})

	f.run(t, Insert{Char: '\t'})

	assert.Equal(t, "    a\n    b\nc", f.text())
	assert.Equal(t, buffer.Cursor{Base: 5, Pos: 11}, f.cursor())
}

func TestBackspaceCollapsesSoftTab(t *testing.T) {
	opts := plainOptions()
	opts.SoftTabs = true
	f := newFixture(t, "        x", opts)
	f.setCursor(buffer.At(8))

	f.run(t, Backspace{})
	assert.Equal(t, "    x", f.text())

	f.setCursor(buffer.At(4))
	f.run(t, Insert{Char: ' '}, Insert{Char: ' '}, Backspace{})
	assert.Equal(t, "    x", f.text())
	assert.Equal(t, buffer.At(4), f.cursor())
}

func TestBackspaceAfterTextIsSingleCharacter(t *testing.T) {
	opts := plainOptions()
	opts.SoftTabs = true
	f := newFixture(t, "ab    ", opts)
	f.setCursor(buffer.At(6))

	f.run(t, Backspace{})

	assert.Equal(t, "ab   ", f.text())
}

func TestBackspaceDeletesSelection(t *testing.T) {
	f := newFixture(t, "hello world", plainOptions())
	f.setCursor(buffer.Cursor{Base: 5, Pos: 11})

	f.run(t, Backspace{})

	assert.Equal(t, "hello", f.text())
	assert.Equal(t, buffer.At(5), f.cursor())
}

func TestBackspaceWord(t *testing.T) {
	f := newFixture(t, "foo bar", plainOptions())
	f.setCursor(buffer.At(7))

	f.run(t, BackspaceWord{})
	assert.Equal(t, "foo ", f.text())

	f.run(t, BackspaceWord{})
	assert.Equal(t, "", f.text())
}

func TestDeleteForward(t *testing.T) {
	f := newFixture(t, "ab\ncd", plainOptions())
	f.setCursor(buffer.At(2))

	f.run(t, Delete{})
	assert.Equal(t, "abcd", f.text())

	f.setCursor(buffer.At(4))
	f.run(t, Delete{})
	assert.Equal(t, "abcd", f.text())
}

func TestMoveCollapsesSelectionFirst(t *testing.T) {
	f := newFixture(t, "abcdefgh", plainOptions())
	f.setCursor(buffer.Cursor{Base: 2, Pos: 5})

	f.run(t, Move{Dir: buffer.Left})
	assert.Equal(t, buffer.At(2), f.cursor())

	f.run(t, Move{Dir: buffer.Left})
	assert.Equal(t, buffer.At(1), f.cursor())
}

func TestMoveRightCollapsesToFarEdge(t *testing.T) {
	f := newFixture(t, "abcdefgh", plainOptions())
	f.setCursor(buffer.Cursor{Base: 5, Pos: 2})

	f.run(t, Move{Dir: buffer.Right})
	assert.Equal(t, buffer.At(5), f.cursor())
}

func TestMoveWithReachExtendsSelection(t *testing.T) {
	f := newFixture(t, "abcdefgh", plainOptions())
	f.setCursor(buffer.At(2))

	f.run(t, Move{Dir: buffer.Right, Reach: true}, Move{Dir: buffer.Right, Reach: true})

	assert.Equal(t, buffer.Cursor{Base: 2, Pos: 4}, f.cursor())
}

func TestMoveClampsAtEdges(t *testing.T) {
	f := newFixture(t, "ab\ncd", plainOptions())

	f.run(t, Move{Dir: buffer.Left}, Move{Dir: buffer.Up})
	assert.Equal(t, buffer.At(0), f.cursor())

	f.setCursor(buffer.At(4))
	f.run(t, Move{Dir: buffer.Down})
	assert.Equal(t, buffer.At(5), f.cursor())
	f.run(t, Move{Dir: buffer.Right})
	assert.Equal(t, buffer.At(5), f.cursor())
}

func TestVerticalMoveRemembersColumn(t *testing.T) {
	f := newFixture(t, "abcdef\nab\nabcdef", plainOptions())
	f.setCursor(buffer.At(5))

	f.run(t, Move{Dir: buffer.Down})
	assert.Equal(t, buffer.At(9), f.cursor())

	f.run(t, Move{Dir: buffer.Down})
	assert.Equal(t, buffer.At(15), f.cursor())

	f.run(t, Move{Dir: buffer.Right}, Move{Dir: buffer.Up}, Move{Dir: buffer.Up})
	assert.Equal(t, buffer.At(6), f.cursor(), "a horizontal move resets the remembered column")
}

func TestPageMove(t *testing.T) {
	f := newFixture(t, "a\nb\nc\nd\ne", plainOptions())

	f.run(t, PageMove{Dir: buffer.Down})
	assert.Equal(t, buffer.At(4), f.cursor())

	f.run(t, PageMove{Dir: buffer.Down, Reach: true})
	assert.Equal(t, buffer.Cursor{Base: 4, Pos: 8}, f.cursor())

	f.run(t, PageMove{Dir: buffer.Up})
	assert.Equal(t, buffer.At(4), f.cursor())
}

func TestWordJump(t *testing.T) {
	f := newFixture(t, "  foo bar", plainOptions())

	f.run(t, Jump{Dir: buffer.Right})
	assert.Equal(t, buffer.At(5), f.cursor())

	f.run(t, Jump{Dir: buffer.Right})
	assert.Equal(t, buffer.At(9), f.cursor())

	f.run(t, Jump{Dir: buffer.Left})
	assert.Equal(t, buffer.At(6), f.cursor())

	f.run(t, Jump{Dir: buffer.Left, Reach: true})
	assert.Equal(t, buffer.Cursor{Base: 6, Pos: 2}, f.cursor())
}

func TestWordJumpStopsAtPunctuationRuns(t *testing.T) {
	text := []rune("foo.bar(x)\nnext")
	assert.Equal(t, 3, wordRight(text, 0))
	assert.Equal(t, 4, wordRight(text, 3))
	assert.Equal(t, 7, wordRight(text, 4))
	assert.Equal(t, 11, wordRight(text, 10), "a newline is a step of its own")
	assert.Equal(t, 10, wordLeft(text, 11))
	assert.Equal(t, 0, wordLeft(text, 3))
}

func TestBracketJump(t *testing.T) {
	f := newFixture(t, "a { b { c } d } e", plainOptions())

	f.run(t, Jump{Dir: buffer.Down})
	assert.Equal(t, buffer.At(15), f.cursor())

	f.run(t, Jump{Dir: buffer.Up})
	assert.Equal(t, buffer.At(2), f.cursor())
}

func TestBracketJumpWithoutBlockIsNoop(t *testing.T) {
	f := newFixture(t, "no braces here", plainOptions())
	f.setCursor(buffer.At(3))
	f.run(t, Jump{Dir: buffer.Down})
	assert.Equal(t, buffer.At(3), f.cursor())

	f = newFixture(t, "open { only", plainOptions())
	f.setCursor(buffer.At(1))
	f.run(t, Jump{Dir: buffer.Down})
	assert.Equal(t, buffer.At(1), f.cursor())
}

func TestSelectAll(t *testing.T) {
	f := newFixture(t, "ab\ncd", plainOptions())
	f.run(t, SelectAll{})
	assert.Equal(t, buffer.Cursor{Base: 0, Pos: 5}, f.cursor())
}

func TestDuplicateLine(t *testing.T) {
	f := newFixture(t, "one\ntwo", plainOptions())
	f.setCursor(buffer.At(1))

	f.run(t, Duplicate{})

	assert.Equal(t, "one\none\ntwo", f.text())
	assert.Equal(t, buffer.At(1), f.cursor())
}

func TestDuplicateLastLine(t *testing.T) {
	f := newFixture(t, "one\ntwo", plainOptions())
	f.setCursor(buffer.At(7))

	f.run(t, Duplicate{})

	assert.Equal(t, "one\ntwo\ntwo", f.text())
	assert.Equal(t, buffer.At(7), f.cursor())
}

func TestDuplicateSelection(t *testing.T) {
	f := newFixture(t, "abc", plainOptions())
	f.setCursor(buffer.Cursor{Base: 0, Pos: 2})

	f.run(t, Duplicate{})

	assert.Equal(t, "ababc", f.text())
	assert.Equal(t, buffer.Cursor{Base: 0, Pos: 2}, f.cursor())
}

func TestCommentToggle(t *testing.T) {
	f := newFixture(t, "foo\n  bar\nbaz", plainOptions())
	f.setCursor(buffer.Cursor{Base: 1, Pos: 7})

	f.run(t, Comment{})
	assert.Equal(t, "// foo\n  // bar\nbaz", f.text())

	f.run(t, Comment{})
	assert.Equal(t, "foo\n  bar\nbaz", f.text())
}

func TestCommentCurrentLineWithPrefix(t *testing.T) {
	opts := plainOptions()
	opts.CommentPrefix = "#"
	f := newFixture(t, "a\n\tb", opts)
	f.setCursor(buffer.At(3))

	f.run(t, Comment{})
	assert.Equal(t, "a\n\t# b", f.text())
}

func TestDedent(t *testing.T) {
	f := newFixture(t, "      a\n\tb\nc", plainOptions())
	f.run(t, SelectAll{}, Dedent{})
	assert.Equal(t, "  a\nb\nc", f.text())
}

func TestCopyCutPaste(t *testing.T) {
	f := newFixture(t, "hello world", plainOptions())
	f.setCursor(buffer.Cursor{Base: 0, Pos: 5})

	f.run(t, Copy{})
	assert.Equal(t, "hello", f.clip.text)
	assert.Equal(t, "hello world", f.text())

	f.run(t, Cut{})
	assert.Equal(t, " world", f.text())

	f.setCursor(buffer.At(6))
	f.run(t, Paste{})
	assert.Equal(t, " worldhello", f.text())
	assert.Equal(t, buffer.At(11), f.cursor())
}

func TestCutWithoutSelectionTakesLine(t *testing.T) {
	f := newFixture(t, "one\ntwo\nthree", plainOptions())
	f.setCursor(buffer.At(5))

	f.run(t, Cut{})

	assert.Equal(t, "two\n", f.clip.text)
	assert.Equal(t, "one\nthree", f.text())
	assert.Equal(t, buffer.At(4), f.cursor())
}

func TestPasteNormalizesLineEndings(t *testing.T) {
	f := newFixture(t, "", plainOptions())
	f.clip.text = "a\r\nb"
	f.run(t, Paste{})
	assert.Equal(t, "a\nb", f.text())
}

func TestUndoRedoCommands(t *testing.T) {
	f := newFixture(t, "", plainOptions())

	f.run(t, Insert{Char: 'a'}, Insert{Char: 'b'}, Insert{Char: 'c'})
	f.clock.now = f.clock.now.Add(time.Second)
	f.run(t, Insert{Char: 'd'})

	f.run(t, Undo{})
	assert.Equal(t, "abc", f.text())
	f.run(t, Undo{})
	assert.Equal(t, "", f.text())
	f.run(t, Undo{})
	assert.Equal(t, "", f.text())

	f.run(t, Redo{})
	assert.Equal(t, "abc", f.text())
	assert.Equal(t, buffer.At(3), f.cursor())
}

func TestUndoKeepsCursorOfViewOpenedLater(t *testing.T) {
	f := newFixture(t, "text", plainOptions())
	f.setCursor(buffer.At(4))
	f.run(t, Insert{Char: '!'})

	split, ok := f.reg.DuplicateHandle(f.p.View())
	require.True(t, ok)
	second := NewProcessor(f.reg, split, plainOptions(), nil)

	f.run(t, Undo{})
	assert.Equal(t, "text", f.text())

	require.NoError(t, second.Handle(Move{Dir: buffer.Left}))
	buf, _ := f.reg.Buffer(split.Buffer)
	c, ok := buf.Cursor(split.Cursor)
	require.True(t, ok)
	assert.Equal(t, buffer.At(3), c)
}

func TestUICommandsAreReturnedUnhandled(t *testing.T) {
	f := newFixture(t, "", plainOptions())

	for _, cmd := range []Command{Quit{}, SplitView{}, CloseView{}, FocusView{Dir: buffer.Up}, OpenPrompt{}, OpenSwitcher{}, Escape{}} {
		err := f.p.Handle(cmd)
		require.Error(t, err)
		got, ok := AsUnhandled(err)
		require.True(t, ok)
		assert.Equal(t, cmd, got)
	}
}

func TestUICommandsAreUnhandledWhileBufferIsBusy(t *testing.T) {
	f := newFixture(t, "", plainOptions())

	err := f.reg.With(f.p.View(), func(*buffer.Guard) error {
		_, ok := AsUnhandled(f.p.Handle(Quit{}))
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	stale := NewProcessor(f.reg, Handle{Buffer: 99}, plainOptions(), f.clip)
	got, ok := AsUnhandled(stale.Handle(SplitView{}))
	require.True(t, ok)
	assert.Equal(t, SplitView{}, got)
}

func TestSaveWithoutPathIsNoop(t *testing.T) {
	f := newFixture(t, "x", plainOptions())
	f.run(t, Save{})
	buf, _ := f.reg.Buffer(f.p.View().Buffer)
	assert.True(t, buf.Dirty())
}
