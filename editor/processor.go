package editor

import (
	"fmt"
	"strings"

	"zte/buffer"
	"zte/log"
)

// Clipboard is the system clipboard as seen by cut, copy and paste.
type Clipboard interface {
	Read() string
	Write(text string) bool
}

// Options are the editing policies a Processor applies.
type Options struct {
	SoftTabs       bool
	AutoIndent     bool
	ExpandBrackets bool
	AutoClose      bool
	PageSize       int
	CommentPrefix  string
}

func DefaultOptions() Options {
	return Options{
		SoftTabs:       true,
		AutoIndent:     true,
		ExpandBrackets: true,
		PageSize:       20,
		CommentPrefix:  "//",
	}
}

// Processor turns commands into edits for one view. It owns the view's
// handle and the column the cursor tries to return to on vertical moves.
type Processor struct {
	reg    *Registry
	handle Handle
	opts   Options
	clip   Clipboard

	column    int
	hasColumn bool

	// Closers inserted by auto-close that typing can still step over, next
	// one first. They only apply while the cursor stays at pendingPos.
	pending    []rune
	pendingPos int
}

func NewProcessor(reg *Registry, h Handle, opts Options, clip Clipboard) *Processor {
	return &Processor{
		reg:    reg,
		handle: h,
		opts:   opts,
		clip:   clip,
	}
}

// View returns the handle the processor currently edits through.
func (p *Processor) View() Handle { return p.handle }

func (p *Processor) Options() Options { return p.opts }

func (p *Processor) SetOptions(opts Options) { p.opts = opts }

func (p *Processor) SetPageSize(n int) { p.opts.PageSize = n }

// Handle applies cmd. Commands that are not buffer edits come back as an
// *UnhandledError.
func (p *Processor) Handle(cmd Command) error {
	if _, ok := cmd.(Insert); !ok {
		p.pending = nil
	}

	switch cmd := cmd.(type) {
	case Quit, SplitView, CloseView, FocusView, OpenPrompt, OpenSwitcher, Escape:
		return &UnhandledError{Command: cmd}
	case NewBuffer:
		return p.newBuffer()
	case OpenFile:
		return p.openFile(cmd.Path)
	case CloseBuffer:
		return p.closeBuffer(cmd.Force)
	case SwitchBuffer:
		return p.switchBuffer(cmd.ID)
	}

	keepColumn := false
	err := p.reg.With(p.handle, func(g *buffer.Guard) error {
		var err error
		keepColumn, err = p.apply(g, cmd)
		return err
	})
	if !keepColumn {
		p.hasColumn = false
	}
	return err
}

func (p *Processor) apply(g *buffer.Guard, cmd Command) (keepColumn bool, err error) {
	switch cmd := cmd.(type) {
	case Insert:
		p.insert(g, cmd.Char)
	case Backspace:
		p.backspace(g)
	case BackspaceWord:
		p.backspaceWord(g)
	case Delete:
		if !g.DeleteSelection() {
			g.Delete()
		}
	case Undo:
		g.Buffer().Undo()
	case Redo:
		g.Buffer().Redo()
	case Move:
		p.move(g, cmd.Dir, cmd.Reach)
		return cmd.Dir == buffer.Up || cmd.Dir == buffer.Down, nil
	case Jump:
		p.jump(g, cmd.Dir, cmd.Reach)
	case PageMove:
		p.pageMove(g, cmd.Dir, cmd.Reach)
		return true, nil
	case SelectAll:
		g.SetCursor(buffer.Cursor{Base: 0, Pos: g.Len()})
	case Duplicate:
		p.duplicate(g)
	case Comment:
		p.comment(g)
	case Dedent:
		p.dedent(g)
	case Cut:
		p.cut(g)
	case Copy:
		p.copy(g)
	case Paste:
		p.paste(g)
	case Save:
		return false, p.save(g.Buffer())
	case SaveAs:
		if err := g.Buffer().SaveAs(cmd.Path); err != nil {
			log.ErrorErr(log.CatCommand, "save as failed", err, "path", cmd.Path)
			return false, err
		}
	default:
		return false, &UnhandledError{Command: cmd}
	}
	return false, nil
}

func (p *Processor) indentUnit(cfg buffer.Config) string {
	if p.opts.SoftTabs {
		return strings.Repeat(" ", max(cfg.TabWidth, 1))
	}
	return "\t"
}

// rows returns the first and last line touched by the cursor. A selection
// ending at the very start of a line does not touch that line.
func rows(g *buffer.Guard) (first, last int) {
	start, end := g.Cursor().Range()
	_, first = g.Content().PosToRankLine(start)
	rank, last := g.Content().PosToRankLine(end)
	if last > first && rank == 0 {
		last--
	}
	return first, min(last, g.LineCount()-1)
}

func (p *Processor) insert(g *buffer.Guard, r rune) {
	c := g.Cursor()
	nested := len(p.pending) > 0 && !c.HasSelection() && c.Pos == p.pendingPos
	if !nested {
		p.pending = nil
	}
	if nested && r == p.pending[0] {
		if next, _ := g.CharAt(c.Pos); next == r {
			g.SetPos(c.Pos + 1)
			p.pending = p.pending[1:]
			p.pendingPos = c.Pos + 1
			return
		}
	}

	if r == '\t' && g.Cursor().HasSelection() {
		if first, last := rows(g); first != last {
			p.indentLines(g, first, last)
			return
		}
	}
	g.DeleteSelection()

	switch r {
	case '\n':
		p.pending = nil
		p.newline(g)
	case '\t':
		p.pending = nil
		p.tab(g)
	default:
		g.Insert(r)
		if closer, ok := closerFor(r); ok && p.opts.AutoClose {
			g.Insert(closer)
			g.SetPos(g.Cursor().Pos - 1)
			p.pending = append([]rune{closer}, p.pending...)
			p.pendingPos = g.Cursor().Pos
		} else if nested {
			p.pendingPos = g.Cursor().Pos
		}
	}
}

func (p *Processor) tab(g *buffer.Guard) {
	if !p.opts.SoftTabs {
		g.Insert('\t')
		return
	}
	tw := max(g.Config().TabWidth, 1)
	col := g.PosLoc(g.Cursor().Pos).Col
	g.InsertString(strings.Repeat(" ", tw-col%tw))
}

func (p *Processor) indentLines(g *buffer.Guard, first, last int) {
	unit := p.indentUnit(g.Config())
	for row := first; row <= last; row++ {
		g.Buffer().InsertStringAt(g.Content().LineStart(row), unit)
	}
}

func (p *Processor) newline(g *buffer.Guard) {
	if !p.opts.AutoIndent {
		g.Insert('\n')
		return
	}

	pos := g.Cursor().Pos
	rank, row := g.Content().PosToRankLine(pos)
	line, _ := g.Line(row)
	indent := []rune(line.Indent())
	indent = indent[:min(len(indent), rank)]

	var prev rune
	if pos > 0 {
		prev, _ = g.CharAt(pos - 1)
	}
	next, _ := g.CharAt(pos)

	g.Insert('\n')
	g.InsertString(string(indent))

	closer, ok := closerFor(prev)
	if !ok || !p.opts.ExpandBrackets {
		return
	}
	g.InsertString(p.indentUnit(g.Config()))
	if next == closer {
		body := g.Cursor().Pos
		g.Insert('\n')
		g.InsertString(string(indent))
		g.SetPos(body)
	}
}

func (p *Processor) backspace(g *buffer.Guard) {
	if g.DeleteSelection() {
		return
	}
	pos := g.Cursor().Pos
	if pos == 0 {
		return
	}

	if p.opts.SoftTabs {
		rank, row := g.Content().PosToRankLine(pos)
		line, _ := g.Line(row)
		lead := line.Runes()[:rank]
		if rank > 0 && strings.TrimLeft(string(lead), " ") == "" {
			tw := max(g.Config().TabWidth, 1)
			n := rank % tw
			if n == 0 {
				n = tw
			}
			for range n {
				g.Backspace()
			}
			return
		}
	}
	g.Backspace()
}

func (p *Processor) backspaceWord(g *buffer.Guard) {
	if g.DeleteSelection() {
		return
	}
	pos := g.Cursor().Pos
	target := wordLeft([]rune(g.Content().String()), pos)
	for range pos - target {
		g.Backspace()
	}
}

func (p *Processor) move(g *buffer.Guard, dir buffer.Dir, reach bool) {
	c := g.Cursor()
	if !reach && c.Unreach(dir) {
		g.SetCursor(c)
		return
	}

	switch dir {
	case buffer.Left:
		c.Pos = max(c.Pos-1, 0)
	case buffer.Right:
		c.Pos = min(c.Pos+1, g.Len())
	case buffer.Up, buffer.Down:
		c.Pos = p.vertical(g, c.Pos, dir, 1)
	}
	if !reach {
		c.Base = c.Pos
	}
	g.SetCursor(c)
}

func (p *Processor) pageMove(g *buffer.Guard, dir buffer.Dir, reach bool) {
	c := g.Cursor()
	c.Pos = p.vertical(g, c.Pos, dir, max(p.opts.PageSize, 1))
	if !reach {
		c.Base = c.Pos
	}
	g.SetCursor(c)
}

// vertical moves n rows up or down, aiming for the remembered column.
func (p *Processor) vertical(g *buffer.Guard, pos int, dir buffer.Dir, n int) int {
	loc := g.PosLoc(pos)
	if !p.hasColumn {
		p.column = loc.Col
		p.hasColumn = true
	}

	last := g.LineCount() - 1
	switch dir {
	case buffer.Up:
		if loc.Row == 0 {
			return 0
		}
		return g.LocPos(buffer.Loc{Col: p.column, Row: max(loc.Row-n, 0)})
	case buffer.Down:
		if loc.Row >= last {
			return g.Len()
		}
		return g.LocPos(buffer.Loc{Col: p.column, Row: min(loc.Row+n, last)})
	}
	return pos
}

func (p *Processor) jump(g *buffer.Guard, dir buffer.Dir, reach bool) {
	c := g.Cursor()
	text := []rune(g.Content().String())
	switch dir {
	case buffer.Left:
		c.Pos = wordLeft(text, c.Pos)
	case buffer.Right:
		c.Pos = wordRight(text, c.Pos)
	case buffer.Up:
		c.Pos = blockStart(text, c.Pos)
	case buffer.Down:
		c.Pos = blockEnd(text, c.Pos)
	}
	if !reach {
		c.Base = c.Pos
	}
	g.SetCursor(c)
}

func (p *Processor) duplicate(g *buffer.Guard) {
	c := g.Cursor()
	buf := g.Buffer()
	if c.HasSelection() {
		start, end := c.Range()
		buf.InsertStringAt(end, buf.Text(start, end))
	} else {
		row := g.Row()
		line, _ := g.Line(row)
		buf.InsertLine(row+1, line.String())
	}
	g.SetCursor(c)
}

func (p *Processor) commentPrefix() string {
	if p.opts.CommentPrefix == "" {
		return "//"
	}
	return p.opts.CommentPrefix
}

// comment prefixes every touched line at its first non-blank column, or
// strips the prefix when every non-blank touched line already has it.
func (p *Processor) comment(g *buffer.Guard) {
	prefix := p.commentPrefix()
	first, last := rows(g)

	commented, blank := true, true
	for row := first; row <= last; row++ {
		line, _ := g.Line(row)
		rest := strings.TrimLeft(line.String(), " \t")
		if rest == "" {
			continue
		}
		blank = false
		if !strings.HasPrefix(rest, prefix) {
			commented = false
		}
	}

	buf := g.Buffer()
	for row := first; row <= last; row++ {
		line, _ := g.Line(row)
		at := g.Content().LineStart(row) + len([]rune(line.Indent()))
		if blank || !commented {
			buf.InsertStringAt(at, prefix+" ")
			continue
		}
		rest := strings.TrimLeft(line.String(), " \t")
		if !strings.HasPrefix(rest, prefix) {
			continue
		}
		n := len([]rune(prefix))
		if strings.HasPrefix(rest[len(prefix):], " ") {
			n++
		}
		buf.RemoveRange(at, at+n)
	}
}

func (p *Processor) dedent(g *buffer.Guard) {
	tw := max(g.Config().TabWidth, 1)
	first, last := rows(g)
	buf := g.Buffer()
	for row := first; row <= last; row++ {
		line, _ := g.Line(row)
		runes := line.Runes()
		n := 0
		if len(runes) > 0 && runes[0] == '\t' {
			n = 1
		} else {
			for n < len(runes) && n < tw && runes[n] == ' ' {
				n++
			}
		}
		start := g.Content().LineStart(row)
		buf.RemoveRange(start, start+n)
	}
}

// lineSpan returns the range covering the cursor's line and one adjoining
// newline, used by cut and copy without a selection.
func lineSpan(g *buffer.Guard) (start, end int) {
	row := g.Row()
	line, _ := g.Line(row)
	start = g.Content().LineStart(row)
	end = start + line.Len()
	if end > g.Len() {
		end = g.Len()
		if row > 0 {
			start--
		}
	}
	return start, end
}

func (p *Processor) copy(g *buffer.Guard) {
	if p.clip == nil {
		return
	}
	text := g.SelectedText()
	if text == "" {
		line, _ := g.Line(g.Row())
		text = line.String() + "\n"
	}
	p.clip.Write(text)
}

func (p *Processor) cut(g *buffer.Guard) {
	p.copy(g)
	if g.DeleteSelection() {
		return
	}
	start, end := lineSpan(g)
	g.Buffer().RemoveRange(start, end)
	g.SetPos(min(start, g.Len()))
}

func (p *Processor) paste(g *buffer.Guard) {
	if p.clip == nil {
		return
	}
	text := strings.ReplaceAll(p.clip.Read(), "\r\n", "\n")
	if text == "" {
		return
	}
	g.DeleteSelection()
	g.InsertString(text)
}

func (p *Processor) save(buf *buffer.Shared) error {
	if err := buf.Save(); err != nil {
		log.ErrorErr(log.CatCommand, "save failed", err, "path", buf.Path())
		return err
	}
	log.Info(log.CatCommand, "saved", "path", buf.Path())
	return nil
}

// attach points the processor at h. The replaced handle's position is
// remembered as recent before it is released.
func (p *Processor) attach(h Handle, releaseOld bool) {
	if releaseOld {
		p.reg.SetRecent(p.handle)
		p.reg.Release(p.handle)
	}
	p.handle = h
	p.hasColumn = false
	p.reg.SetRecent(h)
}

func (p *Processor) newBuffer() error {
	id := p.reg.NewBuffer()
	h, ok := p.reg.NewHandle(id)
	if !ok {
		return ErrNoBuffer
	}
	p.attach(h, true)
	return nil
}

func (p *Processor) openFile(path string) error {
	h, err := p.reg.Open(path)
	if err != nil {
		log.ErrorErr(log.CatCommand, "open failed", err, "path", path)
		return err
	}
	p.attach(h, true)
	return nil
}

func (p *Processor) switchBuffer(id buffer.BufferID) error {
	for _, recent := range p.reg.Recent() {
		if recent.Buffer != id {
			continue
		}
		h, ok := p.reg.DuplicateHandle(recent)
		if !ok {
			break
		}
		p.attach(h, true)
		return nil
	}

	h, ok := p.reg.NewHandle(id)
	if !ok {
		return fmt.Errorf("switch to buffer %d: %w", id, ErrNoBuffer)
	}
	p.attach(h, true)
	return nil
}

// closeBuffer closes the current buffer and moves the view to the most
// recently used remaining one, or to a new scratch buffer.
func (p *Processor) closeBuffer(force bool) error {
	if err := p.reg.Close(p.handle, force); err != nil {
		return err
	}

	for _, recent := range p.reg.Recent() {
		if h, ok := p.reg.DuplicateHandle(recent); ok {
			p.attach(h, false)
			return nil
		}
	}
	h, ok := p.reg.NewHandle(p.reg.NewBuffer())
	if !ok {
		return ErrNoBuffer
	}
	p.attach(h, false)
	return nil
}
