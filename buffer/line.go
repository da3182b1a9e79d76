package buffer

import (
	"iter"
	"strings"
)

// Line is a read-only view of one line of Content.
type Line struct {
	chars []rune
}

// Len counts the line's characters plus its newline.
func (l Line) Len() int {
	return len(l.chars) + 1
}

func (l Line) Chars() iter.Seq[rune] {
	return func(yield func(rune) bool) {
		for _, r := range l.chars {
			if !yield(r) {
				return
			}
		}
		yield('\n')
	}
}

func (l Line) String() string {
	return string(l.chars)
}

func (l Line) Runes() []rune {
	return append([]rune(nil), l.chars...)
}

// Indent returns the leading run of spaces and tabs.
func (l Line) Indent() string {
	var sb strings.Builder
	for _, r := range l.chars {
		if r != ' ' && r != '\t' {
			break
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Glyph is one display cell. Source is false for the padding cells past
// the end of the line.
type Glyph struct {
	Pos    int
	Source bool
	Char   rune
}

// Glyphs expands the line into display cells. Tabs become runs of spaces up
// to the next tab stop, the newline occupies one cell, and the sequence
// then continues with blank padding forever.
func (l Line) Glyphs(cfg Config) iter.Seq[Glyph] {
	tw := cfg.tabWidth()
	return func(yield func(Glyph) bool) {
		col := 0
		for pos, r := range l.chars {
			if r == '\t' {
				pad := (col/tw+1)*tw - col
				for range pad {
					if !yield(Glyph{Pos: pos, Source: true, Char: ' '}) {
						return
					}
				}
				col += pad
				continue
			}
			if !yield(Glyph{Pos: pos, Source: true, Char: r}) {
				return
			}
			col++
		}
		if !yield(Glyph{Pos: len(l.chars), Source: true, Char: '\n'}) {
			return
		}
		for {
			if !yield(Glyph{Char: ' '}) {
				return
			}
		}
	}
}
