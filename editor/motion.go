package editor

import "unicode"

type charKind int

const (
	kindNone charKind = iota
	kindWord
	kindPunct
)

// kindOf groups characters for word motion. Whitespace, newlines
// included, has no kind.
func kindOf(r rune) charKind {
	switch {
	case unicode.IsSpace(r):
		return kindNone
	case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
		return kindWord
	default:
		return kindPunct
	}
}

func isBlank(r rune) bool {
	return r != '\n' && unicode.IsSpace(r)
}

// wordRight skips blanks, then the run of same-kind characters after them.
// A newline counts as a run of its own.
func wordRight(text []rune, pos int) int {
	n := len(text)
	for pos < n && isBlank(text[pos]) {
		pos++
	}
	if pos >= n {
		return n
	}
	k := kindOf(text[pos])
	if k == kindNone {
		return pos + 1
	}
	for pos < n && kindOf(text[pos]) == k {
		pos++
	}
	return pos
}

func wordLeft(text []rune, pos int) int {
	pos = min(pos, len(text))
	for pos > 0 && isBlank(text[pos-1]) {
		pos--
	}
	if pos == 0 {
		return 0
	}
	k := kindOf(text[pos-1])
	if k == kindNone {
		return pos - 1
	}
	for pos > 0 && kindOf(text[pos-1]) == k {
		pos--
	}
	return pos
}

// blockEnd finds the next '{' at or after pos and returns the position just
// past its matching '}'. Without a complete block it returns pos.
func blockEnd(text []rune, pos int) int {
	i := pos
	for i < len(text) && text[i] != '{' {
		i++
	}
	depth := 0
	for ; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return pos
}

// blockStart finds the previous '}' before pos and returns the position of
// its matching '{'. Without a complete block it returns pos.
func blockStart(text []rune, pos int) int {
	i := min(pos, len(text)) - 1
	for i >= 0 && text[i] != '}' {
		i--
	}
	depth := 0
	for ; i >= 0; i-- {
		switch text[i] {
		case '}':
			depth++
		case '{':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return pos
}

var closers = map[rune]rune{'(': ')', '[': ']', '{': '}'}

func closerFor(open rune) (rune, bool) {
	c, ok := closers[open]
	return c, ok
}
