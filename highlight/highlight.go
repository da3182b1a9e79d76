package highlight

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/gdamore/tcell/v2"
	gocache "github.com/patrickmn/go-cache"
)

const (
	cacheExpiration = 2 * time.Minute
	cacheCleanup    = 5 * time.Minute

	// contextLines are tokenised above the visible range so multi-line
	// constructs that start off screen still color correctly.
	contextLines = 50
)

type Token struct {
	Text  string
	Style tcell.Style
}

type StyledLine struct {
	Tokens []Token
}

type Highlighter struct {
	cache *gocache.Cache
}

func New() *Highlighter {
	return &Highlighter{cache: gocache.New(cacheExpiration, cacheCleanup)}
}

// Invalidate drops every cached result.
func (h *Highlighter) Invalidate() {
	h.cache.Flush()
}

// Lines styles lines[start:end] as lang. Unknown languages use the plain
// text lexer.
func (h *Highlighter) Lines(lines []string, lang string, start, end int) []StyledLine {
	end = min(end, len(lines))
	start = max(start, 0)
	if start >= end {
		return nil
	}

	from := max(start-contextLines, 0)
	src := strings.Join(lines[from:end], "\n")
	key := fmt.Sprintf("%s:%d:%d:%x", lang, start, end, sha256.Sum256([]byte(src)))
	if cached, ok := h.cache.Get(key); ok {
		if styled, ok := cached.([]StyledLine); ok {
			return styled
		}
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, src)
	if err != nil {
		out := make([]StyledLine, end-start)
		for i := range out {
			out[i] = StyledLine{Tokens: []Token{{Text: lines[start+i], Style: tcell.StyleDefault}}}
		}
		return out
	}

	styled := make([]StyledLine, end-from)
	row := 0
	for _, tok := range it.Tokens() {
		style := tokenStyle(tok.Type)
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				row++
			}
			if row >= len(styled) {
				break
			}
			if part != "" {
				styled[row].Tokens = append(styled[row].Tokens, Token{Text: part, Style: style})
			}
		}
	}

	out := styled[start-from:]
	h.cache.SetDefault(key, out)
	return out
}

// DetectLanguage names the chroma lexer for filename, or "" when none
// matches.
func DetectLanguage(filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		return ""
	}
	config := lexer.Config()
	if config == nil {
		return ""
	}
	return config.Name
}

// CommentPrefix is the line comment marker for lang.
func CommentPrefix(lang string) string {
	switch strings.ToLower(lang) {
	case "python", "ruby", "perl", "bash", "shell", "sh", "zsh", "fish",
		"yaml", "toml", "r", "julia", "elixir", "nim", "tcl", "ini",
		"docker", "dockerfile", "makefile", "base makefile", "cmake":
		return "#"
	case "lua", "haskell", "sql", "ada", "vhdl":
		return "--"
	case "common lisp", "scheme", "clojure", "racket", "emacslisp":
		return ";"
	case "vim":
		return "\""
	default:
		return "//"
	}
}

func tokenStyle(t chroma.TokenType) tcell.Style {
	base := tcell.StyleDefault

	switch {
	case t.InCategory(chroma.Keyword):
		return base.Foreground(tcell.ColorBlue).Bold(true)
	case t == chroma.NameBuiltin || t == chroma.NameBuiltinPseudo:
		return base.Foreground(tcell.ColorBlue)
	case t.InSubCategory(chroma.LiteralString):
		return base.Foreground(tcell.ColorGreen)
	case t.InCategory(chroma.Comment):
		return base.Foreground(tcell.ColorGray).Italic(true)
	case t.InSubCategory(chroma.LiteralNumber):
		return base.Foreground(tcell.ColorDarkCyan)
	case t == chroma.NameFunction || t == chroma.NameFunctionMagic:
		return base.Foreground(tcell.ColorYellow)
	case t == chroma.NameClass || t == chroma.NameException || t == chroma.NameDecorator:
		return base.Foreground(tcell.ColorFuchsia)
	default:
		return base
	}
}
