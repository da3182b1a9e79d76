package config

import (
	"bufio"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// EditorConfig holds the .editorconfig properties that affect editing.
type EditorConfig struct {
	IndentStyle string // "tab" or "space", empty when unset
	IndentSize  int    // 0 means unset
	TabWidth    int    // 0 means unset
}

// FindEditorConfig merges the .editorconfig sections matching filePath,
// walking up from its directory until a root file. Closer files win.
// It returns nil when nothing applies.
func FindEditorConfig(filePath string) *EditorConfig {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil
	}
	name := filepath.Base(abs)

	var found []map[string]string
	for dir := filepath.Dir(abs); ; {
		props, root := readEditorConfig(filepath.Join(dir, ".editorconfig"), name)
		if props != nil {
			found = append(found, props)
		}
		if root {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if len(found) == 0 {
		return nil
	}

	merged := make(map[string]string)
	for i := len(found) - 1; i >= 0; i-- {
		maps.Copy(merged, found[i])
	}
	return fromProperties(merged)
}

// readEditorConfig returns the properties of sections matching name and
// whether the file declares root = true.
func readEditorConfig(path, name string) (map[string]string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	props := make(map[string]string)
	root, matching, preamble := false, false, true

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if line[0] == '[' && line[len(line)-1] == ']' {
			preamble = false
			matching = matchGlob(line[1:len(line)-1], name)
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.ToLower(strings.TrimSpace(value))
		switch {
		case preamble && key == "root":
			root = value == "true"
		case matching:
			props[key] = value
		}
	}

	if len(props) == 0 {
		return nil, root
	}
	return props, root
}

// matchGlob matches name against an editorconfig section glob, expanding
// {a,b} alternatives.
func matchGlob(pattern, name string) bool {
	for _, p := range expandBraces(pattern) {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

func expandBraces(pattern string) []string {
	open := strings.IndexByte(pattern, '{')
	if open < 0 {
		return []string{pattern}
	}
	depth, end := 0, -1
	for i := open; i < len(pattern) && end < 0; i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i
			}
		}
	}
	if end < 0 {
		return []string{pattern}
	}

	var out []string
	for _, alt := range splitAlternatives(pattern[open+1 : end]) {
		out = append(out, expandBraces(pattern[:open]+alt+pattern[end+1:])...)
	}
	return out
}

func splitAlternatives(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := range len(s) {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func fromProperties(m map[string]string) *EditorConfig {
	ec := &EditorConfig{}
	if v := m["indent_style"]; v == "tab" || v == "space" {
		ec.IndentStyle = v
	}
	if n, err := strconv.Atoi(m["tab_width"]); err == nil && n > 0 {
		ec.TabWidth = n
	}
	switch v := m["indent_size"]; v {
	case "tab":
		ec.IndentSize = ec.TabWidth
	default:
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ec.IndentSize = n
		}
	}
	if *ec == (EditorConfig{}) {
		return nil
	}
	return ec
}
