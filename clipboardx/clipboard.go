// Package clipboardx reaches the system clipboard through every route that
// may work in a terminal: the native API, helper commands and OSC 52. It
// always keeps a private copy so paste works without any of them.
package clipboardx

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"zte/log"
)

type command struct {
	name string
	args []string
}

var (
	writeCommands = []command{
		{name: "wl-copy"},
		{name: "xclip", args: []string{"-selection", "clipboard"}},
		{name: "xsel", args: []string{"--clipboard", "--input"}},
		{name: "pbcopy"},
		{name: "clip.exe"},
	}
	readCommands = []command{
		{name: "wl-paste", args: []string{"--no-newline"}},
		{name: "xclip", args: []string{"-o", "-selection", "clipboard"}},
		{name: "xsel", args: []string{"--clipboard", "--output"}},
		{name: "pbpaste"},
		{name: "powershell.exe", args: []string{"-NoProfile", "-Command", "Get-Clipboard"}},
	}
)

// System implements the editor's clipboard.
type System struct {
	mu       sync.Mutex
	internal string
	native   bool
	osc52    io.Writer
}

// New returns a clipboard backed by the host. OSC 52 is used only when
// stdout is a terminal.
func New() *System {
	s := &System{native: true}
	if fi, err := os.Stdout.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		s.osc52 = os.Stdout
	}
	return s
}

// NewMemory returns a clipboard that never leaves the process.
func NewMemory() *System {
	return &System{}
}

// WithOSC52 sends copies to w as OSC 52 sequences.
func (s *System) WithOSC52(w io.Writer) *System {
	s.osc52 = w
	return s
}

// Write stores text and reports whether it reached anything beyond the
// private copy.
func (s *System) Write(text string) bool {
	s.mu.Lock()
	s.internal = text
	s.mu.Unlock()

	ok := false
	if s.native {
		if err := clipboard.WriteAll(text); err == nil {
			ok = true
		} else {
			log.Debug(log.CatUI, "native clipboard write failed", "error", err)
		}
		if writeWithCommands(text) {
			ok = true
		}
	}
	if s.writeOSC52(text) {
		ok = true
	}
	return ok
}

func (s *System) Read() string {
	if s.native {
		if text, err := clipboard.ReadAll(); err == nil && text != "" {
			return text
		}
		if text, ok := readWithCommands(); ok && text != "" {
			return text
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.internal
}

func writeWithCommands(text string) bool {
	ok := false
	for _, c := range writeCommands {
		if _, err := exec.LookPath(c.name); err != nil {
			continue
		}
		cmd := exec.Command(c.name, c.args...)
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			ok = true
		}
	}
	return ok
}

func readWithCommands() (string, bool) {
	for _, c := range readCommands {
		if _, err := exec.LookPath(c.name); err != nil {
			continue
		}
		out, err := exec.Command(c.name, c.args...).Output()
		if err == nil && len(out) > 0 {
			return string(out), true
		}
	}
	return "", false
}

func (s *System) writeOSC52(text string) bool {
	if text == "" || s.osc52 == nil {
		return false
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	_, err := fmt.Fprintf(s.osc52, "\x1b]52;c;%s\x07", encoded)
	return err == nil
}
