package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/viper"

	"zte/buffer"
)

// EnvPrefix prefixes environment overrides, e.g. ZTE_TAB_SIZE=2.
const EnvPrefix = "ZTE"

type Config struct {
	TabSize        int    `json:"tab_size" mapstructure:"tab_size"`
	SoftTabs       bool   `json:"soft_tabs" mapstructure:"soft_tabs"`
	AutoIndent     bool   `json:"auto_indent" mapstructure:"auto_indent"`
	ExpandBrackets bool   `json:"expand_brackets" mapstructure:"expand_brackets"`
	AutoClose      bool   `json:"auto_close" mapstructure:"auto_close"`
	PageSize       int    `json:"page_size" mapstructure:"page_size"`
	Theme          string `json:"theme" mapstructure:"theme"`
	UndoWindowMS   int    `json:"undo_window_ms" mapstructure:"undo_window_ms"`
	HistoryLimit   int    `json:"history_limit" mapstructure:"history_limit"`
}

func Default() *Config {
	return &Config{
		TabSize:        4,
		SoftTabs:       true,
		AutoIndent:     true,
		ExpandBrackets: true,
		AutoClose:      false,
		PageSize:       20,
		Theme:          "monokai",
		UndoWindowMS:   int(buffer.DefaultUndoWindow / time.Millisecond),
		HistoryLimit:   buffer.DefaultHistoryLimit,
	}
}

// keys maps every setting to its default, so viper knows which environment
// variables to consult.
func (c *Config) keys() map[string]any {
	return map[string]any{
		"tab_size":        c.TabSize,
		"soft_tabs":       c.SoftTabs,
		"auto_indent":     c.AutoIndent,
		"expand_brackets": c.ExpandBrackets,
		"auto_close":      c.AutoClose,
		"page_size":       c.PageSize,
		"theme":           c.Theme,
		"undo_window_ms":  c.UndoWindowMS,
		"history_limit":   c.HistoryLimit,
	}
}

func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "zte", "settings.json")
}

// Load reads settings from path, or from ConfigPath when path is empty.
// A missing file yields the defaults; ZTE_* variables override either.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range Default().keys() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path == "" {
		path = ConfigPath()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	d := Default()
	if c.TabSize <= 0 {
		c.TabSize = d.TabSize
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	if c.UndoWindowMS < 0 {
		c.UndoWindowMS = 0
	}
}

// WriteDefault writes the default settings to path as JSON.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	v := viper.New()
	for k, val := range Default().keys() {
		v.Set(k, val)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// ForFile returns a copy of c with .editorconfig overrides for path applied.
func (c *Config) ForFile(path string) *Config {
	out := *c
	if path == "" {
		return &out
	}
	ec := FindEditorConfig(path)
	if ec == nil {
		return &out
	}
	switch ec.IndentStyle {
	case "tab":
		out.SoftTabs = false
	case "space":
		out.SoftTabs = true
	}
	switch {
	case ec.IndentSize > 0:
		out.TabSize = ec.IndentSize
	case ec.TabWidth > 0:
		out.TabSize = ec.TabWidth
	}
	return &out
}

func (c *Config) UndoWindow() time.Duration {
	return time.Duration(c.UndoWindowMS) * time.Millisecond
}

// BufferOptions configures new buffers from these settings.
func (c *Config) BufferOptions() []buffer.Option {
	return []buffer.Option{
		buffer.WithConfig(buffer.Config{TabWidth: c.TabSize}),
		buffer.WithUndoWindow(c.UndoWindow()),
		buffer.WithHistoryLimit(c.HistoryLimit),
	}
}

type ColorScheme struct {
	Name             string
	Background       tcell.Color
	Foreground       tcell.Color
	Selection        tcell.Color
	LineNumber       tcell.Color
	LineNumberActive tcell.Color
	StatusBarBg      tcell.Color
	StatusBarFg      tcell.Color
	StatusBarModeBg  tcell.Color
	Divider          tcell.Color
	Warning          tcell.Color
}

var Themes = map[string]*ColorScheme{
	"dark": {
		Name:             "Dark",
		Background:       tcell.ColorBlack,
		Foreground:       tcell.ColorWhite,
		Selection:        tcell.ColorDarkBlue,
		LineNumber:       tcell.ColorGray,
		LineNumberActive: tcell.ColorWhite,
		StatusBarBg:      tcell.ColorDarkBlue,
		StatusBarFg:      tcell.ColorWhite,
		StatusBarModeBg:  tcell.ColorBlue,
		Divider:          tcell.ColorGray,
		Warning:          tcell.ColorYellow,
	},
	"light": {
		Name:             "Light",
		Background:       tcell.ColorWhite,
		Foreground:       tcell.ColorBlack,
		Selection:        tcell.ColorLightBlue,
		LineNumber:       tcell.ColorGray,
		LineNumberActive: tcell.ColorBlack,
		StatusBarBg:      tcell.ColorLightBlue,
		StatusBarFg:      tcell.ColorBlack,
		StatusBarModeBg:  tcell.ColorBlue,
		Divider:          tcell.ColorGray,
		Warning:          tcell.ColorRed,
	},
	"monokai": {
		Name:             "Monokai",
		Background:       tcell.NewRGBColor(39, 40, 34),
		Foreground:       tcell.NewRGBColor(248, 248, 242),
		Selection:        tcell.NewRGBColor(73, 72, 62),
		LineNumber:       tcell.NewRGBColor(144, 144, 128),
		LineNumberActive: tcell.NewRGBColor(248, 248, 242),
		StatusBarBg:      tcell.NewRGBColor(73, 72, 62),
		StatusBarFg:      tcell.NewRGBColor(248, 248, 242),
		StatusBarModeBg:  tcell.NewRGBColor(102, 217, 239),
		Divider:          tcell.NewRGBColor(144, 144, 128),
		Warning:          tcell.NewRGBColor(249, 38, 114),
	},
	"nord": {
		Name:             "Nord",
		Background:       tcell.NewRGBColor(46, 52, 64),
		Foreground:       tcell.NewRGBColor(236, 239, 244),
		Selection:        tcell.NewRGBColor(67, 76, 94),
		LineNumber:       tcell.NewRGBColor(76, 86, 106),
		LineNumberActive: tcell.NewRGBColor(236, 239, 244),
		StatusBarBg:      tcell.NewRGBColor(67, 76, 94),
		StatusBarFg:      tcell.NewRGBColor(236, 239, 244),
		StatusBarModeBg:  tcell.NewRGBColor(136, 192, 208),
		Divider:          tcell.NewRGBColor(76, 86, 106),
		Warning:          tcell.NewRGBColor(235, 203, 139),
	},
	"gruvbox": {
		Name:             "Gruvbox Dark",
		Background:       tcell.NewRGBColor(40, 40, 40),
		Foreground:       tcell.NewRGBColor(235, 219, 178),
		Selection:        tcell.NewRGBColor(60, 56, 54),
		LineNumber:       tcell.NewRGBColor(146, 131, 116),
		LineNumberActive: tcell.NewRGBColor(251, 241, 199),
		StatusBarBg:      tcell.NewRGBColor(60, 56, 54),
		StatusBarFg:      tcell.NewRGBColor(235, 219, 178),
		StatusBarModeBg:  tcell.NewRGBColor(184, 187, 38),
		Divider:          tcell.NewRGBColor(102, 92, 84),
		Warning:          tcell.NewRGBColor(254, 128, 25),
	},
	"dracula": {
		Name:             "Dracula",
		Background:       tcell.NewRGBColor(40, 42, 54),
		Foreground:       tcell.NewRGBColor(248, 248, 242),
		Selection:        tcell.NewRGBColor(68, 71, 90),
		LineNumber:       tcell.NewRGBColor(98, 114, 164),
		LineNumberActive: tcell.NewRGBColor(248, 248, 242),
		StatusBarBg:      tcell.NewRGBColor(68, 71, 90),
		StatusBarFg:      tcell.NewRGBColor(248, 248, 242),
		StatusBarModeBg:  tcell.NewRGBColor(189, 147, 249),
		Divider:          tcell.NewRGBColor(98, 114, 164),
		Warning:          tcell.NewRGBColor(255, 121, 198),
	},
}

func (c *Config) GetTheme() *ColorScheme {
	theme, ok := Themes[c.Theme]
	if !ok {
		return Themes["monokai"]
	}
	return theme
}
