// Package theme loads the named color schemes and turns them into lipgloss
// styles for the TUI.
package theme

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

//go:embed themes/*.yaml
var themeFS embed.FS

const (
	Dark  = "dark"
	Light = "light"
)

// Order is the cycle order used by Next.
var Order = []string{Dark, Light}

// StyleConfig is one style entry as written in a theme file.
type StyleConfig struct {
	Foreground string `yaml:"foreground"`
	Background string `yaml:"background"`
	Bold       bool   `yaml:"bold"`
	Italic     bool   `yaml:"italic"`
	Underline  bool   `yaml:"underline"`
}

type file struct {
	Name   string                 `yaml:"name"`
	Styles map[string]StyleConfig `yaml:"styles"`
}

// Theme is the set of semantic styles used across the interface.
type Theme struct {
	Name          string
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	SectionHeader lipgloss.Style
	Helper        lipgloss.Style
	Error         lipgloss.Style
	Success       lipgloss.Style
	Accent        lipgloss.Style
	Badge         lipgloss.Style
	Selected      lipgloss.Style
	Muted         lipgloss.Style
	StatusBar     lipgloss.Style
	Key           lipgloss.Style
	KeyDesc       lipgloss.Style
	Answer        lipgloss.Style
	BorderColor   lipgloss.Color
}

// Load returns the named theme. Unknown names fall back to Dark.
func Load(name string) (*Theme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !Known(name) {
		name = Dark
	}
	data, err := themeFS.ReadFile("themes/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read theme %s: %w", name, err)
	}
	var parsed file
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse theme %s: %w", name, err)
	}
	return build(parsed), nil
}

// MustLoad is Load for embedded themes, which are known to parse.
func MustLoad(name string) *Theme {
	t, err := Load(name)
	if err != nil {
		return Plain()
	}
	return t
}

// Known reports whether name has an embedded theme file.
func Known(name string) bool {
	for _, candidate := range Order {
		if candidate == name {
			return true
		}
	}
	return false
}

// Next returns the theme name after current in Order.
func Next(current string) string {
	for i, name := range Order {
		if name == current {
			return Order[(i+1)%len(Order)]
		}
	}
	return Order[0]
}

// Plain is an uncolored theme used when a theme file cannot be read.
func Plain() *Theme {
	plain := lipgloss.NewStyle()
	return &Theme{
		Name:          "plain",
		Title:         plain.Bold(true),
		Subtitle:      plain,
		SectionHeader: plain.Bold(true),
		Helper:        plain,
		Error:         plain,
		Success:       plain,
		Accent:        plain.Bold(true),
		Badge:         plain.Reverse(true),
		Selected:      plain.Reverse(true),
		Muted:         plain,
		StatusBar:     plain.Reverse(true),
		Key:           plain.Bold(true),
		KeyDesc:       plain,
		Answer:        plain.Bold(true),
	}
}

func build(parsed file) *Theme {
	style := func(key string) lipgloss.Style {
		return toStyle(parsed.Styles[key])
	}
	t := &Theme{
		Name:          parsed.Name,
		Title:         style("title"),
		Subtitle:      style("subtitle"),
		SectionHeader: style("section_header"),
		Helper:        style("helper"),
		Error:         style("error"),
		Success:       style("success"),
		Accent:        style("accent"),
		Badge:         style("badge").Padding(0, 1),
		Selected:      style("selected"),
		Muted:         style("muted"),
		StatusBar:     style("status_bar").Padding(0, 1),
		Key:           style("key").Padding(0, 1),
		KeyDesc:       style("key_desc"),
		Answer:        style("answer"),
		BorderColor:   lipgloss.Color(parsed.Styles["border"].Foreground),
	}
	return t
}

func toStyle(cfg StyleConfig) lipgloss.Style {
	s := lipgloss.NewStyle()
	if cfg.Foreground != "" {
		s = s.Foreground(lipgloss.Color(cfg.Foreground))
	}
	if cfg.Background != "" {
		s = s.Background(lipgloss.Color(cfg.Background))
	}
	if cfg.Bold {
		s = s.Bold(true)
	}
	if cfg.Italic {
		s = s.Italic(true)
	}
	if cfg.Underline {
		s = s.Underline(true)
	}
	return s
}

// Names lists the embedded theme files, sorted.
func Names() []string {
	entries, err := themeFS.ReadDir("themes")
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}
