// Package render turns generated markdown into terminal output.
package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/eduforge/internal/logger"
)

const (
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
	minWidth   = 20
)

// StyleForTheme maps a UI theme name to a glamour style.
func StyleForTheme(themeName string) string {
	switch themeName {
	case StyleDark, StyleLight:
		return themeName
	default:
		return StyleNoTTY
	}
}

// Renderer caches a glamour renderer per style and width.
type Renderer struct {
	mu    sync.Mutex
	style string
	width int
	term  *glamour.TermRenderer
}

// New returns a renderer using style.
func New(style string) *Renderer {
	if style == "" {
		style = StyleNoTTY
	}
	return &Renderer{style: style}
}

// SetStyle switches the glamour style used by later renders.
func (r *Renderer) SetStyle(style string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if style != r.style {
		r.style = style
		r.term = nil
	}
}

// Style reports the active style.
func (r *Renderer) Style() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.style
}

// Markdown renders md wrapped to width. Renderer failures fall back to
// plain word wrapping so results are always shown.
func (r *Renderer) Markdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	if width < minWidth {
		width = minWidth
	}
	r.mu.Lock()
	term, err := r.termFor(width)
	r.mu.Unlock()
	if err != nil {
		logger.Debug("markdown renderer unavailable", "style", r.Style(), "err", err)
		return Wrap(md, width)
	}
	out, err := term.Render(md)
	if err != nil {
		logger.Debug("markdown render failed", "err", err)
		return Wrap(md, width)
	}
	return strings.Trim(out, "\n")
}

func (r *Renderer) termFor(width int) (*glamour.TermRenderer, error) {
	if r.term != nil && r.width == width {
		return r.term, nil
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	r.term = term
	r.width = width
	return term, nil
}

// Wrap word-wraps plain text to width.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}
