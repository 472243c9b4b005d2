package tui

import "strings"

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	sidebarWidth   int
	viewportWidth  int
	viewportHeight int
	sidebarRows    int
}

func newPageLayout() pageLayout {
	return pageLayout{
		sidebarWidth:   sidebarWidth,
		viewportWidth:  80,
		viewportHeight: 20,
		sidebarRows:    10,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height

	side := sidebarWidth
	if third := width / 3; third < side {
		side = third
	}
	if side < 20 {
		side = 20
	}
	l.sidebarWidth = side

	inner := width - side - viewportHorizontalPadding
	if inner < minViewportWidth {
		inner = minViewportWidth
	}
	l.viewportWidth = inner

	// header, page title, error line, follow-up line, status bar and legend
	const chrome = 8
	content := height - chrome
	if content < 6 {
		content = 6
	}
	l.viewportHeight = content

	// app title, nav block, section header and filter
	const sidebarChrome = 12
	rows := (height - sidebarChrome) / 2
	if rows < 3 {
		rows = 3
	}
	l.sidebarRows = rows
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

// visibleRange returns the [start, end) window of total rows that keeps
// cursor on screen with capacity rows.
func visibleRange(total, cursor, capacity int) (int, int) {
	if capacity <= 0 || total <= capacity {
		return 0, total
	}
	start := cursor - capacity/2
	if start < 0 {
		start = 0
	}
	if start+capacity > total {
		start = total - capacity
	}
	return start, start + capacity
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func previewText(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "\n\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}
