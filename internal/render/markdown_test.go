package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownRendersText(t *testing.T) {
	r := New(StyleNoTTY)
	out := r.Markdown("# Lesson plan\n\nStudents will **measure** angles.", 60)
	assert.Contains(t, out, "Lesson plan")
	assert.Contains(t, out, "measure")
}

func TestMarkdownEmptyInput(t *testing.T) {
	r := New(StyleNoTTY)
	assert.Empty(t, r.Markdown("   \n", 60))
}

func TestMarkdownWrapsToWidth(t *testing.T) {
	r := New(StyleNoTTY)
	text := strings.Repeat("word ", 40)
	out := r.Markdown(text, 30)
	lines := strings.Split(out, "\n")
	assert.Greater(t, len(lines), 4)
	for _, line := range lines {
		assert.LessOrEqual(t, len(strings.TrimSpace(line)), 30, "line %q", line)
	}
}

func TestSetStyleResetsRenderer(t *testing.T) {
	r := New(StyleNoTTY)
	_ = r.Markdown("hello", 40)
	assert.NotNil(t, r.term)
	r.SetStyle(StyleDark)
	assert.Nil(t, r.term)
	assert.Equal(t, StyleDark, r.Style())
}

func TestStyleForTheme(t *testing.T) {
	assert.Equal(t, StyleDark, StyleForTheme("dark"))
	assert.Equal(t, StyleLight, StyleForTheme("light"))
	assert.Equal(t, StyleNoTTY, StyleForTheme("plain"))
}

func TestWrap(t *testing.T) {
	lines := strings.Split(Wrap("alpha beta gamma", 11), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "alpha beta", strings.TrimSpace(lines[0]))
	assert.Equal(t, "unchanged", Wrap("unchanged", 0))
}
