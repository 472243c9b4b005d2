// Package reference loads optional reference material for a generation: a
// local PDF, HTML or text file, or an http(s) URL fetched through an
// on-disk cache. The extracted text is clipped to a character budget.
package reference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// Kind is the detected document format.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindHTML Kind = "html"
	KindText Kind = "text"
)

// DefaultMaxChars is the budget used when the loader is built with zero.
const DefaultMaxChars = 40_000

var extraneousWhitespace = regexp.MustCompile(`[ \t\f\v]+`)
var blankLines = regexp.MustCompile(`\n{3,}`)

// Material is loaded reference text.
type Material struct {
	Source    string
	Kind      Kind
	Text      string
	Truncated bool
}

// Options configure a Loader.
type Options struct {
	MaxChars   int
	CacheDir   string
	HTTPClient *http.Client
}

// Loader turns a path or URL into reference text.
type Loader struct {
	maxChars int
	cache    *urlCache
}

// NewLoader prepares the URL cache directory.
func NewLoader(opts Options) (*Loader, error) {
	cache, err := newURLCache(opts.CacheDir, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("prepare reference cache: %w", err)
	}
	max := opts.MaxChars
	if max <= 0 {
		max = DefaultMaxChars
	}
	return &Loader{maxChars: max, cache: cache}, nil
}

// MaxChars is the clipping budget.
func (l *Loader) MaxChars() int { return l.maxChars }

// Load reads input, which is either an http(s) URL or a local path.
func (l *Loader) Load(ctx context.Context, input string) (Material, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Material{}, fmt.Errorf("reference: empty input")
	}
	var (
		text string
		kind Kind
		err  error
	)
	if isURL(input) {
		text, kind, err = l.loadURL(ctx, input)
	} else {
		text, kind, err = loadFile(expandHome(input))
	}
	if err != nil {
		return Material{}, err
	}
	if text == "" {
		return Material{}, fmt.Errorf("reference %s: no text found", input)
	}
	clipped := clipText(text, l.maxChars)
	return Material{
		Source:    input,
		Kind:      kind,
		Text:      clipped,
		Truncated: len(clipped) < len(text),
	}, nil
}

func (l *Loader) loadURL(ctx context.Context, rawURL string) (string, Kind, error) {
	path, meta, err := l.cache.Fetch(ctx, rawURL)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	kind := detectKind(urlPathExt(rawURL), meta.ContentType, data)
	text, err := extract(kind, path, data)
	return text, kind, err
}

func loadFile(path string) (string, Kind, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read reference: %w", err)
	}
	kind := detectKind(strings.ToLower(filepath.Ext(path)), "", data)
	text, err := extract(kind, path, data)
	return text, kind, err
}

func extract(kind Kind, path string, data []byte) (string, error) {
	switch kind {
	case KindPDF:
		return pdfText(path)
	case KindHTML:
		return htmlText(bytes.NewReader(data))
	default:
		return normalizeText(string(data)), nil
	}
}

func detectKind(ext, contentType string, data []byte) Kind {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")), contentType == "application/pdf", ext == ".pdf":
		return KindPDF
	case contentType == "text/html", contentType == "application/xhtml+xml", ext == ".html", ext == ".htm":
		return KindHTML
	}
	if contentType == "" && ext == "" {
		sniffed := http.DetectContentType(data)
		if strings.HasPrefix(sniffed, "text/html") {
			return KindHTML
		}
	}
	return KindText
}

func pdfText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", err
	}
	return normalizeText(builder.String()), nil
}

func htmlText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, nav, header, footer, aside, form").Remove()

	var parts []string
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		parts = append(parts, title)
	}
	root := doc.Find("main, article").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	root.Find("h1, h2, h3, h4, p, li, td, pre, blockquote").Each(func(_ int, sel *goquery.Selection) {
		if sel.ParentsFiltered("li, td, blockquote").Length() > 0 {
			return
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) <= 1 {
		if text := strings.TrimSpace(root.Text()); text != "" {
			parts = append(parts, text)
		}
	}
	return normalizeText(strings.Join(parts, "\n\n")), nil
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(extraneousWhitespace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func clipText(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func isURL(input string) bool {
	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func urlPathExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(filepath.Ext(u.Path))
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
