package reference

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const samplePage = `<html><head><title>Cells</title><script>var x = 1;</script></head>
<body><nav>menu items</nav>
<main><h1>Cell biology</h1><p>Cells are   the basic
unit of life.</p><ul><li>Nucleus</li><li>Ribosome</li></ul></main>
<footer>copyright</footer></body></html>`

func newTestLoader(t *testing.T, max int, client *http.Client) *Loader {
	t.Helper()
	loader, err := NewLoader(Options{MaxChars: max, CacheDir: t.TempDir(), HTTPClient: client})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	return loader
}

func TestHTMLTextDropsChrome(t *testing.T) {
	t.Parallel()
	text, err := htmlText(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("htmlText: %v", err)
	}
	want := "Cells\n\nCell biology\n\nCells are the basic\nunit of life.\n\nNucleus\n\nRibosome"
	if text != want {
		t.Fatalf("unexpected text:\n%q\nwant\n%q", text, want)
	}
	for _, noise := range []string{"menu items", "copyright", "var x"} {
		if strings.Contains(text, noise) {
			t.Fatalf("text should not contain %q", noise)
		}
	}
}

func TestLoadLocalFiles(t *testing.T) {
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "page.html")
	txtPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(htmlPath, []byte(samplePage), 0o644); err != nil {
		t.Fatalf("write html: %v", err)
	}
	if err := os.WriteFile(txtPath, []byte("  Line one\r\n\r\n\r\n\r\nLine   two  \n"), 0o644); err != nil {
		t.Fatalf("write txt: %v", err)
	}
	loader := newTestLoader(t, 0, nil)

	html, err := loader.Load(context.Background(), htmlPath)
	if err != nil {
		t.Fatalf("load html: %v", err)
	}
	if html.Kind != KindHTML || !strings.Contains(html.Text, "Cell biology") {
		t.Fatalf("unexpected html material: %+v", html)
	}

	txt, err := loader.Load(context.Background(), txtPath)
	if err != nil {
		t.Fatalf("load txt: %v", err)
	}
	if txt.Kind != KindText || txt.Text != "Line one\n\nLine two" {
		t.Fatalf("unexpected text material: %+v", txt)
	}
}

func TestLoadClipsToBudget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("é", 50)), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loader := newTestLoader(t, 10, nil)

	m, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := []rune(m.Text); len(got) != 10 {
		t.Fatalf("expected 10 runes, got %d", len(got))
	}
	if !m.Truncated {
		t.Fatal("material should be marked truncated")
	}
}

func TestLoadRejectsEmptyAndMissing(t *testing.T) {
	loader := newTestLoader(t, 0, nil)
	if _, err := loader.Load(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
	blank := filepath.Join(t.TempDir(), "blank.txt")
	if err := os.WriteFile(blank, []byte(" \n\t"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loader.Load(context.Background(), blank); err == nil {
		t.Fatal("expected error for a file without text")
	}
}

func TestLoadMalformedPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\nHello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loader := newTestLoader(t, 0, nil)
	if _, err := loader.Load(context.Background(), path); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}

func TestLoadURLUsesContentType(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Etag", `"page"`)
		_, _ = w.Write([]byte(samplePage))
	}))
	t.Cleanup(server.Close)
	loader := newTestLoader(t, 0, server.Client())

	for i := 0; i < 2; i++ {
		m, err := loader.Load(context.Background(), server.URL+"/lesson")
		if err != nil {
			t.Fatalf("load url: %v", err)
		}
		if m.Kind != KindHTML || !strings.HasPrefix(m.Text, "Cells") {
			t.Fatalf("unexpected material: %+v", m)
		}
	}
	if hits != 1 {
		t.Fatalf("expected a single download, got %d", hits)
	}
}

func TestDetectKind(t *testing.T) {
	t.Parallel()
	cases := []struct {
		ext, contentType string
		data             string
		want             Kind
	}{
		{".pdf", "", "", KindPDF},
		{"", "application/pdf", "", KindPDF},
		{"", "", "%PDF-1.7 ...", KindPDF},
		{".htm", "", "", KindHTML},
		{"", "", "<!DOCTYPE html><html><body>x</body></html>", KindHTML},
		{".md", "", "# heading", KindText},
		{"", "text/plain", "<html>", KindText},
	}
	for _, tc := range cases {
		if got := detectKind(tc.ext, tc.contentType, []byte(tc.data)); got != tc.want {
			t.Fatalf("detectKind(%q, %q) = %s, want %s", tc.ext, tc.contentType, got, tc.want)
		}
	}
}

func TestCacheReusesFreshFile(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Etag", `"v1"`)
		_, _ = w.Write([]byte("Hello"))
	}))
	t.Cleanup(server.Close)

	cache, err := newURLCache(t.TempDir(), server.Client())
	if err != nil {
		t.Fatalf("newURLCache: %v", err)
	}
	ctx := context.Background()

	path, _, err := cache.Fetch(ctx, server.URL+"/doc")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	path2, meta, err := cache.Fetch(ctx, server.URL+"/doc")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if path != path2 {
		t.Fatalf("paths differ: %s vs %s", path, path2)
	}
	if hits != 1 {
		t.Fatalf("cache miss triggered download, total hits %d", hits)
	}
	if meta.ETag != `"v1"` {
		t.Fatalf("expected etag recorded, got %+v", meta)
	}
}

func TestCacheRevalidatesStaleFile(t *testing.T) {
	var conditional string
	var downloads int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inm := r.Header.Get("If-None-Match"); inm != "" {
			conditional = inm
			w.WriteHeader(http.StatusNotModified)
			return
		}
		downloads++
		w.Header().Set("Etag", `"v2"`)
		_, _ = w.Write([]byte("Updated"))
	}))
	t.Cleanup(server.Close)

	cache, err := newURLCache(t.TempDir(), server.Client())
	if err != nil {
		t.Fatalf("newURLCache: %v", err)
	}
	ctx := context.Background()

	path, _, err := cache.Fetch(ctx, server.URL+"/doc")
	if err != nil {
		t.Fatalf("initial fetch: %v", err)
	}
	old := time.Now().Add(-(cacheTTL + time.Hour))
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if _, _, err := cache.Fetch(ctx, server.URL+"/doc"); err != nil {
		t.Fatalf("conditional fetch: %v", err)
	}
	if conditional != `"v2"` {
		t.Fatalf("expected If-None-Match for stale cache, got %q", conditional)
	}
	if downloads != 1 {
		t.Fatalf("not-modified response should not download again, got %d downloads", downloads)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "Updated" {
		t.Fatalf("cached body lost: %q, %v", data, err)
	}
}

func TestCacheResumesPartialDownload(t *testing.T) {
	var rangeHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader = r.Header.Get("Range")
		w.Header().Set("Etag", `"resume"`)
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("world"))
	}))
	t.Cleanup(server.Close)

	cache, err := newURLCache(t.TempDir(), server.Client())
	if err != nil {
		t.Fatalf("newURLCache: %v", err)
	}
	rawURL := server.URL + "/doc.txt"
	bodyPath, metaPath, partPath := cache.pathsFor(cacheKey(rawURL))

	if err := os.WriteFile(partPath, []byte("hello "), 0o644); err != nil {
		t.Fatalf("write partial: %v", err)
	}
	if err := writeMeta(metaPath, cacheMeta{ETag: `"resume"`, ContentType: "text/plain"}); err != nil {
		t.Fatalf("write meta: %v", err)
	}

	path, meta, err := cache.Fetch(context.Background(), rawURL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if path != bodyPath {
		t.Fatalf("unexpected path: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cached body: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("resume failed, got %q", string(data))
	}
	if rangeHeader != fmt.Sprintf("bytes=%d-", len("hello ")) {
		t.Fatalf("expected range header, got %q", rangeHeader)
	}
	if meta.Size != int64(len("hello world")) {
		t.Fatalf("unexpected recorded size: %d", meta.Size)
	}
	if _, err := os.Stat(partPath); !os.IsNotExist(err) {
		t.Fatalf("partial file should be renamed away, err=%v", err)
	}
}

func TestCacheServesStaleCopyWhenServerFails(t *testing.T) {
	fail := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("cached"))
	}))
	t.Cleanup(server.Close)

	cache, err := newURLCache(t.TempDir(), server.Client())
	if err != nil {
		t.Fatalf("newURLCache: %v", err)
	}
	path, _, err := cache.Fetch(context.Background(), server.URL+"/doc")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	old := time.Now().Add(-(cacheTTL + time.Hour))
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	fail = true

	stale, _, err := cache.Fetch(context.Background(), server.URL+"/doc")
	if err != nil {
		t.Fatalf("stale fetch should succeed: %v", err)
	}
	if stale != path {
		t.Fatalf("expected stale path %s, got %s", path, stale)
	}

	if _, _, err := cache.Fetch(context.Background(), server.URL+"/other"); err == nil {
		t.Fatal("expected error when nothing is cached")
	}
}
