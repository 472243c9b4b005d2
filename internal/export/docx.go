// Package export writes generated results to documents on disk.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Converter turns markdown into DOCX bytes.
type Converter interface {
	ExportDocx(ctx context.Context, markdown, filename string) ([]byte, error)
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// foldAccents strips combining marks, so "Química" becomes "Quimica".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Filename derives a safe .docx name from a title.
func Filename(title string) string {
	slug := foldAccents(strings.ToLower(strings.TrimSpace(title)))
	slug = unsafeChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}
	if slug == "" {
		slug = "eduforge-export"
	}
	return slug + ".docx"
}

// Docx converts markdown through conv and writes it under dir. Existing
// files are never overwritten; a numeric suffix is added instead
// ("name-1.docx"). It returns the written path.
func Docx(ctx context.Context, conv Converter, dir, title, markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", errors.New("export: nothing to export")
	}
	name := Filename(title)
	data, err := conv.ExportDocx(ctx, markdown, name)
	if err != nil {
		return "", fmt.Errorf("export docx: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("export docx: empty document")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path, err := freePath(dir, name)
	if err != nil {
		return "", err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, nil
}

func freePath(dir, name string) (string, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	ext := filepath.Ext(name)
	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
	}
	return "", fmt.Errorf("export: no free file name for %s in %s", name, dir)
}
