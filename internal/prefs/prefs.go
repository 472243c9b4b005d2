// Package prefs persists the small set of client preferences that survive
// restarts: interface language and theme.
package prefs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLanguage = "en"
	DefaultTheme    = "dark"
)

// Preferences mirrors what the web client kept in local storage.
type Preferences struct {
	Language string `yaml:"language"`
	Theme    string `yaml:"theme"`
}

// Defaults returns the preferences used when nothing was stored yet.
func Defaults() Preferences {
	return Preferences{Language: DefaultLanguage, Theme: DefaultTheme}
}

// Load reads preferences from path. A missing or empty file yields Defaults;
// blank fields are filled with their defaults.
func Load(path string) (Preferences, error) {
	prefs := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return prefs, nil
	}
	var stored Preferences
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return prefs, fmt.Errorf("parse preferences %s: %w", path, err)
	}
	if lang := strings.TrimSpace(stored.Language); lang != "" {
		prefs.Language = lang
	}
	if theme := strings.TrimSpace(stored.Theme); theme != "" {
		prefs.Theme = theme
	}
	return prefs, nil
}

// Save writes preferences to path, creating the parent directory. The file
// is replaced atomically through a uniquely named temp file.
func Save(path string, prefs Preferences) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Writer serializes saves to one path. Each save carries a revision and a
// save older than the last written one is skipped, so the newest
// preferences win however the saves are scheduled.
type Writer struct {
	path string

	mu      sync.Mutex
	written uint64
}

// NewWriter returns a Writer for path. An empty path disables saving.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the file the writer saves to.
func (w *Writer) Path() string { return w.path }

// Save writes prefs when rev is newer than every revision written so far.
// It reports whether the file was written.
func (w *Writer) Save(rev uint64, prefs Preferences) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.path == "" || rev <= w.written {
		return false, nil
	}
	if err := Save(w.path, prefs); err != nil {
		return false, err
	}
	w.written = rev
	return true, nil
}
