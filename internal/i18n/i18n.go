// Package i18n holds the interface message catalogs and picks the closest
// supported language for a requested tag.
package i18n

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Fallback is used for missing keys and unmatched languages.
const Fallback = "en"

var supported = []language.Tag{language.English, language.Spanish}

// Supported lists the language codes with a catalog, in cycle order.
func Supported() []string {
	codes := make([]string, 0, len(supported))
	for _, tag := range supported {
		base, _ := tag.Base()
		codes = append(codes, base.String())
	}
	return codes
}

// Translator resolves message keys for the active language.
type Translator struct {
	mu       sync.RWMutex
	lang     string
	catalogs map[string]map[string]string
	matcher  language.Matcher
}

// New loads the embedded catalogs and activates lang (matched to the
// closest supported language).
func New(lang string) (*Translator, error) {
	catalogs := make(map[string]map[string]string, len(supported))
	for _, code := range Supported() {
		data, err := localeFS.ReadFile("locales/" + code + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", code, err)
		}
		var catalog map[string]string
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", code, err)
		}
		catalogs[code] = catalog
	}
	t := &Translator{
		catalogs: catalogs,
		matcher:  language.NewMatcher(supported),
	}
	t.SetLanguage(lang)
	return t, nil
}

// Match returns the supported language code closest to the requested tag.
func (t *Translator) Match(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return Fallback
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return Fallback
	}
	_, index, confidence := t.matcher.Match(tag)
	if confidence == language.No {
		return Fallback
	}
	base, _ := supported[index].Base()
	return base.String()
}

// SetLanguage activates the closest supported language and returns it.
func (t *Translator) SetLanguage(lang string) string {
	code := t.Match(lang)
	t.mu.Lock()
	t.lang = code
	t.mu.Unlock()
	return code
}

// Language reports the active language code.
func (t *Translator) Language() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

// Next activates the language after the current one in Supported order.
func (t *Translator) Next() string {
	codes := Supported()
	current := t.Language()
	for i, code := range codes {
		if code == current {
			return t.SetLanguage(codes[(i+1)%len(codes)])
		}
	}
	return t.SetLanguage(Fallback)
}

// T formats the message for key. Missing keys fall back to English and then
// to the key itself.
func (t *Translator) T(key string, args ...any) string {
	t.mu.RLock()
	lang := t.lang
	t.mu.RUnlock()

	message, ok := t.catalogs[lang][key]
	if !ok {
		message, ok = t.catalogs[Fallback][key]
	}
	if !ok {
		message = key
	}
	if len(args) == 0 {
		return message
	}
	return fmt.Sprintf(message, args...)
}
