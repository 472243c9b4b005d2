package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMatchPicksClosestLanguage(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	cases := map[string]string{
		"":      "en",
		"en-GB": "en",
		"es":    "es",
		"es-MX": "es",
		"fr":    "en",
		"%%":    "en",
	}
	for input, want := range cases {
		assert.Equal(t, want, tr.Match(input), input)
	}
}

func TestTranslateWithFallbacks(t *testing.T) {
	tr, err := New("es")
	require.NoError(t, err)
	assert.Equal(t, "es", tr.Language())

	assert.Equal(t, "Perfil", tr.T("nav.profile"))
	assert.Equal(t, "Tema es obligatorio", tr.T("error.required", "Tema"))
	assert.Equal(t, "no.such.key", tr.T("no.such.key"))

	tr.SetLanguage("en")
	assert.Equal(t, "Profile", tr.T("nav.profile"))
}

func TestNextCyclesSupportedLanguages(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)
	assert.Equal(t, "es", tr.Next())
	assert.Equal(t, "en", tr.Next())
}

func TestCatalogsHaveTheSameKeys(t *testing.T) {
	catalogs := map[string]map[string]string{}
	for _, code := range Supported() {
		data, err := localeFS.ReadFile("locales/" + code + ".yaml")
		require.NoError(t, err)
		var catalog map[string]string
		require.NoError(t, yaml.Unmarshal(data, &catalog))
		catalogs[code] = catalog
	}
	for key := range catalogs[Fallback] {
		for code, catalog := range catalogs {
			_, ok := catalog[key]
			assert.True(t, ok, "%s missing %q", code, key)
		}
	}
	assert.Equal(t, len(catalogs["en"]), len(catalogs["es"]))
}
