package localization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("Default always first", func(t *testing.T) {
		languages := New([]string{"de", "fr"})
		assert.Equal(t, []string{"en", "de", "fr"}, languages.Codes())
	})

	t.Run("Duplicate default dropped", func(t *testing.T) {
		languages := New([]string{"en", "de"})
		assert.Equal(t, []string{"en", "de"}, languages.Codes())
	})

	t.Run("Invalid codes dropped", func(t *testing.T) {
		languages := New([]string{"german", "DE", "de-at", "d3", "", "de-AT"})
		assert.Equal(t, []string{"en", "de-AT"}, languages.Codes())
	})

	t.Run("Empty configuration", func(t *testing.T) {
		languages := New(nil)
		assert.Equal(t, []string{"en"}, languages.Codes())
	})
}

func TestSupported(t *testing.T) {
	languages := New([]string{"de", "fr"})

	assert.True(t, languages.Supported("en"))
	assert.True(t, languages.Supported("de"))
	assert.False(t, languages.Supported("es"))
	assert.False(t, languages.Supported(""))
	assert.False(t, languages.Supported("DE"))
}

func TestMatch(t *testing.T) {
	languages := New([]string{"de", "fr"})

	assert.Equal(t, "de", languages.Match("de-CH, fr;q=0.8"))
	assert.Equal(t, "fr", languages.Match("fr"))
	assert.Equal(t, "en", languages.Match("es, pt;q=0.9"))
	assert.Equal(t, "en", languages.Match(""))
	assert.Equal(t, "en", languages.Match("not a header"))
}

func TestNames(t *testing.T) {
	languages := New([]string{"de"})

	names := languages.Names("en")
	assert.Len(t, names, 2)

	byCode := map[string]string{}
	for _, name := range names {
		byCode[name.Code] = name.Name
	}
	assert.Equal(t, "English", byCode["en"])
	assert.Equal(t, "German (Deutsch)", byCode["de"])

	// In the current language only the plain name is shown.
	names = languages.Names("de")
	byCode = map[string]string{}
	for _, name := range names {
		byCode[name.Code] = name.Name
	}
	assert.Equal(t, "Deutsch", byCode["de"])
}
