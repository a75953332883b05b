package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupLanguage(t *testing.T) {
	lang, ok := LookupLanguage("Spanish")
	assert.True(t, ok)
	assert.Equal(t, LanguageSpanish, lang)

	lang, ok = LookupLanguage("Klingon")
	assert.False(t, ok)
	assert.Equal(t, DefaultLanguage, lang)

	// Tags are case-sensitive; stored values always use the canonical form.
	_, ok = LookupLanguage("spanish")
	assert.False(t, ok)
}

func TestParseLanguage_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, LanguageFrench, ParseLanguage("French"))
	assert.Equal(t, DefaultLanguage, ParseLanguage("garbage"))
	assert.Equal(t, DefaultLanguage, ParseLanguage(""))
}

func TestLabel_EveryLanguageHasOne(t *testing.T) {
	seen := make(map[string]bool)
	for _, lang := range SupportedLanguages {
		label := lang.Label()
		assert.NotEmpty(t, label)
		assert.False(t, seen[label], "labels are unique")
		seen[label] = true
	}

	assert.Equal(t, DefaultLanguage.Label(), Language("unknown").Label())
}
