package domain

import "time"

// Language is a closed set of practice languages the bot can respond in.
type Language string

const (
	LanguageEnglish    Language = "English"
	LanguageSpanish    Language = "Spanish"
	LanguageFrench     Language = "French"
	LanguageGerman     Language = "German"
	LanguageItalian    Language = "Italian"
	LanguagePortuguese Language = "Portuguese"
)

// DefaultLanguage is assigned to newly created users.
const DefaultLanguage = LanguageEnglish

// SupportedLanguages lists all selectable languages in display order.
var SupportedLanguages = []Language{
	LanguageEnglish,
	LanguageSpanish,
	LanguageFrench,
	LanguageGerman,
	LanguageItalian,
	LanguagePortuguese,
}

var languageLabels = map[Language]string{
	LanguageEnglish:    "🇬🇧 English",
	LanguageSpanish:    "🇪🇸 Spanish",
	LanguageFrench:     "🇫🇷 French",
	LanguageGerman:     "🇩🇪 German",
	LanguageItalian:    "🇮🇹 Italian",
	LanguagePortuguese: "🇵🇹 Portuguese",
}

// LookupLanguage resolves a tag against the supported set.
func LookupLanguage(tag string) (Language, bool) {
	for _, lang := range SupportedLanguages {
		if string(lang) == tag {
			return lang, true
		}
	}
	return DefaultLanguage, false
}

// ParseLanguage maps a stored tag to a supported Language, falling back to
// the default so an unexpected tag never breaks lookups downstream.
func ParseLanguage(tag string) Language {
	lang, _ := LookupLanguage(tag)
	return lang
}

// Label returns the flagged display name for keyboards and confirmations.
func (l Language) Label() string {
	if label, ok := languageLabels[l]; ok {
		return label
	}
	return languageLabels[DefaultLanguage]
}

// User represents a bot user stored in the database.
// Exactly one record exists per telegram id; records are created lazily on
// first contact and never deleted.
type User struct {
	ID               int64
	TelegramID       int64
	Username         string
	Premium          bool
	Language         Language
	PremiumAudioMode bool
	CreatedAt        time.Time
}
