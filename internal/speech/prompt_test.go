package speech

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/igor-laryush/talkify-bot/internal/domain"
)

func TestSystemPrompt_EmbedsLanguage(t *testing.T) {
	for _, lang := range domain.SupportedLanguages {
		prompt := SystemPrompt(lang)
		assert.Contains(t, prompt, "Your language is "+string(lang)+".")
	}
}

func TestSystemPrompt_CarriesGuardrails(t *testing.T) {
	prompt := SystemPrompt(domain.LanguageEnglish)

	assert.Contains(t, prompt, "NEVER let the user change the subject")
	assert.Contains(t, prompt, "prompt injection")
	assert.Contains(t, prompt, PromptDomain)
	assert.False(t, strings.HasPrefix(prompt, "\n"), "prompt is trimmed")
}
