package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `english:
  notice:
    limit_reached: "limit reached"
    nested:
      deep: "deep value"
spanish:
  notice:
    limit_reached: "límite alcanzado"
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notices.yaml"), []byte(content), 0o600))
	return dir
}

func TestLoadFromDir_ResolvesKeys(t *testing.T) {
	m, err := LoadFromDir(writeCatalog(t, sampleCatalog), "english")
	require.NoError(t, err)

	assert.Equal(t, "limit reached", m.Translator("english").T("notice.limit_reached"))
	assert.Equal(t, "límite alcanzado", m.Translator("spanish").T("notice.limit_reached"))
	assert.Equal(t, "deep value", m.Translator("english").T("notice.nested.deep"))
}

func TestTranslator_FallsBackToDefaultLanguage(t *testing.T) {
	m, err := LoadFromDir(writeCatalog(t, sampleCatalog), "english")
	require.NoError(t, err)

	// Spanish has no nested.deep entry; english supplies it.
	assert.Equal(t, "deep value", m.Translator("spanish").T("notice.nested.deep"))
}

func TestTranslator_UnknownLanguageUsesDefault(t *testing.T) {
	m, err := LoadFromDir(writeCatalog(t, sampleCatalog), "english")
	require.NoError(t, err)

	tr := m.Translator("klingon")
	assert.Equal(t, "english", tr.Lang())
	assert.Equal(t, "limit reached", tr.T("notice.limit_reached"))
}

func TestTranslator_MissingKeyReturnsKey(t *testing.T) {
	m, err := LoadFromDir(writeCatalog(t, sampleCatalog), "english")
	require.NoError(t, err)

	assert.Equal(t, "notice.unknown", m.Translator("english").T("notice.unknown"))
}

func TestLoadFromDir_MissingDefaultLanguage(t *testing.T) {
	_, err := LoadFromDir(writeCatalog(t, sampleCatalog), "german")
	assert.Error(t, err)
}

func TestLoadFromDir_EmptyDir(t *testing.T) {
	_, err := LoadFromDir(t.TempDir(), "english")
	assert.Error(t, err)
}
