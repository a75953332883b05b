package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrations_LexicalOrderUpOnly(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"0002_second.up.sql",
		"0001_first.up.sql",
		"0001_first.down.sql",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(dir+"/"+name, []byte("SELECT 1;"), 0o600))
	}

	names, err := ListMigrations(os.DirFS(dir), ".")
	require.NoError(t, err)

	assert.Equal(t, []string{"0001_first.up.sql", "0002_second.up.sql"}, names)
}

func TestIsUpMigration(t *testing.T) {
	assert.True(t, isUpMigration("0001_create_users.up.sql"))
	assert.False(t, isUpMigration("0001_create_users.down.sql"))
	assert.False(t, isUpMigration("README.md"))
}
