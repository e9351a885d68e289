package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	t.Run("rejects empty path", func(t *testing.T) {
		_, err := CleanPath("")
		assert.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("rejects shell characters", func(t *testing.T) {
		for _, c := range forbidden {
			_, err := CleanPath("/tmp/cal" + string(c) + ".ics")
			assert.ErrorIs(t, err, ErrForbiddenCharacter, "character %q", c)
		}
	})

	t.Run("resolves existing files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "work.ics")
		require.NoError(t, os.WriteFile(path, []byte("BEGIN:VCALENDAR"), 0o600))

		got, err := CleanPath(path)
		require.NoError(t, err)
		want, _ := filepath.EvalSymlinks(path)
		assert.Equal(t, want, got)
	})

	t.Run("keeps missing files cleaned", func(t *testing.T) {
		dir := t.TempDir()
		got, err := CleanPath(filepath.Join(dir, "a", "..", "missing.ics"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "missing.ics"), got)
	})
}

func TestOpenImportFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("opens an ics file", func(t *testing.T) {
		path := filepath.Join(dir, "Team.ICS")
		require.NoError(t, os.WriteFile(path, []byte("BEGIN:VCALENDAR"), 0o600))

		f, err := OpenImportFile(path, ".ics")
		require.NoError(t, err)
		defer f.Close()
	})

	t.Run("rejects other extensions", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

		_, err := OpenImportFile(path, ".ics")
		assert.ErrorIs(t, err, ErrUnsupportedExtension)
	})

	t.Run("rejects directories", func(t *testing.T) {
		sub := filepath.Join(dir, "folder.ics")
		require.NoError(t, os.Mkdir(sub, 0o750))

		_, err := OpenImportFile(sub, ".ics")
		assert.ErrorIs(t, err, ErrNotRegularFile)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := OpenImportFile(filepath.Join(dir, "nope.ics"), ".ics")
		assert.True(t, os.IsNotExist(err))
	})
}
