package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFilePath(t *testing.T) {
	t.Run("rejects empty path", func(t *testing.T) {
		_, err := ValidateFilePath("  ")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("rejects shell characters", func(t *testing.T) {
		for _, char := range forbiddenChars {
			_, err := ValidateFilePath("/tmp/tasks" + string(char) + ".db")
			assert.ErrorIs(t, err, ErrInvalidPath, "character %q", char)
		}
	})

	t.Run("resolves existing file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "tasks.json")
		require.NoError(t, os.WriteFile(file, []byte("[]"), 0o600))

		got, err := ValidateFilePath(file)
		require.NoError(t, err)
		want, _ := filepath.EvalSymlinks(file)
		assert.Equal(t, want, got)
	})

	t.Run("cleans missing file", func(t *testing.T) {
		dir := t.TempDir()
		got, err := ValidateFilePath(filepath.Join(dir, "nested", "..", "tasks.db"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "tasks.db"), got)
	})

	t.Run("makes relative paths absolute", func(t *testing.T) {
		got, err := ValidateFilePath("data/tasks.db")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
		assert.Equal(t, "tasks.db", filepath.Base(got))
	})

	t.Run("follows symlinks", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "real.db")
		require.NoError(t, os.WriteFile(target, nil, 0o600))
		link := filepath.Join(dir, "link.db")
		if err := os.Symlink(target, link); err != nil {
			t.Skip("symlinks not supported")
		}

		got, err := ValidateFilePath(link)
		require.NoError(t, err)
		want, _ := filepath.EvalSymlinks(target)
		assert.Equal(t, want, got)
	})
}
