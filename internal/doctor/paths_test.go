package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeCheck(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing pipe is fixed with mkfifo", func(t *testing.T) {
		path := filepath.Join(dir, "Sstat", "datamon.fifo")
		check := &PipeCheck{Path: path}

		result := check.Run()
		assert.Equal(t, StatusFail, result.Status)
		assert.True(t, result.Fixable)

		require.NoError(t, check.Fix())
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&os.ModeNamedPipe)
		assert.Equal(t, StatusPass, check.Run().Status)
	})

	t.Run("regular file is not replaced", func(t *testing.T) {
		path := filepath.Join(dir, "plain")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		check := &PipeCheck{Path: path}

		result := check.Run()
		assert.Equal(t, StatusFail, result.Status)
		assert.False(t, result.Fixable)
		assert.Error(t, check.Fix())
	})
}

func TestLogDirCheck(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "G2DATA", "Slogs")
	check := &LogDirCheck{Dir: dir}

	result := check.Run()
	assert.Equal(t, StatusFail, result.Status)
	assert.True(t, result.Fixable)

	require.NoError(t, check.Fix())
	assert.Equal(t, StatusPass, check.Run().Status)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "write probe must clean up")
}

func TestLogDirCheckNotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	result := (&LogDirCheck{Dir: path}).Run()
	assert.Equal(t, StatusFail, result.Status)
	assert.False(t, result.Fixable)
}
