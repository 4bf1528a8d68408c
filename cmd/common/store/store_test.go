package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Missing(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "videos.json"))
	require.NoError(t, err)
	assert.Empty(t, s.IDs())
	_, ok := s.Get("abc")
	assert.False(t, ok)
}

func TestPutSaveOpen_Verbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "videos.json")
	s, err := Open(path)
	require.NoError(t, err)

	chartText := "120:4, 90:3 # fill\n\n  60:2\n"
	s.Put("dQw4w9WgXcQ", Settings{Tempo: "113", Offset: "0.48", Chart: chartText})
	s.Put("aaa", Settings{Tempo: "not a number"})
	require.NoError(t, s.Save())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa", "dQw4w9WgXcQ"}, reopened.IDs())

	v, ok := reopened.Get("dQw4w9WgXcQ")
	require.True(t, ok)
	assert.Equal(t, chartText, v.Chart)
	assert.Equal(t, "0.48", v.Offset)

	v, ok = reopened.Get("aaa")
	require.True(t, ok)
	assert.Equal(t, "not a number", v.Tempo)
}

func TestDelete(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "videos.json"))
	require.NoError(t, err)
	s.Put("x", Settings{Tempo: "100"})
	assert.True(t, s.Delete("x"))
	assert.False(t, s.Delete("x"))
}

func TestOpen_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.json")
	require.NoError(t, os.WriteFile(path, []byte("[1,2"), 0644))
	_, err := Open(path)
	assert.Error(t, err)
}

func TestPath_UsesConfigHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BEATSEEK_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "videos.json"), Path())
}
