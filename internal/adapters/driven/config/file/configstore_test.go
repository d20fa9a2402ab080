package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	s, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestConfigStore_SetGet(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("generation.model", "gpt-4o-mini"))
	require.NoError(t, s.Set("generation.max_retries", int64(2)))
	require.NoError(t, s.Set("sort", true))

	assert.Equal(t, "gpt-4o-mini", s.GetString("generation.model"))
	assert.Equal(t, 2, s.GetInt("generation.max_retries"))
	assert.True(t, s.GetBool("sort"))

	_, ok := s.Get("absent")
	assert.False(t, ok)
	assert.Equal(t, "", s.GetString("absent"))
	assert.Equal(t, 0, s.GetInt("absent"))
}

func TestConfigStore_PersistsAcrossLoads(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Set("corpus.root", "/blog/posts"))

	s2, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "/blog/posts", s2.GetString("corpus.root"))
}

func TestConfigStore_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	cfg := "[generation]\nmodel = \"m1\"\n\n[generation.headers]\nx-extra = \"v\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(cfg), 0o600))

	s, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "m1", s.GetString("generation.model"))
	assert.Equal(t, "v", s.GetString("generation.headers.x-extra"))
}

func TestConfigStore_GetStringMap(t *testing.T) {
	dir := t.TempDir()
	cfg := "[generation.extra_headers]\n\"X-Title\" = \"my-blog\"\n\"HTTP-Referer\" = \"https://example.org\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(cfg), 0o600))

	s, err := NewConfigStore(dir)
	require.NoError(t, err)

	headers := s.GetStringMap("generation.extra_headers")
	assert.Equal(t, map[string]string{
		"X-Title":      "my-blog",
		"HTTP-Referer": "https://example.org",
	}, headers)
	assert.Nil(t, s.GetStringMap("generation.absent"))
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	dir := t.TempDir()
	cfg := "filters = [\"posts/\", \"notes/\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(cfg), 0o600))

	s, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/", "notes/"}, s.GetStringSlice("filters"))
	assert.Nil(t, s.GetStringSlice("absent"))
}

func TestConfigStore_MissingFileStartsEmpty(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, "", s.GetString("anything"))
	assert.DirExists(t, filepath.Dir(s.Path()))
}
