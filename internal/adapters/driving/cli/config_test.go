package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command against an isolated config directory
// and returns its combined output.
func execute(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append(args, "--config", configDir))
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestConfigCmd_SetAndShow(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "config", "set", "generation.model", "gpt-4o")
	require.NoError(t, err)
	assert.Contains(t, out, "generation.model = gpt-4o")

	out, err = execute(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "generation.model = gpt-4o")
}

func TestConfigCmd_SetCoercesTypes(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "config", "set", "sync.concurrency", "5")
	require.NoError(t, err)
	_, err = execute(t, dir, "config", "set", "source.include_drafts", "true")
	require.NoError(t, err)
	_, err = execute(t, dir, "config", "set", "source.filters", "posts/,pages/")
	require.NoError(t, err)

	// Re-run show to reload from disk through a fresh store.
	_, err = execute(t, dir, "config", "show")
	require.NoError(t, err)

	assert.Equal(t, 5, configStore.GetInt("sync.concurrency"))
	assert.True(t, configStore.GetBool("source.include_drafts"))
	assert.Equal(t, []string{"posts/", "pages/"}, configStore.GetStringSlice("source.filters"))
}

func TestConfigCmd_DoesNotPrintAPIKey(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "config", "set", "generation.api_key", "sk-secret")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-secret")

	out, err = execute(t, dir, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-secret")
	assert.Contains(t, out, "generation.api_key = (set)")
}

func TestConfigCmd_Path(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, dir)
	assert.Contains(t, out, "config.toml")
}
