package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Settings{}, s)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	require.NoError(t, Save(path, Settings{GeminiAPIKey: "  AIza-test  ", Language: "vi"}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "AIza-test", s.GeminiAPIKey)
	assert.Equal(t, "vi", s.Language)
	assert.True(t, s.HasAPIKey())
}

func TestSave_BlankKeyRemovesIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, Save(path, Settings{GeminiAPIKey: "AIza-test"}))

	s, err := Load(path)
	require.NoError(t, err)
	s.SetAPIKey("   ")
	require.NoError(t, Save(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "gemini-api-key")

	s, err = Load(path)
	require.NoError(t, err)
	assert.False(t, s.HasAPIKey())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gemini-api-key: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(PathEnvVar, "/tmp/custom.yaml")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.yaml", p)

	t.Setenv(PathEnvVar, "")
	t.Setenv("HOME", "/home/tester")
	p, err = DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".styleai", "settings.yaml"), p)
}
