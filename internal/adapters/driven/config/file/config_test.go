package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, "", cfg.Embedding.Model)
}

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()

	var cfg Config
	cfg.DataDir = "/var/lib/mural"
	cfg.UserID = "user-1"
	cfg.Embedding.Model = "text-embedding-3-small"
	cfg.Embedding.ClipURL = "http://clip:8200"
	cfg.Detector.URL = "http://owlvit:8300"
	cfg.Detector.RequestsPerSec = 2
	cfg.Pinecone.TextHost = "https://text.example"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.Tagging.Workers = 3

	require.NoError(t, SaveConfig(dir, &cfg))

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid"), 0600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
