package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mural-labs/mural/internal/core/ports/driven"
)

func TestPromptStoreDefaults(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDecideParams)
	require.NoError(t, err)
	assert.Contains(t, prompt, "retrieval parameters")

	prompt, err = store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Retrieved context")
}

func TestPromptStoreCreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Constructor does no I/O; first Load creates the files.
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)

	_, err = store.Load(driven.PromptDecideParams)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, driven.PromptDecideParams+".txt"))
	assert.NoError(t, err)
}

func TestPromptStoreUserOverride(t *testing.T) {
	dir := t.TempDir()
	custom := "Custom decide prompt: %s %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptDecideParams+".txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDecideParams)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStoreReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Populate the cache with the default file content.
	original, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)

	// Edit on disk; the cached value still wins until Reload.
	edited := "Edited answer prompt: %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptAnswerSystem+".txt"), []byte(edited), 0600))

	cached, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, original, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, edited, fresh)
}

func TestPromptStoreUnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}
