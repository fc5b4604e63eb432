package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSetAndGet(t *testing.T) {
	store := newTestConfig(t)

	require.NoError(t, store.Set("ollama_url", "http://localhost:11434"))

	val, ok := store.Get("ollama_url")
	assert.True(t, ok)
	assert.Equal(t, "http://localhost:11434", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestTypedGetters(t *testing.T) {
	store := newTestConfig(t)
	require.NoError(t, store.Set("embed_model", "mxbai-embed-large"))
	require.NoError(t, store.Set("concurrency", 4))
	require.NoError(t, store.Set("hybrid_weight", 0.7))
	require.NoError(t, store.Set("use_reranker", true))
	require.NoError(t, store.Set("scan_folders", []string{"/shots", "/captures"}))

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "mxbai-embed-large", store.GetString("embed_model"))
		assert.Equal(t, "", store.GetString("missing"))
		assert.Equal(t, "", store.GetString("concurrency")) // wrong type
	})

	t.Run("int", func(t *testing.T) {
		assert.Equal(t, 4, store.GetInt("concurrency"))
		assert.Equal(t, 0, store.GetInt("missing"))
	})

	t.Run("float", func(t *testing.T) {
		assert.Equal(t, 0.7, store.GetFloat("hybrid_weight"))
		assert.Equal(t, 4.0, store.GetFloat("concurrency")) // ints widen
		assert.Equal(t, 0.0, store.GetFloat("missing"))
	})

	t.Run("bool", func(t *testing.T) {
		assert.True(t, store.GetBool("use_reranker"))
		assert.False(t, store.GetBool("missing"))
	})

	t.Run("string slice", func(t *testing.T) {
		assert.Equal(t, []string{"/shots", "/captures"}, store.GetStringSlice("scan_folders"))
		assert.Nil(t, store.GetStringSlice("missing"))
	})
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("hybrid_weight", 0.3))
	require.NoError(t, store.Set("scan_folders", []string{"/shots"}))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.3, reloaded.GetFloat("hybrid_weight"))
	assert.Equal(t, []string{"/shots"}, reloaded.GetStringSlice("scan_folders"))
}

func TestLoad_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	toml := "[ollama]\nurl = \"http://localhost:11434\"\nvision_model = \"moondream\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", store.GetString("ollama.url"))
	assert.Equal(t, "moondream", store.GetString("ollama.vision_model"))
}

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	store := newTestConfig(t)
	_, ok := store.Get("anything")
	assert.False(t, ok)
	assert.NotEmpty(t, store.Path())
}
