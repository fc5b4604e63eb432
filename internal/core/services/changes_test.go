package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.png", "hello")

	hash, err := HashFile(path)
	require.NoError(t, err)
	// sha256("hello")
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", hash)

	_, err = HashFile(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestDetectChanges(t *testing.T) {
	dir := t.TempDir()
	newFile := writeFile(t, dir, "new.png", "fresh")
	changedFile := writeFile(t, dir, "changed.png", "version two")
	sameFile := writeFile(t, dir, "same.png", "stable")

	sameHash, err := HashFile(sameFile)
	require.NoError(t, err)

	stored := map[string]string{
		changedFile: "0000000000000000000000000000000000000000000000000000000000000000",
		sameFile:    sameHash,
	}

	t.Run("buckets by content hash", func(t *testing.T) {
		cs, hashes, err := DetectChanges(context.Background(), []string{newFile, changedFile, sameFile}, stored, false)
		require.NoError(t, err)

		assert.Equal(t, []string{newFile}, cs.New)
		assert.Equal(t, []string{changedFile}, cs.Changed)
		assert.Equal(t, []string{sameFile}, cs.Unchanged)
		assert.Empty(t, cs.Unreadable)
		assert.Len(t, hashes, 3)
		assert.Equal(t, []string{newFile, changedFile}, cs.ToProcess())
	})

	t.Run("timestamp change alone is not a change", func(t *testing.T) {
		// Rewrite identical bytes so only the mtime moves.
		writeFile(t, dir, "same.png", "stable")

		cs, _, err := DetectChanges(context.Background(), []string{sameFile}, stored, false)
		require.NoError(t, err)
		assert.Equal(t, []string{sameFile}, cs.Unchanged)
	})

	t.Run("force reprocesses unchanged files", func(t *testing.T) {
		cs, _, err := DetectChanges(context.Background(), []string{sameFile}, stored, true)
		require.NoError(t, err)
		assert.Empty(t, cs.Unchanged)
		assert.Equal(t, []string{sameFile}, cs.Changed)
	})

	t.Run("unreadable files are bucketed, not fatal", func(t *testing.T) {
		missing := filepath.Join(dir, "gone.png")
		cs, hashes, err := DetectChanges(context.Background(), []string{missing, newFile}, stored, false)
		require.NoError(t, err)
		assert.Equal(t, []string{missing}, cs.Unreadable)
		assert.Equal(t, []string{newFile}, cs.New)
		assert.NotContains(t, hashes, missing)
	})

	t.Run("cancelled context stops the walk", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := DetectChanges(ctx, []string{newFile}, stored, false)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
