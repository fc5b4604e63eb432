package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testShot(path string) *domain.Screenshot {
	return &domain.Screenshot{
		Path:              path,
		ContentHash:       "abc123",
		ExtractedText:     "git status output",
		VisualDescription: "A terminal showing version control state",
		IndexedAt:         time.Now().UTC().Truncate(time.Second),
	}
}

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	shot := testShot("/shots/terminal.png")
	id, err := store.Insert(ctx, shot)
	require.NoError(t, err)
	assert.Positive(t, id)

	t.Run("by path", func(t *testing.T) {
		got, err := store.GetByPath(ctx, "/shots/terminal.png")
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, shot.ExtractedText, got.ExtractedText)
		assert.Equal(t, shot.VisualDescription, got.VisualDescription)
	})

	t.Run("by id", func(t *testing.T) {
		got, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, shot.Path, got.Path)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.GetByPath(ctx, "/nope.png")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = store.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("duplicate path rejected", func(t *testing.T) {
		_, err := store.Insert(ctx, testShot("/shots/terminal.png"))
		assert.Error(t, err)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	shot := testShot("/shots/a.png")
	id, err := store.Insert(ctx, shot)
	require.NoError(t, err)

	shot.ID = id
	shot.ContentHash = "def456"
	shot.VisualDescription = "An editor with a diff open"
	require.NoError(t, store.Update(ctx, shot))

	got, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "def456", got.ContentHash)
	assert.Equal(t, "An editor with a diff open", got.VisualDescription)

	t.Run("unknown id", func(t *testing.T) {
		missing := testShot("/shots/missing.png")
		missing.ID = 9999
		assert.ErrorIs(t, store.Update(ctx, missing), domain.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.Insert(ctx, testShot("/shots/a.png"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.GetByID(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete(ctx, id))
}

func TestPathHashesAndCount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a := testShot("/shots/a.png")
	b := testShot("/shots/b.png")
	b.ContentHash = "zzz999"
	_, err := store.Insert(ctx, a)
	require.NoError(t, err)
	_, err = store.Insert(ctx, b)
	require.NoError(t, err)

	hashes, err := store.PathHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"/shots/a.png": "abc123",
		"/shots/b.png": "zzz999",
	}, hashes)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, path := range []string{"/shots/c.png", "/shots/a.png", "/shots/b.png"} {
		_, err := store.Insert(ctx, testShot(path))
		require.NoError(t, err)
	}

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Less(t, all[0].ID, all[1].ID)
	assert.Less(t, all[1].ID, all[2].ID)
}

func TestSearchExact(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	insert := func(path, text, desc string) int64 {
		t.Helper()
		shot := testShot(path)
		shot.ExtractedText = text
		shot.VisualDescription = desc
		id, err := store.Insert(ctx, shot)
		require.NoError(t, err)
		return id
	}

	callID := insert("/shots/call.png", "mute deafen settings", "A Discord voice call in progress")
	insert("/shots/editor.png", "func main() {}", "VSCode editing a Go file")
	updatedID := insert("/shots/update.png", "old text", "placeholder")

	t.Run("matches phrase in description", func(t *testing.T) {
		hits, err := store.SearchExact(ctx, "voice call", 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, callID, hits[0].ID)
	})

	t.Run("phrase must be contiguous", func(t *testing.T) {
		hits, err := store.SearchExact(ctx, "voice progress", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("query syntax is neutralized", func(t *testing.T) {
		// Bare FTS5 operators would be a syntax error if unquoted.
		hits, err := store.SearchExact(ctx, `voice AND "call`, 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("update keeps fts in sync", func(t *testing.T) {
		shot, err := store.GetByID(ctx, updatedID)
		require.NoError(t, err)
		shot.ExtractedText = "quarterly revenue spreadsheet"
		require.NoError(t, store.Update(ctx, shot))

		hits, err := store.SearchExact(ctx, "quarterly revenue", 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, updatedID, hits[0].ID)

		hits, err = store.SearchExact(ctx, "old text", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("delete removes from fts", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, callID))
		hits, err := store.SearchExact(ctx, "voice call", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("limit respected", func(t *testing.T) {
		insert("/shots/one.png", "shared token alpha", "x")
		insert("/shots/two.png", "shared token beta", "y")
		hits, err := store.SearchExact(ctx, "shared token", 1)
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Insert(context.Background(), testShot("/shots/a.png"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening replays nothing and keeps existing data.
	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
