package driven

import (
	"context"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
)

// ScreenshotStore persists screenshot records.
// Backed by SQLite; the store assigns integer ids on first insert and those
// ids key the dense and sparse indexes.
type ScreenshotStore interface {
	// Insert stores a new record and returns the assigned id.
	Insert(ctx context.Context, s *domain.Screenshot) (int64, error)

	// Update rewrites an existing record in place by id.
	// Returns domain.ErrNotFound if the id does not exist.
	Update(ctx context.Context, s *domain.Screenshot) error

	// Delete removes a record by id.
	Delete(ctx context.Context, id int64) error

	// GetByPath retrieves a record by file path.
	// Returns domain.ErrNotFound if no record exists for the path.
	GetByPath(ctx context.Context, path string) (*domain.Screenshot, error)

	// GetByID retrieves a record by id.
	// Returns domain.ErrNotFound if the id does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Screenshot, error)

	// PathHashes returns the full path to content-hash map for change
	// detection.
	PathHashes(ctx context.Context) (map[string]string, error)

	// All returns every record ordered by id. Used to fit the sparse
	// index at startup and by maintenance passes.
	All(ctx context.Context) ([]domain.Screenshot, error)

	// SearchExact runs the lexical exact-phrase query and returns records
	// in the engine's native rank order (best first). The engine exposes
	// no comparable numeric score.
	SearchExact(ctx context.Context, phrase string, limit int) ([]domain.Screenshot, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying database.
	Close() error
}
