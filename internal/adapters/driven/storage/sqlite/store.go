package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driven"
)

var _ driven.ScreenshotStore = (*Store)(nil)

// Store is the SQLite-backed screenshot content store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a store under the given data directory.
// If dataDir is empty, defaults to ~/.snapidx/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".snapidx", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "screenshots.db")

	// WAL mode for better concurrency between the pipeline workers.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Insert stores a new record and returns the assigned id.
func (s *Store) Insert(ctx context.Context, shot *domain.Screenshot) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO screenshots (path, content_hash, extracted_text, visual_description, indexed_at)
		VALUES (?, ?, ?, ?, ?)
	`, shot.Path, shot.ContentHash, shot.ExtractedText, shot.VisualDescription, shot.IndexedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting screenshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting insert id: %w", err)
	}
	return id, nil
}

// Update rewrites an existing record in place by id.
func (s *Store) Update(ctx context.Context, shot *domain.Screenshot) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE screenshots
		SET path = ?, content_hash = ?, extracted_text = ?, visual_description = ?, indexed_at = ?
		WHERE id = ?
	`, shot.Path, shot.ContentHash, shot.ExtractedText, shot.VisualDescription, shot.IndexedAt, shot.ID)
	if err != nil {
		return fmt.Errorf("updating screenshot: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a record by id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM screenshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting screenshot: %w", err)
	}
	return nil
}

// GetByPath retrieves a record by file path.
func (s *Store) GetByPath(ctx context.Context, path string) (*domain.Screenshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, content_hash, extracted_text, visual_description, indexed_at
		FROM screenshots WHERE path = ?
	`, path)
	return scanScreenshotRow(row)
}

// GetByID retrieves a record by id.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Screenshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, content_hash, extracted_text, visual_description, indexed_at
		FROM screenshots WHERE id = ?
	`, id)
	return scanScreenshotRow(row)
}

// PathHashes returns the full path to content-hash map for change detection.
func (s *Store) PathHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, content_hash FROM screenshots")
	if err != nil {
		return nil, fmt.Errorf("querying hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scanning hash: %w", err)
		}
		hashes[path] = hash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hashes: %w", err)
	}
	return hashes, nil
}

// All returns every record ordered by id.
func (s *Store) All(ctx context.Context) ([]domain.Screenshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, content_hash, extracted_text, visual_description, indexed_at
		FROM screenshots ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying screenshots: %w", err)
	}
	defer rows.Close()

	return scanScreenshots(rows)
}

// SearchExact runs an FTS5 phrase query and returns records in rank order.
func (s *Store) SearchExact(ctx context.Context, phrase string, limit int) ([]domain.Screenshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.path, s.content_hash, s.extracted_text, s.visual_description, s.indexed_at
		FROM screenshots_fts f
		JOIN screenshots s ON s.id = f.rowid
		WHERE screenshots_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ftsPhrase(phrase), limit)
	if err != nil {
		return nil, fmt.Errorf("searching screenshots: %w", err)
	}
	defer rows.Close()

	return scanScreenshots(rows)
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM screenshots").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting screenshots: %w", err)
	}
	return count, nil
}

// ftsPhrase quotes a phrase for FTS5 MATCH so user input is never parsed
// as query syntax. Embedded double quotes are doubled per FTS5 rules.
func ftsPhrase(phrase string) string {
	return `"` + strings.ReplaceAll(phrase, `"`, `""`) + `"`
}

// scanScreenshotRow scans a single screenshot row.
func scanScreenshotRow(row *sql.Row) (*domain.Screenshot, error) {
	var shot domain.Screenshot
	if err := row.Scan(&shot.ID, &shot.Path, &shot.ContentHash,
		&shot.ExtractedText, &shot.VisualDescription, &shot.IndexedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning screenshot: %w", err)
	}
	return &shot, nil
}

// scanScreenshots scans multiple screenshot rows.
func scanScreenshots(rows *sql.Rows) ([]domain.Screenshot, error) {
	var shots []domain.Screenshot //nolint:prealloc // size unknown from query
	for rows.Next() {
		var shot domain.Screenshot
		if err := rows.Scan(&shot.ID, &shot.Path, &shot.ContentHash,
			&shot.ExtractedText, &shot.VisualDescription, &shot.IndexedAt); err != nil {
			return nil, fmt.Errorf("scanning screenshot: %w", err)
		}
		shots = append(shots, shot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating screenshots: %w", err)
	}
	return shots, nil
}
