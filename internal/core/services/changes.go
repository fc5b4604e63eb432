package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/logger"
)

// HashFile computes the hex-encoded SHA-256 digest of a file's contents.
// The file is streamed, never loaded whole into memory.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DetectChanges compares discovered files against the stored path-to-hash
// map and buckets them by what the pipeline must do. Only content hashes
// are consulted; file timestamps play no part. When force is true every
// readable file lands in Changed (or New if unseen).
//
// The returned map carries the freshly computed hash for every readable
// file so callers never hash twice.
func DetectChanges(ctx context.Context, paths []string, stored map[string]string, force bool) (domain.ChangeSet, map[string]string, error) {
	var cs domain.ChangeSet
	hashes := make(map[string]string, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return cs, hashes, err
		}

		hash, err := HashFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable file %s: %v", path, err)
			cs.Unreadable = append(cs.Unreadable, path)
			continue
		}
		hashes[path] = hash

		prev, seen := stored[path]
		switch {
		case !seen:
			cs.New = append(cs.New, path)
		case prev != hash || force:
			cs.Changed = append(cs.Changed, path)
		default:
			cs.Unchanged = append(cs.Unchanged, path)
		}
	}

	return cs, hashes, nil
}
