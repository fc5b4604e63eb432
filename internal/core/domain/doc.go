// Package domain defines the core business entities for the screenshot index.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Screenshot: One indexed image file's record
//   - ChangeSet: Discovered files partitioned by content-hash comparison
//   - SearchResult: A ranked hit from one of the retrieval modes
//   - Progress / IndexStats: Batch ingestion reporting
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
