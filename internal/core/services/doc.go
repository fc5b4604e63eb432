// Package services contains the application core: the indexing pipeline
// that turns screenshots into searchable records, and the search service
// that fuses exact, sparse and dense retrieval signals.
//
// Services depend only on domain types and the port interfaces. Concrete
// adapters are injected by the CLI layer.
package services
