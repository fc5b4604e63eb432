// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ScreenshotStore: Record persistence plus the exact-phrase lexical query
//   - VisualDescriber: Vision model producing image descriptions
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Dense vector storage/search keyed by record id
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TextExtractor: OCR. Without it, records carry only visual descriptions.
//   - SparseIndex: BM25 ranking. Without it, semantic queries are dense-only.
//   - Reranker: Cross-encoder refinement of a candidate set.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
