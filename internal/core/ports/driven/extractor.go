package driven

import "context"

// TextExtractor pulls text out of an image file (OCR).
// This is an optional collaborator: extraction may legitimately produce
// nothing, and an extraction error never fails a file on its own.
type TextExtractor interface {
	// Extract returns the text found in the image, or "" when none.
	Extract(ctx context.Context, path string) (string, error)
}

// VisualDescriber produces a natural-language description of an image via a
// vision model. A transport or server failure is returned wrapped in
// domain.ErrProviderUnavailable so callers can tell it apart from a model
// that produced no description ("" with nil error); the pipeline aborts the
// file in either case and leaves it eligible for retry.
type VisualDescriber interface {
	// Describe returns the description text for the image.
	Describe(ctx context.Context, path string) (string, error)
}
