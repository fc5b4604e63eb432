// Package noop implements a TextExtractor that extracts nothing. Used on
// platforms without an OCR tool; records then carry only the visual
// description.
package noop

import (
	"context"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor returns no text for every image.
type Extractor struct{}

// New creates a noop extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract always reports empty text.
func (e *Extractor) Extract(_ context.Context, _ string) (string, error) {
	return "", nil
}
