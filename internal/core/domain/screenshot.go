package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Screenshot represents one indexed image file.
// Its ID is assigned by the content store on first insert and is the join
// key into the dense and sparse indexes.
type Screenshot struct {
	// ID is the content store's integer identifier. Stable for the
	// record's lifetime, including reprocessing after content changes.
	ID int64

	// Path is the absolute file path. At most one live record per path.
	Path string

	// ContentHash is the hex sha256 digest of the file bytes.
	// Used only for change detection, never for deduplication.
	ContentHash string

	// ExtractedText is the OCR output. May legitimately be empty.
	ExtractedText string

	// VisualDescription is the vision model's description of the image.
	// Required to be non-empty for a record to be indexable.
	VisualDescription string

	// IndexedAt is when the record was last successfully committed.
	IndexedAt time.Time
}

// CombinedText joins the visual description and extracted text into the
// single document text used for embedding and sparse indexing. Empty parts
// are omitted; returns "" when both are empty.
func (s *Screenshot) CombinedText() string {
	var parts []string
	if desc := strings.TrimSpace(s.VisualDescription); desc != "" {
		parts = append(parts, "Visual: "+desc)
	}
	if text := strings.TrimSpace(s.ExtractedText); text != "" {
		parts = append(parts, "Text content: "+text)
	}
	return strings.Join(parts, "\n\n")
}

// RerankText is the document text scored by the cross-encoder reranker:
// visual description first, then extracted text.
func (s *Screenshot) RerankText() string {
	if s.ExtractedText == "" {
		return s.VisualDescription
	}
	if s.VisualDescription == "" {
		return s.ExtractedText
	}
	return s.VisualDescription + "\n" + s.ExtractedText
}

// imageExtensions are the file types admitted to the pipeline.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// IsImagePath reports whether the path has a supported image extension.
// The check is case-insensitive.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// ScanFolder is a directory to scan for screenshots.
type ScanFolder struct {
	// Path is the directory path.
	Path string

	// Recursive scans subdirectories when true.
	Recursive bool
}
