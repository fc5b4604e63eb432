// Package command implements text extraction by shelling out to an external
// OCR binary such as tesseract. Stdout is taken as the extracted text.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// filePlaceholder in the argument list is replaced by the image path.
const filePlaceholder = "{file}"

// Extractor runs a configured OCR command per image.
type Extractor struct {
	binary string
	args   []string
}

// New creates an extractor for the given command line. Arguments may contain
// the {file} placeholder; when none does, the image path is appended.
//
// Example: New("tesseract", []string{"{file}", "stdout", "-l", "eng"}).
func New(binary string, args []string) *Extractor {
	return &Extractor{binary: binary, args: args}
}

// Extract runs the OCR command and returns its trimmed stdout.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	args := make([]string, 0, len(e.args)+1)
	replaced := false
	for _, arg := range e.args {
		if strings.Contains(arg, filePlaceholder) {
			arg = strings.ReplaceAll(arg, filePlaceholder, path)
			replaced = true
		}
		args = append(args, arg)
	}
	if !replaced {
		args = append(args, path)
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ocr command %s: %w: %s", e.binary, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
