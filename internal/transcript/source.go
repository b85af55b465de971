package transcript

import (
	"fmt"
	"io"
)

// TextExtractor decodes an uploaded document into the plain transcript text
// the parser consumes. Binary layouts (PDF page extraction) live behind this
// interface; the core only ever sees page-concatenated UTF-8 text.
type TextExtractor interface {
	Extract(r io.Reader) (string, error)
}

// PlainTextExtractor reads the document bytes verbatim as UTF-8 text.
type PlainTextExtractor struct{}

// NewPlainTextExtractor constructs the passthrough extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract returns the reader contents as a string.
func (e *PlainTextExtractor) Extract(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read transcript text: %w", err)
	}
	return string(data), nil
}
