package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	extPDF  = ".pdf"
	extDOCX = ".docx"
)

var (
	// ErrFileNotFound is returned when the file does not exist before opening.
	ErrFileNotFound = errors.New("file not found")
	// ErrUnsupportedFormat is returned for extensions other than .pdf and .docx.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ExtractionError wraps a failure of the underlying document parser.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting text from %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Func is the signature shared by Text and the test doubles of the pipeline.
type Func func(path string) (string, error)

// Supported reports whether the file name has an extension Text can handle.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case extPDF, extDOCX:
		return true
	default:
		return false
	}
}

// Text returns the plain text of a PDF or DOCX file. Pages and paragraphs are
// joined with newlines.
func Text(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != extPDF && ext != extDOCX {
		return "", fmt.Errorf("%s: %w: %q", filepath.Base(path), ErrUnsupportedFormat, strings.TrimPrefix(ext, "."))
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return "", &ExtractionError{Path: path, Err: err}
	}

	var (
		text string
		err  error
	)
	switch ext {
	case extPDF:
		text, err = pdfText(path)
	case extDOCX:
		text, err = docxText(path)
	}
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}

	return text, nil
}
