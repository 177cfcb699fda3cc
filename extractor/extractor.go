package extractor

import (
	"errors"

	"github.com/viant/casebot/document"
)

var (
	// ErrUnsupported signals that no extractor is registered for a file type.
	ErrUnsupported = errors.New("extractor: unsupported file type")
	// ErrExtract signals corrupt or unreadable content.
	ErrExtract = errors.New("extractor: unreadable content")
)

// Extractor converts raw file bytes into normalized text units.
type Extractor interface {
	// Extract returns the units found in data; meta is copied onto every unit.
	Extract(data []byte, meta map[string]string) (document.Units, error)
}

// Func adapts a function to the Extractor interface.
type Func func(data []byte, meta map[string]string) (document.Units, error)

// Extract calls f(data, meta).
func (f Func) Extract(data []byte, meta map[string]string) (document.Units, error) {
	return f(data, meta)
}
