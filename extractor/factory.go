package extractor

import (
	"fmt"
	"path"
	"strings"

	"github.com/viant/casebot/document"
)

// Factory dispatches extraction by normalized file extension.
type Factory struct {
	extractors map[string]Extractor
}

// NewFactory creates a factory with the built-in extractors registered.
func NewFactory() *Factory {
	f := &Factory{extractors: make(map[string]Extractor)}
	f.Register(".pdf", NewPDF())
	f.Register(".docx", NewDOCX())
	f.Register(".xlsx", NewExcel())
	f.Register(".xlsm", NewExcel())
	f.Register(".xls", NewXLS())
	text := NewText()
	for _, ext := range []string{".txt", ".md", ".markdown", ".csv", ".json"} {
		f.Register(ext, text)
	}
	return f
}

// Register registers an extractor for a file extension
func (f *Factory) Register(ext string, extractor Extractor) {
	f.extractors[Ext(ext)] = extractor
}

// Supports reports whether ext has a registered extractor.
func (f *Factory) Supports(ext string) bool {
	_, ok := f.extractors[Ext(ext)]
	return ok
}

// Extensions returns registered extensions.
func (f *Factory) Extensions() []string {
	out := make([]string, 0, len(f.extractors))
	for ext := range f.extractors {
		out = append(out, ext)
	}
	return out
}

// Extract converts data of the given type into units attributed to source.
// Unsupported types return ErrUnsupported, corrupt content ErrExtract.
func (f *Factory) Extract(source, ext string, data []byte) (units document.Units, err error) {
	ext = Ext(ext)
	extractor, ok := f.extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupported, ext, source)
	}
	meta := map[string]string{
		document.SourceKey: source,
		document.KindKey:   strings.TrimPrefix(ext, "."),
	}
	defer func() {
		if r := recover(); r != nil {
			units = nil
			err = fmt.Errorf("%w: %s: %v", ErrExtract, source, r)
		}
	}()
	units, err = extractor.Extract(data, meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtract, source, err)
	}
	result := units[:0]
	for _, unit := range units {
		if !unit.IsBlank() {
			result = append(result, unit)
		}
	}
	return result, nil
}

// Ext normalizes an extension or a file name into a lower case ".ext" form.
func Ext(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if !strings.HasPrefix(name, ".") || strings.Count(name, ".") > 1 {
		name = path.Ext(name)
	}
	return strings.ToLower(name)
}
