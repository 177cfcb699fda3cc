package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/viant/casebot/document"
)

type textExtractor struct{}

// NewText returns an Extractor for plain UTF-8 text formats.
func NewText() Extractor {
	return &textExtractor{}
}

func (t *textExtractor) Extract(data []byte, meta map[string]string) (document.Units, error) {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return document.Units{document.NewUnit(text, meta)}, nil
}
