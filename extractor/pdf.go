package extractor

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/viant/casebot/document"
)

// pdfExtractor extracts text from PDF files, one unit per page.
type pdfExtractor struct{}

// NewPDF returns an Extractor for PDF documents.
func NewPDF() Extractor {
	return &pdfExtractor{}
}

func (p *pdfExtractor) Extract(data []byte, meta map[string]string) (document.Units, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	var units document.Units
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		unit := document.NewUnit(text, meta)
		unit.Meta[document.PageKey] = strconv.Itoa(i)
		units = append(units, unit)
	}
	return units, nil
}
