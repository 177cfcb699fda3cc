package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/viant/casebot/document"
)

// docxExtractor extracts text from DOCX files using a pure Go parser.
type docxExtractor struct{}

// NewDOCX returns an Extractor for Office Open XML word documents.
func NewDOCX() Extractor {
	return &docxExtractor{}
}

func (d *docxExtractor) Extract(data []byte, meta map[string]string) (document.Units, error) {
	text, err := extractDOCXText(data)
	if err != nil {
		return nil, err
	}
	return document.Units{document.NewUnit(text, meta)}, nil
}

func extractDOCXText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty docx")
	}
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var docFile *zip.File
	for _, f := range r.File {
		if strings.EqualFold(f.Name, "word/document.xml") {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("word/document.xml not found")
	}
	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return extractDOCXTextFromXML(rc)
}

func extractDOCXTextFromXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var buf strings.Builder
	lastWasNewline := true
	newline := func() {
		if !lastWasNewline {
			buf.WriteByte('\n')
			lastWasNewline = true
		}
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t", "instrText":
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return "", err
				}
				buf.WriteString(text)
				lastWasNewline = false
			case "tab":
				buf.WriteByte('\t')
				lastWasNewline = false
			case "br", "cr":
				buf.WriteByte('\n')
				lastWasNewline = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "tr":
				newline()
			case "tc":
				if !lastWasNewline {
					buf.WriteByte('\t')
				}
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
