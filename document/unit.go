package document

import "strings"

// Unit represents one extracted piece of a source file: a PDF page,
// a spreadsheet sheet or a whole text document.
type Unit struct {
	Text string            `json:"text"`
	Meta map[string]string `json:"meta,omitempty"`
}

// Units represents a collection of extracted units
type Units []*Unit

// Source returns the source name attribution of the unit.
func (u *Unit) Source() string {
	if u == nil || u.Meta == nil {
		return ""
	}
	return u.Meta[SourceKey]
}

// IsBlank reports whether the unit carries no text.
func (u *Unit) IsBlank() bool {
	return u == nil || strings.TrimSpace(u.Text) == ""
}

// NewUnit creates a unit with a copy of the supplied metadata.
func NewUnit(text string, meta map[string]string) *Unit {
	return &Unit{Text: text, Meta: cloneMeta(meta)}
}

func cloneMeta(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta)+2)
	for k, v := range meta {
		out[k] = v
	}
	return out
}
