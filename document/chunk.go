package document

import (
	"fmt"
	"strconv"

	"github.com/viant/casebot/schema"
)

// Chunks represents a collection of chunks
type Chunks []*Chunk

// Texts returns chunk texts in order.
func (c Chunks) Texts() []string {
	out := make([]string, len(c))
	for i, chunk := range c {
		out[i] = chunk.Text
	}
	return out
}

// Chunk represents a bounded window of a unit's text.
// Start and End are rune offsets within the unit text.
type Chunk struct {
	Text     string            `json:"text"`
	Index    int               `json:"index"`
	Start    int               `json:"start"`
	End      int               `json:"end"`
	Checksum int               `json:"checksum"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// ID returns a stable identifier of the chunk within a source.
func (c *Chunk) ID() string {
	source := ""
	page := ""
	if c.Meta != nil {
		source = c.Meta[SourceKey]
		page = c.Meta[PageKey]
		if sheet := c.Meta[SheetKey]; sheet != "" && page == "" {
			page = sheet
		}
	}
	key := fmt.Sprintf("%s|%s|%d-%d|%d", source, page, c.Start, c.End, c.Checksum)
	h, err := Hash([]byte(key))
	if err != nil {
		return key
	}
	return strconv.FormatUint(h, 16)
}

// NewDocument creates a schema.Document from this chunk
func (c *Chunk) NewDocument() schema.Document {
	metadata := map[string]interface{}{
		"start":    c.Start,
		"end":      c.End,
		"checksum": c.Checksum,
		ChunkKey:   c.Index,
	}
	for k, v := range c.Meta {
		metadata[k] = v
	}
	return schema.Document{
		PageContent: c.Text,
		Metadata:    metadata,
	}
}
