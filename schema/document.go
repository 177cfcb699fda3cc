// Package schema holds the retrieval result shape shared by the index and tools.
package schema

// Document is a retrieved chunk: its text, the metadata it was indexed with
// (source, page or sheet, chunk position) and the similarity score.
type Document struct {
	PageContent string                 `json:"page_content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Score       float32                `json:"score,omitempty"`
}
