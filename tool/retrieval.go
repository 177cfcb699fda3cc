package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/casebot/document"
	"github.com/viant/casebot/embeddings"
	"github.com/viant/casebot/schema"
	"github.com/viant/casebot/vectordb"
)

const (
	// DefaultK is the number of chunks returned per query.
	DefaultK = 3
	// NoResults is returned when the index has nothing to offer.
	NoResults = "No relevant documents found."
	// UnknownSource labels chunks without source metadata.
	UnknownSource = "unknown source"
)

// Retrieval searches the vector index and renders source attributed passages.
type Retrieval struct {
	embedder embeddings.Embedder
	index    vectordb.Index
	k        int
	cache    *embedCache
}

// RetrievalOption configures the retrieval tool.
type RetrievalOption func(*Retrieval)

// WithK sets the number of results.
func WithK(k int) RetrievalOption {
	return func(r *Retrieval) {
		if k > 0 {
			r.k = k
		}
	}
}

// WithCache keeps up to capacity query embeddings.
func WithCache(capacity int) RetrievalOption {
	return func(r *Retrieval) { r.cache = newEmbedCache(capacity) }
}

// NewRetrieval creates a retrieval tool. The index must have been built with
// the same embedding model.
func NewRetrieval(embedder embeddings.Embedder, index vectordb.Index, opts ...RetrievalOption) *Retrieval {
	r := &Retrieval{embedder: embedder, index: index, k: DefaultK}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Limit returns a copy of the tool returning k results.
func (r *Retrieval) Limit(k int) *Retrieval {
	clone := *r
	if k > 0 {
		clone.k = k
	}
	return &clone
}

// Validate checks that a populated index was built with the configured model.
func (r *Retrieval) Validate(ctx context.Context) error {
	stats, err := r.index.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.Model != "" && stats.Model != r.embedder.Model() {
		return fmt.Errorf("%w: index built with %s, configured %s", vectordb.ErrModelMismatch, stats.Model, r.embedder.Model())
	}
	return nil
}

// Search returns the top k documents for query.
func (r *Retrieval) Search(ctx context.Context, query string) ([]schema.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("tool: empty query")
	}
	vector, err := r.queryEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.index.Query(ctx, vector, r.k)
}

// Call searches and renders the results as text.
func (r *Retrieval) Call(ctx context.Context, query string) (string, error) {
	docs, err := r.Search(ctx, query)
	if err != nil {
		return "", err
	}
	return Render(docs), nil
}

func (r *Retrieval) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	key := r.embedder.Model() + "\n" + query
	if vector, ok := r.cache.Get(key); ok {
		return vector, nil
	}
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, embeddings.Wrap(err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", embeddings.ErrService)
	}
	r.cache.Add(key, vector)
	return vector, nil
}

// Render formats documents as "Source: ...\nContent: ..." blocks separated
// by a blank line, in rank order.
func Render(docs []schema.Document) string {
	if len(docs) == 0 {
		return NoResults
	}
	blocks := make([]string, 0, len(docs))
	for _, doc := range docs {
		blocks = append(blocks, fmt.Sprintf("Source: %s\nContent: %s", Label(doc.Metadata), doc.PageContent))
	}
	return strings.Join(blocks, "\n\n")
}

// Label describes where a passage came from.
func Label(meta map[string]any) string {
	source := document.GetString(meta, document.SourceKey)
	if source == "" {
		source = UnknownSource
	}
	if page := document.GetString(meta, document.PageKey); page != "" {
		return fmt.Sprintf("%s (page %s)", source, page)
	}
	if sheet := document.GetString(meta, document.SheetKey); sheet != "" {
		return fmt.Sprintf("%s (sheet %s)", source, sheet)
	}
	return source
}
