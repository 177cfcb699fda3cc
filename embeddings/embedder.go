package embeddings

import (
	"context"
	"errors"
	"fmt"
)

// ErrService is returned when the embedding service fails or returns a malformed response.
var ErrService = errors.New("embeddings: service error")

// Embedder is a minimal interface for computing vector embeddings
// for documents and queries. Model identifies the embedding space so that
// an index is always queried with the model that built it.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// Wrap classifies err as an embedding service error.
func Wrap(err error) error {
	if err == nil || errors.Is(err, ErrService) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrService, err)
}

// CheckCount validates that the service returned one vector per input.
func CheckCount(vectors [][]float32, expected int) error {
	if len(vectors) != expected {
		return fmt.Errorf("%w: embedder returned %d vectors for %d texts", ErrService, len(vectors), expected)
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector at %d", ErrService, i)
		}
	}
	return nil
}

// Batch embeds texts in batches of size, failing on the first batch error.
func Batch(ctx context.Context, embedder Embedder, texts []string, size int) ([][]float32, error) {
	if size <= 0 {
		size = 64
	}
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += size {
		end := i + size
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := embedder.EmbedDocuments(ctx, texts[i:end])
		if err != nil {
			return nil, Wrap(err)
		}
		if err := CheckCount(vecs, end-i); err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}
