package ollama

import (
	"context"
	"fmt"

	"github.com/viant/casebot/embeddings"
)

type Embedder struct {
	C *Client
}

func NewClient(model, baseURL string) *Client {
	opts := []ClientOption{}
	if baseURL != "" {
		opts = append(opts, WithBaseURL(baseURL))
	}
	return NewClientWithOptions(model, opts...)
}

func (e *Embedder) Model() string { return "ollama/" + e.C.Model }

func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if e == nil || e.C == nil {
		return nil, fmt.Errorf("ollama embedder not configured")
	}
	vecs, _, err := e.C.Embed(ctx, docs)
	if err != nil {
		return nil, embeddings.Wrap(err)
	}
	if err := embeddings.CheckCount(vecs, len(docs)); err != nil {
		return nil, err
	}
	return vecs, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
