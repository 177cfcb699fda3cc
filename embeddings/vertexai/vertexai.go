// Package vertexai embeds text with Vertex AI text embedding models.
package vertexai

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/casebot/embeddings"
)

// Embedder lazily creates its client on first use.
type Embedder struct {
	projectID string
	model     string
	location  string
	scopes    []string
	options   []ClientOption

	mu      sync.Mutex
	client  *Client
	initErr error
}

func NewEmbedder(projectID, model, location string, scopes []string, opts ...ClientOption) *Embedder {
	return &Embedder{
		projectID: projectID,
		model:     model,
		location:  location,
		scopes:    scopes,
		options:   opts,
	}
}

func (e *Embedder) Model() string {
	model := e.model
	if model == "" {
		model = defaultModel
	}
	return "vertexai/" + model
}

func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	return e.embed(ctx, docs, TaskDocument)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{text}, TaskQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *Embedder) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	client, err := e.getClient(ctx)
	if err != nil {
		return nil, embeddings.Wrap(err)
	}
	vecs, _, err := client.Embed(ctx, texts, taskType)
	if err != nil {
		return nil, embeddings.Wrap(err)
	}
	if err := embeddings.CheckCount(vecs, len(texts)); err != nil {
		return nil, err
	}
	return vecs, nil
}

func (e *Embedder) getClient(ctx context.Context) (*Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil || e.initErr != nil {
		return e.client, e.initErr
	}
	if e.projectID == "" {
		e.initErr = fmt.Errorf("vertexai project id is required")
		return nil, e.initErr
	}
	var opts []ClientOption
	if e.location != "" {
		opts = append(opts, WithLocation(e.location))
	}
	if len(e.scopes) > 0 {
		opts = append(opts, WithScopes(e.scopes...))
	}
	opts = append(opts, e.options...)
	client, err := NewClient(ctx, e.projectID, e.model, opts...)
	if err != nil {
		e.initErr = err
		return nil, err
	}
	e.client = client
	return client, nil
}
