package vertexai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/viant/casebot/credential"
	"github.com/viant/casebot/embeddings"
)

func TestEmbedder_TaskTypes(t *testing.T) {
	var tasks []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer vertex-token", r.Header.Get("Authorization"))
		var req predictRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		predictions := make([]map[string]any, 0, len(req.Instances))
		for i, instance := range req.Instances {
			tasks = append(tasks, instance.TaskType)
			predictions = append(predictions, map[string]any{
				"embeddings": map[string]any{"values": []float32{float32(i), 1}},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"predictions": predictions})
	}))
	defer server.Close()

	provider := credential.Static(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "vertex-token", TokenType: "Bearer"}))
	e := NewEmbedder("project", "", "", nil, WithProvider(provider), WithEndpoint(server.URL))
	assert.Equal(t, "vertexai/text-embedding-004", e.Model())

	vecs, err := e.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}}, vecs)

	vec, err := e.EmbedQuery(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, vec)
	assert.Equal(t, []string{TaskDocument, TaskDocument, TaskQuery}, tasks)
}

func TestEmbedder_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))
	defer server.Close()

	provider := credential.Static(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"}))
	e := NewEmbedder("project", "", "", nil, WithProvider(provider), WithEndpoint(server.URL))
	_, err := e.EmbedQuery(context.Background(), "q")
	assert.ErrorIs(t, err, embeddings.ErrService)
	assert.Contains(t, err.Error(), "403")

	_, err = NewEmbedder("", "", "", nil).EmbedQuery(context.Background(), "q")
	assert.ErrorIs(t, err, embeddings.ErrService)

	noCreds := NewEmbedder("project", "", "", nil, WithProvider(credential.Static(nil)), WithEndpoint(server.URL))
	_, err = noCreds.EmbedDocuments(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, embeddings.ErrService)
}
