package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/casebot/document"
	"github.com/viant/casebot/embeddings/simple"
	"github.com/viant/casebot/schema"
	"github.com/viant/casebot/vectordb"
	"github.com/viant/casebot/vectordb/mem"
)

type countingEmbedder struct {
	*simple.Embedder
	queries int
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	c.queries++
	return c.Embedder.EmbedQuery(ctx, q)
}

type fixedSolver struct {
	answer string
	err    error
}

func (f fixedSolver) Solve(ctx context.Context, problem string) (string, error) {
	return f.answer, f.err
}

func seed(t *testing.T, embedder *simple.Embedder, texts map[string]string) *mem.Store {
	t.Helper()
	index := mem.New(embedder.Model())
	var chunks document.Chunks
	for source, text := range texts {
		chunks = append(chunks, &document.Chunk{Text: text, Meta: map[string]string{document.SourceKey: source}})
	}
	vectors, err := embedder.EmbedDocuments(context.Background(), chunks.Texts())
	require.NoError(t, err)
	_, err = index.Upsert(context.Background(), chunks, vectors)
	require.NoError(t, err)
	return index
}

func TestRetrieval_Call(t *testing.T) {
	ctx := context.Background()
	embedder := &countingEmbedder{Embedder: simple.New(256)}
	index := seed(t, embedder.Embedder, map[string]string{
		"frameworks.pdf": "MECE stands for mutually exclusive collectively exhaustive",
		"gmat.docx":      "GMAT quantitative section practice",
	})
	retrieval := NewRetrieval(embedder, index, WithK(1), WithCache(10))

	out, err := retrieval.Call(ctx, "mutually exclusive collectively exhaustive MECE")
	require.NoError(t, err)
	assert.Equal(t, "Source: frameworks.pdf\nContent: MECE stands for mutually exclusive collectively exhaustive", out)

	_, err = retrieval.Call(ctx, "mutually exclusive collectively exhaustive MECE")
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.queries)

	_, err = retrieval.Call(ctx, " ")
	assert.Error(t, err)
	require.NoError(t, retrieval.Validate(ctx))
}

func TestRetrieval_EmptyIndexAndModelMismatch(t *testing.T) {
	ctx := context.Background()
	embedder := simple.New(16)
	out, err := NewRetrieval(embedder, mem.New(embedder.Model())).Call(ctx, "anything")
	require.NoError(t, err)
	assert.Equal(t, NoResults, out)

	other := simple.New(32)
	index := seed(t, embedder, map[string]string{"a.md": "alpha"})
	retrieval := NewRetrieval(other, index)
	assert.ErrorIs(t, retrieval.Validate(ctx), vectordb.ErrModelMismatch)
	_, err = retrieval.Call(ctx, "alpha")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	docs := []schema.Document{
		{PageContent: "first", Metadata: map[string]any{document.SourceKey: "guide.pdf", document.PageKey: "3"}},
		{PageContent: "second", Metadata: map[string]any{document.SourceKey: "model.xlsx", document.SheetKey: "P&L"}},
		{PageContent: "third", Metadata: map[string]any{}},
	}
	expected := strings.Join([]string{
		"Source: guide.pdf (page 3)\nContent: first",
		"Source: model.xlsx (sheet P&L)\nContent: second",
		"Source: unknown source\nContent: third",
	}, "\n\n")
	assert.Equal(t, expected, Render(docs))
	assert.Equal(t, NoResults, Render(nil))
}

func TestCompute_Call(t *testing.T) {
	ctx := context.Background()
	out, err := NewCompute(fixedSolver{answer: "Answer: 30"}).Call(ctx, "What is 15% of 200?")
	require.NoError(t, err)
	assert.Equal(t, "Answer: 30", out)

	out, err = NewCompute(fixedSolver{err: errors.New("solver: invalid expression")}).Call(ctx, "poem")
	require.NoError(t, err)
	assert.Equal(t, "solver: invalid expression", out)
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	embedder := simple.New(16)
	set := NewSet(NewRetrieval(embedder, mem.New(embedder.Model())), NewCompute(fixedSolver{answer: "Answer: 2"}))

	kind, ok := set.Lookup(ComputeName)
	require.True(t, ok)
	assert.Equal(t, KindCompute, kind)
	_, ok = set.Lookup("web_search")
	assert.False(t, ok)
	assert.Equal(t, []string{ComputeName, RetrievalName}, set.Names())
	assert.Len(t, set.Specs(), 2)
	assert.Contains(t, set.Describe(), RetrievalName+": ")

	out, err := set.Call(ctx, KindCompute, "1+1")
	require.NoError(t, err)
	assert.Equal(t, "Answer: 2", out)

	partial := NewSet(nil, NewCompute(fixedSolver{}))
	_, err = partial.Call(ctx, KindRetrieval, "x")
	assert.Error(t, err)
	assert.Len(t, partial.Specs(), 1)
}

func TestEmbedCache(t *testing.T) {
	cache := newEmbedCache(2)
	cache.Add("a", []float32{1})
	cache.Add("b", []float32{2})
	_, _ = cache.Get("a")
	cache.Add("c", []float32{3})
	_, ok := cache.Get("b")
	assert.False(t, ok)
	v, ok := cache.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []float32{1}, v)
	assert.Equal(t, 2, cache.Len())

	var disabled *embedCache
	disabled.Add("a", []float32{1})
	_, ok = disabled.Get("a")
	assert.False(t, ok)
}
