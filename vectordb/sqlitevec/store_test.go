package sqlitevec

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/casebot/document"
	"github.com/viant/casebot/vectordb"
)

func testChunks(source string, texts ...string) document.Chunks {
	var out document.Chunks
	for i, text := range texts {
		out = append(out, &document.Chunk{
			Text:  text,
			Index: i,
			Start: i * 10,
			End:   i*10 + len(text),
			Meta:  map[string]string{document.SourceKey: source, document.PageKey: fmt.Sprint(i + 1)},
		})
	}
	return out
}

func openStore(t *testing.T, dsn string, opts ...Option) *Store {
	t.Helper()
	store, err := NewStore(append([]Option{WithDSN(dsn), WithEmbeddingModel("simple/2")}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_UpsertQuery(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "index.sqlite"))

	docs, err := store.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, docs)

	chunks := testChunks("guide.pdf", "market sizing", "profitability", "mece")
	result, err := store.Upsert(ctx, chunks, [][]float32{{1, 0}, {0, 1}, {0.8, 0.2}})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Written)
	assert.NotEmpty(t, result.Generation)

	docs, err = store.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "market sizing", docs[0].PageContent)
	assert.Equal(t, "mece", docs[1].PageContent)
	assert.Equal(t, "guide.pdf", docs[0].Metadata[document.SourceKey])
	assert.Equal(t, "1", docs[0].Metadata[document.PageKey])

	_, err = store.Query(ctx, []float32{1, 0}, 0)
	assert.ErrorIs(t, err, vectordb.ErrInvalidArgument)
	_, err = store.Query(ctx, []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, vectordb.ErrDimension)
}

func TestStore_ReplacePolicyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "index.sqlite"))
	chunks := testChunks("guide.pdf", "a", "b")
	vectors := [][]float32{{1, 0}, {0, 1}}

	_, err := store.Upsert(ctx, chunks, vectors)
	require.NoError(t, err)
	first, err := store.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)

	second, err := store.Upsert(ctx, chunks, vectors)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Superseded)
	again, err := store.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, again, len(first))
	for i := range first {
		assert.Equal(t, first[i].PageContent, again[i].PageContent)
		assert.Equal(t, first[i].Score, again[i].Score)
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 2, stats.Archived)
	assert.Equal(t, 1, stats.Generations)
	assert.Equal(t, second.Generation, stats.Generation)

	pruned, err := store.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)
}

func TestStore_AppendPolicyKeepsGenerations(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "index.sqlite"), WithPolicy(vectordb.PolicyAppend))
	chunks := testChunks("guide.pdf", "a")
	_, err := store.Upsert(ctx, chunks, [][]float32{{1, 0}})
	require.NoError(t, err)
	_, err = store.Upsert(ctx, chunks, [][]float32{{1, 0}})
	require.NoError(t, err)

	docs, err := store.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = store.Upsert(ctx, chunks, [][]float32{{1, 0, 0}})
	assert.ErrorIs(t, err, vectordb.ErrDimension)
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 2, stats.Generations)
}

func TestStore_SurvivesRestartAndPinsModel(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "index.sqlite")
	store, err := NewStore(WithDSN(dsn), WithEmbeddingModel("simple/2"))
	require.NoError(t, err)
	_, err = store.Upsert(ctx, testChunks("guide.pdf", "a", "b"), [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := openStore(t, dsn)
	docs, err := reopened.Query(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0].PageContent)

	other := openStore(t, dsn, WithEmbeddingModel("openai/text-embedding-3-small"))
	_, err = other.Query(ctx, []float32{0, 1}, 1)
	assert.ErrorIs(t, err, vectordb.ErrModelMismatch)
}

func TestStore_InvalidUpsertWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "index.sqlite"))
	_, err := store.Upsert(ctx, testChunks("a.pdf", "a", "b"), [][]float32{{1, 0}})
	assert.ErrorIs(t, err, vectordb.ErrInvalidArgument)
	_, err = store.Upsert(ctx, testChunks("a.pdf", "a", "b"), [][]float32{{1, 0}, {1}})
	assert.ErrorIs(t, err, vectordb.ErrDimension)
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Active)
}

func TestStore_PurgeAndSample(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "index.sqlite"))
	_, err := store.Upsert(ctx, testChunks("guide.pdf", "a", "b", "c"), [][]float32{{1, 0}, {0, 1}, {1, 1}})
	require.NoError(t, err)

	sample, err := store.Sample(ctx, 2)
	require.NoError(t, err)
	require.Len(t, sample, 2)
	assert.Equal(t, "a", sample[0].Content)
	assert.Equal(t, "guide.pdf", sample[0].Meta[document.SourceKey])

	require.NoError(t, store.Purge(ctx))
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Active)
	assert.Equal(t, "", stats.Model)
	docs, err := store.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStore_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "index.sqlite")
	a := openStore(t, dsn, WithCollection("a"))
	b := openStore(t, dsn, WithCollection("b"))
	_, err := a.Upsert(ctx, testChunks("x.pdf", "only in a"), [][]float32{{1, 0}})
	require.NoError(t, err)
	docs, err := b.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
