package mem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/casebot/document"
	"github.com/viant/casebot/vectordb"
)

func chunks(texts ...string) document.Chunks {
	var out document.Chunks
	for i, text := range texts {
		out = append(out, &document.Chunk{Text: text, Index: i, Start: i, End: i + len(text), Meta: map[string]string{document.SourceKey: "notes.md"}})
	}
	return out
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := New("simple/2")

	docs, err := store.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = store.Upsert(ctx, chunks("x", "y"), [][]float32{{1, 0}, {1, 0}})
	require.NoError(t, err)
	docs, err = store.Query(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "x", docs[0].PageContent)
	assert.Equal(t, "y", docs[1].PageContent)

	result, err := store.Upsert(ctx, chunks("x", "y"), [][]float32{{1, 0}, {1, 0}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Superseded)
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Active)

	_, err = store.Query(ctx, []float32{1}, 1)
	assert.ErrorIs(t, err, vectordb.ErrDimension)

	require.NoError(t, store.Purge(ctx))
	sample, err := store.Sample(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, sample)
}

func TestStore_Append(t *testing.T) {
	ctx := context.Background()
	store := New("simple/2", WithPolicy(vectordb.PolicyAppend))
	_, err := store.Upsert(ctx, chunks("x"), [][]float32{{1, 0}})
	require.NoError(t, err)
	_, err = store.Upsert(ctx, chunks("x"), [][]float32{{1, 0}})
	require.NoError(t, err)
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 2, stats.Generations)
}
