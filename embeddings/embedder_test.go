package embeddings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/casebot/embeddings"
	"github.com/viant/casebot/embeddings/simple"
)

type failing struct {
	*simple.Embedder
	failAt int
	calls  int
}

func (f *failing) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, errors.New("rate limited")
	}
	return f.Embedder.EmbedDocuments(ctx, docs)
}

func TestBatch(t *testing.T) {
	texts := []string{"a", "b", "c", "d", "e"}
	e := &failing{Embedder: simple.New(8)}
	vecs, err := embeddings.Batch(context.Background(), e, texts, 2)
	require.NoError(t, err)
	assert.Len(t, vecs, 5)
	assert.Equal(t, 3, e.calls)
}

func TestBatch_FailsWholeRun(t *testing.T) {
	e := &failing{Embedder: simple.New(8), failAt: 2}
	vecs, err := embeddings.Batch(context.Background(), e, []string{"a", "b", "c"}, 1)
	assert.Nil(t, vecs)
	assert.ErrorIs(t, err, embeddings.ErrService)
}

func TestCheckCount(t *testing.T) {
	assert.ErrorIs(t, embeddings.CheckCount([][]float32{{1}}, 2), embeddings.ErrService)
	assert.ErrorIs(t, embeddings.CheckCount([][]float32{{}}, 1), embeddings.ErrService)
	assert.NoError(t, embeddings.CheckCount([][]float32{{1}}, 1))
}
