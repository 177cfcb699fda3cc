// Package mem implements an in-process vectordb.Index. Nothing survives the
// process; it backs tests and throwaway sessions.
package mem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/casebot/document"
	"github.com/viant/casebot/schema"
	"github.com/viant/casebot/vectordb"
)

// Store keeps records in memory.
type Store struct {
	collection string
	model      string
	policy     vectordb.Policy
	pinned     string
	dimension  int
	generation string
	updatedAt  time.Time
	records    []*vectordb.Record
	seq        int64
	mux        sync.RWMutex
}

// Option configures the memory store.
type Option func(*Store)

// WithCollection sets the collection name.
func WithCollection(name string) Option {
	return func(s *Store) { s.collection = name }
}

// WithPolicy sets the generation policy (default: replace).
func WithPolicy(policy vectordb.Policy) Option {
	return func(s *Store) { s.policy = policy }
}

// New creates a memory index for the embedding model.
func New(model string, opts ...Option) *Store {
	s := &Store{collection: "casebot", model: model, policy: vectordb.PolicyReplace}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert adds chunks as a new generation.
func (s *Store) Upsert(ctx context.Context, chunks document.Chunks, vectors [][]float32) (*vectordb.UpsertResult, error) {
	dim, err := vectordb.ValidateUpsert(chunks, vectors)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.pinned != "" && s.policy == vectordb.PolicyAppend {
		if s.pinned != s.model {
			return nil, fmt.Errorf("%w: collection %s built with %s, writing with %s", vectordb.ErrModelMismatch, s.collection, s.pinned, s.model)
		}
		if s.dimension != dim {
			return nil, fmt.Errorf("%w: collection %s has %d dimensions, writing %d", vectordb.ErrDimension, s.collection, s.dimension, dim)
		}
	}
	result := &vectordb.UpsertResult{Generation: uuid.NewString()}
	if s.policy == vectordb.PolicyReplace {
		result.Superseded = len(s.records)
		s.records = nil
	}
	for i, chunk := range chunks {
		s.seq++
		vector := make([]float32, len(vectors[i]))
		copy(vector, vectors[i])
		s.records = append(s.records, &vectordb.Record{
			ID:         chunk.ID(),
			Seq:        s.seq,
			Generation: result.Generation,
			Content:    chunk.Text,
			Meta:       vectordb.ChunkMeta(chunk),
			Vector:     vector,
		})
		result.Written++
	}
	s.pinned = s.model
	s.dimension = dim
	s.generation = result.Generation
	s.updatedAt = time.Now().UTC()
	return result, nil
}

// Query ranks records by cosine similarity.
func (s *Store) Query(ctx context.Context, query []float32, k int) ([]schema.Document, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", vectordb.ErrInvalidArgument, k)
	}
	s.mux.RLock()
	defer s.mux.RUnlock()
	if s.pinned == "" {
		return nil, nil
	}
	if s.pinned != s.model {
		return nil, fmt.Errorf("%w: collection %s built with %s, querying with %s", vectordb.ErrModelMismatch, s.collection, s.pinned, s.model)
	}
	if s.dimension != len(query) {
		return nil, fmt.Errorf("%w: collection %s has %d dimensions, query has %d", vectordb.ErrDimension, s.collection, s.dimension, len(query))
	}
	return vectordb.Rank(query, s.records, k), ctx.Err()
}

// Purge drops all records.
func (s *Store) Purge(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.records = nil
	s.pinned = ""
	s.dimension = 0
	s.generation = ""
	return nil
}

// Stats summarizes the store.
func (s *Store) Stats(ctx context.Context) (*vectordb.Stats, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	generations := map[string]bool{}
	for _, record := range s.records {
		generations[record.Generation] = true
	}
	stats := &vectordb.Stats{
		Collection:  s.collection,
		Model:       s.pinned,
		Dimension:   s.dimension,
		Policy:      s.policy,
		Generation:  s.generation,
		Active:      len(s.records),
		Generations: len(generations),
		UpdatedAt:   s.updatedAt,
	}
	if s.pinned != "" {
		stats.Metric = vectordb.MetricCosine
	}
	return stats, nil
}

// Sample returns up to n records in insertion order.
func (s *Store) Sample(ctx context.Context, n int) ([]*vectordb.Record, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if n > len(s.records) {
		n = len(s.records)
	}
	if n <= 0 {
		return nil, nil
	}
	out := make([]*vectordb.Record, n)
	copy(out, s.records[:n])
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

var _ vectordb.Index = (*Store)(nil)
