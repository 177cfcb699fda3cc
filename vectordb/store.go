// Package vectordb defines the durable vector index used for retrieval.
package vectordb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/casebot/document"
	"github.com/viant/casebot/schema"
)

var (
	// ErrModelMismatch is returned when an index is written or queried with a
	// different embedding model than the one that built it.
	ErrModelMismatch = errors.New("vectordb: embedding model mismatch")
	// ErrDimension is returned when vector dimensions disagree.
	ErrDimension = errors.New("vectordb: vector dimension mismatch")
	// ErrInvalidArgument is returned for malformed requests.
	ErrInvalidArgument = errors.New("vectordb: invalid argument")
)

// MetricCosine is the only supported similarity metric.
const MetricCosine = "cosine"

// Policy controls what an upsert does with previously indexed vectors.
type Policy string

const (
	// PolicyReplace supersedes every earlier generation in the same transaction.
	PolicyReplace Policy = "replace"
	// PolicyAppend keeps earlier generations searchable.
	PolicyAppend Policy = "append"
)

// ParsePolicy parses a policy name, defaulting to PolicyReplace.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(name))) {
	case "", PolicyReplace:
		return PolicyReplace, nil
	case PolicyAppend:
		return PolicyAppend, nil
	default:
		return "", fmt.Errorf("%w: unknown policy %q", ErrInvalidArgument, name)
	}
}

// Record represents an indexed vector with its text and metadata.
type Record struct {
	ID         string                 `json:"id"`
	Seq        int64                  `json:"seq"`
	Generation string                 `json:"generation"`
	Content    string                 `json:"content"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
	Vector     []float32              `json:"-"`
}

// Document converts the record into a scored retrieval result.
func (r *Record) Document(score float32) schema.Document {
	meta := make(map[string]interface{}, len(r.Meta)+1)
	for k, v := range r.Meta {
		meta[k] = v
	}
	meta[document.EntryIDKey] = r.ID
	return schema.Document{PageContent: r.Content, Metadata: meta, Score: score}
}

// Stats summarizes a collection.
type Stats struct {
	Collection  string    `json:"collection"`
	Model       string    `json:"model,omitempty"`
	Metric      string    `json:"metric,omitempty"`
	Dimension   int       `json:"dimension,omitempty"`
	Policy      Policy    `json:"policy,omitempty"`
	Generation  string    `json:"generation,omitempty"`
	Active      int       `json:"active"`
	Archived    int       `json:"archived"`
	Generations int       `json:"generations"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// UpsertResult describes a committed write.
type UpsertResult struct {
	Generation string
	Written    int
	Superseded int
}

// Index stores chunk vectors and answers nearest neighbour queries.
type Index interface {
	// Upsert writes all chunks with their vectors atomically.
	Upsert(ctx context.Context, chunks document.Chunks, vectors [][]float32) (*UpsertResult, error)
	// Query returns at most k active records ordered by descending similarity,
	// ties broken by insertion order.
	Query(ctx context.Context, vector []float32, k int) ([]schema.Document, error)
	// Purge removes every record of the collection.
	Purge(ctx context.Context) error
	Stats(ctx context.Context) (*Stats, error)
	// Sample returns up to n active records in insertion order.
	Sample(ctx context.Context, n int) ([]*Record, error)
	Close() error
}

// ValidateUpsert checks chunk/vector alignment and returns the vector dimension.
func ValidateUpsert(chunks document.Chunks, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("%w: %d chunks with %d vectors", ErrInvalidArgument, len(chunks), len(vectors))
	}
	if len(vectors) == 0 {
		return 0, fmt.Errorf("%w: nothing to upsert", ErrInvalidArgument)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return 0, fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrDimension, i, len(v), dim)
		}
	}
	return dim, nil
}

// ChunkMeta converts chunk metadata into record metadata.
func ChunkMeta(chunk *document.Chunk) map[string]interface{} {
	return chunk.NewDocument().Metadata
}
