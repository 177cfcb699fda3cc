// Package simple provides a deterministic offline embedder based on hashed
// token counts, used for local runs and tests.
package simple

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embedder returns deterministic L2 normalized bag-of-words vectors.
type Embedder struct {
	Dim int
}

// New constructs a simple deterministic embedder.
func New(dim int) *Embedder {
	if dim <= 0 {
		dim = 256
	}
	return &Embedder{Dim: dim}
}

func (e *Embedder) Model() string { return fmt.Sprintf("simple/%d", e.Dim) }

// EmbedDocuments embeds documents deterministically.
func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i, s := range docs {
		out[i] = Vector(s, e.Dim)
	}
	return out, nil
}

// EmbedQuery embeds a query deterministically.
func (e *Embedder) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	return Vector(q, e.Dim), nil
}

// Vector hashes lower-cased word tokens into dim buckets.
func Vector(s string, dim int) []float32 {
	v := make([]float32, dim)
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, token := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		v[h.Sum32()%uint32(dim)]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}
