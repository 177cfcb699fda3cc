package vectordb

import (
	"math"
	"sort"

	"github.com/viant/casebot/schema"
)

// Cosine returns the cosine similarity of a and b, 0 for zero vectors.
func Cosine(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

type scored struct {
	record *Record
	score  float32
}

// Rank scores records against query and returns the top k documents ordered
// by descending score; equal scores keep ascending Seq order.
func Rank(query []float32, records []*Record, k int) []schema.Document {
	hits := make([]scored, 0, len(records))
	for _, r := range records {
		hits = append(hits, scored{record: r, score: Cosine(query, r.Vector)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].record.Seq < hits[j].record.Seq
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	out := make([]schema.Document, len(hits))
	for i, h := range hits {
		out[i] = h.record.Document(h.score)
	}
	return out
}
