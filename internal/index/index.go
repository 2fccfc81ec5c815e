// Package index stores chunk records and answers top-k cosine similarity
// queries. Two implementations share one contract: an in-memory store for
// small corpora and tests, and a pgvector-backed store for durable ones.
package index

import (
	"context"
	"math"

	"github.com/patchline/corpusqa/internal/domain"
)

// Index is the vector store contract.
//
// Upsert stores or replaces a record keyed by its filename. Delete of a
// missing key is a no-op. Search returns at most k results ordered by
// descending cosine similarity, ties broken by insertion order (earlier
// wins), and an empty slice over an empty index. List is a full
// enumeration for management use, not the query path.
type Index interface {
	Upsert(ctx context.Context, chunk domain.Chunk) error
	Delete(ctx context.Context, filename string) error
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
	List(ctx context.Context) ([]domain.Chunk, error)
	Search(ctx context.Context, vector []float32, k int) ([]domain.QueryResult, error)
	Len(ctx context.Context) (int, error)
}

// CosineSimilarity computes dot(a,b) / (‖a‖·‖b‖). A zero-norm vector on
// either side yields 0.0 rather than NaN, so degenerate embeddings rank
// last instead of crashing a query.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func isZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
