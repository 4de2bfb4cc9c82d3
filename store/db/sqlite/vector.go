package sqlite

import (
	"math"
	"slices"
)

// CosineSimilarity calculates cosine similarity between two vectors.
// Mismatched or zero-norm vectors score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}

type scored[T any] struct {
	item  T
	score float32
}

// topK keeps items scoring above threshold, best first, at most k.
func topK[T any](items []scored[T], threshold float32, k int) []scored[T] {
	kept := items[:0]
	for _, it := range items {
		if it.score > threshold {
			kept = append(kept, it)
		}
	}
	slices.SortStableFunc(kept, func(a, b scored[T]) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})
	if k > 0 && len(kept) > k {
		kept = kept[:k]
	}
	return kept
}
