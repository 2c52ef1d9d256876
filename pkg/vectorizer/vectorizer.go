package vectorizer

import (
	"context"
	"math"
)

// Vector represents a text embedding. The dimensionality depends on the
// model (1536 for text-embedding-3-small).
type Vector []float64

// Provider defines the interface for embedding backends.
type Provider interface {
	// Vectorize converts a single text into a vector embedding.
	Vectorize(ctx context.Context, text string) (Vector, error)

	// VectorizeBatch converts multiple texts in a single request. More
	// efficient than calling Vectorize in a loop.
	VectorizeBatch(ctx context.Context, texts []string) ([]Vector, error)

	// Dimensions returns the vector dimensions for the current model.
	Dimensions() int
}

// CosineSimilarity returns the cosine of the angle between two vectors:
// 1 for identical direction, 0 for orthogonal. Returns 0 when the vectors
// differ in length or either has zero magnitude.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
