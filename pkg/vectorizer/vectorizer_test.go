package vectorizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/core/pkg/vectorizer"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b vectorizer.Vector
		want float64
	}{
		{"identical", vectorizer.Vector{1, 2, 3}, vectorizer.Vector{1, 2, 3}, 1},
		{"scaled", vectorizer.Vector{1, 2, 3}, vectorizer.Vector{2, 4, 6}, 1},
		{"orthogonal", vectorizer.Vector{1, 0}, vectorizer.Vector{0, 1}, 0},
		{"opposite", vectorizer.Vector{1, 0}, vectorizer.Vector{-1, 0}, -1},
		{"mismatched_length", vectorizer.Vector{1, 2}, vectorizer.Vector{1, 2, 3}, 0},
		{"zero_vector", vectorizer.Vector{0, 0}, vectorizer.Vector{1, 1}, 0},
		{"empty", vectorizer.Vector{}, vectorizer.Vector{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, vectorizer.CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	t.Parallel()

	a := vectorizer.Vector{0.3, -0.1, 0.8, 0.2}
	b := vectorizer.Vector{0.1, 0.4, 0.5, -0.3}
	assert.InDelta(t, vectorizer.CosineSimilarity(a, b), vectorizer.CosineSimilarity(b, a), 1e-12)
}

func TestNewOpenAIProvider(t *testing.T) {
	t.Parallel()

	t.Run("requires_api_key", func(t *testing.T) {
		t.Parallel()
		_, err := vectorizer.NewOpenAIProvider(vectorizer.OpenAIConfig{})
		assert.ErrorIs(t, err, vectorizer.ErrAPIKeyRequired)
	})

	t.Run("rejects_unknown_model", func(t *testing.T) {
		t.Parallel()
		_, err := vectorizer.NewOpenAIProvider(vectorizer.OpenAIConfig{APIKey: "sk-test", Model: "gpt-nope"})
		assert.ErrorIs(t, err, vectorizer.ErrInvalidModel)
	})

	t.Run("defaults_model_and_dimensions", func(t *testing.T) {
		t.Parallel()
		p, err := vectorizer.NewOpenAIProvider(vectorizer.OpenAIConfig{APIKey: "sk-test"})
		require.NoError(t, err)
		assert.Equal(t, 1536, p.Dimensions())
	})
}
