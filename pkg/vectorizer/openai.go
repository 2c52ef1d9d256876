package vectorizer

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Default OpenAI embedding model: good balance of quality and cost.
const DefaultOpenAIModel = openai.SmallEmbedding3

// Maximum texts per embedding request.
const maxBatchSize = 100

// OpenAIConfig configures the OpenAI embedding provider.
type OpenAIConfig struct {
	APIKey string               `env:"OPENAI_API_KEY,required"`
	Model  openai.EmbeddingModel `env:"OPENAI_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
}

// OpenAIProvider implements Provider using the OpenAI embeddings API.
type OpenAIProvider struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// NewOpenAIProvider creates an OpenAI embedding provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	dimensions := modelDimensions(model)
	if dimensions == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidModel, model)
	}

	return &OpenAIProvider{
		client:     openai.NewClient(cfg.APIKey),
		model:      model,
		dimensions: dimensions,
	}, nil
}

func (p *OpenAIProvider) Vectorize(ctx context.Context, text string) (Vector, error) {
	vectors, err := p.VectorizeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, ErrVectorizationFailed
	}
	return vectors[0], nil
}

func (p *OpenAIProvider) VectorizeBatch(ctx context.Context, texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return []Vector{}, nil
	}

	var all []Vector
	for i := 0; i < len(texts); i += maxBatchSize {
		end := min(i+maxBatchSize, len(texts))

		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: p.model,
			Input: texts[i:end],
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVectorizationFailed, err)
		}

		for _, item := range resp.Data {
			vec := make(Vector, len(item.Embedding))
			for j, v := range item.Embedding {
				vec[j] = float64(v)
			}
			all = append(all, vec)
		}
	}

	return all, nil
}

func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

func modelDimensions(model openai.EmbeddingModel) int {
	switch model {
	case openai.SmallEmbedding3:
		return 1536
	case openai.LargeEmbedding3:
		return 3072
	case openai.AdaEmbeddingV2:
		return 1536
	default:
		return 0
	}
}
