package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/postpilot/core/svc/content"
)

// ErrAPIKeyRequired is returned when the OpenAI provider has no API key.
var ErrAPIKeyRequired = errors.New("openai api key is required")

// OpenAIConfig configures the OpenAI content provider.
type OpenAIConfig struct {
	APIKey string `env:"OPENAI_API_KEY,required"`
	Model  string `env:"OPENAI_CHAT_MODEL" envDefault:"gpt-4o-mini"`
	// VisionModel handles image and video frame analysis.
	VisionModel string `env:"OPENAI_VISION_MODEL" envDefault:"gpt-4o"`
}

// OpenAIProvider implements AIProvider using OpenAI chat completions.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	visionModel string
}

// NewOpenAIProvider creates an OpenAI-backed content provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = openai.GPT4o
	}

	return &OpenAIProvider{
		client:      openai.NewClient(cfg.APIKey),
		model:       model,
		visionModel: visionModel,
	}, nil
}

func (p *OpenAIProvider) GenerateCopy(ctx context.Context, material *content.Material, brandVoice string, platform content.Platform, constraints Constraints, n int) ([]string, error) {
	if n <= 0 {
		n = 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write %d distinct social media post variations for %s.\n", n, platform)
	fmt.Fprintf(&sb, "Stay under %d characters per post.\n", constraints.MaxLength)
	if brandVoice != "" {
		fmt.Fprintf(&sb, "Brand voice: %s\n", brandVoice)
	}
	if len(constraints.RequiredTerms) > 0 {
		fmt.Fprintf(&sb, "Every post must mention: %s\n", strings.Join(constraints.RequiredTerms, ", "))
	}
	if len(constraints.ForbiddenTerms) > 0 {
		fmt.Fprintf(&sb, "Never mention: %s\n", strings.Join(constraints.ForbiddenTerms, ", "))
	}
	sb.WriteString("Respond with a JSON array of strings, one per variation, and nothing else.\n\n")
	fmt.Fprintf(&sb, "Source material titled %q:\n%s", material.Title, sourceText(material))

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a social media copywriter. You always answer with valid JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: sb.String(),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai copy generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	return parseVariations(resp.Choices[0].Message.Content)
}

func (p *OpenAIProvider) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Summarize the given text in a few sentences, keeping the key facts and tone.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai summarization failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *OpenAIProvider) AnalyzeImage(ctx context.Context, url string) (string, error) {
	return p.analyzeMedia(ctx, url, "Describe this image for use as social media source material. Mention subjects, mood and any visible text.")
}

func (p *OpenAIProvider) AnalyzeVideo(ctx context.Context, url string) (string, error) {
	// Video analysis goes through the vision model on the thumbnail URL;
	// platforms expose a poster frame for uploaded videos.
	return p.analyzeMedia(ctx, url, "Describe this video frame for use as social media source material. Mention subjects, mood and any visible text.")
}

func (p *OpenAIProvider) analyzeMedia(ctx context.Context, url, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: url},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai media analysis failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func sourceText(m *content.Material) string {
	if m.Summary != "" {
		return m.Summary
	}
	return m.Body
}

// parseVariations reads the model's JSON array reply, tolerating a fenced
// code block around it.
func parseVariations(reply string) ([]string, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	reply = strings.TrimSpace(reply)

	var variations []string
	if err := json.Unmarshal([]byte(reply), &variations); err != nil {
		return nil, fmt.Errorf("failed to parse generated variations: %w", err)
	}

	out := variations[:0]
	for _, v := range variations {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out, nil
}
