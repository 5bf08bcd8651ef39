package generation

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Result is one normalized generation-service response.
type Result struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
	Model        string
}

// Generator is the text-generation boundary. The service calls it twice per
// platform job: once for copy, once for hashtags.
type Generator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (*Result, error)
}

// GeminiGenerator implements Generator against the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (*Result, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(userPrompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}

	result := &Result{
		Text:  resp.Text(),
		Model: g.model,
	}
	if resp.ModelVersion != "" {
		result.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		result.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}
