package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	// Provider is the name attached to log entries produced by this package.
	Provider = "gemini"

	DefaultModel = "gemini-2.0-flash"
)

const systemInstruction = "You are an expert recruitment analyst. You read candidate CVs " +
	"and job descriptions and return structured candidate profiles as JSON that strictly " +
	"follows the provided schema."

// contentModels is the part of genai.Models the generator relies on.
type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client for schema-constrained JSON generation.
type Generator struct {
	models      contentModels
	modelName   string
	temperature float32
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, temperature float32) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, model, temperature), nil
}

func newGenerator(models contentModels, model string, temperature float32) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}

	return &Generator{models: models, modelName: model, temperature: temperature}
}

// GenerateJSON sends the prompt with the response schema and returns the textual response.
func (g *Generator) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	}

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
