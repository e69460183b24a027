package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash"

type GeminiService struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiService creates a Gemini chat service. systemPrompt, if set, is
// sent as the system instruction with every request.
func NewGeminiService(ctx context.Context, apiKey, modelName, systemPrompt string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required for Gemini provider")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.4)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}
	return &GeminiService{client: client, model: model}, nil
}

// Reply answers a single user message.
func (g *GeminiService) Reply(ctx context.Context, message string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content returned from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	reply := strings.TrimSpace(b.String())
	if reply == "" {
		return "", errors.New("no text returned from Gemini")
	}
	return reply, nil
}

func (g *GeminiService) Close() error {
	return g.client.Close()
}
