package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type geminiClient struct {
	client      *genai.Client
	model       string
	temperature *float32
}

func newGemini(ctx context.Context, model, apiKey string, cfg Config) (*geminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini client: %w", err)
	}
	return &geminiClient{client: client, model: model, temperature: cfg.Temperature}, nil
}

func (c *geminiClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	model := c.client.GenerativeModel(c.model)
	if c.temperature != nil {
		model.SetTemperature(*c.temperature)
	}
	if prompt.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(prompt.System)},
		}
	}
	if prompt.JSON {
		model.ResponseMIMEType = "application/json"
	}
	resp, err := model.GenerateContent(ctx, genai.Text(prompt.User))
	if err != nil {
		return "", fmt.Errorf("llm: gemini %s: %w", c.model, err)
	}
	candidates := make([][]genai.Part, len(resp.Candidates))
	for i, cand := range resp.Candidates {
		if cand.Content != nil {
			candidates[i] = cand.Content.Parts
		}
	}
	return candidateText[genai.Text](c.model, candidates)
}

func (c *geminiClient) Close() error {
	return c.client.Close()
}
