package llm

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

const defaultVertexLocation = "us-central1"

// vertexClient authenticates through Application Default Credentials.
type vertexClient struct {
	client      *genai.Client
	model       string
	temperature *float32
}

func newVertex(ctx context.Context, model string, cfg Config) (*vertexClient, error) {
	location := cfg.VertexLocation
	if location == "" {
		location = defaultVertexLocation
	}
	client, err := genai.NewClient(ctx, cfg.VertexProject, location)
	if err != nil {
		return nil, fmt.Errorf("llm: create vertex client: %w", err)
	}
	return &vertexClient{client: client, model: model, temperature: cfg.Temperature}, nil
}

func (c *vertexClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
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
		return "", fmt.Errorf("llm: vertex %s: %w", c.model, err)
	}
	candidates := make([][]genai.Part, len(resp.Candidates))
	for i, cand := range resp.Candidates {
		if cand.Content != nil {
			candidates[i] = cand.Content.Parts
		}
	}
	return candidateText[genai.Text](c.model, candidates)
}

func (c *vertexClient) Close() error {
	return c.client.Close()
}
