package llm

import (
	"context"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// reasoningModel reports whether model belongs to the o-series. Those models
// reject the system role and custom temperatures, so instructions travel in the
// user message instead.
func reasoningModel(model string) bool {
	return strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3")
}

type openAIClient struct {
	client      *openai.Client
	model       string
	temperature *float32
}

func newOpenAI(model, apiKey string, cfg Config) *openAIClient {
	conf := openai.DefaultConfig(apiKey)
	if cfg.OpenAIBaseURL != "" {
		conf.BaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
	}
	return &openAIClient{
		client:      openai.NewClientWithConfig(conf),
		model:       model,
		temperature: cfg.Temperature,
	}
}

func (c *openAIClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: c.messages(prompt),
	}
	if !reasoningModel(c.model) {
		if c.temperature != nil {
			req.Temperature = *c.temperature
			if req.Temperature == 0 {
				// go-openai omits a zero temperature from the request body.
				req.Temperature = math.SmallestNonzeroFloat32
			}
		}
		if prompt.JSON {
			req.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
		}
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llm: openai %s: %w", c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", emptyResponse(c.model)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", emptyResponse(c.model)
	}
	return content, nil
}

func (c *openAIClient) messages(prompt Prompt) []openai.ChatCompletionMessage {
	if prompt.System == "" {
		return []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt.User}}
	}
	if reasoningModel(c.model) {
		return []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt.System + "\n\n" + prompt.User,
		}}
	}
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
		{Role: openai.ChatMessageRoleUser, Content: prompt.User},
	}
}

func (c *openAIClient) Close() error { return nil }
