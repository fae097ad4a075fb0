// Package llm wraps the chat-completion providers the agents can run on.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/kingrea/eventplanner/internal/credentials"
	"github.com/kingrea/eventplanner/internal/event"
)

// Prompt is one single-turn request.
type Prompt struct {
	System string
	User   string
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// Client completes prompts against one model.
type Client interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	Close() error
}

// Config tunes provider construction.
type Config struct {
	OpenAIBaseURL  string
	VertexProject  string
	VertexLocation string
	// Temperature is sent to every provider when set; nil keeps the provider default.
	// Reasoning models never receive it.
	Temperature *float32
}

// New builds a client for model using the request-scoped credentials.
func New(ctx context.Context, model event.ModelOption, creds credentials.Credentials, cfg Config) (Client, error) {
	creds = creds.Normalize()
	switch model.Provider {
	case event.ProviderOpenAI:
		if creds.OpenAIKey == "" {
			return nil, &credentials.MissingCredentialError{Name: "OpenAI", EnvVar: credentials.EnvOpenAI}
		}
		return newOpenAI(model.Name, creds.OpenAIKey, cfg), nil
	case event.ProviderGemini:
		if creds.GeminiKey == "" {
			return nil, &credentials.MissingCredentialError{Name: "Gemini", EnvVar: credentials.EnvGemini}
		}
		return newGemini(ctx, model.Name, creds.GeminiKey, cfg)
	case event.ProviderVertex:
		if strings.TrimSpace(cfg.VertexProject) == "" {
			return nil, fmt.Errorf("llm: vertex project is not configured")
		}
		return newVertex(ctx, model.Name, cfg)
	default:
		return nil, fmt.Errorf("llm: %w: %s", event.ErrUnknownModel, model.Handle())
	}
}

func emptyResponse(model string) error {
	return fmt.Errorf("llm: %s returned no content", model)
}

// candidateText joins the text parts of the first candidate that has content.
// T is the SDK's text part type; each candidate is passed as its part list.
func candidateText[T ~string, P any](model string, candidates [][]P) (string, error) {
	var b strings.Builder
	for _, parts := range candidates {
		if parts == nil {
			continue
		}
		for _, part := range parts {
			if txt, ok := any(part).(T); ok {
				b.WriteString(string(txt))
			}
		}
		break
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", emptyResponse(model)
	}
	return out, nil
}
