package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kingrea/eventplanner/internal/credentials"
	"github.com/kingrea/eventplanner/internal/event"
)

type capturedRequest struct {
	auth string
	body openai.ChatCompletionRequest
}

func fakeOpenAI(t *testing.T, reply string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		captured.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured.body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   captured.body.Model,
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAICompleteSendsSystemAndJSONFormat(t *testing.T) {
	var captured capturedRequest
	srv := fakeOpenAI(t, ` {"name":"Hall"} `, &captured)
	client, err := New(context.Background(),
		event.ModelOption{Provider: event.ProviderOpenAI, Name: "gpt-4o"},
		credentials.Credentials{OpenAIKey: "sk-test"},
		Config{OpenAIBaseURL: srv.URL + "/v1/"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Close()
	out, err := client.Complete(context.Background(), Prompt{System: "be brief", User: "find a venue", JSON: true})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"name":"Hall"}` {
		t.Fatalf("unexpected output %q", out)
	}
	if captured.auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", captured.auth)
	}
	if captured.body.Model != "gpt-4o" || len(captured.body.Messages) != 2 {
		t.Fatalf("unexpected request %+v", captured.body)
	}
	if captured.body.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("expected system message first, got %s", captured.body.Messages[0].Role)
	}
	if captured.body.ResponseFormat == nil || captured.body.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Fatalf("expected json response format")
	}
}

func TestOpenAIReasoningModelFoldsSystemPrompt(t *testing.T) {
	var captured capturedRequest
	srv := fakeOpenAI(t, "plan", &captured)
	client, err := New(context.Background(),
		event.ModelOption{Provider: event.ProviderOpenAI, Name: "o1-mini"},
		credentials.Credentials{OpenAIKey: "sk-test"},
		Config{OpenAIBaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := client.Complete(context.Background(), Prompt{System: "rules", User: "task", JSON: true}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	msgs := captured.body.Messages
	if len(msgs) != 1 || msgs[0].Role != openai.ChatMessageRoleUser {
		t.Fatalf("expected a single user message, got %+v", msgs)
	}
	if msgs[0].Content != "rules\n\ntask" {
		t.Fatalf("unexpected folded content %q", msgs[0].Content)
	}
	if captured.body.ResponseFormat != nil {
		t.Fatalf("reasoning models should not receive a response format")
	}
}

func TestOpenAIEmptyReply(t *testing.T) {
	var captured capturedRequest
	srv := fakeOpenAI(t, "   ", &captured)
	client, err := New(context.Background(),
		event.ModelOption{Provider: event.ProviderOpenAI, Name: "gpt-4o-mini"},
		credentials.Credentials{OpenAIKey: "sk-test"},
		Config{OpenAIBaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := client.Complete(context.Background(), Prompt{User: "hi"}); err == nil {
		t.Fatalf("expected empty response error")
	}
}

func TestNewRequiresProviderKey(t *testing.T) {
	cases := []struct {
		name  string
		model event.ModelOption
		cfg   Config
	}{
		{name: "openai", model: event.ModelOption{Provider: event.ProviderOpenAI, Name: "gpt-4o"}},
		{name: "gemini", model: event.ModelOption{Provider: event.ProviderGemini, Name: "gemini-1.5-flash"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(context.Background(), tc.model, credentials.Credentials{SerperKey: "s"}, tc.cfg)
			var missing *credentials.MissingCredentialError
			if !errors.As(err, &missing) {
				t.Fatalf("expected missing credential, got %v", err)
			}
		})
	}
}

func TestNewRejectsUnconfiguredVertexAndUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), event.ModelOption{Provider: event.ProviderVertex, Name: "gemini-2.5-pro"}, credentials.Credentials{}, Config{})
	if err == nil || !strings.Contains(err.Error(), "vertex project") {
		t.Fatalf("expected vertex project error, got %v", err)
	}
	_, err = New(context.Background(), event.ModelOption{Provider: "anthropic", Name: "x"}, credentials.Credentials{}, Config{})
	if !errors.Is(err, event.ErrUnknownModel) {
		t.Fatalf("expected unknown model, got %v", err)
	}
}

func TestOpenAITemperatureIsOptional(t *testing.T) {
	warm := float32(0.4)
	zero := float32(0)
	cases := []struct {
		name  string
		model string
		temp  *float32
		check func(float32) bool
	}{
		{name: "unset", model: "gpt-4o", check: func(v float32) bool { return v == 0 }},
		{name: "configured", model: "gpt-4o", temp: &warm, check: func(v float32) bool { return v == warm }},
		{name: "explicit zero", model: "gpt-4o", temp: &zero, check: func(v float32) bool { return v > 0 && v < 1e-30 }},
		{name: "reasoning model", model: "o3-mini", temp: &warm, check: func(v float32) bool { return v == 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var captured capturedRequest
			srv := fakeOpenAI(t, "ok", &captured)
			client, err := New(context.Background(),
				event.ModelOption{Provider: event.ProviderOpenAI, Name: tc.model},
				credentials.Credentials{OpenAIKey: "sk-test"},
				Config{OpenAIBaseURL: srv.URL + "/v1", Temperature: tc.temp})
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			if _, err := client.Complete(context.Background(), Prompt{User: "hi"}); err != nil {
				t.Fatalf("complete: %v", err)
			}
			if !tc.check(captured.body.Temperature) {
				t.Fatalf("unexpected temperature %v", captured.body.Temperature)
			}
		})
	}
}

type textPart string

type blobPart struct{}

func TestCandidateTextUsesFirstCandidateWithContent(t *testing.T) {
	candidates := [][]any{
		nil,
		{textPart("Spree "), blobPart{}, textPart("Hall ")},
		{textPart("ignored")},
	}
	out, err := candidateText[textPart]("gemini-test", candidates)
	if err != nil || out != "Spree Hall" {
		t.Fatalf("unexpected text %q (%v)", out, err)
	}
	if _, err := candidateText[textPart]("gemini-test", [][]any{{blobPart{}}}); err == nil {
		t.Fatalf("expected empty response error")
	}
}
