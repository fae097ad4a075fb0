// Package credentials scopes API keys to a single planning request. Keys are
// carried explicitly into the generator and never written to the process
// environment.
package credentials

import (
	"fmt"
	"strings"

	"github.com/kingrea/eventplanner/internal/event"
)

// Environment variable names understood by pipelines.
const (
	EnvOpenAI = "OPENAI_API_KEY"
	EnvSerper = "SERPER_API_KEY"
	EnvGemini = "GEMINI_API_KEY"
)

// Credentials holds the secrets entered for one submission.
type Credentials struct {
	OpenAIKey string
	SerperKey string
	GeminiKey string
}

// MissingCredentialError reports the first secret a request still needs.
type MissingCredentialError struct {
	Name   string
	EnvVar string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("credentials: %s API key is required (%s)", e.Name, e.EnvVar)
}

// FromEnv reads keys from an environment lookup. It is only used to prefill
// inputs; nothing is ever written back.
func FromEnv(getenv func(string) string) Credentials {
	if getenv == nil {
		return Credentials{}
	}
	return Credentials{
		OpenAIKey: strings.TrimSpace(getenv(EnvOpenAI)),
		SerperKey: strings.TrimSpace(getenv(EnvSerper)),
		GeminiKey: strings.TrimSpace(getenv(EnvGemini)),
	}
}

// Normalize trims whitespace around every key.
func (c Credentials) Normalize() Credentials {
	return Credentials{
		OpenAIKey: strings.TrimSpace(c.OpenAIKey),
		SerperKey: strings.TrimSpace(c.SerperKey),
		GeminiKey: strings.TrimSpace(c.GeminiKey),
	}
}

// Require checks that every key needed by the provider and the web search tool
// is present. Vertex authenticates through Application Default Credentials.
func (c Credentials) Require(provider string) error {
	c = c.Normalize()
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case event.ProviderOpenAI:
		if c.OpenAIKey == "" {
			return &MissingCredentialError{Name: "OpenAI", EnvVar: EnvOpenAI}
		}
	case event.ProviderGemini:
		if c.GeminiKey == "" {
			return &MissingCredentialError{Name: "Gemini", EnvVar: EnvGemini}
		}
	}
	if c.SerperKey == "" {
		return &MissingCredentialError{Name: "Serper", EnvVar: EnvSerper}
	}
	return nil
}

// Environ renders the set keys as KEY=value pairs for a child process.
// Unset keys are omitted entirely.
func (c Credentials) Environ() []string {
	c = c.Normalize()
	var env []string
	if c.OpenAIKey != "" {
		env = append(env, EnvOpenAI+"="+c.OpenAIKey)
	}
	if c.SerperKey != "" {
		env = append(env, EnvSerper+"="+c.SerperKey)
	}
	if c.GeminiKey != "" {
		env = append(env, EnvGemini+"="+c.GeminiKey)
	}
	return env
}

// String never prints secrets.
func (c Credentials) String() string {
	c = c.Normalize()
	return fmt.Sprintf("openai=%s serper=%s gemini=%s", mask(c.OpenAIKey), mask(c.SerperKey), mask(c.GeminiKey))
}

func mask(key string) string {
	if key == "" {
		return "unset"
	}
	if len(key) <= 8 {
		return "set"
	}
	return key[:3] + "…" + key[len(key)-2:]
}
