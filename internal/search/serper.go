// Package search provides the web search tool used by the research agent.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the Serper web search API.
const DefaultEndpoint = "https://google.serper.dev/search"

// DefaultTimeout bounds one search request.
const DefaultTimeout = 30 * time.Second

const defaultResults = 5

// Result is one organic search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Serper calls the Serper API.
type Serper struct {
	apiKey   string
	endpoint string
	results  int
	client   *http.Client
}

// Option customizes a Serper client.
type Option func(*Serper)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) Option {
	return func(s *Serper) {
		if endpoint != "" {
			s.endpoint = endpoint
		}
	}
}

// WithResults sets how many organic results to request.
func WithResults(n int) Option {
	return func(s *Serper) {
		if n > 0 {
			s.results = n
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Serper) {
		if client != nil {
			s.client = client
		}
	}
}

// NewSerper builds a Serper client for apiKey.
func NewSerper(apiKey string, opts ...Option) *Serper {
	s := &Serper{
		apiKey:   strings.TrimSpace(apiKey),
		endpoint: DefaultEndpoint,
		results:  defaultResults,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []Result `json:"organic"`
}

// Search returns the organic results for query.
func (s *Serper) Search(ctx context.Context, query string) ([]Result, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("search: serper api key is required")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search: query is required")
	}
	body, err := json.Marshal(serperRequest{Q: query, Num: s.results})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: serper request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search: serper returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var decoded serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search: decode serper response: %w", err)
	}
	if len(decoded.Organic) > s.results {
		decoded.Organic = decoded.Organic[:s.results]
	}
	return decoded.Organic, nil
}

// Format renders results as a numbered list for prompts.
func Format(results []Result) string {
	if len(results) == 0 {
		return "No search results."
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.Link, r.Snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}
