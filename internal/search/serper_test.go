package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSerperSearch(t *testing.T) {
	var gotKey string
	var gotBody serperRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		gotKey = r.Header.Get("X-API-KEY")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic":[
			{"title":"Hall A","link":"https://a.example","snippet":"200 seats"},
			{"title":"Hall B","link":"https://b.example","snippet":"80 seats"},
			{"title":"Hall C","link":"https://c.example","snippet":"50 seats"}
		]}`))
	}))
	defer srv.Close()

	client := NewSerper(" key-123 ", WithEndpoint(srv.URL), WithResults(2))
	results, err := client.Search(context.Background(), "event venues in Berlin")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotKey != "key-123" {
		t.Fatalf("unexpected api key header %q", gotKey)
	}
	if gotBody.Q != "event venues in Berlin" || gotBody.Num != 2 {
		t.Fatalf("unexpected request body %+v", gotBody)
	}
	if len(results) != 2 || results[0].Title != "Hall A" || results[1].Link != "https://b.example" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestSerperErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewSerper("bad", WithEndpoint(srv.URL)).Search(context.Background(), "venues")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestSerperRequiresKeyAndQuery(t *testing.T) {
	if _, err := NewSerper("").Search(context.Background(), "venues"); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := NewSerper("k").Search(context.Background(), "  "); err == nil {
		t.Fatalf("expected empty query error")
	}
}

func TestFormat(t *testing.T) {
	if Format(nil) != "No search results." {
		t.Fatalf("unexpected empty format")
	}
	out := Format([]Result{{Title: "Hall", Link: "https://h", Snippet: "big"}})
	if !strings.HasPrefix(out, "1. Hall") || !strings.Contains(out, "https://h") {
		t.Fatalf("unexpected format %q", out)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestSerperUsesProvidedHTTPClient(t *testing.T) {
	var hits int
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		hits++
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`{"organic":[{"title":"Hall A"}]}`)),
			Request:    r,
		}, nil
	})}
	results, err := NewSerper("key", WithHTTPClient(client)).Search(context.Background(), "venues")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if hits != 1 || len(results) != 1 {
		t.Fatalf("expected the injected client to serve the request, hits=%d results=%v", hits, results)
	}
}
