package crew

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kingrea/eventplanner/internal/artifact"
	"github.com/kingrea/eventplanner/internal/credentials"
	"github.com/kingrea/eventplanner/internal/event"
	"github.com/kingrea/eventplanner/internal/generator"
	"github.com/kingrea/eventplanner/internal/llm"
	"github.com/kingrea/eventplanner/internal/search"
)

type fakeLLM struct {
	mu      sync.Mutex
	replies map[string]string
	fail    string
	prompts []llm.Prompt
	closed  bool
}

func (f *fakeLLM) Complete(ctx context.Context, prompt llm.Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	for role, reply := range f.replies {
		if strings.Contains(prompt.System, role) {
			if role == f.fail {
				return "", errors.New("upstream timeout")
			}
			return reply, nil
		}
	}
	return "", errors.New("unexpected prompt")
}

func (f *fakeLLM) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]search.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return []search.Result{{Title: "Spree Hall", Link: "https://spree.example", Snippet: "Conference hall"}}, nil
}

func newFakes() (*fakeLLM, *fakeSearcher) {
	return &fakeLLM{replies: map[string]string{
		VenueCoordinator.Role: "```json\n{\"name\":\"Spree Hall\",\"address\":\"Am Ufer 1, Berlin\",\"capacity\":120,\"booking_status\":\"available\"}\n```",
		LogisticsManager.Role: "Catering by Kiez Kitchen.",
		MarketingAgent.Role:   "Promote on the Go Berlin meetup group.",
	}}, &fakeSearcher{}
}

func testCrew(client *fakeLLM, searcher *fakeSearcher) *Crew {
	return New(
		WithLLMFactory(func(context.Context, event.ModelOption, credentials.Credentials) (llm.Client, error) {
			return client, nil
		}),
		WithSearcherFactory(func(credentials.Credentials) search.Searcher { return searcher }),
		WithClock(func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }),
	)
}

func testJob(t *testing.T) generator.Job {
	t.Helper()
	req, err := event.NewRequest(event.Form{
		Topic:        "Go meetup",
		Description:  "Talks and pizza",
		City:         "Berlin",
		Date:         "20.04.2026",
		Participants: "40",
		Budget:       "1500",
	}, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return generator.Job{
		RunID:       "run-1",
		Model:       event.ModelOption{Provider: event.ProviderOpenAI, Name: "gpt-4o"},
		Request:     req,
		Credentials: credentials.Credentials{OpenAIKey: "sk", SerperKey: "serper"},
		ResultsDir:  t.TempDir(),
	}
}

func TestCrewPlanWritesBothArtifacts(t *testing.T) {
	client, searcher := newFakes()
	job := testJob(t)
	got, err := testCrew(client, searcher).Plan(context.Background(), job)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if got != generator.ExpectedArtifacts(job.ResultsDir) {
		t.Fatalf("unexpected artifacts %+v", got)
	}
	store := artifact.NewStore(job.ResultsDir)
	for _, result := range store.CheckAll(artifact.Outputs()...) {
		if !result.Ready() {
			t.Fatalf("%s not ready: %s (%v)", result.Ref.ID, result.State, result.Err)
		}
		if result.Metadata == nil || result.Metadata.RunID != "run-1" || result.Metadata.Generator != Kind {
			t.Fatalf("%s: unexpected metadata %+v", result.Ref.ID, result.Metadata)
		}
	}
	venue, err := store.Read(artifact.VenueDetails)
	if err != nil {
		t.Fatalf("read venue: %v", err)
	}
	if !strings.Contains(string(venue), `"booking_status": "available"`) {
		t.Fatalf("unexpected venue body %s", venue)
	}
	report, err := os.ReadFile(got.MarketingReport)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"# Go meetup: Event Plan", "Spree Hall", "## Logistics", "Kiez Kitchen", "## Marketing Plan", "meetup group"} {
		if !strings.Contains(string(report), want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
	if !client.closed {
		t.Fatalf("expected llm client closed")
	}
	if len(searcher.queries) != 2 || !strings.Contains(searcher.queries[0], "Berlin") {
		t.Fatalf("unexpected queries %v", searcher.queries)
	}
	if !client.prompts[0].JSON {
		t.Fatalf("expected venue prompt to request JSON")
	}
}

func TestCrewPlanStopsOnTaskFailure(t *testing.T) {
	client, searcher := newFakes()
	client.fail = MarketingAgent.Role
	job := testJob(t)
	_, err := testCrew(client, searcher).Plan(context.Background(), job)
	if err == nil || !strings.Contains(err.Error(), "marketing task") {
		t.Fatalf("expected marketing failure, got %v", err)
	}
	result, _ := artifact.NewStore(job.ResultsDir).Check(artifact.MarketingReport)
	if result.State != artifact.StateMissing {
		t.Fatalf("expected no report after failure, got %s", result.State)
	}
}

func TestCrewPlanRejectsUnparseableVenue(t *testing.T) {
	client, searcher := newFakes()
	client.replies[VenueCoordinator.Role] = "I could not find a venue."
	_, err := testCrew(client, searcher).Plan(context.Background(), testJob(t))
	if err == nil || !strings.Contains(err.Error(), "venue details") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestCrewPlanPropagatesClientError(t *testing.T) {
	_, searcher := newFakes()
	wantErr := errors.New("no key")
	c := New(
		WithLLMFactory(func(context.Context, event.ModelOption, credentials.Credentials) (llm.Client, error) {
			return nil, wantErr
		}),
		WithSearcherFactory(func(credentials.Credentials) search.Searcher { return searcher }),
	)
	if _, err := c.Plan(context.Background(), testJob(t)); !errors.Is(err, wantErr) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestStripFence(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripFence(in); got != want {
			t.Fatalf("stripFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAgentsAndCapabilities(t *testing.T) {
	if len(Agents()) != 3 || len(Capabilities()) != 3 {
		t.Fatalf("expected three agents and capabilities")
	}
	if !strings.Contains(VenueCoordinator.System(), "Venue Coordinator") {
		t.Fatalf("system prompt should name the role")
	}
}

func TestCrewPlanRejectsRequestBelowFloors(t *testing.T) {
	called := false
	c := New(
		WithLLMFactory(func(context.Context, event.ModelOption, credentials.Credentials) (llm.Client, error) {
			called = true
			return nil, errors.New("should not be reached")
		}),
		WithClock(func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }),
	)
	job := testJob(t)
	job.Request.TentativeDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	job.Request.ExpectedParticipants = 0

	_, err := c.Plan(context.Background(), job)
	var verr *event.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("expected date and participants errors, got %+v", verr.Fields)
	}
	if called {
		t.Fatal("llm client built for an invalid request")
	}
	if entries, _ := os.ReadDir(job.ResultsDir); len(entries) != 0 {
		t.Fatalf("expected no artifacts, got %d entries", len(entries))
	}
}
