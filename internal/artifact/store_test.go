package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func TestStoreWriteAndCheckDocument(t *testing.T) {
	store := NewStore(t.TempDir(), WithClock(fixedClock))
	meta := Metadata{Generator: "crew", RunID: "run-1", Model: "openai/gpt-4o"}
	if err := store.Write(MarketingReport, []byte("# Launch plan\n"), meta); err != nil {
		t.Fatalf("write: %v", err)
	}
	result, err := store.Check(MarketingReport)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Ready() {
		t.Fatalf("expected ready, got %s (%v)", result.State, result.Err)
	}
	if result.Metadata == nil || result.Metadata.RunID != "run-1" || !result.Metadata.CreatedAt.Equal(fixedClock()) {
		t.Fatalf("unexpected metadata: %+v", result.Metadata)
	}
	body, err := store.Read(MarketingReport)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != "# Launch plan\n" {
		t.Fatalf("expected frontmatter stripped, got %q", body)
	}
}

func TestStoreWriteAndCheckJSON(t *testing.T) {
	store := NewStore(t.TempDir(), WithClock(fixedClock))
	venue := []byte(`{"name":"Hall A","address":"1 Main St","capacity":200,"booking_status":"available"}`)
	if err := store.Write(VenueDetails, venue, Metadata{Generator: "crew"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	result, err := store.Check(VenueDetails)
	if err != nil || !result.Ready() {
		t.Fatalf("expected ready, got %s (%v)", result.State, err)
	}
	body, err := store.Read(VenueDetails)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := decoded[metadataKey]; ok {
		t.Fatalf("expected metadata removed from body")
	}
	if decoded["name"] != "Hall A" {
		t.Fatalf("unexpected body: %v", decoded)
	}
}

func TestStoreCheckPlainFilesWithoutMetadata(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "venue_details.json"), []byte(`{"name":"Hall"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "marketing_report.md"), []byte("# Report\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewStore(dir)
	for _, result := range store.CheckAll(Outputs()...) {
		if !result.Ready() {
			t.Fatalf("%s: expected ready, got %s (%v)", result.Ref.ID, result.State, result.Err)
		}
		if result.Metadata != nil {
			t.Fatalf("%s: expected no metadata", result.Ref.ID)
		}
	}
}

func TestStoreCheckStates(t *testing.T) {
	cases := []struct {
		name    string
		ref     ArtifactRef
		content string
		want    State
	}{
		{name: "missing", ref: VenueDetails, want: StateMissing},
		{name: "broken json", ref: VenueDetails, content: "{not json", want: StateInvalid},
		{name: "json array", ref: VenueDetails, content: "[1,2]", want: StateInvalid},
		{name: "json id mismatch", ref: VenueDetails, content: `{"_planner":{"artifact":"other","generator":"crew","created":"2026-03-14T09:30:00Z"}}`, want: StateInvalid},
		{name: "empty report", ref: MarketingReport, content: "  \n", want: StateInvalid},
		{name: "planner block without fields", ref: MarketingReport, content: "---\nplanner:\n  run: run-1\n---\n\nbody\n", want: StateInvalid},
		{name: "planner block without body", ref: MarketingReport, content: "---\nplanner:\n  artifact: marketing-report\n  generator: crew\n  created: 2026-03-14T09:30:00Z\n---\n\n", want: StateInvalid},
		{name: "report id mismatch", ref: MarketingReport, content: "---\nplanner:\n  artifact: venue-details\n  generator: crew\n  created: 2026-03-14T09:30:00Z\n---\n\nbody\n", want: StateInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if tc.content != "" {
				if err := os.WriteFile(filepath.Join(dir, tc.ref.FileName), []byte(tc.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			result, _ := NewStore(dir).Check(tc.ref)
			if result.State != tc.want {
				t.Fatalf("expected %s, got %s (%v)", tc.want, result.State, result.Err)
			}
			if tc.want == StateInvalid && result.Err == nil {
				t.Fatalf("expected an error for invalid artifact")
			}
		})
	}
}

func TestStoreCheckExternalDocumentsWithForeignFences(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		wantBody string
	}{
		{name: "thematic break", content: "---\n\n# Plan\n\nText\n", wantBody: "# Plan"},
		{name: "unclosed fence", content: "---\nplanner: [\n", wantBody: "planner: ["},
		{name: "foreign frontmatter", content: "---\ntitle: Marketing\n---\n# Plan\n", wantBody: "title: Marketing"},
		{name: "markdown between rules", content: "---\nIntro: text, with - odd: yaml: bits\n---\n# Plan\n", wantBody: "# Plan"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, MarketingReport.FileName), []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			store := NewStore(dir)
			result, err := store.Check(MarketingReport)
			if err != nil || result.State != StateReady {
				t.Fatalf("expected ready, got %s (%v)", result.State, result.Err)
			}
			if result.Metadata != nil {
				t.Fatalf("expected no metadata, got %+v", result.Metadata)
			}
			body, err := store.Read(MarketingReport)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(body) != tc.content || !strings.Contains(string(body), tc.wantBody) {
				t.Fatalf("expected the document unchanged, got %q", body)
			}
		})
	}
}

func TestStoreWriteRejectsMissingGenerator(t *testing.T) {
	store := NewStore(t.TempDir())
	err := store.Write(MarketingReport, []byte("body"), Metadata{})
	if err == nil || !strings.Contains(err.Error(), "generator") {
		t.Fatalf("expected generator error, got %v", err)
	}
}

func TestStoreRejectsMalformedRefs(t *testing.T) {
	cases := []struct {
		name  string
		store *Store
		ref   ArtifactRef
		want  string
	}{
		{name: "missing kind", store: NewStore(t.TempDir()), ref: ArtifactRef{ID: "x", FileName: "x.md"}, want: "kind is required"},
		{name: "missing file name", store: NewStore(t.TempDir()), ref: ArtifactRef{ID: "x", Kind: KindDocument}, want: "file name missing"},
		{name: "missing id", store: NewStore(t.TempDir()), ref: ArtifactRef{Kind: KindDocument, FileName: "x.md"}, want: "id is required"},
		{name: "no results dir", store: NewStore(""), ref: MarketingReport, want: "could not be resolved"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := tc.store.Check(tc.ref)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("check: expected %q error, got %v", tc.want, err)
			}
			if result.State != StateError || result.Err == nil {
				t.Fatalf("expected error state, got %+v", result)
			}
			if _, err := tc.store.Read(tc.ref); err == nil {
				t.Fatal("read: expected error")
			}
			if err := tc.store.Write(tc.ref, []byte("body"), Metadata{Generator: "crew"}); err == nil {
				t.Fatal("write: expected error")
			}
		})
	}
}

func TestStoreClearRemovesStaleArtifacts(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Write(MarketingReport, []byte("old"), Metadata{Generator: "crew"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(Outputs()...); err != nil {
		t.Fatalf("clear: %v", err)
	}
	result, _ := store.Check(MarketingReport)
	if result.State != StateMissing {
		t.Fatalf("expected missing after clear, got %s", result.State)
	}
}

func TestLookupAndPaths(t *testing.T) {
	ref, ok := Lookup("marketing-report")
	if !ok || ref.FileName != "marketing_report.md" {
		t.Fatalf("unexpected lookup: %+v %v", ref, ok)
	}
	if got := VenueDetails.Path("/tmp/results"); got != filepath.Join("/tmp/results", "venue_details.json") {
		t.Fatalf("unexpected path %s", got)
	}
	if VenueDetails.Path("") != "" {
		t.Fatalf("expected empty path without root")
	}
	if err := (ArtifactRef{ID: "x"}).Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}
