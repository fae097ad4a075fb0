// Package artifact defines the files a content generator hands back and the
// checks run on them before they are shown to the user. Each artifact has a
// stable identifier, a kind, and a fixed file name inside the results directory.

package artifact

import (
	"fmt"
	"path/filepath"
	"time"
)

// Kind captures the storage shape and serialization format for an artifact.
type Kind string

const (
	// KindDocument represents a markdown document, optionally with YAML frontmatter.
	KindDocument Kind = "document"
	// KindJSON represents a JSON object, optionally with a _planner metadata block.
	KindJSON Kind = "json"
)

// ArtifactRef declares a stable identifier and metadata for an artifact.
type ArtifactRef struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	FileName    string
}

// Path resolves the artifact path inside the results directory.
func (r ArtifactRef) Path(resultsDir string) string {
	if resultsDir == "" || r.FileName == "" {
		return ""
	}
	return filepath.Clean(filepath.Join(resultsDir, r.FileName))
}

// Validate ensures the reference is well-formed.
func (r ArtifactRef) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("artifact: id is required")
	}
	if r.Kind == "" {
		return fmt.Errorf("artifact: kind is required for %s", r.ID)
	}
	if r.FileName == "" {
		return fmt.Errorf("artifact: file name missing for %s", r.ID)
	}
	return nil
}

// Metadata captures provenance stored inside the frontmatter or metadata block.
type Metadata struct {
	ArtifactID string
	Generator  string
	RunID      string
	Model      string
	CreatedAt  time.Time
	Notes      map[string]string
}

// WithDefaults ensures metadata carries the artifact ID and timestamps.
func (m Metadata) WithDefaults(ref ArtifactRef, now time.Time) Metadata {
	clone := m
	if clone.ArtifactID == "" {
		clone.ArtifactID = ref.ID
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now.UTC()
	} else {
		clone.CreatedAt = clone.CreatedAt.UTC()
	}
	return clone
}

// ValidateFor ensures metadata matches the artifact contract.
func (m Metadata) ValidateFor(ref ArtifactRef) error {
	if m.ArtifactID != ref.ID {
		return fmt.Errorf("artifact: metadata id %s does not match ref %s", m.ArtifactID, ref.ID)
	}
	if m.Generator == "" {
		return fmt.Errorf("artifact: generator is required for %s", ref.ID)
	}
	return nil
}

// State captures the readiness of an artifact on disk.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// CheckResult captures Store.Check results.
type CheckResult struct {
	Ref      ArtifactRef
	Path     string
	State    State
	Metadata *Metadata
	Err      error
}

// Ready reports whether the artifact can be presented.
func (r CheckResult) Ready() bool {
	return r.State == StateReady
}

var refs map[string]ArtifactRef

func register(ref ArtifactRef) ArtifactRef {
	if refs == nil {
		refs = map[string]ArtifactRef{}
	}
	refs[ref.ID] = ref
	return ref
}

// Lookup returns a registered artifact reference by ID.
func Lookup(id string) (ArtifactRef, bool) {
	ref, ok := refs[id]
	return ref, ok
}

// Canonical artifacts written by every content generator.
var (
	VenueDetails = register(ArtifactRef{
		ID:          "venue-details",
		Name:        "Venue Details",
		Description: "venue_details.json with the researched venue",
		Kind:        KindJSON,
		FileName:    "venue_details.json",
	})
	MarketingReport = register(ArtifactRef{
		ID:          "marketing-report",
		Name:        "Marketing Report",
		Description: "marketing_report.md with logistics and the promotion plan",
		Kind:        KindDocument,
		FileName:    "marketing_report.md",
	})
)

// Outputs lists the artifacts expected after a successful run, in display order.
func Outputs() []ArtifactRef {
	return []ArtifactRef{VenueDetails, MarketingReport}
}
