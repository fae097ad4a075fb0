// Package generator defines the delegation boundary between the planner and
// whatever produces the venue and marketing artifacts.
package generator

import (
	"context"

	"github.com/kingrea/eventplanner/internal/artifact"
	"github.com/kingrea/eventplanner/internal/credentials"
	"github.com/kingrea/eventplanner/internal/event"
)

// Job is everything a content generator receives for one submission.
type Job struct {
	RunID       string
	Model       event.ModelOption
	Request     event.Request
	Credentials credentials.Credentials
	ResultsDir  string
}

// Artifacts lists the paths a generator claims to have written.
type Artifacts struct {
	VenueDetails    string
	MarketingReport string
}

// ExpectedArtifacts returns the canonical output paths for a results directory.
func ExpectedArtifacts(resultsDir string) Artifacts {
	return Artifacts{
		VenueDetails:    artifact.VenueDetails.Path(resultsDir),
		MarketingReport: artifact.MarketingReport.Path(resultsDir),
	}
}

// ContentGenerator produces the venue details and marketing report for a job.
// Implementations return an error for any failure and make no claim about
// partially written files.
type ContentGenerator interface {
	Plan(ctx context.Context, job Job) (Artifacts, error)
}

// Func adapts a plain function to ContentGenerator.
type Func func(ctx context.Context, job Job) (Artifacts, error)

// Plan calls f.
func (f Func) Plan(ctx context.Context, job Job) (Artifacts, error) {
	return f(ctx, job)
}
