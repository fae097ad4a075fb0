// Package planner performs the delegation call: it validates a submission,
// guards credentials, hands the request to a content generator, and reports
// which artifacts came back.
package planner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/eventplanner/internal/artifact"
	"github.com/kingrea/eventplanner/internal/credentials"
	"github.com/kingrea/eventplanner/internal/event"
	"github.com/kingrea/eventplanner/internal/generator"
	"github.com/kingrea/eventplanner/internal/logbook"
	"github.com/kingrea/eventplanner/internal/logging"
)

const defaultTimeout = 10 * time.Minute

// Submission is one press of the submit button.
type Submission struct {
	Form        event.Form
	ModelHandle string
	Credentials credentials.Credentials
}

// Outcome reports a completed delegation call.
type Outcome struct {
	RunID     string
	Request   event.Request
	Model     event.ModelOption
	Artifacts []artifact.CheckResult
	StartedAt time.Time
	Duration  time.Duration
}

// Ready reports whether every expected artifact is present and parseable.
func (o Outcome) Ready() bool {
	if len(o.Artifacts) == 0 {
		return false
	}
	for _, a := range o.Artifacts {
		if !a.Ready() {
			return false
		}
	}
	return true
}

// Service runs one submission at a time.
type Service struct {
	catalog   *event.Catalog
	generator generator.ContentGenerator
	store     *artifact.Store
	journal   *logbook.Logbook
	logger    *logging.Logger
	timeout   time.Duration
	now       func() time.Time
	newRunID  func() string

	running sync.Mutex
}

// Option customizes a Service.
type Option func(*Service)

// WithLogbook records every submission in the journal.
func WithLogbook(l *logbook.Logbook) Option {
	return func(s *Service) { s.journal = l }
}

// WithLogger sets the structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTimeout bounds each generation. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides the clock used for date validation and timings.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.now = clock }
}

// WithRunIDs overrides run identifier generation.
func WithRunIDs(next func() string) Option {
	return func(s *Service) { s.newRunID = next }
}

// New builds a service that delegates to gen and checks artifacts in resultsDir.
func New(catalog *event.Catalog, gen generator.ContentGenerator, resultsDir string, opts ...Option) *Service {
	s := &Service{
		catalog:   catalog,
		generator: gen,
		store:     artifact.NewStore(resultsDir),
		timeout:   defaultTimeout,
		now:       time.Now,
		newRunID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the models offered to users.
func (s *Service) Catalog() *event.Catalog { return s.catalog }

// Store returns the artifact store rooted at the results directory.
func (s *Service) Store() *artifact.Store { return s.store }

// Busy reports whether a submission is currently generating.
func (s *Service) Busy() bool {
	if s.running.TryLock() {
		s.running.Unlock()
		return false
	}
	return true
}

// Submit validates the submission and runs the content generator. Validation,
// unknown models and missing credentials are reported before any delegation.
// On success the returned outcome lists the state of every expected artifact.
func (s *Service) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	model, err := s.catalog.Resolve(sub.ModelHandle)
	if err != nil {
		s.journal.Warn("Rejected submission: unknown model %q", sub.ModelHandle)
		return Outcome{}, err
	}
	req, err := event.NewRequest(sub.Form, s.now())
	if err != nil {
		s.journal.Warn("Rejected submission: %v", err)
		return Outcome{}, err
	}
	creds := sub.Credentials.Normalize()
	if err := creds.Require(model.Provider); err != nil {
		s.journal.Warn("Rejected submission: %v", err)
		return Outcome{}, err
	}
	if !s.running.TryLock() {
		s.journal.Warn("Rejected submission: a run is already in progress")
		return Outcome{}, ErrRunInProgress
	}
	defer s.running.Unlock()

	runID := s.newRunID()
	started := s.now()
	log := s.logger.With("run", runID, "model", model.Handle())
	s.journal.Info("Run %s started: %q in %s on %s with %s", runID, req.Topic, req.City, req.DisplayDate(), model.Handle())
	log.Info("generation started", "city", req.City, "participants", req.ExpectedParticipants)

	if err := s.store.Clear(artifact.Outputs()...); err != nil {
		log.Warn("could not clear previous artifacts", "error", err)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, genErr := s.generator.Plan(genCtx, generator.Job{
		RunID:       runID,
		Model:       model,
		Request:     req,
		Credentials: creds,
		ResultsDir:  s.store.Root(),
	})
	if genErr != nil {
		if errors.Is(genErr, context.Canceled) {
			s.journal.Warn("Run %s cancelled", runID)
		} else {
			s.journal.Error("Run %s failed, see planner.log", runID)
		}
		log.Error("generation failed", "error", genErr)
		return Outcome{}, &GenerationError{RunID: runID, Err: genErr}
	}

	outcome := Outcome{
		RunID:     runID,
		Request:   req,
		Model:     model,
		Artifacts: s.store.CheckAll(artifact.Outputs()...),
		StartedAt: started,
		Duration:  s.now().Sub(started),
	}
	states := make([]string, 0, len(outcome.Artifacts))
	for _, a := range outcome.Artifacts {
		states = append(states, a.Ref.FileName+"="+string(a.State))
		if !a.Ready() {
			log.Warn("artifact not ready", "artifact", a.Ref.ID, "state", a.State, "error", a.Err)
		}
	}
	if outcome.Ready() {
		s.journal.Info("Run %s finished in %s: %s", runID, outcome.Duration.Round(time.Second), strings.Join(states, ", "))
	} else {
		s.journal.Warn("Run %s finished with missing artifacts: %s", runID, strings.Join(states, ", "))
	}
	log.Info("generation finished", "ready", outcome.Ready(), "duration", outcome.Duration)
	return outcome, nil
}
