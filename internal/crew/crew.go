package crew

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/eventplanner/internal/artifact"
	"github.com/kingrea/eventplanner/internal/credentials"
	"github.com/kingrea/eventplanner/internal/event"
	"github.com/kingrea/eventplanner/internal/generator"
	"github.com/kingrea/eventplanner/internal/llm"
	"github.com/kingrea/eventplanner/internal/logging"
	"github.com/kingrea/eventplanner/internal/search"
)

// Kind names the crew generator in the registry.
const Kind = "crew"

// LLMFactory builds a client for one job.
type LLMFactory func(ctx context.Context, model event.ModelOption, creds credentials.Credentials) (llm.Client, error)

// SearcherFactory builds a web searcher for one job.
type SearcherFactory func(creds credentials.Credentials) search.Searcher

// Crew runs the three agents against one job.
type Crew struct {
	newLLM      LLMFactory
	newSearcher SearcherFactory
	logger      *logging.Logger
	now         func() time.Time
}

// Option customizes a Crew.
type Option func(*Crew)

// WithLLMFactory replaces how LLM clients are built.
func WithLLMFactory(f LLMFactory) Option {
	return func(c *Crew) { c.newLLM = f }
}

// WithSearcherFactory replaces how searchers are built.
func WithSearcherFactory(f SearcherFactory) Option {
	return func(c *Crew) { c.newSearcher = f }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Crew) { c.logger = l }
}

// WithClock overrides the clock used for artifact metadata.
func WithClock(clock func() time.Time) Option {
	return func(c *Crew) { c.now = clock }
}

// New builds a crew. Without options it talks to the real providers.
func New(opts ...Option) *Crew {
	c := &Crew{
		newLLM: func(ctx context.Context, model event.ModelOption, creds credentials.Credentials) (llm.Client, error) {
			return llm.New(ctx, model, creds, llm.Config{})
		},
		newSearcher: func(creds credentials.Credentials) search.Searcher {
			return search.NewSerper(creds.SerperKey)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Factory builds a crew from registry options.
func Factory(opts generator.Options) (generator.ContentGenerator, error) {
	cfg := llm.Config{
		VertexProject:  opts.VertexProject,
		VertexLocation: opts.VertexLocation,
		Temperature:    opts.Temperature,
	}
	timeout := opts.SearchTimeout
	if timeout <= 0 {
		timeout = search.DefaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	return New(
		WithLogger(opts.Logger),
		WithLLMFactory(func(ctx context.Context, model event.ModelOption, creds credentials.Credentials) (llm.Client, error) {
			return llm.New(ctx, model, creds, cfg)
		}),
		WithSearcherFactory(func(creds credentials.Credentials) search.Searcher {
			return search.NewSerper(creds.SerperKey,
				search.WithEndpoint(opts.SearchEndpoint),
				search.WithResults(opts.SearchResults),
				search.WithHTTPClient(httpClient),
			)
		}),
	), nil
}

// Plan researches the venue, then runs logistics and marketing concurrently and
// writes both artifacts into the job's results directory.
func (c *Crew) Plan(ctx context.Context, job generator.Job) (generator.Artifacts, error) {
	if err := job.Request.Validate(c.now()); err != nil {
		return generator.Artifacts{}, err
	}
	client, err := c.newLLM(ctx, job.Model, job.Credentials)
	if err != nil {
		return generator.Artifacts{}, err
	}
	defer client.Close()
	searcher := c.newSearcher(job.Credentials)
	store := artifact.NewStore(job.ResultsDir, artifact.WithClock(c.now))
	meta := artifact.Metadata{Generator: Kind, RunID: job.RunID, Model: job.Model.Handle()}
	log := c.logger.With("run", job.RunID, "model", job.Model.Handle())

	log.Info("venue task started", "agent", VenueCoordinator.Role)
	venue, err := c.researchVenue(ctx, client, searcher, job.Request)
	if err != nil {
		return generator.Artifacts{}, err
	}
	venueJSON, err := json.Marshal(venue)
	if err != nil {
		return generator.Artifacts{}, fmt.Errorf("crew: encode venue details: %w", err)
	}
	if err := store.Write(artifact.VenueDetails, venueJSON, meta); err != nil {
		return generator.Artifacts{}, err
	}
	log.Info("venue task finished", "venue", venue.Name)

	var logistics, marketing string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		research, err := searcher.Search(gctx, logisticsQuery(job.Request))
		if err != nil {
			return fmt.Errorf("crew: logistics research: %w", err)
		}
		out, err := client.Complete(gctx, llm.Prompt{
			System: LogisticsManager.System(),
			User:   logisticsPrompt(job.Request, venue, search.Format(research)),
		})
		if err != nil {
			return fmt.Errorf("crew: logistics task: %w", err)
		}
		logistics = out
		return nil
	})
	g.Go(func() error {
		out, err := client.Complete(gctx, llm.Prompt{
			System: MarketingAgent.System(),
			User:   marketingPrompt(job.Request, venue),
		})
		if err != nil {
			return fmt.Errorf("crew: marketing task: %w", err)
		}
		marketing = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return generator.Artifacts{}, err
	}

	report := composeReport(job.Request, venue, logistics, marketing)
	if err := store.Write(artifact.MarketingReport, []byte(report), meta); err != nil {
		return generator.Artifacts{}, err
	}
	log.Info("marketing report written")
	return generator.ExpectedArtifacts(job.ResultsDir), nil
}

func (c *Crew) researchVenue(ctx context.Context, client llm.Client, searcher search.Searcher, req event.Request) (VenueDetails, error) {
	results, err := searcher.Search(ctx, venueQuery(req))
	if err != nil {
		return VenueDetails{}, fmt.Errorf("crew: venue research: %w", err)
	}
	out, err := client.Complete(ctx, llm.Prompt{
		System: VenueCoordinator.System(),
		User:   venuePrompt(req, search.Format(results)),
		JSON:   true,
	})
	if err != nil {
		return VenueDetails{}, fmt.Errorf("crew: venue task: %w", err)
	}
	return parseVenue(out)
}
