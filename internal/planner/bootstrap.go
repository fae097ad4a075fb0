package planner

import (
	"github.com/kingrea/eventplanner/internal/config"
	"github.com/kingrea/eventplanner/internal/crew"
	"github.com/kingrea/eventplanner/internal/generator"
	"github.com/kingrea/eventplanner/internal/logging"
)

// NewRegistry returns the generators selectable through generator.kind.
func NewRegistry() *generator.Registry {
	reg := generator.NewRegistry()
	reg.MustRegister(crew.Kind, crew.Factory)
	reg.MustRegister(generator.KindExec, generator.ExecFactory)
	return reg
}

// FromConfig builds a service for cfg using the generator named by
// generator.kind. A nil registry uses NewRegistry.
func FromConfig(cfg *config.Config, reg *generator.Registry, logger *logging.Logger, opts ...Option) (*Service, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	project := cfg.Project
	gen, err := reg.Resolve(project.Generator.Kind, generator.Options{
		Command:        project.Generator.Command,
		Dir:            cfg.ProjectDir,
		Timeout:        project.Generator.Timeout,
		SearchEndpoint: project.Search.Endpoint,
		SearchResults:  project.Search.Results,
		SearchTimeout:  project.Search.Timeout,
		Temperature:    project.LLM.Temperature,
		VertexProject:  project.Vertex.Project,
		VertexLocation: project.Vertex.Location,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	base := []Option{WithLogger(logger), WithTimeout(project.Generator.Timeout)}
	return New(cfg.Catalog(), gen, cfg.ResultsDir(), append(base, opts...)...), nil
}
