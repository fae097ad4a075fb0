package generator

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kingrea/eventplanner/internal/logging"
)

// Options carries what a factory may need from configuration.
type Options struct {
	Command        []string
	Dir            string
	Timeout        time.Duration
	SearchEndpoint string
	SearchResults  int
	SearchTimeout  time.Duration
	Temperature    *float32
	VertexProject  string
	VertexLocation string
	Logger         *logging.Logger
}

// Factory constructs a generator from options.
type Factory func(Options) (ContentGenerator, error)

// Registry maintains known generator factories keyed by kind.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a factory. Returns an error if the kind already exists.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("generator: kind is required")
	}
	if factory == nil {
		return fmt.Errorf("generator: factory is required for %s", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("generator: %s already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(kind string, factory Factory) {
	if err := r.Register(kind, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs a generator by kind.
func (r *Registry) Resolve(kind string, opts Options) (ContentGenerator, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("generator: unknown kind %s", kind)
	}
	gen, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("generator: build %s: %w", kind, err)
	}
	if gen == nil {
		return nil, fmt.Errorf("generator: %s factory returned nil", kind)
	}
	return gen, nil
}

// IDs returns a sorted list of registered kinds.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
