package event

import (
	"fmt"
	"strings"
)

// Known providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
)

// ModelOption is one selectable language model.
type ModelOption struct {
	Provider string
	Name     string
}

// Handle returns the provider-prefixed model name, e.g. "openai/gpt-4o".
func (m ModelOption) Handle() string {
	return m.Provider + "/" + m.Name
}

func (m ModelOption) String() string { return m.Handle() }

// DefaultModels lists the OpenAI models offered out of the box, one entry per model.
func DefaultModels() []ModelOption {
	names := []string{
		"gpt-4o-mini",
		"gpt-4o",
		"o1",
		"o1-mini",
		"o1-preview",
		"o3-mini",
	}
	opts := make([]ModelOption, len(names))
	for i, name := range names {
		opts[i] = ModelOption{Provider: ProviderOpenAI, Name: name}
	}
	return opts
}

// ParseHandle splits "provider/name" and checks the provider is supported.
func ParseHandle(handle string) (ModelOption, error) {
	handle = strings.TrimSpace(handle)
	provider, name, ok := strings.Cut(handle, "/")
	provider = strings.ToLower(strings.TrimSpace(provider))
	name = strings.TrimSpace(name)
	if !ok || provider == "" || name == "" || strings.ContainsAny(name, " \t") {
		return ModelOption{}, fmt.Errorf("%w: %q", ErrUnknownModel, handle)
	}
	switch provider {
	case ProviderOpenAI, ProviderGemini, ProviderVertex:
	default:
		return ModelOption{}, fmt.Errorf("%w: provider %q", ErrUnknownModel, provider)
	}
	return ModelOption{Provider: provider, Name: name}, nil
}

// Catalog is the ordered set of models a user can choose from.
type Catalog struct {
	options []ModelOption
	index   map[string]int
}

// NewCatalog builds a catalogue, dropping duplicate handles while keeping order.
func NewCatalog(opts ...ModelOption) *Catalog {
	c := &Catalog{index: map[string]int{}}
	for _, opt := range opts {
		key := strings.ToLower(opt.Handle())
		if _, ok := c.index[key]; ok {
			continue
		}
		c.index[key] = len(c.options)
		c.options = append(c.options, opt)
	}
	return c
}

// Options returns a copy of the catalogue entries.
func (c *Catalog) Options() []ModelOption {
	if c == nil {
		return nil
	}
	return append([]ModelOption{}, c.options...)
}

// Lookup finds a model by handle (case-insensitive).
func (c *Catalog) Lookup(handle string) (ModelOption, bool) {
	if c == nil {
		return ModelOption{}, false
	}
	idx, ok := c.index[strings.ToLower(strings.TrimSpace(handle))]
	if !ok {
		return ModelOption{}, false
	}
	return c.options[idx], true
}

// Resolve is Lookup with an ErrUnknownModel error.
func (c *Catalog) Resolve(handle string) (ModelOption, error) {
	if opt, ok := c.Lookup(handle); ok {
		return opt, nil
	}
	return ModelOption{}, fmt.Errorf("%w: %q", ErrUnknownModel, handle)
}

// Default returns the first entry.
func (c *Catalog) Default() (ModelOption, bool) {
	if c == nil || len(c.options) == 0 {
		return ModelOption{}, false
	}
	return c.options[0], true
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.options)
}
