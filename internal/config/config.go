// internal/config/config.go
//
// This package handles configuration and the .planner directory structure.
// Every project directory the planner runs in gets a .planner/ folder with a
// config.yaml, logs, and (by default) a results/ folder next to it.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/eventplanner/internal/event"
)

const (
	// PlannerDir is the name of the directory we create in each project
	PlannerDir = ".planner"

	defaultResultsDir     = "results"
	defaultModel          = "openai/gpt-4o-mini"
	defaultGeneratorKind  = "crew"
	defaultTimeout        = 10 * time.Minute
	defaultSearchEndpoint = "https://google.serper.dev/search"
	defaultSearchResults  = 5
	defaultSearchTimeout  = 30 * time.Second
	defaultVertexLocation = "us-central1"
	defaultAPIHost        = "127.0.0.1"
	defaultAPIPort        = 8765
	defaultLogLevel       = "info"
)

const defaultProjectConfigYAML = `# event planner configuration
version: 1

# Where generated artifacts are written (relative to the project directory).
results_dir: results

# Model preselected in the form. Must be one of the offered models.
default_model: openai/gpt-4o-mini

# Extra models offered next to the built-in OpenAI list.
# models:
#   - gemini/gemini-1.5-flash-latest
#   - vertex/gemini-2.5-pro
models: []

generator:
  # crew runs the built-in agents; exec hands the request to an external command.
  kind: crew
  # command: ["python", "-m", "event_crew"]
  timeout: 10m

search:
  endpoint: https://google.serper.dev/search
  results: 5
  timeout: 30s

llm:
  # Sampling temperature for every agent; leave unset for the provider default.
  # temperature: 0.7

vertex:
  project: ""
  location: us-central1

api:
  host: 127.0.0.1
  port: 8765

logging:
  level: info
`

// GeneratorConfig selects and tunes the content generator.
type GeneratorConfig struct {
	Kind    string        `yaml:"kind"`
	Command []string      `yaml:"command,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// SearchConfig configures the web search tool used by the research agent.
type SearchConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Results  int           `yaml:"results"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LLMConfig tunes the language model calls the agents make.
type LLMConfig struct {
	Temperature *float32 `yaml:"temperature,omitempty"`
}

// VertexConfig carries the Google Cloud location for vertex/* models.
type VertexConfig struct {
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
}

// APIConfig configures the HTTP front-end.
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig holds the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ProjectConfig models .planner/config.yaml.
type ProjectConfig struct {
	Version      int             `yaml:"version"`
	ResultsDir   string          `yaml:"results_dir"`
	DefaultModel string          `yaml:"default_model"`
	Models       []string        `yaml:"models"`
	Generator    GeneratorConfig `yaml:"generator"`
	Search       SearchConfig    `yaml:"search"`
	LLM          LLMConfig       `yaml:"llm"`
	Vertex       VertexConfig    `yaml:"vertex"`
	API          APIConfig       `yaml:"api"`
	Logging      LoggingConfig   `yaml:"logging"`
}

// Config holds the runtime configuration for the planner.
type Config struct {
	// ProjectDir is the directory the planner was started from
	ProjectDir string

	// PlannerProjectDir is ProjectDir/.planner
	PlannerProjectDir string

	Project ProjectConfig
}

// InitPlannerDir creates the .planner directory structure in the given project directory.
//
// Structure created:
// .planner/
// ├── config.yaml
// └── logs/         <- planner.log and journey.log
func InitPlannerDir(projectDir string) error {
	plannerDir := filepath.Join(projectDir, PlannerDir)
	if err := os.MkdirAll(filepath.Join(plannerDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(plannerDir, "config.yaml"))
}

// NewConfig loads .planner/config.yaml (if present) and applies environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:        projectDir,
		PlannerProjectDir: filepath.Join(projectDir, PlannerDir),
		Project:           defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides(os.Getenv)
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.PlannerProjectDir, "logs")
}

// JourneyLogPath returns the logbook file shown in the UI.
func (c *Config) JourneyLogPath() string {
	return filepath.Join(c.LogsDir(), "journey.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.PlannerProjectDir, "config.yaml")
}

// ResultsDir returns the absolute directory artifacts are written to.
func (c *Config) ResultsDir() string {
	return resolvePath(c.ProjectDir, c.Project.ResultsDir)
}

// Catalog returns the models offered to users: the built-in OpenAI list followed
// by any configured extras.
func (c *Config) Catalog() *event.Catalog {
	return catalogFor(c.Project.Models)
}

func catalogFor(handles []string) *event.Catalog {
	opts := event.DefaultModels()
	for _, handle := range handles {
		opt, err := event.ParseHandle(handle)
		if err != nil {
			continue
		}
		opts = append(opts, opt)
	}
	return event.NewCatalog(opts...)
}

// DefaultModel returns the preselected model handle.
func (c *Config) DefaultModel() string {
	return c.Project.DefaultModel
}

// SetDefaultModel updates the preselected model and persists it.
func (c *Config) SetDefaultModel(handle string) error {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return fmt.Errorf("config: model handle is required")
	}
	if _, ok := c.Catalog().Lookup(handle); !ok {
		return fmt.Errorf("config: %w: %q", event.ErrUnknownModel, handle)
	}
	if err := c.persistDefaultModel(handle); err != nil {
		return err
	}
	c.Project.DefaultModel = handle
	return nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnvOverrides(getenv func(string) string) {
	if value := strings.TrimSpace(getenv("PLANNER_RESULTS_DIR")); value != "" {
		c.Project.ResultsDir = value
	}
	if value := strings.TrimSpace(getenv("PLANNER_LOG_LEVEL")); value != "" {
		c.Project.Logging.Level = strings.ToLower(value)
	}
	if value := strings.TrimSpace(getenv("PLANNER_API_HOST")); value != "" {
		c.Project.API.Host = value
	}
	if value := strings.TrimSpace(getenv("PLANNER_API_PORT")); value != "" {
		if port, err := strconv.Atoi(value); err == nil && isValidPort(port) {
			c.Project.API.Port = port
		}
	}
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:      1,
		ResultsDir:   defaultResultsDir,
		DefaultModel: defaultModel,
		Generator: GeneratorConfig{
			Kind:    defaultGeneratorKind,
			Timeout: defaultTimeout,
		},
		Search: SearchConfig{
			Endpoint: defaultSearchEndpoint,
			Results:  defaultSearchResults,
			Timeout:  defaultSearchTimeout,
		},
		Vertex: VertexConfig{Location: defaultVertexLocation},
		API:    APIConfig{Host: defaultAPIHost, Port: defaultAPIPort},
		Logging: LoggingConfig{
			Level: defaultLogLevel,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.ResultsDir) == "" {
		pc.ResultsDir = defaultResultsDir
	}
	if strings.TrimSpace(pc.DefaultModel) == "" {
		pc.DefaultModel = defaultModel
	}
	if strings.TrimSpace(pc.Generator.Kind) == "" {
		pc.Generator.Kind = defaultGeneratorKind
	}
	if pc.Generator.Timeout <= 0 {
		pc.Generator.Timeout = defaultTimeout
	}
	if strings.TrimSpace(pc.Search.Endpoint) == "" {
		pc.Search.Endpoint = defaultSearchEndpoint
	}
	if pc.Search.Results <= 0 {
		pc.Search.Results = defaultSearchResults
	}
	if pc.Search.Timeout <= 0 {
		pc.Search.Timeout = defaultSearchTimeout
	}
	if strings.TrimSpace(pc.Vertex.Location) == "" {
		pc.Vertex.Location = defaultVertexLocation
	}
	if strings.TrimSpace(pc.API.Host) == "" {
		pc.API.Host = defaultAPIHost
	}
	if !isValidPort(pc.API.Port) {
		pc.API.Port = defaultAPIPort
	}
	if strings.TrimSpace(pc.Logging.Level) == "" {
		pc.Logging.Level = defaultLogLevel
	}
}

func (pc *ProjectConfig) normalize() {
	pc.ResultsDir = strings.TrimSpace(pc.ResultsDir)
	pc.DefaultModel = strings.TrimSpace(pc.DefaultModel)
	pc.Generator.Kind = strings.ToLower(strings.TrimSpace(pc.Generator.Kind))
	pc.Logging.Level = strings.ToLower(strings.TrimSpace(pc.Logging.Level))
	models := make([]string, 0, len(pc.Models))
	for _, m := range pc.Models {
		if m = strings.TrimSpace(m); m != "" && !contains(models, m) {
			models = append(models, m)
		}
	}
	pc.Models = models
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	for i, handle := range pc.Models {
		if _, err := event.ParseHandle(handle); err != nil {
			return fmt.Errorf("models[%d]: %w", i, err)
		}
	}
	if _, ok := catalogFor(pc.Models).Lookup(pc.DefaultModel); !ok {
		return fmt.Errorf("default_model: %w: %q", event.ErrUnknownModel, pc.DefaultModel)
	}
	switch pc.Generator.Kind {
	case "crew":
	case "exec":
		if len(pc.Generator.Command) == 0 {
			return fmt.Errorf("generator.command is required for exec generators")
		}
	default:
		return fmt.Errorf("generator.kind must be 'crew' or 'exec'")
	}
	if t := pc.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	switch pc.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

// persistDefaultModel rewrites only default_model in config.yaml. Environment
// overrides live in c.Project and never reach the file; comments are kept.
func (c *Config) persistDefaultModel(handle string) error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, HeadComment: doc.HeadComment}
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("config: %s is not a mapping", path)
	}
	setMappingValue(root, "default_model", handle)

	if err := os.MkdirAll(c.PlannerProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure planner dir: %w", err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}

func setMappingValue(mapping *yaml.Node, key, value string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			node := mapping.Content[i+1]
			node.Kind = yaml.ScalarNode
			node.Tag = "!!str"
			node.Style = 0
			node.Content = nil
			node.Value = value
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}
