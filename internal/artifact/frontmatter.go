package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingFrontMatter indicates the document has no fenced YAML block.
	ErrMissingFrontMatter = errors.New("artifact: missing frontmatter")
	// ErrNoPlannerMetadata indicates a fenced block that carries no planner key.
	ErrNoPlannerMetadata = errors.New("artifact: frontmatter has no planner block")
	// ErrMalformedFrontMatter indicates a planner block without its required fields.
	ErrMalformedFrontMatter = errors.New("artifact: malformed frontmatter")
)

// HasFrontMatter reports whether a document opens with a `---` fence.
func HasFrontMatter(content []byte) bool {
	return bytes.HasPrefix(normalizeNewlines(content), []byte("---\n"))
}

// ParseFrontMatter extracts the planner metadata and body from a document that
// starts with `---` YAML fences. A block that is not YAML or has no planner key
// yields ErrNoPlannerMetadata.
func ParseFrontMatter(content []byte) (Metadata, []byte, error) {
	normalized := normalizeNewlines(content)
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return Metadata{}, nil, ErrMissingFrontMatter
	}
	rest := normalized[4:]
	var block, body []byte
	if bytes.HasPrefix(rest, []byte("---\n")) {
		body = rest[4:]
	} else {
		parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
		if len(parts) < 2 {
			return Metadata{}, nil, ErrMissingFrontMatter
		}
		block, body = parts[0], parts[1]
	}
	body = bytes.TrimLeft(body, "\n")
	var envelope plannerEnvelope
	if err := yaml.Unmarshal(block, &envelope); err != nil || envelope.Planner == nil {
		return Metadata{}, body, ErrNoPlannerMetadata
	}
	meta, err := envelope.Planner.toMetadata()
	if err != nil {
		return Metadata{}, body, err
	}
	return meta, body, nil
}

// WriteFrontMatter renders metadata + body with YAML fences.
func WriteFrontMatter(meta Metadata, body []byte) ([]byte, error) {
	if meta.ArtifactID == "" {
		return nil, fmt.Errorf("artifact: metadata missing artifact id")
	}
	envelope := plannerEnvelope{}
	envelope.fromMetadata(meta)
	data, err := yaml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("artifact: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(data, "\n"))
	buf.WriteString("\n---\n\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

type plannerEnvelope struct {
	Planner *plannerMetadata `yaml:"planner"`
}

type plannerMetadata struct {
	Artifact  string            `yaml:"artifact" json:"artifact"`
	Generator string            `yaml:"generator" json:"generator"`
	Run       string            `yaml:"run,omitempty" json:"run,omitempty"`
	Model     string            `yaml:"model,omitempty" json:"model,omitempty"`
	Created   string            `yaml:"created" json:"created"`
	Notes     map[string]string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

func (p plannerMetadata) toMetadata() (Metadata, error) {
	if p.Artifact == "" || p.Generator == "" {
		return Metadata{}, ErrMalformedFrontMatter
	}
	created, err := parseTime(p.Created)
	if err != nil {
		return Metadata{}, fmt.Errorf("artifact: parse created timestamp: %w", err)
	}
	return Metadata{
		ArtifactID: p.Artifact,
		Generator:  p.Generator,
		RunID:      p.Run,
		Model:      p.Model,
		CreatedAt:  created,
		Notes:      cloneNotes(p.Notes),
	}, nil
}

func (e *plannerEnvelope) fromMetadata(meta Metadata) {
	block := metadataBlock(meta)
	e.Planner = &block
}

func metadataBlock(meta Metadata) plannerMetadata {
	return plannerMetadata{
		Artifact:  meta.ArtifactID,
		Generator: meta.Generator,
		Run:       meta.RunID,
		Model:     meta.Model,
		Created:   meta.CreatedAt.UTC().Format(timeLayout),
		Notes:     cloneNotes(meta.Notes),
	}
}

func cloneNotes(notes map[string]string) map[string]string {
	if len(notes) == 0 {
		return nil
	}
	cloned := make(map[string]string, len(notes))
	for k, v := range notes {
		cloned[k] = v
	}
	return cloned
}

const timeLayout = time.RFC3339

func parseTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("artifact: empty created timestamp")
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
