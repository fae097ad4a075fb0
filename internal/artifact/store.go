package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const metadataKey = "_planner"

// Store manages artifact IO rooted at the results directory.
type Store struct {
	root string
	now  func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for metadata timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// NewStore builds a store for a results directory.
func NewStore(resultsDir string, opts ...StoreOption) *Store {
	store := &Store{
		root: resultsDir,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Root returns the results directory the store resolves paths against.
func (s *Store) Root() string {
	return s.root
}

// Path resolves ref inside the results directory.
func (s *Store) Path(ref ArtifactRef) string {
	return ref.Path(s.root)
}

// resolve validates ref and returns its path inside the results directory.
func (s *Store) resolve(ref ArtifactRef) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}
	path := ref.Path(s.root)
	if path == "" {
		return "", fmt.Errorf("artifact: %s path could not be resolved", ref.ID)
	}
	return path, nil
}

// Check inspects the artifact on disk and returns its status and metadata.
// Metadata is optional; when present it must name the same artifact.
func (s *Store) Check(ref ArtifactRef) (CheckResult, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return CheckResult{Ref: ref, State: StateError, Err: err}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{Ref: ref, Path: path, State: StateMissing}, nil
		}
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}, err
	}
	if info.IsDir() {
		return invalidResult(ref, path, fmt.Errorf("artifact: expected file got directory"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}, err
	}
	var meta *Metadata
	switch ref.Kind {
	case KindJSON:
		_, parsed, metaErr := splitJSON(data)
		if metaErr != nil {
			return invalidResult(ref, path, metaErr)
		}
		meta = parsed
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return invalidResult(ref, path, fmt.Errorf("artifact: %s is empty", ref.FileName))
		}
		body, parsed, metaErr := splitDocument(data)
		if metaErr != nil {
			return invalidResult(ref, path, metaErr)
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return invalidResult(ref, path, fmt.Errorf("artifact: %s has no content", ref.FileName))
		}
		meta = parsed
	}
	if meta != nil && meta.ArtifactID != ref.ID {
		return invalidResult(ref, path, fmt.Errorf("artifact: metadata id %s does not match %s", meta.ArtifactID, ref.ID))
	}
	return CheckResult{Ref: ref, Path: path, State: StateReady, Metadata: meta}, nil
}

// CheckAll checks every ref in order. Per-artifact failures are carried in the
// results rather than aborting the scan.
func (s *Store) CheckAll(refs ...ArtifactRef) []CheckResult {
	results := make([]CheckResult, 0, len(refs))
	for _, ref := range refs {
		result, _ := s.Check(ref)
		results = append(results, result)
	}
	return results
}

// Read returns the artifact body with any planner metadata removed.
func (s *Store) Read(ref ArtifactRef) ([]byte, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch ref.Kind {
	case KindJSON:
		body, _, err := splitJSON(data)
		return body, err
	default:
		body, _, err := splitDocument(data)
		return body, err
	}
}

// Write persists the artifact contents and metadata based on its kind.
func (s *Store) Write(ref ArtifactRef, body []byte, meta Metadata) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	switch ref.Kind {
	case KindJSON:
		return s.writeJSON(path, ref, body, meta)
	default:
		return s.writeDocument(path, ref, body, meta)
	}
}

// Clear removes every artifact in refs so a new run cannot surface stale files.
func (s *Store) Clear(refs ...ArtifactRef) error {
	for _, ref := range refs {
		path := ref.Path(s.root)
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("artifact: clear %s: %w", ref.ID, err)
		}
	}
	return nil
}

func (s *Store) writeDocument(path string, ref ArtifactRef, body []byte, meta Metadata) error {
	if body == nil {
		body = []byte{}
	}
	prepared := meta.WithDefaults(ref, s.now())
	if err := prepared.ValidateFor(ref); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	content, err := WriteFrontMatter(prepared, body)
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

func (s *Store) writeJSON(path string, ref ArtifactRef, body []byte, meta Metadata) error {
	if body == nil {
		body = []byte("{}")
	}
	prepared := meta.WithDefaults(ref, s.now())
	if err := prepared.ValidateFor(ref); err != nil {
		return err
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("artifact: invalid json body for %s: %w", ref.ID, err)
	}
	if payload == nil {
		return fmt.Errorf("artifact: json body for %s must be an object", ref.ID)
	}
	payload[metadataKey] = metadataBlock(prepared)
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: encode json for %s: %w", ref.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0o644)
}

func invalidResult(ref ArtifactRef, path string, err error) (CheckResult, error) {
	return CheckResult{Ref: ref, Path: path, State: StateInvalid, Err: err}, err
}

// splitJSON validates a JSON object and separates the metadata block from the
// payload. The returned body is re-encoded without the block.
// splitDocument separates planner frontmatter from a markdown body. Documents
// without a planner block come back whole with nil metadata.
func splitDocument(data []byte) ([]byte, *Metadata, error) {
	meta, body, err := ParseFrontMatter(data)
	switch {
	case err == nil:
		return body, &meta, nil
	case errors.Is(err, ErrMissingFrontMatter), errors.Is(err, ErrNoPlannerMetadata):
		return data, nil, nil
	default:
		return nil, nil, err
	}
}

func splitJSON(data []byte) ([]byte, *Metadata, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, nil, fmt.Errorf("artifact: parse json: %w", err)
	}
	if payload == nil {
		return nil, nil, fmt.Errorf("artifact: json payload must be an object")
	}
	raw, ok := payload[metadataKey]
	if !ok {
		return data, nil, nil
	}
	var block plannerMetadata
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, nil, fmt.Errorf("artifact: invalid %s metadata structure: %w", metadataKey, err)
	}
	meta, err := block.toMetadata()
	if err != nil {
		return nil, nil, err
	}
	delete(payload, metadataKey)
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return body, &meta, nil
}
