package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kingrea/eventplanner/internal/logging"
)

// KindExec names the external-command generator in the registry.
const KindExec = "exec"

// waitDelay bounds how long a cancelled command may keep its output pipes open.
const waitDelay = 2 * time.Second

// Exec runs an external command per job. The job is written to stdin as JSON
// and the credentials are appended to the child environment only.
type Exec struct {
	argv   []string
	dir    string
	logger *logging.Logger
}

// NewExec builds an Exec generator for argv running in dir. An empty dir
// inherits the current working directory.
func NewExec(argv []string, dir string, logger *logging.Logger) (*Exec, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, fmt.Errorf("generator: exec command is required")
	}
	return &Exec{argv: append([]string(nil), argv...), dir: dir, logger: logger}, nil
}

// ExecFactory builds Exec generators from registry options.
func ExecFactory(opts Options) (ContentGenerator, error) {
	return NewExec(opts.Command, opts.Dir, opts.Logger)
}

type execPayload struct {
	LLM          string         `json:"llm"`
	EventDetails map[string]any `json:"event_details"`
	ResultsDir   string         `json:"results_dir"`
	RunID        string         `json:"run_id"`
}

// Plan runs the command and returns the canonical artifact paths on success.
func (e *Exec) Plan(ctx context.Context, job Job) (Artifacts, error) {
	if err := os.MkdirAll(job.ResultsDir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("generator: prepare results dir: %w", err)
	}
	payload, err := json.Marshal(execPayload{
		LLM:          job.Model.Handle(),
		EventDetails: job.Request.Details(),
		ResultsDir:   job.ResultsDir,
		RunID:        job.RunID,
	})
	if err != nil {
		return Artifacts{}, fmt.Errorf("generator: encode job: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.argv[0], e.argv[1:]...)
	cmd.Dir = e.dir
	cmd.WaitDelay = waitDelay
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Env = append(os.Environ(), job.Credentials.Environ()...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Info("exec generator started", "run", job.RunID, "command", e.argv[0], "model", job.Model.Handle())
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Artifacts{}, fmt.Errorf("generator: %s: %w", e.argv[0], ctxErr)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return Artifacts{}, fmt.Errorf("generator: %s: %w", e.argv[0], err)
		}
		return Artifacts{}, fmt.Errorf("generator: %s: %w: %s", e.argv[0], err, detail)
	}
	if out := strings.TrimSpace(stdout.String()); out != "" {
		e.logger.Debug("exec generator output", "run", job.RunID, "stdout", out)
	}
	return ExpectedArtifacts(job.ResultsDir), nil
}
