package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/eventplanner/internal/credentials"
	"github.com/kingrea/eventplanner/internal/event"
)

// ErrRunInProgress is returned when a submission arrives while another one is
// still generating.
var ErrRunInProgress = errors.New("planner: a plan is already being generated")

// GenerationError wraps any failure raised by the content generator.
type GenerationError struct {
	RunID string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("planner: run %s failed: %v", e.RunID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Messages shown to users. Details stay in the log.
const (
	MsgGenerationFailed = "Something went wrong while generating your event plan. Please try again."
	MsgCancelled        = "Generation was cancelled."
	MsgRunInProgress    = "An event plan is already being generated. Please wait for it to finish."
	MsgUnknownModel     = "Please select one of the offered models."
)

var fieldLabels = map[string]string{
	"tentative_date":        "Event date",
	"expected_participants": "Expected participants",
	"budget":                "Budget",
}

// UserMessage converts a Submit error into text safe to show a user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var missing *credentials.MissingCredentialError
	var invalid *event.ValidationError
	switch {
	case errors.As(err, &missing):
		return fmt.Sprintf("Please enter your %s API key to get started", missing.Name)
	case errors.As(err, &invalid):
		parts := make([]string, 0, len(invalid.Fields))
		for _, f := range invalid.Fields {
			label := fieldLabels[f.Field]
			if label == "" {
				label = f.Field
			}
			parts = append(parts, label+" "+f.Message)
		}
		return "Please check your input: " + strings.Join(parts, "; ") + "."
	case errors.Is(err, event.ErrUnknownModel):
		return MsgUnknownModel
	case errors.Is(err, ErrRunInProgress):
		return MsgRunInProgress
	case errors.Is(err, context.Canceled):
		return MsgCancelled
	default:
		return MsgGenerationFailed
	}
}
