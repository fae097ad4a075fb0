package event

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel is returned when a handle does not name a catalogued model.
var ErrUnknownModel = errors.New("event: unknown model")

// FieldError describes one rejected input.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ValidationError collects every rejected field of a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "event: invalid request"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "event: invalid request: " + strings.Join(parts, "; ")
}

// Field returns the message recorded for a field, if any.
func (e *ValidationError) Field(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message, true
		}
	}
	return "", false
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) has(field string) bool {
	_, ok := e.Field(field)
	return ok
}
