package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kingrea/eventplanner/internal/credentials"
	"github.com/kingrea/eventplanner/internal/event"
	"github.com/kingrea/eventplanner/internal/planner"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type apiError struct {
	Status    string       `json:"status"`
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	RequestID string       `json:"request_id,omitempty"`
	Fields    []fieldError `json:"fields,omitempty"`
}

// writeJSON encodes before writing the header; an unencodable payload
// becomes a 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(apiError{Status: "error", Code: "INTERNAL_ERROR", Message: "response could not be encoded"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, apiError{
		Status:    "error",
		Code:      code,
		Message:   message,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeSubmitError maps planner errors to status codes. The message is always
// the user-facing text; details only reach the log.
func writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapSubmitError(err)
	resp := apiError{
		Status:    "error",
		Code:      code,
		Message:   planner.UserMessage(err),
		RequestID: requestIDFromContext(r.Context()),
	}
	var invalid *event.ValidationError
	if errors.As(err, &invalid) {
		for _, f := range invalid.Fields {
			resp.Fields = append(resp.Fields, fieldError{Field: f.Field, Message: f.Message})
		}
	}
	writeJSON(w, status, resp)
}

func mapSubmitError(err error) (int, string) {
	var invalid *event.ValidationError
	var missing *credentials.MissingCredentialError
	var genErr *planner.GenerationError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, event.ErrUnknownModel):
		return http.StatusBadRequest, "UNKNOWN_MODEL"
	case errors.As(err, &missing):
		return http.StatusUnauthorized, "MISSING_CREDENTIAL"
	case errors.Is(err, planner.ErrRunInProgress):
		return http.StatusConflict, "RUN_IN_PROGRESS"
	case errors.As(err, &genErr):
		return http.StatusBadGateway, "GENERATION_FAILED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
