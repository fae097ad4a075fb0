package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kingrea/eventplanner/internal/artifact"
	"github.com/kingrea/eventplanner/internal/credentials"
	"github.com/kingrea/eventplanner/internal/event"
	"github.com/kingrea/eventplanner/internal/planner"
)

// formValue accepts a JSON string or number so clients can send
// "expected_participants": 40 or "40".
type formValue string

func (v *formValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = formValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = formValue(n.String())
	return nil
}

type planRequest struct {
	Model                string    `json:"model"`
	EventTopic           string    `json:"event_topic"`
	EventDescription     string    `json:"event_description"`
	EventCity            string    `json:"event_city"`
	TentativeDate        string    `json:"tentative_date"`
	ExpectedParticipants formValue `json:"expected_participants"`
	Budget               formValue `json:"budget"`
	OpenAIAPIKey         string    `json:"openai_api_key"`
	SerperAPIKey         string    `json:"serper_api_key"`
	GeminiAPIKey         string    `json:"gemini_api_key"`
}

func (p planRequest) submission() planner.Submission {
	return planner.Submission{
		Form: event.Form{
			Topic:        p.EventTopic,
			Description:  p.EventDescription,
			City:         p.EventCity,
			Date:         p.TentativeDate,
			Participants: string(p.ExpectedParticipants),
			Budget:       string(p.Budget),
		},
		ModelHandle: p.Model,
		Credentials: credentials.Credentials{
			OpenAIKey: p.OpenAIAPIKey,
			SerperKey: p.SerperAPIKey,
			GeminiKey: p.GeminiAPIKey,
		},
	}
}

type artifactView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	File  string `json:"file"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
	URL   string `json:"url,omitempty"`
}

type planResponse struct {
	RunID      string         `json:"run_id"`
	Model      string         `json:"model"`
	Ready      bool           `json:"ready"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMS int64          `json:"duration_ms"`
	Request    map[string]any `json:"request"`
	Artifacts  []artifactView `json:"artifacts"`
}

func newPlanResponse(outcome planner.Outcome) planResponse {
	resp := planResponse{
		RunID:      outcome.RunID,
		Model:      outcome.Model.Handle(),
		Ready:      outcome.Ready(),
		StartedAt:  outcome.StartedAt.UTC(),
		DurationMS: outcome.Duration.Milliseconds(),
		Request:    outcome.Request.Details(),
	}
	for _, a := range outcome.Artifacts {
		view := artifactView{
			ID:    a.Ref.ID,
			Name:  a.Ref.Name,
			File:  a.Ref.FileName,
			State: string(a.State),
		}
		if a.Err != nil {
			view.Error = a.Err.Error()
		}
		if a.Ready() {
			view.URL = "/api/v1/artifacts/" + a.Ref.ID
		}
		resp.Artifacts = append(resp.Artifacts, view)
	}
	return resp
}

type modelView struct {
	Handle   string `json:"handle"`
	Provider string `json:"provider"`
	Name     string `json:"name"`
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"busy":   h.service.Busy(),
	})
}

func (h *Handler) listModels(w http.ResponseWriter, r *http.Request) {
	opts := h.service.Catalog().Options()
	models := make([]modelView, 0, len(opts))
	for _, opt := range opts {
		models = append(models, modelView{Handle: opt.Handle(), Provider: opt.Provider, Name: opt.Name})
	}
	writeSuccess(w, http.StatusOK, models)
}

func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "payload exceeds limit")
			return
		}
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body")
		return
	}
	outcome, err := h.service.Submit(r.Context(), req.submission())
	if err != nil {
		h.logger.Warn("plan request failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		writeSubmitError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, newPlanResponse(outcome))
}

func (h *Handler) getArtifact(w http.ResponseWriter, r *http.Request) {
	ref, ok := artifact.Lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "unknown artifact")
		return
	}
	store := h.service.Store()
	result, _ := store.Check(ref)
	switch result.State {
	case artifact.StateReady:
	case artifact.StateMissing:
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", ref.FileName+" has not been generated")
		return
	case artifact.StateInvalid:
		writeError(w, r, http.StatusUnprocessableEntity, "ARTIFACT_INVALID", ref.FileName+" could not be read")
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	body, err := store.Read(ref)
	if err != nil {
		h.logger.Error("read artifact", "artifact", ref.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	contentType := "text/markdown; charset=utf-8"
	if ref.Kind == artifact.KindJSON {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+strings.ReplaceAll(ref.FileName, `"`, "")+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
