// Package event holds the value object passed across the delegation boundary
// and the catalogue of language models a user can pick from.
package event

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// MinParticipants is the smallest accepted head count.
	MinParticipants = 10
	// MinBudget is the smallest accepted budget in USD.
	MinBudget = 500.0

	// DateLayout is the display/input format for the tentative date.
	DateLayout = "02.01.2006"
	// isoDateLayout is accepted on input and used on the wire.
	isoDateLayout = "2006-01-02"
)

// Form carries the raw strings entered by the user before parsing.
type Form struct {
	Topic        string
	Description  string
	City         string
	Date         string
	Participants string
	Budget       string
}

// Request is the transient record of one submission. It has no identity and is
// discarded once the results are displayed.
type Request struct {
	Topic                string
	Description          string
	City                 string
	TentativeDate        time.Time
	ExpectedParticipants int
	Budget               float64
}

// NewRequest parses and validates a form. An empty date means today.
func NewRequest(form Form, today time.Time) (Request, error) {
	today = truncateDay(today)
	verr := &ValidationError{}

	req := Request{
		Topic:       strings.TrimSpace(form.Topic),
		Description: strings.TrimSpace(form.Description),
		City:        strings.TrimSpace(form.City),
	}

	date, err := ParseDate(form.Date, today)
	if err != nil {
		verr.add("tentative_date", err.Error())
	}
	req.TentativeDate = date

	n, err := strconv.Atoi(strings.TrimSpace(form.Participants))
	if err != nil {
		verr.add("expected_participants", "must be a whole number")
	}
	req.ExpectedParticipants = n

	b, err := strconv.ParseFloat(normalizeAmount(form.Budget), 64)
	if err != nil || math.IsNaN(b) || math.IsInf(b, 0) {
		verr.add("budget", "must be a number")
	}
	req.Budget = b

	req.collect(verr, today)
	if len(verr.Fields) > 0 {
		return Request{}, verr
	}
	return req, nil
}

// Validate enforces the numeric floors and the date floor. Text fields are free.
func (r Request) Validate(today time.Time) error {
	verr := &ValidationError{}
	r.collect(verr, truncateDay(today))
	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

// collect appends floor violations for fields that do not already carry a
// parse error.
func (r Request) collect(verr *ValidationError, today time.Time) {
	if !verr.has("tentative_date") {
		switch {
		case r.TentativeDate.IsZero():
			verr.add("tentative_date", "is required")
		case truncateDay(r.TentativeDate).Before(today):
			verr.add("tentative_date", fmt.Sprintf("must be on or after %s", today.Format(DateLayout)))
		}
	}
	if !verr.has("expected_participants") && r.ExpectedParticipants < MinParticipants {
		verr.add("expected_participants", fmt.Sprintf("must be at least %d", MinParticipants))
	}
	if !verr.has("budget") && (math.IsNaN(r.Budget) || math.IsInf(r.Budget, 0)) {
		verr.add("budget", "must be a number")
	}
	if !verr.has("budget") && r.Budget < MinBudget {
		verr.add("budget", fmt.Sprintf("must be at least %.0f USD", MinBudget))
	}
}

// Details returns the six-key mapping handed to content generators.
func (r Request) Details() map[string]any {
	return map[string]any{
		"event_topic":           r.Topic,
		"event_description":     r.Description,
		"event_city":            r.City,
		"tentative_date":        r.TentativeDate.Format(isoDateLayout),
		"expected_participants": r.ExpectedParticipants,
		"budget":                r.Budget,
	}
}

// DisplayDate renders the tentative date the way the form shows it.
func (r Request) DisplayDate() string {
	if r.TentativeDate.IsZero() {
		return ""
	}
	return r.TentativeDate.Format(DateLayout)
}

// ParseDate accepts DD.MM.YYYY or YYYY-MM-DD. Blank input yields today.
func ParseDate(value string, today time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return truncateDay(today), nil
	}
	for _, layout := range []string{DateLayout, isoDateLayout} {
		if t, err := time.ParseInLocation(layout, value, today.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("must use the format DD.MM.YYYY")
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func normalizeAmount(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "$")
	return strings.ReplaceAll(value, ",", "")
}
