package crew

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kingrea/eventplanner/internal/event"
)

// VenueDetails is the structured output of the venue task.
type VenueDetails struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Capacity      int    `json:"capacity"`
	BookingStatus string `json:"booking_status"`
}

func (v VenueDetails) validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("crew: venue name is empty")
	}
	return nil
}

func describeEvent(req event.Request) string {
	return fmt.Sprintf(
		"Event topic: %s\nDescription: %s\nCity: %s\nTentative date: %s\nExpected participants: %d\nBudget: %.0f USD",
		req.Topic, req.Description, req.City, req.DisplayDate(), req.ExpectedParticipants, req.Budget,
	)
}

func venueQuery(req event.Request) string {
	topic := req.Topic
	if topic == "" {
		topic = "event"
	}
	return fmt.Sprintf("%s event venues in %s for %d people", topic, req.City, req.ExpectedParticipants)
}

func logisticsQuery(req event.Request) string {
	return fmt.Sprintf("event catering and equipment rental in %s", req.City)
}

func venuePrompt(req event.Request, research string) string {
	return fmt.Sprintf(`Find a venue in %s that meets the criteria for the event below.

%s

Search results:
%s

Respond with a JSON object with exactly these keys:
"name" (string), "address" (string), "capacity" (integer), "booking_status" (string).`,
		req.City, describeEvent(req), research)
}

func logisticsPrompt(req event.Request, venue VenueDetails, research string) string {
	return fmt.Sprintf(`Coordinate catering and equipment for the event below, held at %s (%s), capacity %d.

%s

Supplier search results:
%s

Write a markdown section covering the schedule, catering, equipment and a cost breakdown that stays within budget.
Do not add a top-level heading.`,
		venue.Name, venue.Address, venue.Capacity, describeEvent(req), research)
}

func marketingPrompt(req event.Request, venue VenueDetails) string {
	return fmt.Sprintf(`Promote the event below, held at %s (%s), and aim for at least %d attendees.

%s

Write a markdown section with the target audience, channels, a timeline of communications and key messages.
Do not add a top-level heading.`,
		venue.Name, venue.Address, req.ExpectedParticipants, describeEvent(req))
}

// parseVenue decodes the venue task output, tolerating a fenced code block.
func parseVenue(raw string) (VenueDetails, error) {
	raw = stripFence(raw)
	var venue VenueDetails
	if err := json.Unmarshal([]byte(raw), &venue); err != nil {
		return VenueDetails{}, fmt.Errorf("crew: decode venue details: %w", err)
	}
	if err := venue.validate(); err != nil {
		return VenueDetails{}, err
	}
	return venue, nil
}

func stripFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if nl := strings.IndexByte(raw, '\n'); nl >= 0 {
		raw = raw[nl+1:]
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

func composeReport(req event.Request, venue VenueDetails, logistics, marketing string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", reportTitle(req))
	fmt.Fprintf(&b, "%s in %s on %s for %d participants (budget %.0f USD).\n\n",
		req.Description, req.City, req.DisplayDate(), req.ExpectedParticipants, req.Budget)
	b.WriteString("## Venue\n\n")
	fmt.Fprintf(&b, "- Name: %s\n- Address: %s\n- Capacity: %d\n- Booking status: %s\n\n",
		venue.Name, venue.Address, venue.Capacity, venue.BookingStatus)
	b.WriteString("## Logistics\n\n")
	b.WriteString(strings.TrimSpace(logistics))
	b.WriteString("\n\n## Marketing Plan\n\n")
	b.WriteString(strings.TrimSpace(marketing))
	b.WriteString("\n")
	return b.String()
}

func reportTitle(req event.Request) string {
	if strings.TrimSpace(req.Topic) == "" {
		return "Event Plan"
	}
	return req.Topic + ": Event Plan"
}
