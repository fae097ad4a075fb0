// Package crew is the built-in multi-agent content generator. A venue
// coordinator researches the venue first, then the logistics manager and the
// marketing agent work in parallel on top of its findings.
package crew

import (
	"fmt"
	"strings"
)

// Agent is one role in the crew.
type Agent struct {
	Role      string
	Goal      string
	Backstory string
}

// System renders the agent as a system prompt.
func (a Agent) System() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s.\n", a.Role)
	fmt.Fprintf(&b, "Goal: %s\n", a.Goal)
	b.WriteString(a.Backstory)
	return b.String()
}

var (
	VenueCoordinator = Agent{
		Role: "Venue Coordinator",
		Goal: "Identify and book an appropriate venue for the event, based on its topic, size and budget.",
		Backstory: "You have a keen sense of space and know which venues fit which audience. " +
			"You only recommend venues you found in the search results.",
	}
	LogisticsManager = Agent{
		Role: "Logistics Manager",
		Goal: "Manage all logistics for the event including catering and equipment.",
		Backstory: "You are organized and detail-oriented. You plan schedules, catering and " +
			"equipment so the event runs smoothly within budget.",
	}
	MarketingAgent = Agent{
		Role: "Marketing and Communications Agent",
		Goal: "Effectively market the event and communicate with participants.",
		Backstory: "You are a creative communicator who crafts promotion plans that reach the " +
			"right audience and maximize attendance.",
	}
)

// Agents lists the crew in the order they start work.
func Agents() []Agent {
	return []Agent{VenueCoordinator, LogisticsManager, MarketingAgent}
}

// Capabilities describes what the crew can do, for help screens.
func Capabilities() []string {
	return []string{
		"Research locations for any type of event (tech, party, company launch and more)",
		"Coordinate all logistics for the event",
		"Prepare a marketing plan for promoting the event",
	}
}
