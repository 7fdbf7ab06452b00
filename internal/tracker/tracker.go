// Package tracker pushes approved epics and stories to an external
// ticket system through a webhook endpoint.
package tracker

import (
	"context"
	"strings"
)

// Ticket is one epic or story extracted from an approved ticket document.
type Ticket struct {
	Type        string `json:"type"` // "epic" or "story"
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Epic        string `json:"epic,omitempty"` // Parent epic title for stories
}

// Tracker creates tickets in an external system.
type Tracker interface {
	CreateTickets(ctx context.Context, project string, tickets []Ticket) error
}

// Nop discards tickets.
type Nop struct{}

func (Nop) CreateTickets(context.Context, string, []Ticket) error { return nil }

// ParseTickets extracts epics and stories from markdown. An epic is an
// `## Epic:` heading; a story is a `### Story:` heading nested under the
// most recent epic. Body text between headings becomes the description.
func ParseTickets(markdown string) []Ticket {
	var tickets []Ticket
	var current *Ticket
	var currentEpic string
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		current.Description = strings.TrimSpace(strings.Join(body, "\n"))
		tickets = append(tickets, *current)
		current = nil
		body = nil
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case hasHeading(trimmed, "## Epic:"):
			flush()
			title := strings.TrimSpace(trimmed[len("## Epic:"):])
			currentEpic = title
			current = &Ticket{Type: "epic", Title: title}

		case hasHeading(trimmed, "### Story:"):
			flush()
			title := strings.TrimSpace(trimmed[len("### Story:"):])
			current = &Ticket{Type: "story", Title: title, Epic: currentEpic}

		default:
			if current != nil {
				body = append(body, line)
			}
		}
	}
	flush()

	return tickets
}

func hasHeading(line, prefix string) bool {
	return len(line) > len(prefix) && strings.EqualFold(line[:len(prefix)], prefix)
}
