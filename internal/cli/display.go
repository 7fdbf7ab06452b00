package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stagegate/stagegate/internal/review"
	"github.com/stagegate/stagegate/internal/revision"
)

// Styles used by the non-TUI commands.
var (
	styleHeader   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	stylePending  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleApproved = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleRejected = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func styleForStatus(status review.Status) lipgloss.Style {
	switch status {
	case review.StatusApproved:
		return styleApproved
	case review.StatusRejected:
		return styleRejected
	default:
		return stylePending
	}
}

// shortID trims a uuid for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatReviewList renders reviews as an aligned table.
func formatReviewList(reviews []review.Request) string {
	if len(reviews) == 0 {
		return styleDim.Render("No reviews.") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styleHeader.Render(fmt.Sprintf("%-10s %-22s %-14s %-10s %s",
		"ID", "STAGE", "PRODUCER", "STATUS", "CREATED")))

	for _, r := range reviews {
		line := fmt.Sprintf("%-10s %-22s %-14s %-10s %s",
			shortID(r.ID),
			truncateString(r.Stage, 22),
			truncateString(r.Producer, 14),
			styleForStatus(r.Status).Render(string(r.Status)),
			r.CreatedAt.Format(time.RFC3339),
		)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// formatReviewDetail renders one review with its full content.
func formatReviewDetail(r review.Request) string {
	var b strings.Builder

	b.WriteString(styleHeader.Render("Review "+r.ID) + "\n")
	fmt.Fprintf(&b, "Stage:    %s\n", r.Stage)
	fmt.Fprintf(&b, "Producer: %s\n", r.Producer)
	fmt.Fprintf(&b, "Type:     %s\n", r.ArtifactType)
	fmt.Fprintf(&b, "Status:   %s\n", styleForStatus(r.Status).Render(string(r.Status)))
	fmt.Fprintf(&b, "Created:  %s\n", r.CreatedAt.Format(time.RFC3339))
	if r.CompletedAt != nil {
		fmt.Fprintf(&b, "Decided:  %s\n", r.CompletedAt.Format(time.RFC3339))
	}
	if r.Feedback != "" {
		fmt.Fprintf(&b, "Feedback: %s\n", r.Feedback)
	}

	b.WriteString("\n" + styleDim.Render(strings.Repeat("─", 64)) + "\n")
	b.WriteString(r.Content)
	if !strings.HasSuffix(r.Content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(styleDim.Render(strings.Repeat("─", 64)) + "\n")

	return b.String()
}

// formatHistory renders one revision history.
func formatHistory(h revision.History) string {
	var b strings.Builder

	title := fmt.Sprintf("%s / %s", h.Producer, h.Stage)
	b.WriteString(styleHeader.Render(title))
	if h.ArtifactType != "" {
		b.WriteString(styleDim.Render("  (" + h.ArtifactType + ")"))
	}
	b.WriteString("\n")

	if len(h.Revisions) == 0 {
		b.WriteString(styleDim.Render("  no revisions") + "\n")
		return b.String()
	}

	for _, rec := range h.Revisions {
		status := rec.Status
		style := styleDim
		switch status {
		case revision.StatusApproved:
			style = styleApproved
		case revision.StatusRejected:
			style = styleRejected
		}
		fmt.Fprintf(&b, "  v%-3d %s  %s\n",
			rec.Version,
			style.Render(fmt.Sprintf("%-10s", status)),
			rec.Timestamp.Format(time.RFC3339))
		if rec.Feedback != "" {
			fmt.Fprintf(&b, "       feedback: %s\n", truncateString(rec.Feedback, 80))
		}
	}
	return b.String()
}

// formatActiveRevisions renders in-progress revisions as an aligned table.
func formatActiveRevisions(active []revision.ActiveRevision) string {
	if len(active) == 0 {
		return styleDim.Render("No active revisions.") + "\n"
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].RevisionKey < active[j].RevisionKey
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styleHeader.Render(fmt.Sprintf("%-30s %-14s %-22s %s",
		"KEY", "PRODUCER", "STAGE", "CYCLE")))

	for _, rev := range active {
		fmt.Fprintf(&b, "%-30s %-14s %-22s %d/%d\n",
			truncateString(rev.RevisionKey, 30),
			truncateString(rev.Producer, 14),
			truncateString(rev.Stage, 22),
			rev.CycleCount, rev.MaxCycles,
		)
	}
	return b.String()
}

func truncateString(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
