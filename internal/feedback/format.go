package feedback

import (
	"fmt"
	"sort"
	"strings"
)

// FallbackInstruction is returned by FormatForProducer when parsing
// produced no structured items. Parse degradation is not an error; the
// producer is simply asked to use its own judgment.
const FallbackInstruction = "No specific feedback provided. Please review and improve as you see fit."

// FormatForProducer renders feedback items as the instruction text handed
// to a producer. Items are grouped by section (section-less items form a
// general group) and ordered by ascending priority within each group.
// Output is deterministic for identical input.
func FormatForProducer(items []Item) string {
	if len(items) == 0 {
		return FallbackInstruction
	}

	// Group by section, preserving first-appearance order of sections.
	var sectionOrder []string
	sections := make(map[string][]Item)
	var general []Item

	for _, item := range items {
		if item.Section == "" {
			general = append(general, item)
			continue
		}
		if _, seen := sections[item.Section]; !seen {
			sectionOrder = append(sectionOrder, item.Section)
		}
		sections[item.Section] = append(sections[item.Section], item)
	}

	var b strings.Builder
	b.WriteString("# Feedback for Revision\n\n")

	if len(sectionOrder) > 0 {
		b.WriteString("## Section-Specific Feedback\n\n")
		for _, name := range sectionOrder {
			fmt.Fprintf(&b, "### %s\n\n", name)
			writeItems(&b, sections[name])
			b.WriteString("\n")
		}
	}

	if len(general) > 0 {
		b.WriteString("## General Feedback\n\n")
		writeItems(&b, general)
	}

	return b.String()
}

// writeItems renders one group as bullet lines, highest priority first.
// The sort is stable so equal-priority items keep their parse order.
func writeItems(b *strings.Builder, items []Item) {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	for _, item := range sorted {
		fmt.Fprintf(b, "- %s: %s\n", strings.ToUpper(string(item.Type)), item.Description)
	}
}
