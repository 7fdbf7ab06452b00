// Package feedback turns free-form reviewer text into structured,
// typed instructions that can be handed back to a producer.
package feedback

import (
	"regexp"
	"strings"
)

// ItemType classifies what kind of change a feedback item asks for.
type ItemType string

const (
	TypeAdd     ItemType = "add"
	TypeChange  ItemType = "change"
	TypeRemove  ItemType = "remove"
	TypeClarify ItemType = "clarify"
)

// Item is a single actionable instruction extracted from reviewer text.
type Item struct {
	Type        ItemType
	Description string
	Section     string // empty when the feedback is not tied to a section
	Priority    int    // 1 (highest) to 3
}

// typeKeywords maps feedback types to the vocabulary that signals them.
// Checked in order; the first type with a keyword hit wins.
var typeKeywords = []struct {
	itemType ItemType
	keywords []string
}{
	{TypeAdd, []string{"add", "include", "missing", "need", "should have", "insert"}},
	{TypeChange, []string{"change", "modify", "revise", "rewrite", "rephrase", "update", "improve", "enhance", "fix"}},
	{TypeRemove, []string{"remove", "delete", "eliminate", "take out", "unnecessary", "redundant"}},
	{TypeClarify, []string{"clarify", "explain", "elaborate", "confusing", "unclear", "ambiguous", "specify"}},
}

// sectionPatterns locate an explicit section reference in a feedback line.
// Tried in order; the first match wins. Bare "section X" requires quotes so
// that phrases like "add a section on caching" don't bind a bogus name.
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)in the ["']?([A-Za-z0-9 ]+)["']? section`),
	regexp.MustCompile(`(?i)\bunder ["']?([A-Za-z0-9 ]+)["']?`),
	regexp.MustCompile(`(?i)\bsection ["']([A-Za-z0-9 ]+)["']`),
	regexp.MustCompile(`(?i)\bthe ["']?([A-Za-z0-9 ]+)["']? section\b`),
	regexp.MustCompile(`(?i)\bheading ["']([^"']+)["']`),
	regexp.MustCompile(`(?i)\bthe ["']([A-Za-z0-9 ]+)["'] heading`),
}

// priorityKeywords mark a feedback line as highest priority.
var priorityKeywords = []string{"critical", "crucial", "important", "must"}

// approvalPhrases are discarded during parsing; they carry no instruction.
var approvalPhrases = map[string]bool{
	"approved":   true,
	"looks good": true,
	"great job":  true,
	"good work":  true,
}

var lineSplitter = regexp.MustCompile(`[.\n]`)

// Parse converts raw reviewer text into structured feedback items.
// Empty or all-whitespace input yields an empty slice, never an error.
// Parsing is deterministic: identical input produces identical output.
func Parse(text string) []Item {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var items []Item
	for _, line := range lineSplitter.Split(text, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Skip very short lines and pure approval phrases.
		if len([]rune(line)) < 5 || approvalPhrases[strings.ToLower(line)] {
			continue
		}

		items = append(items, Item{
			Type:        determineType(line),
			Description: line,
			Section:     extractSection(line),
			Priority:    determinePriority(line),
		})
	}

	return items
}

// determineType scans for type keywords in declaration order,
// defaulting to "change" when nothing matches.
func determineType(line string) ItemType {
	lower := strings.ToLower(line)
	for _, entry := range typeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.itemType
			}
		}
	}
	return TypeChange
}

// extractSection returns the referenced section name, or "" if none.
func extractSection(line string) string {
	for _, pattern := range sectionPatterns {
		if m := pattern.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func determinePriority(line string) int {
	lower := strings.ToLower(line)
	for _, kw := range priorityKeywords {
		if strings.Contains(lower, kw) {
			return 1
		}
	}
	return 2
}
