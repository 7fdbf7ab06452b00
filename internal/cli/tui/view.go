package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model
func (m *Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.Mode {
	case ModeDetail:
		b.WriteString(m.renderDetail())
	case ModeFeedback:
		b.WriteString(m.renderList())
		b.WriteString("\n")
		b.WriteString(m.Styles.Prompt.Render("rejection feedback: "))
		b.WriteString(m.Feedback)
		b.WriteString("▌")
		b.WriteString("\n")
	default:
		b.WriteString(m.renderList())
	}

	if m.Deciding {
		b.WriteString("\n")
		b.WriteString(m.Styles.Busy.Render("processing decision (a rejection may take a while)..."))
		b.WriteString("\n")
	}

	b.WriteString(m.renderFooter())

	return b.String()
}

func (m *Model) renderHeader() string {
	count := fmt.Sprintf("%d pending", len(m.Reviews))
	return fmt.Sprintf("%s  %s",
		m.Styles.Title.Render("Stagegate Reviews"),
		m.Styles.Count.Render(count),
	)
}

func (m *Model) renderList() string {
	if len(m.Reviews) == 0 {
		return m.Styles.Dim.Render("  no pending reviews") + "\n"
	}

	var b strings.Builder
	for i, review := range m.Reviews {
		cursor := "  "
		style := m.Styles.Item
		if i == m.Selected {
			cursor = "> "
			style = m.Styles.Selected
		}

		line := fmt.Sprintf("%s%s  %s  %s",
			cursor,
			shortID(review.ID),
			m.Styles.Stage.Render(review.Stage),
			m.Styles.Dim.Render(review.Producer),
		)
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderDetail() string {
	review := m.current()
	if review == nil {
		return m.Styles.Dim.Render("  nothing selected") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", m.Styles.Stage.Render(review.Stage), m.Styles.Dim.Render("("+review.ArtifactType+")"))
	b.WriteString(m.Styles.Dim.Render(strings.Repeat("─", m.contentWidth())))
	b.WriteString("\n")

	content := review.Content
	if lines := strings.Split(content, "\n"); m.Height > 12 && len(lines) > m.Height-10 {
		content = strings.Join(lines[:m.Height-10], "\n") + "\n" + m.Styles.Dim.Render("… truncated")
	}
	b.WriteString(m.Styles.Content.Render(content))
	b.WriteString("\n")
	b.WriteString(m.Styles.Dim.Render(strings.Repeat("─", m.contentWidth())))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderFooter() string {
	var keys []string
	switch m.Mode {
	case ModeFeedback:
		keys = []string{"enter send", "esc cancel"}
	case ModeDetail:
		keys = []string{"a approve", "r reject", "esc back", "q quit"}
	default:
		keys = []string{"↑/↓ select", "enter view", "a approve", "r reject", "q quit"}
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		key, _, _ := strings.Cut(k, " ")
		parts = append(parts, m.Styles.FooterKey.Render(key)+m.Styles.Footer.Render(strings.TrimPrefix(k, key)))
	}
	return m.Styles.Footer.Render("\n" + strings.Join(parts, "  "))
}

func (m *Model) contentWidth() int {
	if m.Width > 4 && m.Width < 84 {
		return m.Width - 4
	}
	return 80
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
