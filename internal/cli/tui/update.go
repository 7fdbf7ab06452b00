package tui

import tea "github.com/charmbracelet/bubbletea"

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case TickMsg:
		return m, tea.Batch(m.pollCmd(), tickCmd())

	case ReviewsMsg:
		m.Reviews = msg
		if m.Selected >= len(m.Reviews) {
			m.Selected = len(m.Reviews) - 1
		}
		if m.Selected < 0 {
			m.Selected = 0
		}
		if len(m.Reviews) == 0 && m.Mode != ModeList {
			m.Mode = ModeList
		}

	case DecidedMsg:
		m.Deciding = false
		m.Mode = ModeList
		m.Feedback = ""
		return m, m.pollCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Mode == ModeFeedback {
		return m.handleFeedbackKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.Quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}

	case "down", "j":
		if m.Selected < len(m.Reviews)-1 {
			m.Selected++
		}

	case "enter":
		if m.Mode == ModeList && m.current() != nil {
			m.Mode = ModeDetail
		}

	case "esc":
		m.Mode = ModeList

	case "a":
		if review := m.current(); review != nil && !m.Deciding {
			m.Deciding = true
			return m, m.decideCmd(review.ID, true, "")
		}

	case "r":
		if m.current() != nil && !m.Deciding {
			m.Mode = ModeFeedback
			m.Feedback = ""
		}
	}

	return m, nil
}

func (m *Model) handleFeedbackKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Mode = ModeList
		m.Feedback = ""

	case "enter":
		review := m.current()
		if review == nil || m.Feedback == "" {
			return m, nil
		}
		m.Deciding = true
		return m, m.decideCmd(review.ID, false, m.Feedback)

	case "backspace":
		if len(m.Feedback) > 0 {
			runes := []rune(m.Feedback)
			m.Feedback = string(runes[:len(runes)-1])
		}

	case "ctrl+c":
		m.Quitting = true
		return m, tea.Quit

	default:
		if msg.Type == tea.KeyRunes {
			m.Feedback += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			m.Feedback += " "
		}
	}

	return m, nil
}

func (m *Model) current() *ReviewItem {
	if m.Selected < 0 || m.Selected >= len(m.Reviews) {
		return nil
	}
	return &m.Reviews[m.Selected]
}
