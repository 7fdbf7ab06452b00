// Package tui implements the interactive review monitor: a live list of
// pending reviews with approve/reject keybindings.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ReviewItem is one pending review as the TUI displays it.
type ReviewItem struct {
	ID           string
	Stage        string
	Producer     string
	ArtifactType string
	Content      string
	CreatedAt    time.Time
}

// Mode is the current interaction mode.
type Mode int

const (
	ModeList     Mode = iota // Browsing the pending list
	ModeDetail               // Reading one review's content
	ModeFeedback             // Entering rejection feedback
)

// Model is the bubbletea model for the review monitor
type Model struct {
	// Collaborators, supplied by the caller
	Poll   func() []ReviewItem
	Decide func(id string, approved bool, feedback string)

	Styles Styles

	// State
	Reviews  []ReviewItem
	Selected int
	Mode     Mode
	Feedback string // Rejection feedback being typed
	Deciding bool   // A decision (and possibly a revision) is running
	Width    int
	Height   int

	// Control
	Quitting bool
}

// NewModel creates a review monitor model over the given collaborators.
func NewModel(poll func() []ReviewItem, decide func(id string, approved bool, feedback string)) *Model {
	return &Model{
		Poll:   poll,
		Decide: decide,
		Styles: DefaultStyles(),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.pollCmd(), tickCmd())
}

// TickMsg triggers a periodic poll of the pending list
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// ReviewsMsg carries a fresh snapshot of the pending list
type ReviewsMsg []ReviewItem

// DecidedMsg indicates a decision finished processing
type DecidedMsg struct{}

func (m *Model) pollCmd() tea.Cmd {
	poll := m.Poll
	return func() tea.Msg {
		return ReviewsMsg(poll())
	}
}

func (m *Model) decideCmd(id string, approved bool, feedback string) tea.Cmd {
	decide := m.Decide
	return func() tea.Msg {
		// Rejections block here while the producer revises.
		decide(id, approved, feedback)
		return DecidedMsg{}
	}
}
