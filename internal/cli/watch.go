package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/stagegate/stagegate/internal/cli/tui"
)

// NewWatchCmd creates the watch command
func NewWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Monitor and decide pending reviews interactively",
		Long: `Watch opens a live view of the pending review queue. Select a review
to read its content; approve or reject it without leaving the view.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.buildEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			poll := func() []tui.ReviewItem {
				pending := eng.registry.PendingReviews()
				items := make([]tui.ReviewItem, 0, len(pending))
				for _, req := range pending {
					items = append(items, tui.ReviewItem{
						ID:           req.ID,
						Stage:        req.Stage,
						Producer:     req.Producer,
						ArtifactType: req.ArtifactType,
						Content:      req.Content,
						CreatedAt:    req.CreatedAt,
					})
				}
				return items
			}

			decide := func(id string, approved bool, feedback string) {
				eng.registry.SubmitFeedback(context.Background(), id, approved, feedback)
			}

			model := tui.NewModel(poll, decide)
			program := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("watch failed: %w", err)
			}
			return nil
		},
	}
}
