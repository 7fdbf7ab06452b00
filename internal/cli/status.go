package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stagegate/stagegate/internal/review"
)

// stageStatus summarizes one configured stage for status output.
type stageStatus struct {
	Stage     string `json:"stage"`
	Producer  string `json:"producer"`
	Status    string `json:"status"`
	Revisions int    `json:"revisions"`
}

// NewStatusCmd creates the status command
func NewStatusCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pipeline and review status",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.buildEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			statuses := stageStatuses(eng)
			pending := eng.registry.PendingReviews()

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"stages":  statuses,
					"pending": len(pending),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleHeader.Render("Pipeline"))
			for _, st := range statuses {
				symbol := "○"
				style := styleDim
				switch st.Status {
				case "approved":
					symbol, style = "✓", styleApproved
				case "pending":
					symbol, style = "●", stylePending
				case "rejected":
					symbol, style = "✗", styleRejected
				}
				line := fmt.Sprintf(" %s %-22s %-14s %s", symbol, st.Stage, st.Producer, st.Status)
				if st.Revisions > 0 {
					line += fmt.Sprintf("  (%d revisions)", st.Revisions)
				}
				fmt.Fprintln(out, style.Render(line))
			}

			fmt.Fprintf(out, "\n%d pending review(s)\n", len(pending))
			if len(pending) > 0 {
				fmt.Fprint(out, formatReviewList(pending))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON instead of formatted text")
	return cmd
}

// stageStatuses derives per-stage state from the review collections: a
// stage is approved when its latest decided review was approved, pending
// while a review (or revision review) waits, otherwise not started.
func stageStatuses(eng *engine) []stageStatus {
	pending := eng.registry.PendingReviews()
	completed := eng.registry.CompletedReviews()

	statuses := make([]stageStatus, 0, len(eng.cfg.Stages))
	for _, st := range eng.cfg.Stages {
		s := stageStatus{Stage: st.Name, Producer: st.Producer, Status: "not started"}

		for _, req := range completed {
			if req.BaseStage() != st.Name {
				continue
			}
			if req.Status == review.StatusApproved {
				s.Status = "approved"
			} else {
				s.Status = "rejected"
			}
		}
		for _, req := range pending {
			if req.BaseStage() == st.Name {
				s.Status = "pending"
			}
		}

		if history, ok := eng.memory.HistoryFor(st.Producer, st.Name); ok {
			s.Revisions = len(history.Revisions)
		}

		statuses = append(statuses, s)
	}
	return statuses
}
