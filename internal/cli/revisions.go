package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRevisionsCmd creates the revisions command
func NewRevisionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "revisions",
		Short: "List in-progress revisions",
		Long: `Revisions lists revision cycles that have been started but whose
producer has not yet returned revised content. In-progress records live
only in the running engine; a rejection driven from this process shows
up here until the revision completes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.buildEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			fmt.Fprint(cmd.OutOrStdout(), formatActiveRevisions(eng.cycle.ActiveRevisions()))
			return nil
		},
	}
}
