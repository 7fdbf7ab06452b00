package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history [producer] [stage]",
		Short: "Show revision histories",
		Long: `History lists the recorded revision attempts per producer and stage.
With a producer and stage, shows only that history.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.buildEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			out := cmd.OutOrStdout()

			if len(args) == 2 {
				history, ok := eng.memory.HistoryFor(args[0], args[1])
				if !ok {
					return fmt.Errorf("no revision history for %s/%s", args[0], args[1])
				}
				fmt.Fprint(out, formatHistory(history))
				return nil
			}

			histories := eng.memory.Histories()
			if len(histories) == 0 {
				fmt.Fprintln(out, "no revision histories recorded")
				return nil
			}

			keys := make([]string, 0, len(histories))
			for key := range histories {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			for _, key := range keys {
				fmt.Fprint(out, formatHistory(histories[key]))
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
