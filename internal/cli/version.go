package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command
func NewVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := app.versionInfo
			fmt.Fprintf(cmd.OutOrStdout(), "stagegate version %s\ncommit: %s\nbuilt: %s\n",
				orDefault(v.Version, "dev"),
				orDefault(v.Commit, "unknown"),
				orDefault(v.Date, "unknown"))
			return nil
		},
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
