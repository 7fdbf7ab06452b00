// Package cli implements the stagegate command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// VersionInfo holds build-time version information.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// App represents the CLI application with all wired dependencies
type App struct {
	rootCmd *cobra.Command

	// Persistent flags
	configPath string
	jsonEvents bool

	versionInfo VersionInfo
}

// New creates a new CLI application
func New() *App {
	app := &App{}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion sets the version information for the version command
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

// setupRootCmd configures the root Cobra command
func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "stagegate",
		Short: "Human-in-the-loop review gate for staged content pipelines",
		Long: `Stagegate runs an ordered content-production pipeline where every
stage's output waits for human review. Rejections drive bounded revision
cycles; approvals file artifacts and advance the pipeline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "stagegate.yaml",
		"Path to the configuration file")
	a.rootCmd.PersistentFlags().BoolVar(&a.jsonEvents, "json-events", false,
		"Emit engine events as JSON lines on stdout")

	a.rootCmd.AddCommand(
		NewRunCmd(a),
		NewReviewsCmd(a),
		NewRevisionsCmd(a),
		NewHistoryCmd(a),
		NewStatusCmd(a),
		NewWatchCmd(a),
		NewVersionCmd(a),
	)
}
