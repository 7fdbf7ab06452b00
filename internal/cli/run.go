package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stagegate/stagegate/internal/artifact"
	"github.com/stagegate/stagegate/internal/events"
	"github.com/stagegate/stagegate/internal/pipeline"
)

// NewRunCmd creates the run command
func NewRunCmd(app *App) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "run [idea]",
		Short: "Run the pipeline, reviewing each stage interactively",
		Long: `Run starts the configured pipeline for the given product idea. Each
stage's output is presented for review: approve to advance, reject with
feedback to trigger a revision cycle. Quitting leaves pending reviews in
the store; rerun to continue deciding them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idea := ""
			if len(args) > 0 {
				idea = args[0]
			}
			return app.runPipeline(cmd, idea, project)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project name for filed artifacts (defaults to the idea)")
	return cmd
}

func (a *App) runPipeline(cmd *cobra.Command, idea, project string) error {
	eng, err := a.buildEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if idea == "" {
		idea = eng.cfg.Idea
	}
	if idea == "" {
		return fmt.Errorf("no product idea: pass one as an argument or set 'idea' in the config")
	}
	if project == "" {
		project = eng.cfg.Project
	}
	if project == "" {
		project = artifact.SanitizeName(idea)
	}

	eng.bus.Subscribe(events.LogHandler(events.LogConfig{Writer: cmd.ErrOrStderr()}))
	if events.IsJSONMode(a.jsonEvents) {
		eng.bus.Subscribe(events.JSONEmitterHandler(events.NewJSONEmitter(cmd.OutOrStdout())))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(eng.binding, pipelineStages(eng.cfg), project, idea)
	if err := runner.Start(ctx); err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	for {
		select {
		case <-runner.Done():
			if err := runner.Err(); err != nil {
				return err
			}
			fmt.Fprintln(out, "pipeline complete")
			return nil
		case <-ctx.Done():
			fmt.Fprintln(out, "interrupted; pending reviews were saved")
			return nil
		default:
		}

		pending := eng.registry.PendingReviews()
		if len(pending) == 0 {
			// Brief gap between a decision and the next stage's review.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		req := pending[0]
		fmt.Fprint(out, "\n"+formatReviewDetail(req))
		fmt.Fprint(out, "\n[a]pprove, [r]eject, [q]uit: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(out, "\ninput closed; pending reviews were saved")
			return nil
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "approve":
			fmt.Fprint(out, "optional note: ")
			note, _ := reader.ReadString('\n')
			eng.registry.SubmitFeedback(ctx, req.ID, true, strings.TrimSpace(note))

		case "r", "reject":
			fmt.Fprint(out, "feedback: ")
			feedback, _ := reader.ReadString('\n')
			feedback = strings.TrimSpace(feedback)
			if feedback == "" {
				fmt.Fprintln(out, "rejection requires feedback")
				continue
			}
			// Blocks while the producer generates the revision.
			eng.registry.SubmitFeedback(ctx, req.ID, false, feedback)

		case "q", "quit":
			fmt.Fprintln(out, "pending reviews were saved; rerun to continue")
			return nil

		default:
			fmt.Fprintln(out, "unrecognized choice")
		}
	}
}
