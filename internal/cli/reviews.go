package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stagegate/stagegate/internal/review"
)

// NewReviewsCmd creates the reviews command group
func NewReviewsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Inspect and decide pending reviews",
	}

	cmd.AddCommand(
		newReviewsListCmd(app),
		newReviewsShowCmd(app),
		newReviewsApproveCmd(app),
		newReviewsRejectCmd(app),
	)
	return cmd
}

func newReviewsListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.buildEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			reviews := eng.registry.PendingReviews()
			if all {
				reviews = append(reviews, eng.registry.CompletedReviews()...)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatReviewList(reviews))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed reviews")
	return cmd
}

func newReviewsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one review with its full content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.buildEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			req, ok := findReview(eng, args[0])
			if !ok {
				return fmt.Errorf("review not found: %s", args[0])
			}
			fmt.Fprint(cmd.OutOrStdout(), formatReviewDetail(req))
			return nil
		},
	}
}

func newReviewsApproveCmd(app *App) *cobra.Command {
	var feedback string

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.decide(cmd, args[0], true, feedback)
		},
	}

	cmd.Flags().StringVarP(&feedback, "message", "m", "", "Optional approval note")
	return cmd
}

func newReviewsRejectCmd(app *App) *cobra.Command {
	var feedback string

	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending review with feedback",
		Long: `Reject sends the content back for revision. When the review carries
the producing task, the producer is re-invoked with revision
instructions built from the feedback; the revised content comes back as
a new pending review.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(feedback) == "" {
				return fmt.Errorf("rejection requires feedback (-m)")
			}
			return app.decide(cmd, args[0], false, feedback)
		},
	}

	cmd.Flags().StringVarP(&feedback, "message", "m", "", "Feedback driving the revision")
	return cmd
}

// decide resolves one pending review. Rejection may block while the
// producer generates a revision.
func (a *App) decide(cmd *cobra.Command, idPrefix string, approved bool, feedback string) error {
	eng, err := a.buildEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	req, ok := findPending(eng, idPrefix)
	if !ok {
		return fmt.Errorf("pending review not found: %s", idPrefix)
	}

	if !eng.registry.SubmitFeedback(cmd.Context(), req.ID, approved, feedback) {
		return fmt.Errorf("review not found: %s", req.ID)
	}

	verdict := "rejected"
	if approved {
		verdict = "approved"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "review %s %s\n", shortID(req.ID), verdict)

	if !approved {
		if pending := eng.registry.PendingReviews(); len(pending) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "revision ready for review: %s (%s)\n",
				shortID(pending[0].ID), pending[0].Stage)
		}
	}
	return nil
}

// findReview looks a review up by full id or unique prefix, pending
// first, then completed.
func findReview(eng *engine, idPrefix string) (review.Request, bool) {
	if req, ok := eng.registry.ReviewByID(idPrefix); ok {
		return req, true
	}
	all := append(eng.registry.PendingReviews(), eng.registry.CompletedReviews()...)
	return matchPrefix(all, idPrefix)
}

func findPending(eng *engine, idPrefix string) (review.Request, bool) {
	pending := eng.registry.PendingReviews()
	for _, req := range pending {
		if req.ID == idPrefix {
			return req, true
		}
	}
	return matchPrefix(pending, idPrefix)
}

func matchPrefix(reviews []review.Request, idPrefix string) (review.Request, bool) {
	var found review.Request
	matches := 0
	for _, req := range reviews {
		if strings.HasPrefix(req.ID, idPrefix) {
			found = req
			matches++
		}
	}
	return found, matches == 1
}
