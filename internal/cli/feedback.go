package cli

import (
	"context"

	"github.com/spf13/cobra"

	"resumetracker/internal/api"
	"resumetracker/internal/common"
	"resumetracker/internal/types"
)

func newFeedbackCmd(output *common.CommandConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Submit or browse feedback",
	}
	cmd.AddCommand(newFeedbackSubmitCmd(output), newFeedbackListCmd(output))
	return cmd
}

func newFeedbackSubmitCmd(output *common.CommandConfig) *cobra.Command {
	var rating int
	var text string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Rate the service from 1 to 5",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				return common.RunAPICommand(ctx, a.logger, *output, a.stdout,
					func(ctx context.Context) api.Result[types.Feedback] {
						return a.api.SubmitFeedback(ctx, rating, text)
					})
			})
		},
	}

	cmd.Flags().IntVar(&rating, "rating", 0, "Rating from 1 to 5")
	cmd.Flags().StringVar(&text, "text", "", "Feedback text")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func newFeedbackListCmd(output *common.CommandConfig) *cobra.Command {
	var page, size int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submitted feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := common.ValidatePaging(page, size); err != nil {
				return err
			}
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				return common.RunAPICommand(ctx, a.logger, *output, a.stdout,
					func(ctx context.Context) api.Result[types.Page[types.Feedback]] {
						return a.api.ListFeedback(ctx, page, size)
					})
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Page number, starting at 0")
	cmd.Flags().IntVar(&size, "size", 10, "Entries per page")
	return cmd
}
