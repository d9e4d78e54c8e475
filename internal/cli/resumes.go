package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"resumetracker/internal/api"
	"resumetracker/internal/common"
	"resumetracker/internal/types"
	"resumetracker/internal/utils"
)

func newUploadCmd(output *common.CommandConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "upload [resume-file]",
		Short: "Upload a resume document",
		Long: `Upload a PDF, DOC or DOCX resume of at most 5MB. The file is checked
locally before anything is sent to the backend.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				file, err := a.files.OpenDocument(args[0])
				if err != nil {
					return err
				}
				a.logger.Info("Uploading resume",
					"file", file.Name,
					"mime_type", file.MimeType,
					"size", utils.FormatFileSize(file.Size))

				record, err := a.newStore().UploadResume(ctx, file)
				if err != nil {
					return err
				}
				return a.output.HandleOutput(record, *output)
			})
		},
	}
}

func newListCmd(output *common.CommandConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded resumes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				store := a.newStore()
				if err := store.LoadResumes(ctx); err != nil {
					return err
				}
				resumes := store.Snapshot().Resumes
				if resumes == nil {
					resumes = []types.ResumeRecord{}
				}
				return a.output.HandleOutput(resumes, *output)
			})
		},
	}
}

func newGetCmd(output *common.CommandConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "get [resume-id]",
		Short: "Show a resume with its parsed sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				return common.RunAPICommand(ctx, a.logger, *output, a.stdout,
					func(ctx context.Context) api.Result[types.ResumeRecord] {
						return a.api.GetResume(ctx, args[0])
					})
			})
		},
	}
}

func newStatusCmd(output *common.CommandConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "status [resume-id]",
		Short: "Show whether the backend finished parsing a resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				return common.RunAPICommand(ctx, a.logger, *output, a.stdout,
					func(ctx context.Context) api.Result[types.ResumeStatus] {
						return a.api.GetResumeStatus(ctx, args[0])
					})
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [resume-id]",
		Short: "Delete a resume (not available in the web client)",
		Long: `Delete a resume on the backend. The web client offers
no delete operation; this command goes beyond its feature set and calls the
backend's DELETE endpoint directly.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				if err := a.newStore().DeleteResume(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Deleted resume %s\n", args[0])
				return nil
			})
		},
	}
}

func newHistoryCmd(output *common.CommandConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List previous analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				return common.RunAPICommand(ctx, a.logger, *output, a.stdout, a.api.GetAnalysisHistory)
			})
		},
	}
}
