package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"resumetracker/internal/common"
	"resumetracker/internal/errors"
	"resumetracker/internal/types"
)

func newAnalyzeCmd(output *common.CommandConfig) *cobra.Command {
	var resumeID, jobFile, jobText string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a resume against a job description",
		Long: `Analyze an uploaded resume against a job description. The backend scores
the match and returns matched and missing keywords together with targeted
suggestions per resume section.

The job description is read from --job, or given inline with --job-text,
and must contain at least 50 characters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				description := jobText
				if jobFile != "" {
					text, err := a.files.ReadText(jobFile)
					if err != nil {
						return err
					}
					description = text
				}
				if err := common.ValidateJobDescription(description, a.cfg.Analysis.MinJobDescription); err != nil {
					return err
				}

				store := a.newStore()
				if err := store.SelectResume(ctx, types.ResumeRecord{ID: resumeID}); err != nil {
					return err
				}
				store.SetJobDescription(description)
				if !store.CanAnalyze() {
					return errors.NewValidationError(errors.ErrCodeMissingSelection, errors.MsgMissingSelection, nil)
				}

				a.logger.Info("Starting resume analysis",
					"resume_id", resumeID,
					"job_chars", len(description),
					"output_format", output.OutputFormat)

				result, err := store.AnalyzeResume(ctx)
				if err != nil {
					return err
				}
				a.logger.Info("Resume analysis completed", "resume_id", resumeID, "job_score", result.JobScore)
				return a.output.HandleOutput(result, *output)
			})
		},
	}

	cmd.Flags().StringVarP(&resumeID, "resume", "r", "", "ID of the resume to analyze")
	cmd.Flags().StringVarP(&jobFile, "job", "j", "", "Job description file")
	cmd.Flags().StringVar(&jobText, "job-text", "", "Job description text")
	cmd.MarkFlagsMutuallyExclusive("job", "job-text")
	cmd.MarkFlagsOneRequired("job", "job-text")
	if err := cmd.MarkFlagRequired("resume"); err != nil {
		panic(fmt.Sprintf("failed to mark resume flag required: %v", err))
	}
	return cmd
}
