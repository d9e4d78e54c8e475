package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"resumetracker/internal/common"
	"resumetracker/internal/errors"
	"resumetracker/internal/extract"
	"resumetracker/internal/preview"
	"resumetracker/internal/types"
)

// newPoller creates a poller against the backend configured for a
func (a *app) newPoller(ctx context.Context) (*preview.Poller, error) {
	blobs, err := preview.NewBlobStore(a.cfg.Preview.BlobDir)
	if err != nil {
		return nil, errors.NewIOError("BLOB_DIR_FAILED", "Cannot prepare preview directory", err)
	}
	return preview.NewPoller(ctx, a.api, preview.Options{
		DefaultRetry: a.cfg.Preview.DefaultRetry,
		SettleDelay:  a.cfg.Preview.SettleDelay,
		MaxWait:      a.cfg.Preview.MaxWait,
		Blobs:        blobs,
		OnTransition: func(t preview.Transition) {
			a.logger.Debug("Preview state changed",
				"resume_id", t.ResumeID,
				"from", t.From.String(),
				"to", t.To.String(),
				"attempt", t.Attempt,
				"delay", t.Delay)
			if t.To == preview.Pending {
				fmt.Fprintf(a.stderr, "Preview not ready, retrying in %s\n", t.Delay.Round(time.Second))
			}
		},
		Metrics: a.obs.GetMetrics(),
		Logger:  a.logger,
	}), nil
}

// awaitPreview waits for the poller and maps a failed run to an error
func awaitPreview(ctx context.Context, poller *preview.Poller) (preview.Blob, error) {
	snapshot, err := poller.Wait(ctx)
	if err != nil {
		return preview.Blob{}, errors.NewTimeoutError(errors.ErrCodeRequestTimeout, "Stopped waiting for the preview", err)
	}
	if snapshot.State != preview.Ready {
		message := snapshot.Message
		if message == "" {
			message = errors.MsgLoadFailed
		}
		return preview.Blob{}, errors.NewRemoteError(errors.ErrCodePreviewFailed, message, nil).
			WithContext("resume_id", snapshot.ResumeID).
			WithContext("attempts", snapshot.Attempts)
	}
	blob, ok := poller.Blob()
	if !ok {
		return preview.Blob{}, errors.NewInternalError(errors.ErrCodePreviewFailed, errors.MsgLoadFailed, nil)
	}
	return blob, nil
}

func newPreviewCmd(output *common.CommandConfig) *cobra.Command {
	var asText bool

	cmd := &cobra.Command{
		Use:   "preview [resume-id]",
		Short: "Download the generated resume document",
		Long: `Download the document the backend generated for a resume. While the
backend is still rendering it, the download is retried after the delay
the server asks for.

With --text the document is converted to plain text instead of being
written as is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				poller, err := a.newPoller(ctx)
				if err != nil {
					return err
				}
				defer poller.Close()

				poller.Select(args[0])
				blob, err := awaitPreview(ctx, poller)
				if err != nil {
					return err
				}

				if asText {
					text, err := extract.Text(ctx, blob.Data, blob.ContentType, blob.FileName)
					if err != nil {
						return err
					}
					return a.output.WriteBinary([]byte(text), output.OutputFile)
				}
				return a.output.WriteBinary(blob.Data, output.OutputFile)
			})
		},
	}

	cmd.Flags().BoolVar(&asText, "text", false, "Convert the document to plain text")
	return cmd
}

// saveEdits runs save for resumeID with the poller in edit mode. The
// document is requested again only after a successful save.
func (a *app) saveEdits(ctx context.Context, resumeID string, wait bool, output common.CommandConfig,
	save func(ctx context.Context) (result any, jobID string, err error),
) error {
	poller, err := a.newPoller(ctx)
	if err != nil {
		return err
	}
	defer poller.Close()

	poller.EnterEditMode()
	poller.Select(resumeID)

	result, jobID, err := save(ctx)
	if err != nil {
		return err
	}
	poller.LeaveEditMode(true, jobID)

	if err := a.output.HandleOutput(result, output); err != nil {
		return err
	}
	if !wait {
		return nil
	}

	blob, err := awaitPreview(ctx, poller)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "Regenerated document is ready (%s)\n", blob.FileName)
	return nil
}

func newUpdateContentCmd(output *common.CommandConfig) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "update-content [resume-id] [html-file]",
		Short: "Replace the rich content of a resume",
		Long: `Replace the HTML content of a resume. The backend regenerates the
resume document afterwards; with --wait the command polls until the new
document is available.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				content, err := a.files.ReadText(args[1])
				if err != nil {
					return err
				}
				return a.saveEdits(ctx, args[0], wait, *output, func(ctx context.Context) (any, string, error) {
					result := a.api.UpdateResumeContent(ctx, args[0], content)
					if !result.OK {
						return nil, "", result.Err
					}
					return result.Value, result.Value.JobID, nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the regenerated document is available")
	return cmd
}

func newUpdateCmd(output *common.CommandConfig) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "update [resume-id] [sections-file]",
		Short: "Save edited resume sections",
		Long: `Save the structured sections of a resume from a JSON file holding
personalDetails, workExperiences, educations, skills, projects and
certificates. The backend regenerates the resume document afterwards; with
--wait the command polls until the new document is available.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				raw, err := a.files.ReadText(args[1])
				if err != nil {
					return err
				}
				var update types.ResumeUpdate
				if err := json.Unmarshal([]byte(raw), &update); err != nil {
					return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Sections file is not valid JSON", err).
						WithContext("file", args[1])
				}
				return a.saveEdits(ctx, args[0], wait, *output, func(ctx context.Context) (any, string, error) {
					result := a.api.UpdateResume(ctx, args[0], update)
					if !result.OK {
						return nil, "", result.Err
					}
					return result.Value, "", nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the regenerated document is available")
	return cmd
}
