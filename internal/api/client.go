// Package api exposes the resume backend as typed operations returning
// Result values.
package api

import (
	"context"
	stderrors "errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"resumetracker/internal/errors"
	"resumetracker/internal/observability"
	"resumetracker/internal/transport"
	"resumetracker/internal/types"
)

// Doer performs backend exchanges; *transport.Client implements it
type Doer interface {
	Do(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// Options configures a Client
type Options struct {
	UploadTimeout  time.Duration
	AnalyzeTimeout time.Duration
	MaxUploadSize  int64
	LoginPath      string
	Metrics        *observability.Metrics
	Logger         *errors.Logger
}

// Client is the domain API client
type Client struct {
	doer           Doer
	uploadTimeout  time.Duration
	analyzeTimeout time.Duration
	maxUploadSize  int64
	loginPath      string
	metrics        *observability.Metrics
	logger         *errors.Logger
}

// NewClient creates an API client on top of doer
func NewClient(doer Doer, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	uploadTimeout := opts.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 90 * time.Second
	}
	analyzeTimeout := opts.AnalyzeTimeout
	if analyzeTimeout <= 0 {
		analyzeTimeout = 90 * time.Second
	}
	maxUpload := opts.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = MaxUploadSize
	}
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = "/auth/login"
	}
	return &Client{
		doer:           doer,
		uploadTimeout:  uploadTimeout,
		analyzeTimeout: analyzeTimeout,
		maxUploadSize:  maxUpload,
		loginPath:      loginPath,
		metrics:        opts.Metrics,
		logger:         logger,
	}
}

// UploadResume validates and uploads a resume document
func (c *Client) UploadResume(ctx context.Context, file FileUpload) Result[types.ResumeRecord] {
	if err := ValidateUpload(file, c.maxUploadSize); err != nil {
		return failure[types.ResumeRecord](err)
	}

	resp, err := c.doer.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/resumes/upload",
		Timeout: c.uploadTimeout,
		Multipart: &transport.MultipartFile{
			Field:       "file",
			FileName:    file.Name,
			ContentType: file.MimeType,
			Reader:      file.Reader,
		},
	})
	result := envelopeResult[types.ResumeRecord](resp, err, errors.MsgUploadFailed)
	c.metrics.RecordUpload(ctx, file.MimeType, result.OK)
	if result.OK {
		c.logger.Info("Resume uploaded", "resume_id", result.Value.ID, "file", file.Name, "size", file.Size)
	}
	return result
}

// ListResumes returns the user's resumes in server order
func (c *Client) ListResumes(ctx context.Context) Result[[]types.ResumeRecord] {
	resp, err := c.doer.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/resumes"})
	return envelopeResult[[]types.ResumeRecord](resp, err, errors.MsgRequestFailed)
}

// GetResume returns the full record of one resume
func (c *Client) GetResume(ctx context.Context, id string) Result[types.ResumeRecord] {
	if err := requireID(id); err != nil {
		return failure[types.ResumeRecord](err)
	}
	resp, err := c.doer.Do(ctx, transport.Request{Method: http.MethodGet, Path: resumePath(id)})
	return envelopeResult[types.ResumeRecord](resp, err, errors.MsgRequestFailed)
}

// AnalyzeResume scores a resume against a job description
func (c *Client) AnalyzeResume(ctx context.Context, resumeID, jobDescription string) Result[types.AnalysisResult] {
	if err := requireID(resumeID); err != nil {
		return failure[types.AnalysisResult](err)
	}
	resp, err := c.doer.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/resumes/analyze",
		Timeout: c.analyzeTimeout,
		Body:    types.AnalyzeRequest{ResumeID: resumeID, JobDescription: jobDescription},
	})
	result := envelopeResult[types.AnalysisResult](resp, err, errors.MsgAnalysisFailed)
	c.metrics.RecordAnalysis(ctx, result.OK, result.Value.JobScore)
	return result
}

// GetAnalysisHistory returns the most recent analyses
func (c *Client) GetAnalysisHistory(ctx context.Context) Result[[]types.AnalysisRecord] {
	resp, err := c.doer.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/resumes/analysis/history"})
	return envelopeResult[[]types.AnalysisRecord](resp, err, errors.MsgRequestFailed)
}

// UpdateResumeContent replaces the rich content of a resume
func (c *Client) UpdateResumeContent(ctx context.Context, id, html string) Result[types.ContentUpdateResult] {
	if strings.TrimSpace(html) == "" {
		return failure[types.ContentUpdateResult](
			errors.NewValidationError(errors.ErrCodeEmptyContent, errors.MsgEmptyContent, nil))
	}
	if err := requireID(id); err != nil {
		return failure[types.ContentUpdateResult](err)
	}

	resp, err := c.doer.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   resumePath(id) + "/content",
		Body:   types.ContentUpdate{HTMLContent: html},
	})
	return envelopeResult[types.ContentUpdateResult](resp, err, errors.MsgSaveFailed)
}

// UpdateResume saves edited structured sections
func (c *Client) UpdateResume(ctx context.Context, id string, update types.ResumeUpdate) Result[types.ResumeRecord] {
	if err := requireID(id); err != nil {
		return failure[types.ResumeRecord](err)
	}
	resp, err := c.doer.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   resumePath(id),
		Body:   update,
	})
	return envelopeResult[types.ResumeRecord](resp, err, errors.MsgSaveFailed)
}

// DeleteResume removes a resume
func (c *Client) DeleteResume(ctx context.Context, id string) Result[struct{}] {
	if err := requireID(id); err != nil {
		return failure[struct{}](err)
	}
	resp, err := c.doer.Do(ctx, transport.Request{Method: http.MethodDelete, Path: resumePath(id)})
	if err != nil {
		return failure[struct{}](normalize(err, errors.MsgRequestFailed))
	}
	if _, err := decodeEnvelope[*struct{}](resp); err != nil {
		return failure[struct{}](err)
	}
	return success(struct{}{})
}

// GetResumeStatus reports the generation state of a resume artifact
func (c *Client) GetResumeStatus(ctx context.Context, id string) Result[types.ResumeStatus] {
	if err := requireID(id); err != nil {
		return failure[types.ResumeStatus](err)
	}
	resp, err := c.doer.Do(ctx, transport.Request{Method: http.MethodGet, Path: resumePath(id) + "/status"})
	return envelopeResult[types.ResumeStatus](resp, err, errors.MsgRequestFailed)
}

// Download is a downloaded resume artifact. Status and RetryAfter are
// populated whenever the backend answered, even on failure.
type Download struct {
	Status      int
	ContentType string
	FileName    string
	Data        []byte
	RetryAfter  time.Duration
	Message     string
}

// Ready reports whether the artifact bytes are available
func (d Download) Ready() bool {
	return d.Status == http.StatusOK
}

// DownloadResume fetches the rendered artifact of a resume
func (c *Client) DownloadResume(ctx context.Context, id string) Result[Download] {
	if err := requireID(id); err != nil {
		return failure[Download](err)
	}

	resp, err := c.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   resumePath(id) + "/download",
		Header: http.Header{"Accept": []string{"*/*"}},
	})

	var download Download
	if resp != nil {
		download = Download{
			Status:      resp.Status,
			ContentType: resp.ContentType(),
			FileName:    attachmentName(resp.Header.Get("Content-Disposition")),
			RetryAfter:  resp.RetryAfter,
			Message:     transport.ServerMessage(resp.Body),
		}
		if resp.Status == http.StatusOK {
			download.Data = resp.Body
		}
	}

	if err != nil {
		return Result[Download]{Value: download, Err: normalize(err, errors.MsgLoadFailed)}
	}
	return success(download)
}

// SubmitFeedback posts a rating with optional text
func (c *Client) SubmitFeedback(ctx context.Context, rating int, text string) Result[types.Feedback] {
	if rating < 1 || rating > 5 {
		return failure[types.Feedback](
			errors.NewValidationError(errors.ErrCodeInvalidRequest, "Rating must be between 1 and 5", nil).
				WithContext("rating", rating))
	}

	resp, err := c.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/feedback",
		Body:   types.FeedbackRequest{Rating: rating, FeedbackText: strings.TrimSpace(text)},
	})
	if err != nil {
		return failure[types.Feedback](preferServerMessage(resp, err, errors.MsgFeedbackSubmit))
	}
	feedback, err := decodeRaw[types.Feedback](resp)
	if err != nil {
		return failure[types.Feedback](err)
	}
	return success(feedback)
}

// ListFeedback returns one page of feedback, newest first
func (c *Client) ListFeedback(ctx context.Context, page, size int) Result[types.Page[types.Feedback]] {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		query.Set("size", strconv.Itoa(size))
	}

	resp, err := c.doer.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/feedback", Query: query})
	if err != nil {
		return failure[types.Page[types.Feedback]](preferServerMessage(resp, err, errors.MsgFeedbackFetch))
	}
	feedback, err := decodeRaw[types.Page[types.Feedback]](resp)
	if err != nil {
		return failure[types.Page[types.Feedback]](err)
	}
	return success(feedback)
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, username, password string) Result[types.LoginResponse] {
	resp, err := c.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   c.loginPath,
		Body:   types.LoginRequest{Username: username, Password: password},
	})
	if err != nil {
		return failure[types.LoginResponse](preferServerMessage(resp, err, errors.MsgLoginFailed))
	}

	login, err := decodeRaw[types.LoginResponse](resp)
	if err != nil {
		return failure[types.LoginResponse](err)
	}
	if login.Token == "" {
		message := login.Message
		if message == "" {
			message = errors.MsgLoginFailed
		}
		return failure[types.LoginResponse](errors.NewAuthError(errors.ErrCodeUnauthorized, message, nil))
	}
	return success(login)
}

// Signup registers a new account
func (c *Client) Signup(ctx context.Context, req types.SignupRequest) Result[types.SignupResponse] {
	resp, err := c.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body:   req,
	})
	if err != nil {
		return failure[types.SignupResponse](preferServerMessage(resp, err, errors.MsgSignupFailed))
	}
	signup, err := decodeRaw[types.SignupResponse](resp)
	if err != nil {
		return failure[types.SignupResponse](err)
	}
	return success(signup)
}

// envelopeResult converts a transport outcome of an enveloped endpoint
func envelopeResult[T any](resp *transport.Response, err error, fallback string) Result[T] {
	if err != nil {
		return failure[T](normalize(err, fallback))
	}
	value, err := decodeEnvelope[T](resp)
	if err != nil {
		return failure[T](err)
	}
	return success(value)
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.NewValidationError(errors.ErrCodeMissingSelection, "Resume id is required", nil)
	}
	return nil
}

func resumePath(id string) string {
	return "/resumes/" + url.PathEscape(id)
}

// attachmentName extracts the filename parameter of a Content-Disposition header
func attachmentName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func asAppError(err error, target **errors.AppError) bool {
	return stderrors.As(err, target)
}
