// Package transport performs authenticated HTTP exchanges with the resume
// backend and turns every failure into an *errors.AppError.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"resumetracker/internal/config"
	"resumetracker/internal/errors"
	"resumetracker/internal/observability"
	"resumetracker/internal/types"
)

// Header names set on every request
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAuthorization = "Authorization"
	HeaderRetryAfter    = "Retry-After"
)

// CredentialSource provides the bearer token and can drop it
type CredentialSource interface {
	Get() (types.AuthSession, error)
	Clear() error
}

// Options configures a Client
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	LoginPath      string
	MaxRetries     int
	RetryBaseDelay time.Duration
	UserAgent      string
	CircuitBreaker config.CircuitBreakerConfig
	RateLimit      config.RateLimitConfig

	// RoundTripper is the base transport, typically instrumented by otelhttp
	RoundTripper   http.RoundTripper
	Credentials    CredentialSource
	OnUnauthorized func()
	Metrics        *observability.Metrics
	Logger         *errors.Logger
}

// OptionsFromConfig maps API configuration onto client options
func OptionsFromConfig(cfg config.APIConfig) Options {
	return Options{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		LoginPath:      cfg.LoginPath,
		MaxRetries:     cfg.MaxRetries,
		UserAgent:      cfg.UserAgent,
		CircuitBreaker: cfg.CircuitBreaker,
		RateLimit:      cfg.RateLimit,
	}
}

// MultipartFile is a single file part of a multipart body
type MultipartFile struct {
	Field       string
	FileName    string
	ContentType string
	Reader      io.Reader
}

// Request describes one backend exchange. Path is relative to the base URL.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	Body      any
	Multipart *MultipartFile
	Header    http.Header
	Timeout   time.Duration
}

// Response is a fully read backend response
type Response struct {
	Status     int
	Header     http.Header
	Body       []byte
	RetryAfter time.Duration
	RequestID  string
}

// ContentType returns the media type of the response without parameters
func (r *Response) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

// Client is the transport adapter
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	loginPath      string
	maxRetries     int
	retryBaseDelay time.Duration
	userAgent      string

	credentials    CredentialSource
	onUnauthorized func()
	breaker        *CircuitBreaker
	limiter        *rate.Limiter
	metrics        *observability.Metrics
	logger         *errors.Logger
}

// NewClient creates a transport client
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = "/auth/login"
	}
	retryBase := opts.RetryBaseDelay
	if retryBase <= 0 {
		retryBase = time.Second
	}
	rt := opts.RoundTripper
	if rt == nil {
		rt = http.DefaultTransport
	}

	c := &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		httpClient:     &http.Client{Transport: rt},
		timeout:        timeout,
		loginPath:      loginPath,
		maxRetries:     opts.MaxRetries,
		retryBaseDelay: retryBase,
		userAgent:      opts.UserAgent,
		credentials:    opts.Credentials,
		onUnauthorized: opts.OnUnauthorized,
		breaker:        NewCircuitBreaker("resume-api", opts.CircuitBreaker, opts.Metrics, logger),
		metrics:        opts.Metrics,
		logger:         logger,
	}

	if opts.RateLimit.Enabled && opts.RateLimit.RequestsPerMin > 0 {
		burst := max(opts.RateLimit.BurstCapacity, 1)
		c.limiter = rate.NewLimiter(rate.Limit(float64(opts.RateLimit.RequestsPerMin)/60.0), burst)
	}

	return c
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Stats returns breaker and limiter statistics
func (c *Client) Stats() map[string]any {
	stats := map[string]any{
		"circuit_breaker": c.breaker.GetStats(),
		"healthy":         c.breaker.IsHealthy(),
	}
	if c.limiter != nil {
		stats["rate_limit_tokens"] = c.limiter.Tokens()
	}
	return stats
}

// Do performs req. For a non-2xx status both the response and a
// normalized error are returned so callers can inspect headers.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	payload, contentType, err := encodeBody(req)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Failed to encode request", err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attempts := 1
	if req.Method == http.MethodGet {
		attempts += max(c.maxRetries, 0)
	}

	var resp *Response
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			c.metrics.RecordRetry(ctx, req.Path, attempt)
			c.logger.Warn("Retrying backend request",
				"method", req.Method,
				"path", req.Path,
				"attempt", attempt,
				"error", err.Error())
			if waitErr := sleepContext(ctx, backoff(c.retryBaseDelay, attempt-1)); waitErr != nil {
				return resp, normalizeContextError(waitErr, timeout)
			}
		}

		resp, err = c.breaker.Execute(func() (*Response, error) {
			return c.exchange(ctx, req, payload, contentType, timeout)
		})
		if err == nil || !isRetryable(err) {
			break
		}
	}

	return resp, err
}

// exchange performs a single HTTP round trip
func (c *Client) exchange(ctx context.Context, req Request, payload []byte, contentType string, timeout time.Duration) (*Response, error) {
	if err := c.waitForToken(ctx); err != nil {
		return nil, normalizeContextError(err, timeout)
	}

	httpReq, requestID, err := c.buildRequest(ctx, req, payload, contentType)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid request", err)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		appErr := normalizeTransportError(ctx, err, timeout)
		c.metrics.RecordRequest(ctx, req.Method, req.Path, 0, time.Since(start), appErr)
		c.logger.Debug("Backend request failed",
			"method", req.Method,
			"path", req.Path,
			"request_id", requestID,
			"error", err.Error())
		return nil, appErr.WithContext("request_id", requestID)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		appErr := normalizeTransportError(ctx, err, timeout)
		c.metrics.RecordRequest(ctx, req.Method, req.Path, httpResp.StatusCode, time.Since(start), appErr)
		return nil, appErr.WithContext("request_id", requestID)
	}

	resp := &Response{
		Status:     httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		RetryAfter: parseRetryAfter(httpResp.Header.Get(HeaderRetryAfter), time.Now()),
		RequestID:  requestID,
	}

	var appErr *errors.AppError
	if resp.Status < 200 || resp.Status > 299 {
		appErr = c.statusError(ctx, req, resp)
	}

	c.metrics.RecordRequest(ctx, req.Method, req.Path, resp.Status, time.Since(start), errOrNil(appErr))
	c.logger.Debug("Backend request completed",
		"method", req.Method,
		"path", req.Path,
		"status", resp.Status,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds())

	if appErr != nil {
		return resp, appErr
	}
	return resp, nil
}

// statusError converts a non-2xx response, clearing the session on auth failures
func (c *Client) statusError(ctx context.Context, req Request, resp *Response) *errors.AppError {
	message := ServerMessage(resp.Body)

	if resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden {
		if !c.isLoginPath(req.Path) {
			c.expireSession(ctx, resp.Status)
			if message == "" {
				message = errors.MsgSessionExpired
			}
		} else if message == "" {
			message = errors.MsgLoginFailed
		}
		return errors.NewAuthError(errors.ErrCodeUnauthorized, message, nil).
			WithStatus(resp.Status).
			WithContext("request_id", resp.RequestID)
	}

	if message == "" {
		message = fmt.Sprintf("Request failed with status code %d", resp.Status)
	}

	var appErr *errors.AppError
	if resp.Status == http.StatusNotFound {
		appErr = errors.NewNotFoundError(errors.ErrCodeNotFound, message, nil)
	} else {
		appErr = errors.NewRemoteError(errors.ErrCodeRequestFailed, message, nil)
	}
	return appErr.WithStatus(resp.Status).WithContext("request_id", resp.RequestID)
}

// expireSession drops stored credentials and notifies the hook
func (c *Client) expireSession(ctx context.Context, status int) {
	c.metrics.RecordSessionExpired(ctx, status)
	if c.credentials != nil {
		if err := c.credentials.Clear(); err != nil {
			c.logger.LogError(err, "Failed to clear credentials after auth failure")
		}
	}
	c.logger.Warn("Session rejected by backend", "status", status)
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func (c *Client) isLoginPath(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.TrimRight(path, "/") == strings.TrimRight(c.loginPath, "/")
}

func (c *Client) waitForToken(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if c.limiter.Tokens() < 1 {
		c.metrics.RecordRateLimitWait(ctx)
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) buildRequest(ctx context.Context, req Request, payload []byte, contentType string) (*http.Request, string, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, "", err
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set(HeaderRequestID, requestID)

	if c.credentials != nil {
		session, err := c.credentials.Get()
		if err != nil {
			c.logger.LogError(err, "Failed to read stored credentials")
		} else if session.Token != "" {
			httpReq.Header.Set(HeaderAuthorization, "Bearer "+session.Token)
		}
	}

	return httpReq, requestID, nil
}

// encodeBody renders a JSON or multipart payload once so retries can reuse it
func encodeBody(req Request) ([]byte, string, error) {
	if req.Multipart != nil {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)

		part := req.Multipart
		field := part.Field
		if field == "" {
			field = "file"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, part.FileName))
		if part.ContentType != "" {
			header.Set("Content-Type", part.ContentType)
		} else {
			header.Set("Content-Type", "application/octet-stream")
		}

		w, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(w, part.Reader); err != nil {
			return nil, "", err
		}
		if err := writer.Close(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), writer.FormDataContentType(), nil
	}

	if req.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", err
	}
	return data, "application/json", nil
}

func errOrNil(err *errors.AppError) error {
	if err == nil {
		return nil
	}
	return err
}
