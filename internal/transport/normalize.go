package transport

import (
	"context"
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"resumetracker/internal/errors"
)

const maxBackoff = 30 * time.Second

// ServerMessage extracts the human-readable message from an error body.
// The backend uses "message" for envelopes and "error" for some failures.
func ServerMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Error)
}

// normalizeTransportError classifies a failure that produced no response
func normalizeTransportError(ctx context.Context, err error, timeout time.Duration) *errors.AppError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return normalizeContextError(ctxErr, timeout)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return timeoutError(timeout, err)
	}
	return errors.NewRemoteError(errors.ErrCodeNetwork, "Network Error", err)
}

// normalizeContextError maps context termination onto the error taxonomy
func normalizeContextError(err error, timeout time.Duration) *errors.AppError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return timeoutError(timeout, err)
	}
	return errors.NewInternalError(errors.ErrCodeRequestFailed, "Request canceled", err)
}

func timeoutError(timeout time.Duration, cause error) *errors.AppError {
	return errors.NewTimeoutError(errors.ErrCodeRequestTimeout,
		fmt.Sprintf("timeout of %dms exceeded", timeout.Milliseconds()), cause).
		WithContext("timeout", timeout.String())
}

// isRetryable reports whether an idempotent request should be tried again
func isRetryable(err error) bool {
	var appErr *errors.AppError
	if !asAppError(err, &appErr) {
		return false
	}
	if appErr.Code == errors.ErrCodeNetwork {
		return true
	}
	switch appErr.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoff returns base*2^(n-1) plus up to 10% jitter, capped at 30s
func backoff(base time.Duration, n int) time.Duration {
	delay := base << max(n-1, 0)
	if delay <= 0 || delay > maxBackoff {
		delay = maxBackoff
	}
	if jitterMax := int64(float64(delay) * 0.1); jitterMax > 0 {
		if jitter, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			delay += time.Duration(jitter.Int64())
		}
	}
	return min(delay, maxBackoff)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date; 0 means absent
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func asAppError(err error, target **errors.AppError) bool {
	return stderrors.As(err, target)
}
