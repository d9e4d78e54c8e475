package transport

import (
	"context"

	"resumetracker/internal/config"
	"resumetracker/internal/errors"
	"resumetracker/internal/observability"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker wraps backend exchanges with the circuit breaker pattern.
// A nil breaker executes calls directly.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[*Response]
}

// NewCircuitBreaker creates a breaker, or returns nil when disabled
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig, metrics *observability.Metrics, logger *errors.Logger) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		// Client errors say nothing about backend health
		IsSuccessful: func(err error) bool {
			return err == nil || !countsAsFailure(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
			metrics.RecordBreakerChange(context.Background(), name, from.String(), to.String())
		},
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker[*Response](settings)}
}

// Execute runs fn with circuit breaker protection
func (b *CircuitBreaker) Execute(fn func() (*Response, error)) (*Response, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	resp, err := b.cb.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, errors.NewRemoteError(errors.ErrCodeCircuitOpen, errors.MsgServiceUnavailable, err)
	}
	return resp, err
}

// GetStats returns circuit breaker statistics
func (b *CircuitBreaker) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is closed
func (b *CircuitBreaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}

// countsAsFailure reports whether err reflects backend or network trouble
func countsAsFailure(err error) bool {
	var appErr *errors.AppError
	if !asAppError(err, &appErr) {
		return true
	}
	switch appErr.Type {
	case errors.ErrorTypeTimeout:
		return true
	case errors.ErrorTypeRemote:
		return appErr.Status == 0 || appErr.Status >= 500
	default:
		return false
	}
}
