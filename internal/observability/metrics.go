package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the client-side instruments. All methods are safe on a
// nil receiver so callers never check whether observability is enabled.
type Metrics struct {
	// Transport
	RequestDuration metric.Float64Histogram
	RequestCount    metric.Int64Counter
	RequestErrors   metric.Int64Counter
	RetryCount      metric.Int64Counter
	RateLimitWaits  metric.Int64Counter
	BreakerChanges  metric.Int64Counter
	SessionExpired  metric.Int64Counter

	// Preview polling
	PreviewPolls metric.Int64Counter
	PreviewWait  metric.Float64Histogram

	// Business
	ResumesUploaded metric.Int64Counter
	JobsAnalyzed    metric.Int64Counter
	JobScore        metric.Int64Histogram
}

// NewMetrics creates all instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.RequestDuration, err = meter.Float64Histogram(
		"resumetracker_api_request_duration_seconds",
		metric.WithDescription("Time spent waiting for backend responses"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create request duration metric: %w", err)
	}

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.RequestCount, "resumetracker_api_requests_total", "Total number of backend requests"},
		{&m.RequestErrors, "resumetracker_api_errors_total", "Total number of failed backend requests"},
		{&m.RetryCount, "resumetracker_api_retries_total", "Total number of retried backend requests"},
		{&m.RateLimitWaits, "resumetracker_rate_limit_waits_total", "Requests delayed by the outbound rate limiter"},
		{&m.BreakerChanges, "resumetracker_circuit_breaker_transitions_total", "Circuit breaker state transitions"},
		{&m.SessionExpired, "resumetracker_session_expired_total", "Responses that invalidated the stored session"},
		{&m.PreviewPolls, "resumetracker_preview_polls_total", "Preview download attempts by outcome"},
		{&m.ResumesUploaded, "resumetracker_resumes_uploaded_total", "Total number of resume uploads"},
		{&m.JobsAnalyzed, "resumetracker_jobs_analyzed_total", "Total number of job match analyses"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
		*c.target = counter
	}

	if m.PreviewWait, err = meter.Float64Histogram(
		"resumetracker_preview_wait_seconds",
		metric.WithDescription("Time from first preview request until ready or failed"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create preview wait metric: %w", err)
	}

	if m.JobScore, err = meter.Int64Histogram(
		"resumetracker_analysis_job_score",
		metric.WithDescription("Distribution of job match scores"),
	); err != nil {
		return nil, fmt.Errorf("failed to create job score metric: %w", err)
	}

	return m, nil
}

// RecordRequest records one completed backend exchange. status is 0 when
// no response was received.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
		attribute.Bool("success", err == nil),
	)
	m.RequestDuration.Record(ctx, duration.Seconds(), attrs)
	m.RequestCount.Add(ctx, 1, attrs)
	if err != nil {
		m.RequestErrors.Add(ctx, 1, attrs)
	}
}

// RecordRetry records a retry of an idempotent request
func (m *Metrics) RecordRetry(ctx context.Context, route string, attempt int) {
	if m == nil {
		return
	}
	m.RetryCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.Int("attempt", attempt),
	))
}

// RecordRateLimitWait records a request that had to wait for a token
func (m *Metrics) RecordRateLimitWait(ctx context.Context) {
	if m == nil {
		return
	}
	m.RateLimitWaits.Add(ctx, 1)
}

// RecordBreakerChange records a circuit breaker transition
func (m *Metrics) RecordBreakerChange(ctx context.Context, name, from, to string) {
	if m == nil {
		return
	}
	m.BreakerChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("name", name),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordSessionExpired records an auth failure that cleared credentials
func (m *Metrics) RecordSessionExpired(ctx context.Context, status int) {
	if m == nil {
		return
	}
	m.SessionExpired.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", status)))
}

// RecordPreviewPoll records one download attempt and its outcome
func (m *Metrics) RecordPreviewPoll(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.PreviewPolls.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordPreviewWait records how long a preview took to settle
func (m *Metrics) RecordPreviewWait(ctx context.Context, outcome string, wait time.Duration) {
	if m == nil {
		return
	}
	m.PreviewWait.Record(ctx, wait.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordUpload records a resume upload attempt
func (m *Metrics) RecordUpload(ctx context.Context, mimeType string, success bool) {
	if m == nil {
		return
	}
	m.ResumesUploaded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mime_type", mimeType),
		attribute.Bool("success", success),
	))
}

// RecordAnalysis records an analysis attempt and, on success, its score
func (m *Metrics) RecordAnalysis(ctx context.Context, success bool, score int) {
	if m == nil {
		return
	}
	m.JobsAnalyzed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if success {
		m.JobScore.Record(ctx, int64(score))
	}
}
