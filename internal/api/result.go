package api

import (
	"encoding/json"

	"resumetracker/internal/errors"
	"resumetracker/internal/transport"
	"resumetracker/internal/types"
)

// Result is the uniform outcome of every API operation. Err is always an
// *errors.AppError when OK is false.
type Result[T any] struct {
	OK    bool
	Value T
	Err   error
}

// Unwrap returns the value and error in the usual Go shape
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

// Message returns the user-facing failure message, or "" on success
func (r Result[T]) Message() string {
	return errors.Message(r.Err)
}

func success[T any](value T) Result[T] {
	return Result[T]{OK: true, Value: value}
}

func failure[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// normalize guarantees an *AppError with a non-empty message
func normalize(err error, fallback string) error {
	var appErr *errors.AppError
	if asAppError(err, &appErr) {
		if appErr.Message == "" {
			appErr.Message = fallback
		}
		return appErr
	}
	return errors.NewRemoteError(errors.ErrCodeRequestFailed, fallback, err)
}

// preferServerMessage replaces a generic transport message with fallback
// unless the backend supplied its own message.
func preferServerMessage(resp *transport.Response, err error, fallback string) error {
	var appErr *errors.AppError
	if !asAppError(err, &appErr) {
		return normalize(err, fallback)
	}
	if resp == nil || transport.ServerMessage(resp.Body) == "" {
		if appErr.Type != errors.ErrorTypeTimeout && appErr.Type != errors.ErrorTypeAuth {
			appErr.Message = fallback
		}
	}
	return appErr
}

// decodeEnvelope unwraps {success, message, data}
func decodeEnvelope[T any](resp *transport.Response) (T, error) {
	var zero T
	if resp == nil || len(resp.Body) == 0 {
		return zero, errors.NewRemoteError(errors.ErrCodeNoResponseData, errors.MsgNoResponseData, nil)
	}

	var envelope types.Envelope[T]
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return zero, errors.NewRemoteError(errors.ErrCodeInvalidFormat, "Invalid response from server", err).
			WithStatus(resp.Status)
	}

	if !envelope.Success {
		message := envelope.Message
		if message == "" {
			message = errors.MsgRequestFailed
		}
		return zero, errors.NewRemoteError(errors.ErrCodeRequestFailed, message, nil).WithStatus(resp.Status)
	}

	return envelope.Data, nil
}

// decodeRaw decodes an endpoint that is not enveloped
func decodeRaw[T any](resp *transport.Response) (T, error) {
	var value T
	if resp == nil || len(resp.Body) == 0 {
		return value, errors.NewRemoteError(errors.ErrCodeNoResponseData, errors.MsgNoResponseData, nil)
	}
	if err := json.Unmarshal(resp.Body, &value); err != nil {
		return value, errors.NewRemoteError(errors.ErrCodeInvalidFormat, "Invalid response from server", err).
			WithStatus(resp.Status)
	}
	return value, nil
}
