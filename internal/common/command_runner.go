package common

import (
	"context"
	"io"

	"resumetracker/internal/api"
	"resumetracker/internal/errors"
)

// APIOperationFunc is any API client operation bound to its arguments
type APIOperationFunc[Output any] func(context.Context) api.Result[Output]

// RunAPICommand runs one API operation and hands the value to the output handler
func RunAPICommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	out io.Writer,
	operation APIOperationFunc[Output],
) error {
	outputHandler := NewOutputHandlerWithWriter(logger, out)

	result := operation(ctx)
	if !result.OK {
		return result.Err
	}

	return outputHandler.HandleOutput(result.Value, cmdConfig)
}
