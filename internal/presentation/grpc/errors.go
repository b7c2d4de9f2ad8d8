package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// Code maps an application error to a gRPC status code.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, valueobject.ErrValidation),
		errors.Is(err, valueobject.ErrDivisionByZero):
		return codes.InvalidArgument
	case errors.Is(err, valueobject.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, valueobject.ErrConfiguration),
		errors.Is(err, valueobject.ErrMissingRateTable):
		return codes.FailedPrecondition
	case errors.Is(err, valueobject.ErrVersionConflict):
		return codes.Aborted
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// toStatus converts err to a gRPC status error. Internal errors are logged
// and hidden from the caller.
func toStatus(err error, method string, logger *slog.Logger) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := Code(err)
	if code == codes.Internal {
		logger.Error("request failed",
			"method", method,
			"error", err,
		)
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
