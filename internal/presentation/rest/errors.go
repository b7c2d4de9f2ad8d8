package rest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/valyala/fasthttp"

	"github.com/logicalc/loancalc/internal/domain/service"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// StatusCode maps an application error to an HTTP status code.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return fasthttp.StatusOK
	case errors.Is(err, valueobject.ErrValidation),
		errors.Is(err, valueobject.ErrDivisionByZero):
		return fasthttp.StatusBadRequest
	case errors.Is(err, valueobject.ErrNotFound):
		return fasthttp.StatusNotFound
	case errors.Is(err, valueobject.ErrConfiguration),
		errors.Is(err, valueobject.ErrMissingRateTable):
		return fasthttp.StatusUnprocessableEntity
	case errors.Is(err, valueobject.ErrVersionConflict):
		return fasthttp.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fasthttp.StatusServiceUnavailable
	default:
		return fasthttp.StatusInternalServerError
	}
}

func writeError(ctx *fasthttp.RequestCtx, err error, logger *slog.Logger) {
	code := StatusCode(err)
	resp := ErrorResponse{Status: code, Message: err.Error()}

	var (
		verr *valueobject.ValidationError
		div  *valueobject.DivisionError
	)
	switch {
	case errors.As(err, &verr):
		resp.Fields = verr.Fields
	case errors.As(err, &div):
		resp.Fields = map[string]string{div.Field: service.MsgMustBePositive}
	case code == fasthttp.StatusUnprocessableEntity:
		logger.Error("rate table cannot serve request",
			"path", string(ctx.Path()),
			"error", err,
		)
	case code == fasthttp.StatusInternalServerError:
		logger.Error("request failed",
			"path", string(ctx.Path()),
			"error", err,
		)
		resp.Message = "internal error"
	}
	writeJSON(ctx, code, resp)
}

func writeMessage(ctx *fasthttp.RequestCtx, code int, message string) {
	writeJSON(ctx, code, ErrorResponse{Status: code, Message: message})
}
