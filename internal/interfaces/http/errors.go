package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
)

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrPrecondition):
		return http.StatusPreconditionFailed
	case errors.Is(err, apperr.ErrImmutableState), errors.Is(err, apperr.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. data carries the partial
// result of a batch that failed after committing some items.
func (h *Handlers) respondError(c *gin.Context, operation string, err error, data interface{}) {
	status := statusFor(err)
	resp := Response{
		Success:   false,
		Data:      data,
		Error:     err.Error(),
		Kind:      apperr.KindOf(err),
		Retryable: apperr.Retryable(err),
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"operation", operation,
			"kind", resp.Kind,
			"error", err,
		)
		if !errors.Is(err, apperr.ErrDataIntegrity) && status != http.StatusGatewayTimeout {
			resp.Error = "internal error"
		}
	}

	c.JSON(status, resp)
}

func (h *Handlers) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   message,
		Kind:    "bad_request",
	})
}
