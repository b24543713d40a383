package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/export"
	"github.com/gompdf/gomprova/internal/measure"
	"github.com/gompdf/gomprova/internal/workspace"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondErr maps domain errors to statuses and codes
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, content.ErrBlockNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, content.ErrUnknownKind),
		errors.Is(err, content.ErrKindChanged),
		errors.Is(err, content.ErrDuplicateID),
		errors.Is(err, content.ErrOutOfRange),
		errors.Is(err, workspace.ErrUnknownSubject),
		errors.Is(err, workspace.ErrEmptyTemplate):
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, workspace.ErrNoActiveSubject):
		RespondError(c, http.StatusConflict, "no_active_subject", err)
	case errors.Is(err, export.ErrNothingToExport):
		RespondError(c, http.StatusUnprocessableEntity, "nothing_to_export", err)
	case errors.Is(err, export.ErrInProgress):
		RespondError(c, http.StatusConflict, "export_in_progress", err)
	case errors.Is(err, measure.ErrUnsettled), errors.Is(err, workspace.ErrStale):
		RespondError(c, http.StatusServiceUnavailable, "layout_not_ready", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		RespondError(c, http.StatusServiceUnavailable, "cancelled", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}

func badRequest(c *gin.Context, err error) {
	RespondError(c, http.StatusBadRequest, "invalid_request", err)
}
