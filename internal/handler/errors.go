package handler

import (
	"errors"
	"net/http"
	"strconv"

	"pmis/internal/logging"
	"pmis/internal/middleware"
	"pmis/internal/service"
	"pmis/internal/workflow"
	"pmis/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors to HTTP statuses. Unexpected failures are
// logged and hidden behind a generic message.
func writeError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log := logging.FromContext(c.Request.Context())
		log.Error().
			Err(err).
			Str("component", "handler").
			Str("path", c.FullPath()).
			Msg("request failed")
		_ = c.Error(err)
		c.JSON(status, response.Error(status, "Internal server error"))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrNothingToExport),
		errors.Is(err, workflow.ErrNotesRequired),
		errors.Is(err, workflow.ErrUnknownAction),
		errors.Is(err, workflow.ErrNoApprovalLevels):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrActionNotAllowed),
		errors.Is(err, service.ErrExportInProgress),
		errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}

// paramID parses a positive numeric path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func viewerOf(c *gin.Context) workflow.Viewer {
	return middleware.PrincipalFrom(c).Viewer()
}
