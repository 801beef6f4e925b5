// Package handlers implements the console's JSON API. Every response is a
// models.Envelope.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"easynetes/internal/db"
	"easynetes/internal/kube"
	"easynetes/internal/manager"
	"easynetes/internal/middleware"
	"easynetes/internal/models"
)

func withRequestID(c *gin.Context, env models.Envelope) models.Envelope {
	env.RequestID = c.GetString(middleware.ContextRequestID)
	return env
}

func renderOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, withRequestID(c, models.Success(data)))
}

func renderList(c *gin.Context, total int64, data any) {
	c.JSON(http.StatusOK, withRequestID(c, models.SuccessList(total, data)))
}

// renderStatus writes a non-success envelope with a matching error toast.
func renderStatus(c *gin.Context, sc models.StatusCode, data any, msg string) {
	env := sc.Envelope(data, msg)
	if sc.HTTP >= http.StatusBadRequest {
		ToastError(c, http.StatusText(sc.HTTP), env.Msg)
	}
	c.AbortWithStatusJSON(sc.HTTP, withRequestID(c, env))
}

// statusFor maps domain errors onto the envelope status table.
func statusFor(err error) models.StatusCode {
	switch {
	case errors.Is(err, db.ErrNotFound),
		errors.Is(err, manager.ErrUserNotFound),
		errors.Is(err, kube.ErrUnknownCluster):
		return models.SCodeNotFound
	case errors.Is(err, db.ErrDuplicate), errors.Is(err, manager.ErrUserExists):
		return models.SCodeConflict
	case errors.Is(err, db.ErrInvalidKind):
		return models.SCodeBadRequest
	default:
		return models.SCodeInternal
	}
}

// renderError logs unexpected failures and hides their detail from clients.
func renderError(c *gin.Context, err error) {
	sc := statusFor(err)
	msg := err.Error()
	if sc == models.SCodeInternal {
		_ = c.Error(err)
		msg = ""
	}
	renderStatus(c, sc, nil, msg)
}

// bindJSON decodes and validates the body. It writes the error response
// and returns false when the body is unusable.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		renderStatus(c, models.SCodeBadRequest, nil, "invalid request format")
		return false
	}
	if errs := middleware.ValidateStruct(v); errs != nil {
		renderStatus(c, models.SCodeBadRequest, errs, middleware.SummarizeFieldErrors(errs))
		return false
	}
	return true
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		renderStatus(c, models.SCodeBadRequest, nil, "invalid id")
		return 0, false
	}
	return id, true
}
