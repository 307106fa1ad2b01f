package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cisbeo/scorpiusProject-sub002/internal/middleware"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errcode"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/response"
)

func getTenantID(c *gin.Context) string {
	return c.GetString(middleware.ContextTenantIDKey)
}

func getUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

func badRequest(c *gin.Context, msg string) {
	response.Error(c, errcode.ErrInvalid, msg)
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func queryFloat(c *gin.Context, key string) (*float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

// handleError maps service errors to API codes. Validation and lifecycle
// errors carry their message back to the caller; everything else is logged.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, appErr.ErrInvalidTransition):
		response.Error(c, errcode.ErrInvalidTransition, err.Error())
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, err.Error())
	case errors.Is(err, appErr.ErrUnavailable):
		logError(c, err)
		response.Error(c, errcode.ErrAIUnavailable, "")
	case errors.Is(err, appErr.ErrRetrieval):
		logError(c, err)
		response.Error(c, errcode.ErrRetrieval, "")
	default:
		logError(c, err)
		response.Error(c, errcode.ErrInternal, "")
	}
}

func logError(c *gin.Context, err error) {
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("tenant_id", getTenantID(c)),
		zap.Error(err))
}
