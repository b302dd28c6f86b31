package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

// healthCheck provides a health check endpoint
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Checks:    make(map[string]string, len(s.checks)),
	}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			health.Checks[name] = err.Error()
			health.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		health.Checks[name] = "ok"
	}

	c.JSON(status, health)
}

// serveMetrics exposes the metrics registry when one is configured
func (s *Server) serveMetrics(c *gin.Context) {
	if s.metricsHandler == nil {
		s.respondError(c, errors.NewNotFoundError("metrics"))
		return
	}
	s.metricsHandler.ServeHTTP(c.Writer, c.Request)
}

// statusFor maps an error onto its HTTP status
func statusFor(err error) int {
	hrErr := errors.GetHRError(err)
	if hrErr == nil {
		return http.StatusInternalServerError
	}

	switch hrErr.Code {
	case errors.ErrCodeHasChildren, errors.ErrCodeConcurrentModification, errors.ErrCodeAlreadyExists:
		return http.StatusConflict
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	}

	switch hrErr.Type {
	case types.ErrorTypeNotFound:
		return http.StatusNotFound
	case types.ErrorTypeInvalidStructure:
		return http.StatusUnprocessableEntity
	case types.ErrorTypeValidation:
		return http.StatusBadRequest
	case types.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case types.ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError provides consistent error handling
func (s *Server) respondError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")
	status := statusFor(err)

	resp := ErrorResponse{
		Code:      status,
		Error:     string(errors.ErrCodeInternal),
		Message:   "internal server error",
		RequestID: requestID,
	}
	if hrErr := errors.GetHRError(err); hrErr != nil {
		resp.Error = string(hrErr.Code)
		resp.Retryable = hrErr.Retryable()
		if status < http.StatusInternalServerError {
			resp.Message = hrErr.Message
			resp.Details = hrErr.Details
			if list := errors.GetErrorList(err); list != nil {
				resp.Message = fmt.Sprintf("%d fields are invalid", len(list.Errors))
				resp.Details = map[string]interface{}{"errors": list.Errors}
			}
		}
	}

	fields := map[string]interface{}{
		"request_id": requestID,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"status":     status,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", err, fields)
	} else {
		s.logger.Debug("Request rejected: "+err.Error(), fields)
	}

	c.JSON(status, resp)
}

// bindJSON decodes the body into req, responding 400 on failure
func (s *Server) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.respondError(c, errors.NewInvalidInputError("invalid request format: "+err.Error()))
		return false
	}
	return true
}

// idParam parses the :id path parameter
func (s *Server) idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(c, errors.NewInvalidInputError("invalid unit id").WithDetail("id", c.Param("id")))
		return 0, false
	}
	return id, true
}

func respond[T any](c *gin.Context, status int, message string, data *T) {
	c.JSON(status, BaseResponse[T]{Code: status, Message: message, Data: data})
}
