package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Xinye0723/HrBackend/pkg/employees"
	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

const principalKey = "principal"

// loggingMiddleware provides request logging
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		fields := map[string]interface{}{
			"method":      param.Method,
			"path":        param.Path,
			"status_code": param.StatusCode,
			"latency":     param.Latency.String(),
			"client_ip":   param.ClientIP,
			"request_id":  param.Keys["request_id"],
		}
		if param.StatusCode >= 500 {
			s.logger.Warn("HTTP Request", fields)
		} else {
			s.logger.Info("HTTP Request", fields)
		}
		return ""
	})
}

// requestIDMiddleware adds a unique request ID to each request
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// metricsMiddleware collects request metrics
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		labels := map[string]string{
			"method": c.Request.Method,
			"path":   path,
			"status": strconv.Itoa(c.Writer.Status()),
		}
		s.metrics.Counter(MetricRequests, 1, labels)
		s.metrics.Timer(MetricRequestDuration, time.Since(start).Seconds(), map[string]string{
			"method": c.Request.Method,
			"path":   path,
		})
	}
}

// authMiddleware resolves the session token from the cookie, then the Authorization header
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.extractToken(c)
		if token == "" {
			s.respondError(c, errors.NewUnauthorizedError("authentication required"))
			c.Abort()
			return
		}

		principal, err := s.employees.ValidateToken(c.Request.Context(), token)
		if err != nil {
			s.respondError(c, err)
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// requireRoles rejects principals that hold none of roles
func (s *Server) requireRoles(roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := employees.RequireRole(currentPrincipal(c), roles...); err != nil {
			s.respondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(s.config.Auth.CookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func currentPrincipal(c *gin.Context) *types.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*types.Principal)
	return p
}
