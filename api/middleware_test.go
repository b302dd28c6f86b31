package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Xinye0723/HrBackend/pkg/config"
	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/hierarchy"
	"github.com/Xinye0723/HrBackend/pkg/logger"
	"github.com/Xinye0723/HrBackend/pkg/metrics"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

func TestRequestIDMiddleware(t *testing.T) {
	server, _, _ := setupTestServer(t)

	t.Run("generates an id", func(t *testing.T) {
		w := performRequest(server.router, "GET", "/api/departments", nil, "")
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("propagates the caller's id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/departments", nil)
		req.Header.Set("X-Request-ID", "req-123")
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)
		assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	})
}

func TestAuthMiddleware(t *testing.T) {
	server, emps, _ := setupTestServer(t)
	emps.On("ValidateToken", mock.Anything, "expired").Return(nil, errors.NewInvalidTokenError(nil))
	emps.On("GetEmployee", mock.Anything, mock.Anything).Return(&types.Employee{EmployeeID: "x"}, nil).Maybe()

	tests := []struct {
		name     string
		cookie   string
		header   string
		expected int
	}{
		{"no credentials", "", "", http.StatusUnauthorized},
		{"bearer header", "", "Bearer " + userToken, http.StatusOK},
		{"lowercase scheme", "", "bearer " + userToken, http.StatusOK},
		{"cookie", userToken, "", http.StatusOK},
		{"cookie wins over header", userToken, "Bearer expired", http.StatusOK},
		{"invalid token", "expired", "", http.StatusUnauthorized},
		{"non bearer scheme", "", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/employees/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			server.router.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	server, _, _ := setupTestServer(t)
	server.router.GET("/admin-only", server.authMiddleware(), server.requireRoles(types.RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, currentPrincipal(c).EmployeeID)
	})

	w := performRequest(server.router, "GET", "/admin-only", nil, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A001", w.Body.String())

	for _, token := range []string{hrToken, userToken} {
		w = performRequest(server.router, "GET", "/admin-only", nil, token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	server, _, _ := setupTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/departments", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:4200", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest("GET", "/api/departments", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMetricsMiddleware(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Mode = gin.TestMode
	prom := metrics.NewPrometheusMetrics("hr")
	engine := hierarchy.NewEngine(hierarchy.NewMemoryStore(testUnits()...), logger.NewTestLogger(), prom)

	server := NewServer(cfg, engine, &MockEmployeeService{}, logger.NewTestLogger(), prom)
	server.SetMetricsHandler(prom.Handler())

	performRequest(server.router, "GET", "/api/departments", nil, "")
	performRequest(server.router, "GET", "/api/departments/77", nil, "")

	w := performRequest(server.router, "GET", "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `hr_http_requests_total{method="GET",path="/api/departments",status="200"} 1`)
	assert.Contains(t, body, `hr_http_requests_total{method="GET",path="/api/departments/:id",status="404"} 1`)
	assert.Contains(t, body, `hr_hierarchy_operations_total{op="list_tree",result="ok"} 1`)
	assert.True(t, strings.Contains(body, "hr_http_request_duration_seconds_bucket"))
}

func TestMetricsEndpointDisabled(t *testing.T) {
	server, _, _ := setupTestServer(t)
	w := performRequest(server.router, "GET", "/metrics", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
