package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// login verifies credentials and sets the session cookie
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	token, principal, err := s.employees.Authenticate(c.Request.Context(), req.EmployeeID, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.setSessionCookie(c, token, int(s.config.Auth.TokenExpiry.Seconds()))
	respond(c, http.StatusOK, "Login successful", &LoginResponse{
		FullName:  principal.FullName,
		Role:      principal.Role,
		Token:     token,
		ExpiresAt: principal.ExpiresAt,
	})
}

// logout clears the session cookie
func (s *Server) logout(c *gin.Context) {
	s.setSessionCookie(c, "", -1)
	respond[interface{}](c, http.StatusOK, "Logged out", nil)
}

func (s *Server) changePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !s.bindJSON(c, &req) {
		return
	}

	principal := currentPrincipal(c)
	if err := s.employees.ChangePassword(c.Request.Context(), principal.EmployeeID, req.CurrentPassword, req.NewPassword); err != nil {
		s.respondError(c, err)
		return
	}
	respond[interface{}](c, http.StatusOK, "Password changed", nil)
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(s.config.Auth.CookieName, value, maxAge, "/", "", s.config.Auth.CookieSecure, true)
}
