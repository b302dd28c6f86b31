package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xinye0723/HrBackend/pkg/employees"
	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

// getCurrentEmployee returns the caller's own record
func (s *Server) getCurrentEmployee(c *gin.Context) {
	emp, err := s.employees.GetEmployee(c.Request.Context(), currentPrincipal(c).EmployeeID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Employee retrieved successfully", emp)
}

func (s *Server) listEmployees(c *gin.Context) {
	list, err := s.employees.ListEmployees(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Employees retrieved successfully", &list)
}

func (s *Server) createEmployee(c *gin.Context) {
	var req types.CreateEmployeeParams
	if !s.bindJSON(c, &req) {
		return
	}
	if req.Role != "" && !req.Role.IsValid() {
		s.respondError(c, errors.NewInvalidInputError(fmt.Sprintf("unknown role %q", req.Role)).WithDetail("field", "role"))
		return
	}
	if !employees.CanAssignRole(currentPrincipal(c), req.Role) {
		s.respondError(c, errors.NewForbiddenError("only administrators can assign elevated roles"))
		return
	}

	emp, err := s.employees.CreateEmployee(c.Request.Context(), &req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Employee created successfully", emp)
}
