package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xinye0723/HrBackend/pkg/types"
)

// listDepartments returns the unit forest
func (s *Server) listDepartments(c *gin.Context) {
	tree, err := s.orgChart.ListTree(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Departments retrieved successfully", &tree)
}

func (s *Server) getDepartment(c *gin.Context) {
	id, valid := s.idParam(c)
	if !valid {
		return
	}

	unit, err := s.orgChart.GetUnit(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Department retrieved successfully", unit)
}

func (s *Server) createDepartment(c *gin.Context) {
	var req CreateDepartmentRequest
	if !s.bindJSON(c, &req) {
		return
	}

	unit, err := s.orgChart.CreateUnit(c.Request.Context(), types.CreateUnitParams{
		Name:      req.Name,
		ParentID:  req.ParentID,
		ManagerID: req.ManagerID,
		Position:  req.Position,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Department created successfully", unit)
}

func (s *Server) updateDepartment(c *gin.Context) {
	id, valid := s.idParam(c)
	if !valid {
		return
	}
	var req UpdateDepartmentRequest
	if !s.bindJSON(c, &req) {
		return
	}

	if err := s.orgChart.RenameUnit(c.Request.Context(), id, req.Name, req.ManagerID); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondUnit(c, id, "Department updated successfully")
}

func (s *Server) moveDepartment(c *gin.Context) {
	id, valid := s.idParam(c)
	if !valid {
		return
	}
	var req MoveDepartmentRequest
	if !s.bindJSON(c, &req) {
		return
	}

	if err := s.orgChart.MoveUnit(c.Request.Context(), id, req.NewParentID, req.NewOrder); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondUnit(c, id, "Department moved successfully")
}

func (s *Server) deleteDepartment(c *gin.Context) {
	id, valid := s.idParam(c)
	if !valid {
		return
	}

	if err := s.orgChart.DeleteUnit(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respond[interface{}](c, http.StatusOK, "Department deleted successfully", nil)
}

// normalizeDepartments renumbers every sibling group
func (s *Server) normalizeDepartments(c *gin.Context) {
	changed, err := s.orgChart.NormalizeOrders(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.logger.Info("Unit orders normalized", map[string]interface{}{
		"changed":     changed,
		"employee_id": currentPrincipal(c).EmployeeID,
	})
	respond(c, http.StatusOK, "Departments normalized", &NormalizeResult{Changed: changed})
}

// respondUnit returns the current state of a unit after a mutation
func (s *Server) respondUnit(c *gin.Context, id int64, message string) {
	unit, err := s.orgChart.GetUnit(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, message, unit)
}
