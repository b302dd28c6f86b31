package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// getOpenAPISpec serves the OpenAPI 3.1.0 description of the HR API
func (s *Server) getOpenAPISpec(c *gin.Context) {
	c.JSON(http.StatusOK, s.openAPIDocument())
}

func (s *Server) openAPIDocument() map[string]interface{} {
	return map[string]interface{}{
		"openapi": "3.1.0",
		"info": map[string]interface{}{
			"title":       "HR Backend API",
			"description": "Employees, authentication and the organizational unit hierarchy.",
			"version":     s.version,
		},
		"servers": []map[string]interface{}{
			{"url": "http://" + s.config.Server.Address(), "description": "Configured server"},
		},
		"paths":      s.getOpenAPIPaths(),
		"components": s.getOpenAPIComponents(),
	}
}

// getOpenAPIPaths returns all API paths for OpenAPI spec
func (s *Server) getOpenAPIPaths() map[string]interface{} {
	idParam := []map[string]interface{}{
		{"name": "id", "in": "path", "required": true, "schema": map[string]interface{}{"type": "integer", "format": "int64"}},
	}
	secured := []map[string]interface{}{{"cookieAuth": []string{}}, {"bearerAuth": []string{}}}

	return map[string]interface{}{
		"/health": map[string]interface{}{
			"get": operation("Health Check", "Health", nil, nil, "HealthResponse", "503"),
		},
		"/api/auth/login": map[string]interface{}{
			"post": operation("Log in and receive the session cookie", "Auth", nil, ref("LoginRequest"), "LoginResult", "400", "401", "403"),
		},
		"/api/auth/logout": map[string]interface{}{
			"post": operation("Clear the session cookie", "Auth", nil, nil, "SimpleResponse"),
		},
		"/api/auth/change-password": map[string]interface{}{
			"post": withSecurity(operation("Change the caller's password", "Auth", nil, ref("ChangePasswordRequest"), "SimpleResponse", "400", "401", "404"), secured),
		},
		"/api/employees/me": map[string]interface{}{
			"get": withSecurity(operation("Get the caller's employee record", "Employees", nil, nil, "EmployeeResponse", "401"), secured),
		},
		"/api/employees": map[string]interface{}{
			"get":  withSecurity(operation("List employees", "Employees", nil, nil, "EmployeeListResponse", "401"), secured),
			"post": withSecurity(operation("Create an employee", "Employees", nil, ref("CreateEmployeeRequest"), "EmployeeResponse", "400", "401", "403", "409"), secured),
		},
		"/api/departments": map[string]interface{}{
			"get":  operation("Get the department tree", "Departments", nil, nil, "TreeResponse"),
			"post": withSecurity(operation("Create a department", "Departments", nil, ref("CreateDepartmentRequest"), "UnitResponse", "400", "401", "403", "404"), secured),
		},
		"/api/departments/{id}": map[string]interface{}{
			"get":    operation("Get a department", "Departments", idParam, nil, "UnitResponse", "400", "404"),
			"put":    withSecurity(operation("Rename a department or change its manager", "Departments", idParam, ref("UpdateDepartmentRequest"), "UnitResponse", "400", "401", "403", "404"), secured),
			"delete": withSecurity(operation("Delete a childless department", "Departments", idParam, nil, "SimpleResponse", "401", "403", "404", "409"), secured),
		},
		"/api/departments/{id}/move": map[string]interface{}{
			"put": withSecurity(operation("Move a department to a new parent and position", "Departments", idParam, ref("MoveDepartmentRequest"), "UnitResponse", "400", "401", "403", "404", "409", "422"), secured),
		},
		"/api/departments/normalize": map[string]interface{}{
			"post": withSecurity(operation("Renumber every sibling group", "Departments", nil, nil, "NormalizeResponse", "401", "403"), secured),
		},
	}
}

// getOpenAPIComponents returns the schemas referenced by the paths
func (s *Server) getOpenAPIComponents() map[string]interface{} {
	str := map[string]interface{}{"type": "string"}
	integer := map[string]interface{}{"type": "integer", "format": "int64"}
	nullableInt := map[string]interface{}{"type": []string{"integer", "null"}, "format": "int64"}

	unit := object(map[string]interface{}{
		"id": integer, "name": str, "parentId": nullableInt, "order": integer, "managerId": nullableInt,
	}, "id", "name", "order")
	treeNode := object(map[string]interface{}{
		"id": integer, "name": str, "parentId": nullableInt, "order": integer, "managerId": nullableInt,
		"children": map[string]interface{}{"type": "array", "items": ref("TreeNode")},
	}, "id", "name", "order", "children")
	employee := object(map[string]interface{}{
		"employeeId": str, "fullName": str, "englishName": str, "email": str, "department": str,
		"position": str, "phone": str, "role": str, "isActive": map[string]interface{}{"type": "boolean"},
		"onboardDate": map[string]interface{}{"type": "string", "format": "date-time"},
	}, "employeeId", "fullName", "email")

	return map[string]interface{}{
		"securitySchemes": map[string]interface{}{
			"cookieAuth": map[string]interface{}{"type": "apiKey", "in": "cookie", "name": s.config.Auth.CookieName},
			"bearerAuth": map[string]interface{}{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
		},
		"schemas": map[string]interface{}{
			"Unit":     unit,
			"TreeNode": treeNode,
			"Employee": employee,
			"LoginRequest": object(map[string]interface{}{"employeeId": str, "password": str}, "employeeId", "password"),
			"ChangePasswordRequest": object(map[string]interface{}{"currentPassword": str, "newPassword": str},
				"currentPassword", "newPassword"),
			"CreateEmployeeRequest": object(map[string]interface{}{
				"employeeId": str, "fullName": str, "englishName": str, "email": str, "department": str,
				"position": str, "phone": str, "role": str,
				"onboardDate": map[string]interface{}{"type": "string", "format": "date-time"},
			}, "employeeId", "fullName", "email"),
			"CreateDepartmentRequest": object(map[string]interface{}{
				"name": str, "parentId": nullableInt, "managerId": nullableInt, "position": integer,
			}, "name"),
			"UpdateDepartmentRequest": object(map[string]interface{}{"name": str, "managerId": nullableInt}, "name"),
			"MoveDepartmentRequest":   object(map[string]interface{}{"newParentId": nullableInt, "newOrder": integer}),
			"HealthResponse": object(map[string]interface{}{
				"status": str, "timestamp": str, "version": str, "uptime": str,
				"checks": map[string]interface{}{"type": "object", "additionalProperties": str},
			}, "status"),
			"ErrorResponse": object(map[string]interface{}{
				"code": integer, "error": str, "message": str, "request_id": str,
				"retryable": map[string]interface{}{"type": "boolean"},
				"details":   map[string]interface{}{"type": "object"},
			}, "code", "error", "message"),
			"SimpleResponse":       envelope(nil),
			"LoginResult":          envelope(object(map[string]interface{}{"fullName": str, "role": str, "token": str, "expiresAt": str})),
			"EmployeeResponse":     envelope(ref("Employee")),
			"EmployeeListResponse": envelope(map[string]interface{}{"type": "array", "items": ref("Employee")}),
			"UnitResponse":         envelope(ref("Unit")),
			"TreeResponse":         envelope(map[string]interface{}{"type": "array", "items": ref("TreeNode")}),
			"NormalizeResponse":    envelope(object(map[string]interface{}{"changed": integer}, "changed")),
		},
	}
}

// OpenAPIJSON renders the API description as indented JSON
func (s *Server) OpenAPIJSON() ([]byte, error) {
	return json.MarshalIndent(s.openAPIDocument(), "", "  ")
}

func operation(summary, tag string, params []map[string]interface{}, body map[string]interface{}, okSchema string, errorCodes ...string) map[string]interface{} {
	responses := map[string]interface{}{
		"200": map[string]interface{}{
			"description": "Success",
			"content":     map[string]interface{}{"application/json": map[string]interface{}{"schema": ref(okSchema)}},
		},
	}
	for _, code := range errorCodes {
		responses[code] = map[string]interface{}{
			"description": http.StatusText(statusCode(code)),
			"content":     map[string]interface{}{"application/json": map[string]interface{}{"schema": ref("ErrorResponse")}},
		}
	}

	op := map[string]interface{}{"summary": summary, "tags": []string{tag}, "responses": responses}
	if params != nil {
		op["parameters"] = params
	}
	if body != nil {
		op["requestBody"] = map[string]interface{}{
			"required": true,
			"content":  map[string]interface{}{"application/json": map[string]interface{}{"schema": body}},
		}
	}
	return op
}

func withSecurity(op map[string]interface{}, security []map[string]interface{}) map[string]interface{} {
	op["security"] = security
	return op
}

func ref(name string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/components/schemas/" + name}
}

func object(props map[string]interface{}, required ...string) map[string]interface{} {
	o := map[string]interface{}{"type": "object", "properties": props}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

func envelope(data map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"code":    map[string]interface{}{"type": "integer"},
		"message": map[string]interface{}{"type": "string"},
	}
	if data != nil {
		props["data"] = data
	}
	return object(props, "code", "message")
}

func statusCode(code string) int {
	n, _ := strconv.Atoi(code)
	return n
}
