package api

import (
	"time"

	"github.com/Xinye0723/HrBackend/pkg/types"
)

// BaseResponse represents the base structure for all API responses
type BaseResponse[T any] struct {
	Code    int    `json:"code" example:"200"`
	Message string `json:"message" example:"Operation successful"`
	Data    *T     `json:"data,omitempty"`
}

// SimpleResponse for operations without data return
type SimpleResponse = BaseResponse[interface{}]

// LoginRequest represents a login request
type LoginRequest struct {
	EmployeeID string `json:"employeeId" binding:"required" example:"E001"`
	Password   string `json:"password" binding:"required"`
}

// LoginResponse is returned on successful login. The token is also set as a cookie.
type LoginResponse struct {
	FullName  string     `json:"fullName"`
	Role      types.Role `json:"role"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// CreateDepartmentRequest represents a request to create a unit
type CreateDepartmentRequest struct {
	Name      string `json:"name" binding:"required" example:"Engineering"`
	ParentID  *int64 `json:"parentId,omitempty" example:"1"`
	ManagerID *int64 `json:"managerId,omitempty"`
	Position  *int   `json:"position,omitempty"`
}

// UpdateDepartmentRequest represents a rename / manager change
type UpdateDepartmentRequest struct {
	Name      string `json:"name" binding:"required"`
	ManagerID *int64 `json:"managerId,omitempty"`
}

// MoveDepartmentRequest places a unit under NewParentID at NewOrder.
// A null NewParentID moves the unit to the root level.
type MoveDepartmentRequest struct {
	NewParentID *int64 `json:"newParentId"`
	NewOrder    int    `json:"newOrder"`
}

// NormalizeResult reports how many units were renumbered
type NormalizeResult struct {
	Changed int `json:"changed"`
}

// Response types
type TreeResponse = BaseResponse[[]*types.TreeNode]
type UnitResponse = BaseResponse[types.Unit]
type EmployeeResponse = BaseResponse[types.Employee]
type EmployeeListResponse = BaseResponse[[]*types.Employee]
type LoginResult = BaseResponse[LoginResponse]
type NormalizeResponse = BaseResponse[NormalizeResult]

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Code      int                    `json:"code"`
	Error     string                 `json:"error"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Retryable bool                   `json:"retryable,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}
