// Package types defines the core types shared across the HR backend
package types

import (
	"time"
)

// Unit represents one organizational unit (department, team) in the hierarchy
type Unit struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ParentID  *int64 `json:"parentId"`
	Order     int    `json:"order"`
	ManagerID *int64 `json:"managerId"`
}

// IsRoot reports whether the unit sits in the root sibling group
func (u Unit) IsRoot() bool {
	return u.ParentID == nil
}

// TreeNode is a unit with its children attached, ordered by Order ascending.
// Tree nodes are rebuilt on every read and never cached.
type TreeNode struct {
	Unit
	Children []*TreeNode `json:"children"`
}

// Placement is one tuple of a batch reorder: the unit, its parent and its order
// after the operation.
type Placement struct {
	ID       int64  `json:"id"`
	ParentID *int64 `json:"parentId"`
	Order    int    `json:"order"`
}

// CreateUnitParams holds the input of a unit creation
type CreateUnitParams struct {
	Name      string `json:"name" validate:"required"`
	ParentID  *int64 `json:"parentId,omitempty"`
	ManagerID *int64 `json:"managerId,omitempty"`
	// Position inserts the unit at the given sibling index instead of appending it.
	Position *int `json:"position,omitempty"`
}

// SameParent reports whether two optional parent references point at the same sibling group
func SameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Int64Ptr returns a pointer to v
func Int64Ptr(v int64) *int64 {
	return &v
}

// Role represents the role claim carried by an authenticated principal
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleHR    Role = "HR"
	RoleUser  Role = "User"
)

// IsValid checks if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleUser:
		return true
	default:
		return false
	}
}

// Principal is the authenticated caller extracted from a session token
type Principal struct {
	EmployeeID string    `json:"employeeId"`
	FullName   string    `json:"fullName"`
	Role       Role      `json:"role"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Employee represents an employee record as exposed by the API
type Employee struct {
	EmployeeID  string     `json:"employeeId"`
	FullName    string     `json:"fullName"`
	EnglishName string     `json:"englishName,omitempty"`
	Email       string     `json:"email"`
	Department  string     `json:"department,omitempty"`
	Position    string     `json:"position,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Role        Role       `json:"role"`
	IsActive    bool       `json:"isActive"`
	OnboardDate *time.Time `json:"onboardDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreateEmployeeParams holds the input of an employee creation
type CreateEmployeeParams struct {
	EmployeeID  string     `json:"employeeId" validate:"required,max=20"`
	FullName    string     `json:"fullName" validate:"required,max=50"`
	EnglishName string     `json:"englishName,omitempty" validate:"max=50"`
	Email       string     `json:"email" validate:"required,email,max=100"`
	Department  string     `json:"department,omitempty" validate:"max=50"`
	Position    string     `json:"position,omitempty" validate:"max=50"`
	Phone       string     `json:"phone,omitempty" validate:"max=30"`
	OnboardDate *time.Time `json:"onboardDate,omitempty"`
	Role        Role       `json:"role,omitempty"`
}

// ErrorType represents the category of an error
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeInvalidStructure ErrorType = "invalid_structure"
	ErrorTypeConflict         ErrorType = "conflict"
	ErrorTypeUnauthorized     ErrorType = "unauthorized"
	ErrorTypeInternal         ErrorType = "internal"
)
