// Package employees provides employee records, authentication and role checks
// for the HR backend.
package employees

import (
	"time"

	"gorm.io/gorm"

	"github.com/Xinye0723/HrBackend/pkg/types"
)

// Employee is the employees table row
type Employee struct {
	EmployeeID   string     `gorm:"primaryKey;size:20" json:"employeeId"`
	FullName     string     `gorm:"size:50;not null" json:"fullName"`
	EnglishName  string     `gorm:"size:50" json:"englishName,omitempty"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Department   string     `gorm:"size:50" json:"department,omitempty"`
	Position     string     `gorm:"size:50" json:"position,omitempty"`
	Phone        string     `gorm:"size:30" json:"phone,omitempty"`
	PasswordHash string     `gorm:"not null" json:"-"` // never returned in JSON
	Role         types.Role `gorm:"size:20;not null;default:'User'" json:"role"`
	IsActive     bool       `gorm:"not null;default:true" json:"isActive"`
	OnboardDate  *time.Time `json:"onboardDate,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"createdAt"`
}

// BeforeCreate hook for Employee model
func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Role == "" {
		e.Role = types.RoleUser
	}
	return nil
}

// ToType converts the row into the API representation
func (e *Employee) ToType() *types.Employee {
	return &types.Employee{
		EmployeeID:  e.EmployeeID,
		FullName:    e.FullName,
		EnglishName: e.EnglishName,
		Email:       e.Email,
		Department:  e.Department,
		Position:    e.Position,
		Phone:       e.Phone,
		Role:        e.Role,
		IsActive:    e.IsActive,
		OnboardDate: e.OnboardDate,
		CreatedAt:   e.CreatedAt,
	}
}
