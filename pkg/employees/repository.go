package employees

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/store"
)

// Repository provides data access for employees
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new employee repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the employees table
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&Employee{}); err != nil {
		return store.MapError("migrate employees", err)
	}
	return nil
}

// Create inserts a new employee
func (r *Repository) Create(ctx context.Context, emp *Employee) error {
	if err := r.db.WithContext(ctx).Create(emp).Error; err != nil {
		return store.MapError("create employee", err)
	}
	return nil
}

// GetByID retrieves an employee by employee id. A missing row returns nil, nil.
func (r *Repository) GetByID(ctx context.Context, employeeID string) (*Employee, error) {
	var emp Employee
	if err := r.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&emp).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, store.MapError("get employee", err)
	}
	return &emp, nil
}

// GetByEmail retrieves an employee by email. A missing row returns nil, nil.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Employee, error) {
	var emp Employee
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&emp).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, store.MapError("get employee by email", err)
	}
	return &emp, nil
}

// List returns every employee ordered by employee id
func (r *Repository) List(ctx context.Context) ([]Employee, error) {
	var out []Employee
	if err := r.db.WithContext(ctx).Order("employee_id ASC").Find(&out).Error; err != nil {
		return nil, store.MapError("list employees", err)
	}
	return out, nil
}

// UpdatePassword replaces the stored password hash
func (r *Repository) UpdatePassword(ctx context.Context, employeeID, hash string) error {
	res := r.db.WithContext(ctx).Model(&Employee{}).Where("employee_id = ?", employeeID).Update("password_hash", hash)
	if res.Error != nil {
		return store.MapError("update password", res.Error)
	}
	return nil
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return store.Ping(ctx, r.db)
}

// SetActive enables or disables an employee account
func (r *Repository) SetActive(ctx context.Context, employeeID string, active bool) error {
	res := r.db.WithContext(ctx).Model(&Employee{}).Where("employee_id = ?", employeeID).Update("is_active", active)
	if res.Error != nil {
		return store.MapError("set employee active", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NewNotFoundError("employee").WithDetail("employee_id", employeeID)
	}
	return nil
}
