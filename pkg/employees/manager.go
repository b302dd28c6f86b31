package employees

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/Xinye0723/HrBackend/pkg/config"
	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/interfaces"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

// Metric names recorded by the manager
const (
	MetricLogins          = "auth_logins_total"
	MetricEmployeeCreated = "employees_created_total"
)

// Manager coordinates employee records and session authentication
type Manager struct {
	repository        *Repository
	tokens            *TokenIssuer
	validate          *validator.Validate
	passwordMinLength int
	bcryptCost        int
	logger            interfaces.Logger
	metrics           interfaces.Metrics
}

var _ interfaces.EmployeeService = (*Manager)(nil)

// Option customises a Manager
type Option func(*Manager)

// WithBcryptCost overrides the bcrypt work factor
func WithBcryptCost(cost int) Option {
	return func(m *Manager) { m.bcryptCost = cost }
}

// NewManager creates a new employee manager
func NewManager(cfg config.AuthConfig, repository *Repository, logger interfaces.Logger, metrics interfaces.Metrics, opts ...Option) *Manager {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	m := &Manager{
		repository:        repository,
		tokens:            NewTokenIssuer(cfg.JWTSecret, cfg.TokenExpiry),
		validate:          v,
		passwordMinLength: cfg.PasswordMinLength,
		bcryptCost:        bcrypt.DefaultCost,
		logger:            logger.WithFields(map[string]interface{}{"component": "employees"}),
		metrics:           metrics,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Authenticate checks credentials and issues a session token
func (m *Manager) Authenticate(ctx context.Context, employeeID, password string) (string, *types.Principal, error) {
	emp, err := m.repository.GetByID(ctx, employeeID)
	if err != nil {
		return "", nil, err
	}
	if emp == nil || !VerifyPassword(password, emp.PasswordHash) {
		m.recordLogin("invalid_credentials")
		m.logger.Warn("Login rejected", map[string]interface{}{"employee_id": employeeID})
		return "", nil, errors.NewUnauthorizedError("invalid employee id or password")
	}
	if !emp.IsActive {
		m.recordLogin("disabled")
		m.logger.Warn("Login rejected for disabled account", map[string]interface{}{"employee_id": employeeID})
		return "", nil, errors.NewForbiddenError("account disabled")
	}

	token, principal, err := m.tokens.Issue(emp)
	if err != nil {
		return "", nil, errors.NewInternalErrorWithCause("failed to issue token", err)
	}
	m.recordLogin("ok")
	m.logger.Info("Employee logged in", map[string]interface{}{"employee_id": emp.EmployeeID, "role": string(emp.Role)})
	return token, principal, nil
}

// ValidateToken parses a session token and confirms the employee is still active
func (m *Manager) ValidateToken(ctx context.Context, token string) (*types.Principal, error) {
	principal, err := m.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	emp, err := m.repository.GetByID(ctx, principal.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil || !emp.IsActive {
		return nil, errors.NewUnauthorizedError("employee no longer active")
	}
	principal.Role = emp.Role
	principal.FullName = emp.FullName
	return principal, nil
}

// ChangePassword replaces the password after verifying the current one
func (m *Manager) ChangePassword(ctx context.Context, employeeID, current, newPassword string) error {
	emp, err := m.repository.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if emp == nil {
		return errors.NewNotFoundError("employee")
	}
	if !VerifyPassword(current, emp.PasswordHash) {
		return errors.NewValidationError("current password is incorrect")
	}
	if err := ValidatePassword(newPassword, m.passwordMinLength); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword, m.bcryptCost)
	if err != nil {
		return errors.NewInternalErrorWithCause("failed to hash password", err)
	}
	if err := m.repository.UpdatePassword(ctx, employeeID, hash); err != nil {
		return err
	}

	m.logger.Info("Password changed", map[string]interface{}{"employee_id": employeeID})
	return nil
}

// GetEmployee returns one employee
func (m *Manager) GetEmployee(ctx context.Context, employeeID string) (*types.Employee, error) {
	emp, err := m.repository.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, errors.NewNotFoundError("employee").WithDetail("employee_id", employeeID)
	}
	return emp.ToType(), nil
}

// ListEmployees returns every employee
func (m *Manager) ListEmployees(ctx context.Context) ([]*types.Employee, error) {
	rows, err := m.repository.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Employee, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToType())
	}
	return out, nil
}

// CreateEmployee registers a new employee. The initial password is the employee id.
func (m *Manager) CreateEmployee(ctx context.Context, params *types.CreateEmployeeParams) (*types.Employee, error) {
	if params == nil {
		return nil, errors.NewInvalidInputError("employee payload is required")
	}
	params.EmployeeID = strings.TrimSpace(params.EmployeeID)
	params.Email = strings.TrimSpace(params.Email)
	if err := m.validateParams(params); err != nil {
		return nil, err
	}

	role := params.Role
	if role == "" {
		role = types.RoleUser
	}
	if !role.IsValid() {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown role %q", role)).WithDetail("field", "role")
	}

	existing, err := m.repository.GetByID(ctx, params.EmployeeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.NewAlreadyExistsError("employee").WithDetail("employee_id", params.EmployeeID)
	}
	existing, err = m.repository.GetByEmail(ctx, params.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.NewValidationError("email already in use").WithDetail("field", "email")
	}

	hash, err := HashPassword(params.EmployeeID, m.bcryptCost)
	if err != nil {
		return nil, errors.NewInternalErrorWithCause("failed to hash password", err)
	}

	emp := &Employee{
		EmployeeID:   params.EmployeeID,
		FullName:     params.FullName,
		EnglishName:  params.EnglishName,
		Email:        params.Email,
		Department:   params.Department,
		Position:     params.Position,
		Phone:        params.Phone,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		OnboardDate:  params.OnboardDate,
		CreatedAt:    time.Now().UTC(),
	}
	if err := m.repository.Create(ctx, emp); err != nil {
		return nil, err
	}

	m.metrics.Counter(MetricEmployeeCreated, 1, map[string]string{"role": string(role)})
	m.logger.Info("Employee created", map[string]interface{}{"employee_id": emp.EmployeeID, "role": string(role)})
	return emp.ToType(), nil
}

// EnsureAdmin creates an active admin account when employeeID is unknown.
// It reports whether an account was created.
func (m *Manager) EnsureAdmin(ctx context.Context, employeeID, password string) (bool, error) {
	if employeeID == "" {
		return false, nil
	}
	existing, err := m.repository.GetByID(ctx, employeeID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if err := ValidatePassword(password, m.passwordMinLength); err != nil {
		return false, err
	}

	hash, err := HashPassword(password, m.bcryptCost)
	if err != nil {
		return false, errors.NewInternalErrorWithCause("failed to hash password", err)
	}
	emp := &Employee{
		EmployeeID:   employeeID,
		FullName:     "Administrator",
		Email:        strings.ToLower(employeeID) + "@localhost",
		PasswordHash: hash,
		Role:         types.RoleAdmin,
		IsActive:     true,
	}
	if err := m.repository.Create(ctx, emp); err != nil {
		return false, err
	}
	m.logger.Info("Bootstrap admin created", map[string]interface{}{"employee_id": employeeID})
	return true, nil
}

// HealthCheck checks the backing database
func (m *Manager) HealthCheck(ctx context.Context) error {
	return m.repository.HealthCheck(ctx)
}

func (m *Manager) validateParams(params *types.CreateEmployeeParams) error {
	err := m.validate.Struct(params)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.NewInvalidInputError(err.Error())
	}

	list := errors.NewErrorList()
	for _, fe := range verrs {
		list.Add(fieldError(fe))
	}
	return list.ToError()
}

func fieldError(fe validator.FieldError) *errors.HRError {
	if fe.Tag() == "required" {
		return errors.NewMissingFieldError(fe.Field())
	}
	msg := fmt.Sprintf("field %s failed %s", fe.Field(), fe.Tag())
	if fe.Param() != "" {
		msg += "=" + fe.Param()
	}
	return errors.NewInvalidInputError(msg).WithDetail("field", fe.Field())
}

func (m *Manager) recordLogin(result string) {
	m.metrics.Counter(MetricLogins, 1, map[string]string{"result": result})
}
