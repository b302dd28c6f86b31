package employees

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Xinye0723/HrBackend/pkg/config"
	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/logger"
	"github.com/Xinye0723/HrBackend/pkg/metrics"
	"github.com/Xinye0723/HrBackend/pkg/store"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

func setupTestManager(t *testing.T) (*Manager, *Repository) {
	t.Helper()
	db, err := store.Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "hr.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })

	repo := NewRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))

	auth := config.Default().Auth
	auth.JWTSecret = testSecret
	return NewManager(auth, repo, logger.NewTestLogger(), metrics.NewTestMetrics(), WithBcryptCost(bcrypt.MinCost)), repo
}

func newParams(id, email string) *types.CreateEmployeeParams {
	onboard := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &types.CreateEmployeeParams{
		EmployeeID:  id,
		FullName:    "Employee " + id,
		Email:       email,
		Department:  "Engineering",
		Position:    "Developer",
		OnboardDate: &onboard,
	}
}

func TestManager_CreateEmployee(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	emp, err := m.CreateEmployee(ctx, newParams("E001", "e001@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "E001", emp.EmployeeID)
	assert.Equal(t, types.RoleUser, emp.Role)
	assert.True(t, emp.IsActive)
	assert.False(t, emp.CreatedAt.IsZero())

	// the initial password is the employee id
	_, principal, err := m.Authenticate(ctx, "E001", "E001")
	require.NoError(t, err)
	assert.Equal(t, "Employee E001", principal.FullName)
}

func TestManager_CreateEmployee_Duplicates(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	_, err := m.CreateEmployee(ctx, newParams("E001", "e001@example.com"))
	require.NoError(t, err)

	_, err = m.CreateEmployee(ctx, newParams("E001", "other@example.com"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeAlreadyExists))

	_, err = m.CreateEmployee(ctx, newParams("E002", "e001@example.com"))
	require.Error(t, err)
	hrErr := errors.GetHRError(err)
	require.NotNil(t, hrErr)
	assert.Equal(t, types.ErrorTypeValidation, hrErr.Type)
	assert.Equal(t, "email", hrErr.Details["field"])
}

func TestManager_CreateEmployee_Validation(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(p *types.CreateEmployeeParams)
		code   errors.ErrorCode
		field  string
	}{
		{"missing id", func(p *types.CreateEmployeeParams) { p.EmployeeID = "  " }, errors.ErrCodeMissingField, "employeeId"},
		{"missing name", func(p *types.CreateEmployeeParams) { p.FullName = "" }, errors.ErrCodeMissingField, "fullName"},
		{"bad email", func(p *types.CreateEmployeeParams) { p.Email = "not-an-email" }, errors.ErrCodeInvalidInput, "email"},
		{"long id", func(p *types.CreateEmployeeParams) { p.EmployeeID = "E0123456789012345678901" }, errors.ErrCodeInvalidInput, "employeeId"},
		{"unknown role", func(p *types.CreateEmployeeParams) { p.Role = "Owner" }, errors.ErrCodeInvalidInput, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := newParams("E100", "e100@example.com")
			tt.mutate(params)
			_, err := m.CreateEmployee(ctx, params)
			require.Error(t, err)
			hrErr := errors.GetHRError(err)
			require.NotNil(t, hrErr)
			assert.Equal(t, tt.code, hrErr.Code)
			assert.Equal(t, tt.field, hrErr.Details["field"])
		})
	}

	_, err := m.CreateEmployee(ctx, nil)
	assert.Error(t, err)
}

func TestManager_CreateEmployee_ReportsEveryField(t *testing.T) {
	m, repo := setupTestManager(t)
	ctx := context.Background()

	params := newParams("", "not-an-email")
	params.Phone = "0123456789012345678901234567890123"
	_, err := m.CreateEmployee(ctx, params)
	require.Error(t, err)

	list := errors.GetErrorList(err)
	require.NotNil(t, list)
	require.Len(t, list.Errors, 3)
	assert.Equal(t, errors.ErrCodeMissingField, list.Errors[0].Code)
	assert.Equal(t, "employeeId", list.Errors[0].Details["field"])
	assert.Equal(t, "email", list.Errors[1].Details["field"])
	assert.Equal(t, "phone", list.Errors[2].Details["field"])

	// callers that look for a single error still see the first one
	assert.Equal(t, errors.ErrCodeMissingField, errors.GetHRError(err).Code)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestManager_Authenticate(t *testing.T) {
	m, repo := setupTestManager(t)
	ctx := context.Background()

	_, err := m.CreateEmployee(ctx, newParams("E001", "e001@example.com"))
	require.NoError(t, err)

	_, _, err = m.Authenticate(ctx, "E001", "wrong")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))

	_, _, err = m.Authenticate(ctx, "nobody", "nobody")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))

	token, principal, err := m.Authenticate(ctx, "E001", "E001")
	require.NoError(t, err)
	validated, err := m.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, principal.EmployeeID, validated.EmployeeID)

	require.NoError(t, repo.SetActive(ctx, "E001", false))
	_, _, err = m.Authenticate(ctx, "E001", "E001")
	assert.True(t, errors.HasCode(err, errors.ErrCodeForbidden))

	// tokens issued before the account was disabled stop working
	_, err = m.ValidateToken(ctx, token)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))
}

func TestManager_ChangePassword(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	_, err := m.CreateEmployee(ctx, newParams("E001", "e001@example.com"))
	require.NoError(t, err)

	err = m.ChangePassword(ctx, "E001", "wrong", "new-password")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	err = m.ChangePassword(ctx, "E001", "E001", "short")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	err = m.ChangePassword(ctx, "ghost", "x", "new-password")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, m.ChangePassword(ctx, "E001", "E001", "new-password"))
	_, _, err = m.Authenticate(ctx, "E001", "E001")
	assert.Error(t, err)
	_, _, err = m.Authenticate(ctx, "E001", "new-password")
	assert.NoError(t, err)
}

func TestManager_GetAndList(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	for _, id := range []string{"E002", "E001"} {
		_, err := m.CreateEmployee(ctx, newParams(id, id+"@example.com"))
		require.NoError(t, err)
	}

	emp, err := m.GetEmployee(ctx, "E002")
	require.NoError(t, err)
	assert.Equal(t, "Engineering", emp.Department)
	require.NotNil(t, emp.OnboardDate)
	assert.Equal(t, 2024, emp.OnboardDate.Year())

	_, err = m.GetEmployee(ctx, "E999")
	assert.True(t, errors.IsNotFound(err))

	list, err := m.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "E001", list[0].EmployeeID)
	assert.Equal(t, "E002", list[1].EmployeeID)
}

func TestManager_EnsureAdmin(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	created, err := m.EnsureAdmin(ctx, "", "whatever")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = m.EnsureAdmin(ctx, "admin", "short")
	assert.Error(t, err)

	created, err = m.EnsureAdmin(ctx, "admin", "admin-password")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.EnsureAdmin(ctx, "admin", "admin-password")
	require.NoError(t, err)
	assert.False(t, created)

	_, principal, err := m.Authenticate(ctx, "admin", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, principal.Role)
	assert.NoError(t, m.HealthCheck(ctx))
}
