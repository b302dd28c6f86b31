// Package interfaces defines the core interfaces for HR backend components
package interfaces

import (
	"context"

	"github.com/Xinye0723/HrBackend/pkg/types"
)

// UnitStore defines the persistence contract of the organizational-unit hierarchy
type UnitStore interface {
	// ListUnits returns every unit sorted by (order, id)
	ListUnits(ctx context.Context) ([]types.Unit, error)

	// GetUnit returns one unit or a NotFound error
	GetUnit(ctx context.Context, id int64) (*types.Unit, error)

	// WithinTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back when fn returns an error or panics.
	WithinTx(ctx context.Context, fn func(tx UnitTx) error) error

	// Ping checks that the backing storage is reachable
	Ping(ctx context.Context) error

	// Close releases the storage resources
	Close() error
}

// UnitTx is the view of the unit table inside one transaction.
// All reads observe the same snapshot as the writes.
type UnitTx interface {
	// GetUnit returns one unit or a NotFound error
	GetUnit(ctx context.Context, id int64) (*types.Unit, error)

	// ListSiblings returns the units sharing parentID (nil for roots) sorted by (order, id)
	ListSiblings(ctx context.Context, parentID *int64) ([]types.Unit, error)

	// CountChildren returns the number of direct children of id
	CountChildren(ctx context.Context, id int64) (int, error)

	// ListUnits returns every unit sorted by (order, id)
	ListUnits(ctx context.Context) ([]types.Unit, error)

	// InsertUnit stores a new unit and assigns its id
	InsertUnit(ctx context.Context, unit *types.Unit) error

	// UpdateUnit persists the name and manager of an existing unit
	UpdateUnit(ctx context.Context, unit *types.Unit) error

	// ApplyPlacements writes parent and order for every tuple, all or nothing.
	// A tuple whose row no longer exists fails with ConcurrentModification.
	ApplyPlacements(ctx context.Context, placements []types.Placement) error

	// DeleteUnit removes one unit
	DeleteUnit(ctx context.Context, id int64) error
}

// OrgChart defines the operations exposed on the organizational hierarchy
type OrgChart interface {
	// ListTree returns the forest of units with children ordered by Order
	ListTree(ctx context.Context) ([]*types.TreeNode, error)

	// GetUnit returns one unit
	GetUnit(ctx context.Context, id int64) (*types.Unit, error)

	// CreateUnit appends a unit to its sibling group, or inserts it at Position
	CreateUnit(ctx context.Context, params types.CreateUnitParams) (*types.Unit, error)

	// RenameUnit changes the name and manager of a unit
	RenameUnit(ctx context.Context, id int64, name string, managerID *int64) error

	// MoveUnit places a unit under newParentID at newIndex
	MoveUnit(ctx context.Context, id int64, newParentID *int64, newIndex int) error

	// DeleteUnit removes a childless unit and compacts its siblings
	DeleteUnit(ctx context.Context, id int64) error

	// NormalizeOrders renumbers every sibling group and returns the number of rows changed
	NormalizeOrders(ctx context.Context) (int, error)
}

// EmployeeService defines authentication and employee management
type EmployeeService interface {
	// Authenticate verifies credentials and returns a signed session token
	Authenticate(ctx context.Context, employeeID, password string) (string, *types.Principal, error)

	// ValidateToken parses a session token into the calling principal
	ValidateToken(ctx context.Context, token string) (*types.Principal, error)

	// ChangePassword replaces the password after verifying the current one
	ChangePassword(ctx context.Context, employeeID, currentPassword, newPassword string) error

	// GetEmployee returns one employee
	GetEmployee(ctx context.Context, employeeID string) (*types.Employee, error)

	// ListEmployees returns every employee
	ListEmployees(ctx context.Context) ([]*types.Employee, error)

	// CreateEmployee stores a new employee with the default password
	CreateEmployee(ctx context.Context, params *types.CreateEmployeeParams) (*types.Employee, error)
}

// Logger defines the interface for logging
type Logger interface {
	// Debug logs debug level messages
	Debug(msg string, fields ...map[string]interface{})

	// Info logs info level messages
	Info(msg string, fields ...map[string]interface{})

	// Warn logs warning level messages
	Warn(msg string, fields ...map[string]interface{})

	// Error logs error level messages
	Error(msg string, err error, fields ...map[string]interface{})

	// Fatal logs fatal level messages and exits
	Fatal(msg string, err error, fields ...map[string]interface{})

	// WithFields returns a logger with additional fields
	WithFields(fields map[string]interface{}) Logger
}

// Metrics defines the interface for metrics collection
type Metrics interface {
	// Counter increments a counter metric
	Counter(name string, value float64, labels map[string]string)

	// Gauge sets a gauge metric
	Gauge(name string, value float64, labels map[string]string)

	// Histogram records a histogram metric
	Histogram(name string, value float64, labels map[string]string)

	// Timer records timing metrics
	Timer(name string, duration float64, labels map[string]string)
}
