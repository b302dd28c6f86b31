package employees

import (
	"fmt"

	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

// RequireRole fails with a forbidden error unless the principal holds one of roles.
// An empty role list admits any authenticated principal.
func RequireRole(p *types.Principal, roles ...types.Role) error {
	if p == nil {
		return errors.NewUnauthorizedError("authentication required")
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return errors.NewForbiddenError(fmt.Sprintf("role %s cannot perform this action", p.Role)).
		WithDetail("role", string(p.Role))
}

// CanAssignRole reports whether actor may create an employee holding target.
// Only admins hand out elevated roles.
func CanAssignRole(actor *types.Principal, target types.Role) bool {
	if target == "" || target == types.RoleUser {
		return true
	}
	return actor != nil && actor.Role == types.RoleAdmin && target.IsValid()
}
