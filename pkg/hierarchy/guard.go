package hierarchy

import (
	"context"

	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

// UnitReader is the read side of a transaction used by the guard
type UnitReader interface {
	GetUnit(ctx context.Context, id int64) (*types.Unit, error)
	CountChildren(ctx context.Context, id int64) (int, error)
}

// Guard validates structural invariants before a mutation is applied.
// It only reads; a failed check leaves the store untouched.
type Guard struct {
	reader UnitReader
}

// NewGuard creates a guard reading through r
func NewGuard(r UnitReader) *Guard {
	return &Guard{reader: r}
}

// CheckCreate requires the parent, when given, to exist
func (g *Guard) CheckCreate(ctx context.Context, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	_, err := g.reader.GetUnit(ctx, *parentID)
	return err
}

// CheckUpdate requires the unit to exist and returns it
func (g *Guard) CheckUpdate(ctx context.Context, id int64) (*types.Unit, error) {
	return g.reader.GetUnit(ctx, id)
}

// CheckMove requires the unit and the new parent to exist, and the new parent to be
// neither the unit itself nor one of its descendants. It returns the unit.
func (g *Guard) CheckMove(ctx context.Context, id int64, newParentID *int64) (*types.Unit, error) {
	unit, err := g.reader.GetUnit(ctx, id)
	if err != nil {
		return nil, err
	}
	if newParentID == nil {
		return unit, nil
	}
	if *newParentID == id {
		return nil, errors.NewSelfParentError(id)
	}

	parent, err := g.reader.GetUnit(ctx, *newParentID)
	if err != nil {
		return nil, err
	}

	// Walk up from the new parent. Reaching the unit means the move would close a
	// cycle; revisiting an id means the stored links already form one.
	visited := map[int64]bool{}
	for cur := parent; ; {
		if cur.ID == id || visited[cur.ID] {
			return nil, errors.NewCycleError(id, *newParentID)
		}
		visited[cur.ID] = true
		if cur.ParentID == nil {
			break
		}

		next, err := g.reader.GetUnit(ctx, *cur.ParentID)
		if errors.IsNotFound(err) {
			// dangling parent, the chain ends at an implicit root
			break
		}
		if err != nil {
			return nil, err
		}
		cur = next
	}

	return unit, nil
}

// CheckDelete requires the unit to exist and have no children. It returns the unit.
func (g *Guard) CheckDelete(ctx context.Context, id int64) (*types.Unit, error) {
	unit, err := g.reader.GetUnit(ctx, id)
	if err != nil {
		return nil, err
	}

	children, err := g.reader.CountChildren(ctx, id)
	if err != nil {
		return nil, err
	}
	if children > 0 {
		return nil, errors.NewHasChildrenError(id, children)
	}
	return unit, nil
}
