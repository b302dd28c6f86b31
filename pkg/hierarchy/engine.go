package hierarchy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/interfaces"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

// Metric names recorded by the engine
const (
	MetricOperations     = "hierarchy_operations_total"
	MetricOperationTime  = "hierarchy_operation_seconds"
	MetricDanglingParent = "hierarchy_dangling_parent_total"
)

// MaxNameLength bounds unit names
const MaxNameLength = 100

// Engine implements interfaces.OrgChart on top of a UnitStore. It keeps no state
// between calls: reads rebuild the tree and every mutation recomputes orders from
// the sibling groups it reads inside its own transaction.
type Engine struct {
	store   interfaces.UnitStore
	logger  interfaces.Logger
	metrics interfaces.Metrics
}

var _ interfaces.OrgChart = (*Engine)(nil)

// NewEngine creates a new hierarchy engine
func NewEngine(store interfaces.UnitStore, logger interfaces.Logger, metrics interfaces.Metrics) *Engine {
	return &Engine{
		store:   store,
		logger:  logger.WithFields(map[string]interface{}{"component": "hierarchy"}),
		metrics: metrics,
	}
}

// ListTree returns the forest of units
func (e *Engine) ListTree(ctx context.Context) (roots []*types.TreeNode, err error) {
	defer e.observe("list_tree", time.Now(), &err)

	units, err := e.store.ListUnits(ctx)
	if err != nil {
		return nil, err
	}

	forest := BuildForest(units)
	if len(forest.Dangling) > 0 {
		e.metrics.Counter(MetricDanglingParent, float64(len(forest.Dangling)), nil)
		e.logger.Warn("Units reference missing parents, returned as roots", map[string]interface{}{
			"unit_ids": forest.Dangling,
		})
	}
	if len(forest.Unreachable) > 0 {
		e.logger.Warn("Units sit on a parent cycle and are omitted from the tree", map[string]interface{}{
			"unit_ids": forest.Unreachable,
		})
	}
	return forest.Roots, nil
}

// GetUnit returns one unit
func (e *Engine) GetUnit(ctx context.Context, id int64) (unit *types.Unit, err error) {
	defer e.observe("get", time.Now(), &err)
	return e.store.GetUnit(ctx, id)
}

// CreateUnit appends a unit to its sibling group, or inserts it at Position
func (e *Engine) CreateUnit(ctx context.Context, params types.CreateUnitParams) (created *types.Unit, err error) {
	defer e.observe("create", time.Now(), &err)

	name, err := cleanName(params.Name)
	if err != nil {
		return nil, err
	}

	err = e.store.WithinTx(ctx, func(tx interfaces.UnitTx) error {
		if err := NewGuard(tx).CheckCreate(ctx, params.ParentID); err != nil {
			return err
		}

		group, err := tx.ListSiblings(ctx, params.ParentID)
		if err != nil {
			return err
		}
		base := Renumber(group)

		unit := types.Unit{Name: name, ParentID: params.ParentID, ManagerID: params.ManagerID}
		after := base
		if params.Position == nil {
			unit.Order = AppendIndex(base)
		} else {
			after = InsertIntoGroup(base, unit, *params.Position)
			unit.Order = orderOfNew(after)
		}

		if err := tx.InsertUnit(ctx, &unit); err != nil {
			return err
		}

		if err := tx.ApplyPlacements(ctx, Placements(group, withoutNew(after))); err != nil {
			return err
		}
		created = &unit
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Unit created", map[string]interface{}{
		"unit_id":   created.ID,
		"parent_id": ptrValue(created.ParentID),
		"order":     created.Order,
	})
	return created, nil
}

// RenameUnit changes the name and manager of a unit
func (e *Engine) RenameUnit(ctx context.Context, id int64, name string, managerID *int64) (err error) {
	defer e.observe("rename", time.Now(), &err)

	name, err = cleanName(name)
	if err != nil {
		return err
	}

	return e.store.WithinTx(ctx, func(tx interfaces.UnitTx) error {
		unit, err := NewGuard(tx).CheckUpdate(ctx, id)
		if err != nil {
			return err
		}
		unit.Name = name
		unit.ManagerID = managerID
		return tx.UpdateUnit(ctx, unit)
	})
}

// MoveUnit places a unit under newParentID at newIndex. A same-parent move is a
// single shift within the group; a cross-parent move closes the gap in the source
// group and opens a slot in the destination.
func (e *Engine) MoveUnit(ctx context.Context, id int64, newParentID *int64, newIndex int) (err error) {
	defer e.observe("move", time.Now(), &err)

	var changed int
	err = e.store.WithinTx(ctx, func(tx interfaces.UnitTx) error {
		unit, err := NewGuard(tx).CheckMove(ctx, id, newParentID)
		if err != nil {
			return err
		}

		var before, after []types.Unit
		if types.SameParent(unit.ParentID, newParentID) {
			group, err := tx.ListSiblings(ctx, unit.ParentID)
			if err != nil {
				return err
			}
			before = group
			after = Renumber(MoveWithinGroup(Renumber(group), id, newIndex))
		} else {
			src, err := tx.ListSiblings(ctx, unit.ParentID)
			if err != nil {
				return err
			}
			dst, err := tx.ListSiblings(ctx, newParentID)
			if err != nil {
				return err
			}

			moved := *unit
			moved.ParentID = newParentID
			before = append(append(before, src...), dst...)
			after = append(
				Renumber(RemoveFromGroup(Renumber(src), id)),
				Renumber(InsertIntoGroup(Renumber(dst), moved, newIndex))...,
			)
		}

		placements := Placements(before, after)
		changed = len(placements)
		if changed == 0 {
			return nil
		}
		return tx.ApplyPlacements(ctx, placements)
	})
	if err != nil {
		return err
	}

	e.logger.Info("Unit moved", map[string]interface{}{
		"unit_id":       id,
		"new_parent_id": ptrValue(newParentID),
		"new_index":     newIndex,
		"rows_changed":  changed,
	})
	return nil
}

// DeleteUnit removes a childless unit and shifts its later siblings down
func (e *Engine) DeleteUnit(ctx context.Context, id int64) (err error) {
	defer e.observe("delete", time.Now(), &err)

	err = e.store.WithinTx(ctx, func(tx interfaces.UnitTx) error {
		unit, err := NewGuard(tx).CheckDelete(ctx, id)
		if err != nil {
			return err
		}

		group, err := tx.ListSiblings(ctx, unit.ParentID)
		if err != nil {
			return err
		}
		if err := tx.DeleteUnit(ctx, id); err != nil {
			return err
		}

		after := Renumber(RemoveFromGroup(Renumber(group), id))
		return tx.ApplyPlacements(ctx, Placements(group, after))
	})
	if err != nil {
		return err
	}

	e.logger.Info("Unit deleted", map[string]interface{}{"unit_id": id})
	return nil
}

// NormalizeOrders renumbers every sibling group and returns the number of rows changed
func (e *Engine) NormalizeOrders(ctx context.Context) (changed int, err error) {
	defer e.observe("normalize", time.Now(), &err)

	err = e.store.WithinTx(ctx, func(tx interfaces.UnitTx) error {
		units, err := tx.ListUnits(ctx)
		if err != nil {
			return err
		}

		var placements []types.Placement
		for _, group := range GroupByParent(units) {
			placements = append(placements, Placements(group, Renumber(group))...)
		}
		changed = len(placements)
		if changed == 0 {
			return nil
		}
		return tx.ApplyPlacements(ctx, placements)
	})
	if err != nil {
		return 0, err
	}

	e.logger.Info("Unit orders normalized", map[string]interface{}{"rows_changed": changed})
	return changed, nil
}

// SeedUnits is the initial organization written by Seed
var SeedUnits = []struct {
	Name     string
	Children []string
}{
	{Name: "CEO Office", Children: []string{"HR Department", "Engineering"}},
}

// Seed writes SeedUnits when the unit table is empty and reports whether it did
func (e *Engine) Seed(ctx context.Context) (seeded bool, err error) {
	defer e.observe("seed", time.Now(), &err)

	err = e.store.WithinTx(ctx, func(tx interfaces.UnitTx) error {
		existing, err := tx.ListUnits(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		for i, root := range SeedUnits {
			parent := types.Unit{Name: root.Name, Order: i}
			if err := tx.InsertUnit(ctx, &parent); err != nil {
				return fmt.Errorf("seed %q: %w", root.Name, err)
			}
			for j, name := range root.Children {
				child := types.Unit{Name: name, ParentID: types.Int64Ptr(parent.ID), Order: j}
				if err := tx.InsertUnit(ctx, &child); err != nil {
					return fmt.Errorf("seed %q: %w", name, err)
				}
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if seeded {
		e.logger.Info("Seeded initial organization")
	}
	return seeded, nil
}

func (e *Engine) observe(op string, start time.Time, errp *error) {
	result := "ok"
	if err := *errp; err != nil {
		result = "error"
		if hrErr := errors.GetHRError(err); hrErr != nil {
			result = strings.ToLower(string(hrErr.Code))
		}
		if errors.IsRetryable(err) {
			e.logger.Warn("Hierarchy operation hit a concurrent modification", map[string]interface{}{"op": op})
		} else if !errors.IsHRError(err) {
			e.logger.Error("Hierarchy operation failed", err, map[string]interface{}{"op": op})
		}
	}

	e.metrics.Counter(MetricOperations, 1, map[string]string{"op": op, "result": result})
	e.metrics.Timer(MetricOperationTime, time.Since(start).Seconds(), map[string]string{"op": op})
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.NewMissingFieldError("name")
	}
	if len([]rune(name)) > MaxNameLength {
		return "", errors.NewInvalidInputError(fmt.Sprintf("name exceeds %d characters", MaxNameLength)).
			WithDetail("field", "name")
	}
	return name, nil
}

// the unit being created is the only one without an id yet
func orderOfNew(group []types.Unit) int {
	for _, u := range group {
		if u.ID == 0 {
			return u.Order
		}
	}
	return len(group)
}

func withoutNew(group []types.Unit) []types.Unit {
	out := make([]types.Unit, 0, len(group))
	for _, u := range group {
		if u.ID != 0 {
			out = append(out, u)
		}
	}
	return out
}

func ptrValue(p *int64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
