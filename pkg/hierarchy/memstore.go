package hierarchy

import (
	"context"
	"sync"

	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/interfaces"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

// MemoryStore is an in-memory UnitStore. Transactions are serialized by a mutex and
// work on a copy of the arena that replaces the live one only on commit.
type MemoryStore struct {
	mu     sync.Mutex
	units  map[int64]types.Unit
	nextID int64
}

var _ interfaces.UnitStore = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding units as given, ids included
func NewMemoryStore(units ...types.Unit) *MemoryStore {
	s := &MemoryStore{units: make(map[int64]types.Unit, len(units)), nextID: 1}
	for _, u := range units {
		s.units[u.ID] = u
		if u.ID >= s.nextID {
			s.nextID = u.ID + 1
		}
	}
	return s
}

// ListUnits returns every unit sorted by (order, id)
func (s *MemoryStore) ListUnits(ctx context.Context) ([]types.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listArena(s.units, func(types.Unit) bool { return true }), nil
}

// GetUnit returns one unit
func (s *MemoryStore) GetUnit(ctx context.Context, id int64) (*types.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[id]
	if !ok {
		return nil, errors.NewUnitNotFoundError(id)
	}
	return &u, nil
}

// WithinTx runs fn against a copy of the arena and swaps it in when fn returns nil.
// An error or a panic leaves the live arena untouched.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx interfaces.UnitTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{units: make(map[int64]types.Unit, len(s.units)), nextID: s.nextID}
	for id, u := range s.units {
		tx.units[id] = u
	}

	if err := fn(tx); err != nil {
		return err
	}

	s.units = tx.units
	s.nextID = tx.nextID
	return nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

type memTx struct {
	units  map[int64]types.Unit
	nextID int64
}

func (t *memTx) GetUnit(ctx context.Context, id int64) (*types.Unit, error) {
	u, ok := t.units[id]
	if !ok {
		return nil, errors.NewUnitNotFoundError(id)
	}
	return &u, nil
}

func (t *memTx) ListSiblings(ctx context.Context, parentID *int64) ([]types.Unit, error) {
	return listArena(t.units, func(u types.Unit) bool { return types.SameParent(u.ParentID, parentID) }), nil
}

func (t *memTx) CountChildren(ctx context.Context, id int64) (int, error) {
	n := 0
	for _, u := range t.units {
		if u.ParentID != nil && *u.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (t *memTx) ListUnits(ctx context.Context) ([]types.Unit, error) {
	return listArena(t.units, func(types.Unit) bool { return true }), nil
}

func (t *memTx) InsertUnit(ctx context.Context, unit *types.Unit) error {
	unit.ID = t.nextID
	t.nextID++
	t.units[unit.ID] = *unit
	return nil
}

func (t *memTx) UpdateUnit(ctx context.Context, unit *types.Unit) error {
	cur, ok := t.units[unit.ID]
	if !ok {
		return errors.NewUnitNotFoundError(unit.ID)
	}
	cur.Name = unit.Name
	cur.ManagerID = unit.ManagerID
	t.units[unit.ID] = cur
	return nil
}

func (t *memTx) ApplyPlacements(ctx context.Context, placements []types.Placement) error {
	for _, p := range placements {
		if _, ok := t.units[p.ID]; !ok {
			return errors.NewConcurrentModificationError("unit vanished during reorder", nil).WithDetail("unit_id", p.ID)
		}
	}
	for _, p := range placements {
		u := t.units[p.ID]
		u.ParentID = p.ParentID
		u.Order = p.Order
		t.units[p.ID] = u
	}
	return nil
}

func (t *memTx) DeleteUnit(ctx context.Context, id int64) error {
	if _, ok := t.units[id]; !ok {
		return errors.NewUnitNotFoundError(id)
	}
	delete(t.units, id)
	return nil
}

func listArena(arena map[int64]types.Unit, keep func(types.Unit) bool) []types.Unit {
	out := make([]types.Unit, 0, len(arena))
	for _, u := range arena {
		if keep(u) {
			out = append(out, u)
		}
	}
	sortByOrder(out)
	return out
}
