package hierarchy

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/interfaces"
	"github.com/Xinye0723/HrBackend/pkg/logger"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

type recordingMetrics struct {
	mu       sync.Mutex
	counters map[string]float64
	timers   map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counters: map[string]float64{}, timers: map[string]int{}}
}

func metricKey(name string, labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		keys = append(keys, k+"="+v)
	}
	sort.Strings(keys)
	return name + "{" + strings.Join(keys, ",") + "}"
}

func (m *recordingMetrics) Counter(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metricKey(name, labels)] += value
}

func (m *recordingMetrics) Gauge(name string, value float64, labels map[string]string) {}

func (m *recordingMetrics) Histogram(name string, value float64, labels map[string]string) {}

func (m *recordingMetrics) Timer(name string, duration float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timers[metricKey(name, labels)]++
}

func (m *recordingMetrics) counter(name string, labels map[string]string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[metricKey(name, labels)]
}

func setupTestEngine(t *testing.T, units ...types.Unit) (*Engine, *MemoryStore, *recordingMetrics) {
	t.Helper()
	store := NewMemoryStore(units...)
	metrics := newRecordingMetrics()
	return NewEngine(store, logger.NewTestLogger(), metrics), store, metrics
}

func siblingOrders(t *testing.T, s interfaces.UnitStore, parent *int64) [][2]int64 {
	t.Helper()
	units, err := s.ListUnits(context.Background())
	require.NoError(t, err)
	return orders(GroupByParent(units)[KeyOf(parent)])
}

func assertAllDense(t *testing.T, s interfaces.UnitStore) {
	t.Helper()
	units, err := s.ListUnits(context.Background())
	require.NoError(t, err)
	for key, group := range GroupByParent(units) {
		assert.True(t, IsDense(group), "group %+v not dense: %v", key, orders(group))
	}
}

func snapshot(t *testing.T, s interfaces.UnitStore) []types.Unit {
	t.Helper()
	units, err := s.ListUnits(context.Background())
	require.NoError(t, err)
	return units
}

func TestScenarioMoveWithinGroup(t *testing.T) {
	// P=1 with [A=2:0, B=3:1, C=4:2]
	e, s, _ := setupTestEngine(t, unit(1, nil, 0), unit(2, p(1), 0), unit(3, p(1), 1), unit(4, p(1), 2))

	require.NoError(t, e.MoveUnit(context.Background(), 4, p(1), 0))

	assert.Equal(t, [][2]int64{{4, 0}, {2, 1}, {3, 2}}, siblingOrders(t, s, p(1)))
}

func TestScenarioMoveAcrossGroups(t *testing.T) {
	// P1=1 [W=3:0, X=4:1, Y=5:2], P2=2 [Z=6:0]
	e, s, _ := setupTestEngine(t,
		unit(1, nil, 0), unit(2, nil, 1),
		unit(3, p(1), 0), unit(4, p(1), 1), unit(5, p(1), 2),
		unit(6, p(2), 0),
	)

	require.NoError(t, e.MoveUnit(context.Background(), 4, p(2), 1))

	assert.Equal(t, [][2]int64{{3, 0}, {5, 1}}, siblingOrders(t, s, p(1)))
	assert.Equal(t, [][2]int64{{6, 0}, {4, 1}}, siblingOrders(t, s, p(2)))
}

func TestScenarioDeleteCompacts(t *testing.T) {
	e, s, _ := setupTestEngine(t, unit(1, nil, 0), unit(2, p(1), 0), unit(3, p(1), 1), unit(4, p(1), 2))

	require.NoError(t, e.DeleteUnit(context.Background(), 3))

	assert.Equal(t, [][2]int64{{2, 0}, {4, 1}}, siblingOrders(t, s, p(1)))
}

func TestScenarioCreateInEmptyGroup(t *testing.T) {
	e, _, _ := setupTestEngine(t, unit(1, nil, 0))

	created, err := e.CreateUnit(context.Background(), types.CreateUnitParams{Name: "Payroll", ParentID: p(1)})
	require.NoError(t, err)
	assert.Equal(t, 0, created.Order)
	assert.Equal(t, int64(2), created.ID)
	assert.Equal(t, int64(1), *created.ParentID)
}

func TestCreateUnit(t *testing.T) {
	ctx := context.Background()

	t.Run("appends", func(t *testing.T) {
		e, s, _ := setupTestEngine(t, unit(1, nil, 0), unit(2, nil, 1))
		created, err := e.CreateUnit(ctx, types.CreateUnitParams{Name: "  Sales  ", ManagerID: p(12)})
		require.NoError(t, err)

		assert.Equal(t, "Sales", created.Name)
		assert.Equal(t, 2, created.Order)
		assert.Equal(t, int64(12), *created.ManagerID)
		assert.Equal(t, [][2]int64{{1, 0}, {2, 1}, {3, 2}}, siblingOrders(t, s, nil))
	})

	t.Run("inserts at position", func(t *testing.T) {
		e, s, _ := setupTestEngine(t, unit(1, nil, 0), unit(2, nil, 1))
		pos := 1
		created, err := e.CreateUnit(ctx, types.CreateUnitParams{Name: "Legal", Position: &pos})
		require.NoError(t, err)

		assert.Equal(t, 1, created.Order)
		assert.Equal(t, [][2]int64{{1, 0}, {3, 1}, {2, 2}}, siblingOrders(t, s, nil))
	})

	t.Run("position clamps", func(t *testing.T) {
		e, s, _ := setupTestEngine(t, unit(1, nil, 0))
		neg, big := -3, 50
		_, err := e.CreateUnit(ctx, types.CreateUnitParams{Name: "front", Position: &neg})
		require.NoError(t, err)
		_, err = e.CreateUnit(ctx, types.CreateUnitParams{Name: "back", Position: &big})
		require.NoError(t, err)

		assert.Equal(t, [][2]int64{{2, 0}, {1, 1}, {3, 2}}, siblingOrders(t, s, nil))
	})

	t.Run("heals drift on append", func(t *testing.T) {
		e, s, _ := setupTestEngine(t, unit(1, nil, 0), unit(2, nil, 4))
		created, err := e.CreateUnit(ctx, types.CreateUnitParams{Name: "third"})
		require.NoError(t, err)
		assert.Equal(t, 2, created.Order)
		assertAllDense(t, s)
	})

	t.Run("missing parent", func(t *testing.T) {
		e, s, m := setupTestEngine(t, unit(1, nil, 0))
		_, err := e.CreateUnit(ctx, types.CreateUnitParams{Name: "x", ParentID: p(9)})
		assert.True(t, errors.IsNotFound(err))
		assert.Len(t, snapshot(t, s), 1)
		assert.Equal(t, float64(1), m.counter(MetricOperations, map[string]string{"op": "create", "result": "not_found"}))
	})

	t.Run("blank name", func(t *testing.T) {
		e, _, _ := setupTestEngine(t)
		_, err := e.CreateUnit(ctx, types.CreateUnitParams{Name: "   "})
		assert.True(t, errors.HasCode(err, errors.ErrCodeMissingField))
	})

	t.Run("long name", func(t *testing.T) {
		e, _, _ := setupTestEngine(t)
		_, err := e.CreateUnit(ctx, types.CreateUnitParams{Name: strings.Repeat("x", MaxNameLength+1)})
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
	})
}

func TestRenameUnit(t *testing.T) {
	ctx := context.Background()
	e, s, _ := setupTestEngine(t, unit(1, nil, 0), unit(2, nil, 1))

	require.NoError(t, e.RenameUnit(ctx, 2, " Finance ", p(5)))
	u, err := s.GetUnit(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Finance", u.Name)
	assert.Equal(t, int64(5), *u.ManagerID)
	assert.Equal(t, 1, u.Order)

	require.NoError(t, e.RenameUnit(ctx, 2, "Finance", nil))
	u, err = e.GetUnit(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, u.ManagerID)

	assert.True(t, errors.IsNotFound(e.RenameUnit(ctx, 9, "x", nil)))
	assert.True(t, errors.HasCode(e.RenameUnit(ctx, 2, "", nil), errors.ErrCodeMissingField))
}

func TestMoveUnit(t *testing.T) {
	ctx := context.Background()

	t.Run("to root", func(t *testing.T) {
		e, s, _ := setupTestEngine(t, unit(1, nil, 0), unit(2, p(1), 0), unit(3, p(1), 1))
		require.NoError(t, e.MoveUnit(ctx, 2, nil, 0))

		assert.Equal(t, [][2]int64{{2, 0}, {1, 1}}, siblingOrders(t, s, nil))
		assert.Equal(t, [][2]int64{{3, 0}}, siblingOrders(t, s, p(1)))
	})

	t.Run("index beyond destination appends", func(t *testing.T) {
		e, s, _ := setupTestEngine(t, unit(1, nil, 0), unit(2, nil, 1), unit(3, p(1), 0), unit(4, p(2), 0))
		require.NoError(t, e.MoveUnit(ctx, 3, p(2), 99))
		assert.Equal(t, [][2]int64{{4, 0}, {3, 1}}, siblingOrders(t, s, p(2)))
		assert.Empty(t, siblingOrders(t, s, p(1)))
	})

	t.Run("no-op leaves rows alone", func(t *testing.T) {
		e, s, _ := setupTestEngine(t, unit(1, nil, 0), unit(2, nil, 1))
		before := snapshot(t, s)
		require.NoError(t, e.MoveUnit(ctx, 2, nil, 1))
		assert.Equal(t, before, snapshot(t, s))
	})

	t.Run("no-op heals drift", func(t *testing.T) {
		e, s, _ := setupTestEngine(t, unit(1, nil, 0), unit(2, nil, 2), unit(3, nil, 5))
		require.NoError(t, e.MoveUnit(ctx, 3, nil, 2))
		assert.Equal(t, [][2]int64{{1, 0}, {2, 1}, {3, 2}}, siblingOrders(t, s, nil))
	})

	t.Run("cycle rejected without changes", func(t *testing.T) {
		e, s, m := setupTestEngine(t, unit(1, nil, 0), unit(2, p(1), 0), unit(3, p(2), 0), unit(4, p(1), 1))
		before := snapshot(t, s)

		err := e.MoveUnit(ctx, 1, p(3), 0)
		assert.True(t, errors.IsInvalidStructure(err))
		err = e.MoveUnit(ctx, 2, p(2), 0)
		assert.True(t, errors.IsInvalidStructure(err))

		assert.Equal(t, before, snapshot(t, s))
		assert.Equal(t, float64(1), m.counter(MetricOperations, map[string]string{"op": "move", "result": "cycle_would_form"}))
		assert.Equal(t, float64(1), m.counter(MetricOperations, map[string]string{"op": "move", "result": "self_parent"}))
	})

	t.Run("unknown ids", func(t *testing.T) {
		e, _, _ := setupTestEngine(t, unit(1, nil, 0))
		assert.True(t, errors.IsNotFound(e.MoveUnit(ctx, 5, nil, 0)))
		assert.True(t, errors.IsNotFound(e.MoveUnit(ctx, 1, p(5), 0)))
	})
}

func TestDeleteUnit(t *testing.T) {
	ctx := context.Background()

	t.Run("with children is rejected", func(t *testing.T) {
		e, s, _ := setupTestEngine(t, unit(1, nil, 0), unit(2, p(1), 0))
		before := snapshot(t, s)

		err := e.DeleteUnit(ctx, 1)
		assert.True(t, errors.IsHasChildren(err))
		assert.Equal(t, before, snapshot(t, s))
	})

	t.Run("root group compacts", func(t *testing.T) {
		e, s, _ := setupTestEngine(t, unit(1, nil, 0), unit(2, nil, 1), unit(3, nil, 2))
		require.NoError(t, e.DeleteUnit(ctx, 1))
		assert.Equal(t, [][2]int64{{2, 0}, {3, 1}}, siblingOrders(t, s, nil))
	})

	t.Run("unknown", func(t *testing.T) {
		e, _, _ := setupTestEngine(t)
		assert.True(t, errors.IsNotFound(e.DeleteUnit(ctx, 1)))
	})
}

func TestListTree(t *testing.T) {
	ctx := context.Background()
	e, _, m := setupTestEngine(t, unit(1, nil, 0), unit(2, p(1), 1), unit(3, p(1), 0), unit(4, p(50), 0))

	roots, err := e.ListTree(ctx)
	require.NoError(t, err)

	require.Len(t, roots, 2)
	assert.Equal(t, []int64{3, 2}, ids(roots[0].Children))
	assert.Equal(t, int64(4), roots[1].ID)
	assert.Equal(t, float64(1), m.counter(MetricDanglingParent, nil))
	assert.Equal(t, float64(1), m.counter(MetricOperations, map[string]string{"op": "list_tree", "result": "ok"}))
}

func TestNormalizeOrders(t *testing.T) {
	ctx := context.Background()
	e, s, _ := setupTestEngine(t,
		unit(1, nil, 3), unit(2, nil, 3),
		unit(3, p(1), 10), unit(4, p(1), 0),
		unit(5, p(2), 0),
	)

	changed, err := e.NormalizeOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, changed)
	assertAllDense(t, s)
	assert.Equal(t, [][2]int64{{1, 0}, {2, 1}}, siblingOrders(t, s, nil))
	assert.Equal(t, [][2]int64{{4, 0}, {3, 1}}, siblingOrders(t, s, p(1)))

	changed, err = e.NormalizeOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	e, s, _ := setupTestEngine(t)

	seeded, err := e.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	roots, err := e.ListTree(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "CEO Office", roots[0].Name)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "HR Department", roots[0].Children[0].Name)
	assert.Equal(t, "Engineering", roots[0].Children[1].Name)
	assertAllDense(t, s)

	seeded, err = e.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Len(t, snapshot(t, s), 3)
}

type conflictStore struct {
	*MemoryStore
}

func (c conflictStore) WithinTx(ctx context.Context, fn func(tx interfaces.UnitTx) error) error {
	return errors.NewConcurrentModificationError("serialization failure", nil)
}

func TestConcurrentModificationSurfaces(t *testing.T) {
	metrics := newRecordingMetrics()
	e := NewEngine(conflictStore{NewMemoryStore(unit(1, nil, 0))}, logger.NewTestLogger(), metrics)

	err := e.MoveUnit(context.Background(), 1, nil, 0)
	assert.True(t, errors.IsRetryable(err))
	assert.Equal(t, float64(1), metrics.counter(MetricOperations, map[string]string{"op": "move", "result": "concurrent_modification"}))
}

// Random operation sequences keep every sibling group dense and the forest acyclic.
func TestRandomOperationsKeepInvariants(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	e, s, _ := setupTestEngine(t)
	_, err := e.Seed(ctx)
	require.NoError(t, err)

	pickParent := func(units []types.Unit) *int64 {
		if len(units) == 0 || rng.Intn(4) == 0 {
			return nil
		}
		return p(units[rng.Intn(len(units))].ID)
	}

	for i := 0; i < 400; i++ {
		units := snapshot(t, s)
		var opErr error
		var op string

		switch r := rng.Intn(10); {
		case r < 3 || len(units) == 0:
			op = "create"
			params := types.CreateUnitParams{Name: fmt.Sprintf("unit-%d", i), ParentID: pickParent(units)}
			if rng.Intn(2) == 0 {
				pos := rng.Intn(6) - 1
				params.Position = &pos
			}
			_, opErr = e.CreateUnit(ctx, params)
		case r < 8:
			op = "move"
			target := units[rng.Intn(len(units))].ID
			opErr = e.MoveUnit(ctx, target, pickParent(units), rng.Intn(7)-1)
			if opErr != nil {
				require.True(t, errors.IsInvalidStructure(opErr), opErr.Error())
			}
		default:
			op = "delete"
			opErr = e.DeleteUnit(ctx, units[rng.Intn(len(units))].ID)
			if opErr != nil {
				require.True(t, errors.IsHasChildren(opErr), opErr.Error())
			}
		}

		if op == "create" {
			require.NoError(t, opErr)
		}
		if opErr != nil {
			assert.Equal(t, units, snapshot(t, s), "failed %s mutated the store", op)
		}

		after := snapshot(t, s)
		forest := BuildForest(after)
		require.Empty(t, forest.Dangling, "step %d", i)
		require.Empty(t, forest.Unreachable, "step %d", i)
		for key, group := range GroupByParent(after) {
			require.True(t, IsDense(group), "step %d %s group %+v: %v", i, op, key, orders(group))
		}
	}
}
