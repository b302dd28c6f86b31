package store

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/interfaces"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

// unitRecord is the departments table row. parent_id carries no foreign key;
// the hierarchy guard keeps the links acyclic. (parent_id, sort_order) is indexed
// but not unique because batch renumbering passes through duplicate orders.
type unitRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:100;not null"`
	ParentID  *int64 `gorm:"index:idx_departments_parent_order,priority:1"`
	SortOrder int    `gorm:"column:sort_order;not null;default:0;index:idx_departments_parent_order,priority:2"`
	ManagerID *int64
}

// TableName overrides the table name
func (unitRecord) TableName() string {
	return "departments"
}

func (r unitRecord) toUnit() types.Unit {
	return types.Unit{ID: r.ID, Name: r.Name, ParentID: r.ParentID, Order: r.SortOrder, ManagerID: r.ManagerID}
}

func toUnits(records []unitRecord) []types.Unit {
	out := make([]types.Unit, len(records))
	for i, r := range records {
		out[i] = r.toUnit()
	}
	return out
}

// UnitStore implements interfaces.UnitStore on gorm
type UnitStore struct {
	db *gorm.DB
}

var _ interfaces.UnitStore = (*UnitStore)(nil)

// NewUnitStore creates a unit store on db
func NewUnitStore(db *gorm.DB) *UnitStore {
	return &UnitStore{db: db}
}

// Migrate creates or updates the departments table
func (s *UnitStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&unitRecord{}); err != nil {
		return MapError("migrate departments", err)
	}
	return nil
}

// ListUnits returns every unit sorted by (order, id)
func (s *UnitStore) ListUnits(ctx context.Context) ([]types.Unit, error) {
	return (&unitTx{db: s.db.WithContext(ctx)}).ListUnits(ctx)
}

// GetUnit returns one unit
func (s *UnitStore) GetUnit(ctx context.Context, id int64) (*types.Unit, error) {
	return (&unitTx{db: s.db.WithContext(ctx)}).GetUnit(ctx, id)
}

// WithinTx runs fn in a database transaction. gorm rolls back on error or panic.
func (s *UnitStore) WithinTx(ctx context.Context, fn func(tx interfaces.UnitTx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&unitTx{db: tx})
	})
	return MapError("unit transaction", err)
}

// Ping checks the database connection
func (s *UnitStore) Ping(ctx context.Context) error {
	return Ping(ctx, s.db)
}

// Close closes the database connection
func (s *UnitStore) Close() error {
	return Close(s.db)
}

type unitTx struct {
	db *gorm.DB
}

func (t *unitTx) GetUnit(ctx context.Context, id int64) (*types.Unit, error) {
	var rec unitRecord
	if err := t.db.Where("id = ?", id).First(&rec).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewUnitNotFoundError(id)
		}
		return nil, MapError("get unit", err)
	}
	u := rec.toUnit()
	return &u, nil
}

func (t *unitTx) ListSiblings(ctx context.Context, parentID *int64) ([]types.Unit, error) {
	q := t.db.Model(&unitRecord{})
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}

	var records []unitRecord
	if err := q.Order("sort_order ASC, id ASC").Find(&records).Error; err != nil {
		return nil, MapError("list siblings", err)
	}
	return toUnits(records), nil
}

func (t *unitTx) CountChildren(ctx context.Context, id int64) (int, error) {
	var n int64
	if err := t.db.Model(&unitRecord{}).Where("parent_id = ?", id).Count(&n).Error; err != nil {
		return 0, MapError("count children", err)
	}
	return int(n), nil
}

func (t *unitTx) ListUnits(ctx context.Context) ([]types.Unit, error) {
	var records []unitRecord
	if err := t.db.Order("sort_order ASC, id ASC").Find(&records).Error; err != nil {
		return nil, MapError("list units", err)
	}
	return toUnits(records), nil
}

func (t *unitTx) InsertUnit(ctx context.Context, unit *types.Unit) error {
	rec := unitRecord{Name: unit.Name, ParentID: unit.ParentID, SortOrder: unit.Order, ManagerID: unit.ManagerID}
	if err := t.db.Create(&rec).Error; err != nil {
		return MapError("insert unit", err)
	}
	unit.ID = rec.ID
	return nil
}

func (t *unitTx) UpdateUnit(ctx context.Context, unit *types.Unit) error {
	res := t.db.Model(&unitRecord{}).Where("id = ?", unit.ID).Updates(map[string]interface{}{
		"name":       unit.Name,
		"manager_id": unit.ManagerID,
	})
	if res.Error != nil {
		return MapError("update unit", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NewUnitNotFoundError(unit.ID)
	}
	return nil
}

func (t *unitTx) ApplyPlacements(ctx context.Context, placements []types.Placement) error {
	for _, p := range placements {
		res := t.db.Model(&unitRecord{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"parent_id":  p.ParentID,
			"sort_order": p.Order,
		})
		if res.Error != nil {
			return MapError("apply placements", res.Error)
		}
		if res.RowsAffected == 0 {
			return errors.NewConcurrentModificationError("unit vanished during reorder", nil).WithDetail("unit_id", p.ID)
		}
	}
	return nil
}

func (t *unitTx) DeleteUnit(ctx context.Context, id int64) error {
	res := t.db.Delete(&unitRecord{}, id)
	if res.Error != nil {
		return MapError("delete unit", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NewUnitNotFoundError(id)
	}
	return nil
}
