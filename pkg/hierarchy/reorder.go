package hierarchy

import (
	"sort"

	"github.com/Xinye0723/HrBackend/pkg/types"
)

// The functions below operate on one sibling group at a time. They never mutate
// their input; each returns a fresh slice sorted by (order, id).

// AppendIndex returns the order of a unit appended to the group
func AppendIndex(group []types.Unit) int {
	return len(group)
}

// RemoveFromGroup drops id from the group and shifts later siblings down by one
func RemoveFromGroup(group []types.Unit, id int64) []types.Unit {
	k, ok := orderOf(group, id)
	if !ok {
		return cloneGroup(group)
	}

	out := make([]types.Unit, 0, len(group))
	for _, u := range group {
		if u.ID == id {
			continue
		}
		if u.Order > k {
			u.Order--
		}
		out = append(out, u)
	}
	sortByOrder(out)
	return out
}

// InsertIntoGroup places unit at index p, clamped to [0, len(group)]. Siblings at or
// after p shift up by one. The unit keeps whatever ParentID it carries.
func InsertIntoGroup(group []types.Unit, unit types.Unit, p int) []types.Unit {
	p = clamp(p, 0, len(group))

	out := make([]types.Unit, 0, len(group)+1)
	for _, u := range group {
		if u.Order >= p {
			u.Order++
		}
		out = append(out, u)
	}
	unit.Order = p
	out = append(out, unit)
	sortByOrder(out)
	return out
}

// MoveWithinGroup moves id from its position k to p, clamped to [0, len(group)-1],
// as a single shift. Siblings between k and p close the gap toward k.
func MoveWithinGroup(group []types.Unit, id int64, p int) []types.Unit {
	out := cloneGroup(group)
	k, ok := orderOf(group, id)
	if !ok {
		return out
	}
	p = clamp(p, 0, len(group)-1)

	for i := range out {
		u := &out[i]
		switch {
		case u.ID == id:
			u.Order = p
		case k < p && u.Order > k && u.Order <= p:
			u.Order--
		case p < k && u.Order >= p && u.Order < k:
			u.Order++
		}
	}
	sortByOrder(out)
	return out
}

// Renumber sorts the group by (order, id) and reassigns 0..n-1. Relative order is
// preserved, so running it twice equals running it once.
func Renumber(group []types.Unit) []types.Unit {
	out := cloneGroup(group)
	sortByOrder(out)
	for i := range out {
		out[i].Order = i
	}
	return out
}

// IsDense reports whether the orders of the group are exactly 0..n-1
func IsDense(group []types.Unit) bool {
	seen := make([]bool, len(group))
	for _, u := range group {
		if u.Order < 0 || u.Order >= len(group) || seen[u.Order] {
			return false
		}
		seen[u.Order] = true
	}
	return true
}

// Placements returns the tuples of after whose parent or order differ from before.
// Units absent from before are always included. Output is sorted by id.
func Placements(before, after []types.Unit) []types.Placement {
	prev := make(map[int64]types.Unit, len(before))
	for _, u := range before {
		prev[u.ID] = u
	}

	var out []types.Placement
	for _, u := range after {
		old, ok := prev[u.ID]
		if ok && old.Order == u.Order && types.SameParent(old.ParentID, u.ParentID) {
			continue
		}
		out = append(out, types.Placement{ID: u.ID, ParentID: u.ParentID, Order: u.Order})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GroupByParent splits units into sibling groups keyed by parent
func GroupByParent(units []types.Unit) map[ParentKey][]types.Unit {
	groups := make(map[ParentKey][]types.Unit)
	for _, u := range units {
		key := KeyOf(u.ParentID)
		groups[key] = append(groups[key], u)
	}
	for _, g := range groups {
		sortByOrder(g)
	}
	return groups
}

// ParentKey identifies a sibling group; the zero value is the root group
type ParentKey struct {
	Set bool
	ID  int64
}

// KeyOf converts an optional parent id into a ParentKey
func KeyOf(parentID *int64) ParentKey {
	if parentID == nil {
		return ParentKey{}
	}
	return ParentKey{Set: true, ID: *parentID}
}

// ParentID converts the key back into an optional parent id
func (k ParentKey) ParentID() *int64 {
	if !k.Set {
		return nil
	}
	return types.Int64Ptr(k.ID)
}

func orderOf(group []types.Unit, id int64) (int, bool) {
	for _, u := range group {
		if u.ID == id {
			return u.Order, true
		}
	}
	return 0, false
}

func cloneGroup(group []types.Unit) []types.Unit {
	out := make([]types.Unit, len(group))
	copy(out, group)
	return out
}

func sortByOrder(units []types.Unit) {
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Order != units[j].Order {
			return units[i].Order < units[j].Order
		}
		return units[i].ID < units[j].ID
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
