// Package hierarchy implements the organizational-unit tree: projection of the
// flat unit table into a forest, structural guards and dense sibling ordering.
package hierarchy

import (
	"github.com/Xinye0723/HrBackend/pkg/types"
)

// Forest is the tree view of a flat unit list
type Forest struct {
	Roots []*types.TreeNode

	// Dangling lists units whose parent id does not resolve. They are returned as roots.
	Dangling []int64

	// Unreachable lists units that sit on a stored parent cycle and therefore hang
	// under no root. They are absent from Roots.
	Unreachable []int64
}

// BuildForest groups units under their parents. Input must be sorted by (order, id);
// child lists then come out ordered without a second sort. Every call allocates
// fresh nodes and never touches the input.
func BuildForest(units []types.Unit) Forest {
	nodes := make(map[int64]*types.TreeNode, len(units))
	for _, u := range units {
		nodes[u.ID] = &types.TreeNode{Unit: u, Children: []*types.TreeNode{}}
	}

	forest := Forest{Roots: []*types.TreeNode{}}
	for _, u := range units {
		node := nodes[u.ID]
		if !u.IsRoot() {
			if parent, ok := nodes[*u.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
			forest.Dangling = append(forest.Dangling, u.ID)
		}
		forest.Roots = append(forest.Roots, node)
	}

	reached := 0
	walk(forest.Roots, func(*types.TreeNode) { reached++ })
	if reached < len(nodes) {
		seen := make(map[int64]bool, reached)
		walk(forest.Roots, func(n *types.TreeNode) { seen[n.ID] = true })
		for _, u := range units {
			if !seen[u.ID] {
				forest.Unreachable = append(forest.Unreachable, u.ID)
			}
		}
	}

	return forest
}

// Flatten walks the forest in pre-order and returns one placement per node
func Flatten(roots []*types.TreeNode) []types.Placement {
	var out []types.Placement
	walk(roots, func(n *types.TreeNode) {
		out = append(out, types.Placement{ID: n.ID, ParentID: n.ParentID, Order: n.Order})
	})
	return out
}

// Count returns the number of nodes in the forest
func Count(roots []*types.TreeNode) int {
	n := 0
	walk(roots, func(*types.TreeNode) { n++ })
	return n
}

func walk(nodes []*types.TreeNode, visit func(*types.TreeNode)) {
	for _, n := range nodes {
		visit(n)
		walk(n.Children, visit)
	}
}
