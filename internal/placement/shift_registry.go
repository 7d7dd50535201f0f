package placement

import (
	"cmp"
	"slices"
)

// registryKey identifies a shift table by rank cycle and node count.
type registryKey struct {
	cycle int
	nodes int
}

// shiftRegistry holds hand-built third-shift permutations for pairs where the
// natural sequence 1..cycle puts a second follower back on its leader's node.
// Each entry swaps the colliding midpoint rank with its neighbour.
//
// Read-only after package init. Lookups hand out copies.
var shiftRegistry = map[registryKey][]int{
	{cycle: 3, nodes: 4}:  {1, 3, 2},
	{cycle: 5, nodes: 6}:  {1, 2, 4, 3, 5},
	{cycle: 7, nodes: 8}:  {1, 2, 3, 5, 4, 6, 7},
	{cycle: 9, nodes: 10}: {1, 2, 3, 4, 6, 5, 7, 8, 9},
	{cycle: 17, nodes: 18}: {
		1, 2, 3, 4, 5, 6, 7, 8, 10, 9,
		11, 12, 13, 14, 15, 16, 17,
	},
	{cycle: 41, nodes: 42}: {
		1, 2, 3, 4, 5, 6, 7, 8, 9, 10,
		11, 12, 13, 14, 15, 16, 17, 18, 19, 20,
		22, 21, 23, 24, 25, 26, 27, 28, 29, 30,
		31, 32, 33, 34, 35, 36, 37, 38, 39, 40,
		41,
	},
}

func lookupShiftTable(cycle, nodeCount int) ([]int, bool) {
	table, ok := shiftRegistry[registryKey{cycle: cycle, nodes: nodeCount}]
	if !ok {
		return nil, false
	}
	return slices.Clone(table), true
}

// RegisteredShiftTables lists every (cycle, nodeCount) pair with a registered
// table, ordered by node count.
func RegisteredShiftTables() [][2]int {
	pairs := make([][2]int, 0, len(shiftRegistry))
	for k := range shiftRegistry {
		pairs = append(pairs, [2]int{k.cycle, k.nodes})
	}
	slices.SortFunc(pairs, func(a, b [2]int) int {
		return cmp.Or(cmp.Compare(a[1], b[1]), cmp.Compare(a[0], b[0]))
	})
	return pairs
}
