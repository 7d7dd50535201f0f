package placement

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzenonn/zplan/internal/domain"
	zerrors "github.com/zzenonn/zplan/internal/errors"
)

func layoutFor(t *testing.T, slots, nodes int, variant domain.Variant) domain.Layout {
	t.Helper()
	rc, err := ResolveRankCycle(nodes, false)
	require.NoError(t, err)
	return domain.Layout{
		SlotsPerNode:      slots,
		NodeCount:         nodes,
		ReplicationFactor: domain.ReplicationFactor,
		RankCycle:         rc.Cycle,
		ShiftTable:        rc.ShiftTable,
		Variant:           variant,
	}
}

// assertInvariants checks the row bijection and that no node holds two
// replicas of the same shard within a group.
func assertInvariants(t *testing.T, m *domain.Matrix) {
	t.Helper()
	for r := 0; r < m.SlotsPerNode(); r++ {
		row := m.Row(r)
		slices.Sort(row)
		base := row[0]
		for i, v := range row {
			require.Equal(t, base+i, v, "row %d is not a contiguous permutation", r)
		}
	}

	for g := 0; g < m.Groups(); g++ {
		holders := map[int][]int{}
		for r := m.LeaderSlot(g); r < m.LeaderSlot(g)+m.ReplicationFactor(); r++ {
			for c := 0; c < m.NodeCount(); c++ {
				holders[m.Cell(c, r)] = append(holders[m.Cell(c, r)], c)
			}
		}
		for shard, nodes := range holders {
			require.Len(t, nodes, m.ReplicationFactor(), "shard %d", shard)
			unique := slices.Compact(slices.Sorted(slices.Values(nodes)))
			require.Len(t, unique, m.ReplicationFactor(), "shard %d co-located in group %d", shard, g)
		}
	}
}

func TestBuild_FourNodes(t *testing.T) {
	m, err := Build(layoutFor(t, 9, 4, domain.VariantRotation))
	require.NoError(t, err)

	assert.Equal(t, 3, m.RankCycle())
	assert.Equal(t, []int{1, 3, 2}, m.ShiftTable())

	want := [][]int{
		{0, 1, 2, 3},
		{1, 2, 3, 0},
		{2, 3, 0, 1},
		{4, 5, 6, 7},
		{6, 7, 4, 5},
		{5, 6, 7, 4},
		{8, 9, 10, 11},
		{11, 8, 9, 10},
		{9, 10, 11, 8},
	}
	for r, row := range want {
		assert.Equal(t, row, m.Row(r), "row %d", r)
	}
	assertInvariants(t, m)
}

func TestBuild_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		nodes   int
		variant domain.Variant
	}{
		{name: "three nodes", nodes: 3},
		{name: "five nodes polar", nodes: 5, variant: domain.VariantPolar},
		{name: "six nodes", nodes: 6},
		{name: "eight nodes balanced", nodes: 8, variant: domain.VariantBalanced},
		{name: "ten nodes polar", nodes: 10, variant: domain.VariantPolar},
		{name: "eighteen nodes", nodes: 18},
		{name: "forty-two nodes", nodes: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := layoutFor(t, 0, tt.nodes, tt.variant)
			layout.SlotsPerNode = 2 * layout.ReplicationFactor * layout.RankCycle
			m, err := Build(layout)
			require.NoError(t, err)
			assertInvariants(t, m)
		})
	}
}

func TestBuild_EighteenNodesHasNoCollisions(t *testing.T) {
	layout := layoutFor(t, 3*17, 18, domain.VariantRotation)
	require.Equal(t, 17, layout.RankCycle)

	m, err := Build(layout)
	require.NoError(t, err)
	assertInvariants(t, m)
}

func TestBuild_PolarReversesOddRepeats(t *testing.T) {
	m, err := Build(layoutFor(t, 18, 4, domain.VariantPolar))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3}, m.Row(0))
	assert.Equal(t, []int{15, 14, 13, 12}, m.Row(9))
	assertInvariants(t, m)
}

func TestBuild_IDOrigin(t *testing.T) {
	layout := layoutFor(t, 9, 4, domain.VariantRotation)
	layout.IDOrigin = 100
	m, err := Build(layout)
	require.NoError(t, err)

	assert.Equal(t, []int{100, 101, 102, 103}, m.Row(0))
	assert.Equal(t, 100, m.IDOrigin())
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Layout)
		wantErr error
	}{
		{
			name:    "slots not a multiple of the period",
			mutate:  func(l *domain.Layout) { l.SlotsPerNode = 6 },
			wantErr: zerrors.ErrSlotsNotMultiple,
		},
		{
			name:    "zero slots",
			mutate:  func(l *domain.Layout) { l.SlotsPerNode = 0 },
			wantErr: zerrors.ErrInvalidSlotCount,
		},
		{
			name:    "replication factor other than three",
			mutate:  func(l *domain.Layout) { l.ReplicationFactor = 2 },
			wantErr: zerrors.ErrUnsupportedReplication,
		},
		{
			name:    "shift table too short",
			mutate:  func(l *domain.Layout) { l.ShiftTable = []int{1, 3} },
			wantErr: zerrors.ErrShiftTableLength,
		},
		{
			name:    "colliding shift table",
			mutate:  func(l *domain.Layout) { l.ShiftTable = []int{1, 2, 3} },
			wantErr: zerrors.ErrUnsupportedRankCycle,
		},
		{
			name:    "rank cycle too large",
			mutate:  func(l *domain.Layout) { l.RankCycle = 4 },
			wantErr: zerrors.ErrRankOrderOutOfRange,
		},
		{
			name:    "unknown variant",
			mutate:  func(l *domain.Layout) { l.Variant = "spiral" },
			wantErr: zerrors.ErrUnknownVariant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := layoutFor(t, 9, 4, domain.VariantRotation)
			tt.mutate(&layout)
			_, err := Build(layout)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuild_Deterministic(t *testing.T) {
	layout := layoutFor(t, 36, 5, domain.VariantPolar)
	a, err := Build(layout)
	require.NoError(t, err)
	b, err := Build(layout)
	require.NoError(t, err)

	for c := 0; c < a.NodeCount(); c++ {
		assert.Equal(t, a.Column(c), b.Column(c))
	}
}

func TestMatrix_AccessorsReturnCopies(t *testing.T) {
	m, err := Build(layoutFor(t, 9, 4, domain.VariantRotation))
	require.NoError(t, err)

	col := m.Column(0)
	col[0] = -1
	assert.Equal(t, 0, m.Cell(0, 0))

	table := m.ShiftTable()
	table[0] = -1
	assert.Equal(t, []int{1, 3, 2}, m.ShiftTable())
}
