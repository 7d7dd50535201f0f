package domain

import (
	"fmt"
	"slices"
	"strings"

	zerrors "github.com/zzenonn/zplan/internal/errors"
)

// ReplicationFactor is the number of replicas kept for every shard.
const ReplicationFactor = 3

// Variant selects how the builder traverses nodes and where failover promotes.
type Variant string

const (
	// VariantRotation iterates nodes in ascending order and promotes the first follower.
	VariantRotation Variant = "rotation"
	// VariantPolar reverses node order on odd rank cycle repeats.
	VariantPolar Variant = "polar"
	// VariantBalanced alternates the promotion target between the two followers
	// on successive rank cycle repeats.
	VariantBalanced Variant = "balanced"
)

// ParseVariant maps a configuration string to a Variant. Empty means rotation.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VariantRotation, nil
	case VariantRotation, VariantPolar, VariantBalanced:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", zerrors.ErrUnknownVariant, s)
	}
}

// Layout holds the parameters a placement matrix was built from.
type Layout struct {
	SlotsPerNode      int     `json:"slots_per_node" yaml:"slots_per_node"`
	NodeCount         int     `json:"node_count" yaml:"node_count"`
	ReplicationFactor int     `json:"replication_factor" yaml:"replication_factor"`
	RankCycle         int     `json:"rank_cycle" yaml:"rank_cycle"`
	ShiftTable        []int   `json:"shift_table" yaml:"shift_table"`
	IDOrigin          int     `json:"id_origin" yaml:"id_origin"`
	Variant           Variant `json:"variant" yaml:"variant"`
}

// Matrix is an immutable placement of shard replicas onto node slots.
// Cells are addressed as [node][slot].
type Matrix struct {
	layout Layout
	cells  [][]int
}

// NewMatrix takes ownership of cells. The shift table is copied.
func NewMatrix(layout Layout, cells [][]int) *Matrix {
	layout.ShiftTable = slices.Clone(layout.ShiftTable)
	return &Matrix{layout: layout, cells: cells}
}

// Layout returns a copy of the build parameters.
func (m *Matrix) Layout() Layout {
	l := m.layout
	l.ShiftTable = slices.Clone(l.ShiftTable)
	return l
}

func (m *Matrix) SlotsPerNode() int      { return m.layout.SlotsPerNode }
func (m *Matrix) NodeCount() int         { return m.layout.NodeCount }
func (m *Matrix) ReplicationFactor() int { return m.layout.ReplicationFactor }
func (m *Matrix) RankCycle() int         { return m.layout.RankCycle }
func (m *Matrix) IDOrigin() int          { return m.layout.IDOrigin }
func (m *Matrix) Variant() Variant       { return m.layout.Variant }
func (m *Matrix) ShiftTable() []int      { return slices.Clone(m.layout.ShiftTable) }

// Cell returns the shard id stored at (node, slot).
func (m *Matrix) Cell(node, slot int) int {
	return m.cells[node][slot]
}

// Column returns a copy of every shard id held by node, in slot order.
func (m *Matrix) Column(node int) []int {
	return slices.Clone(m.cells[node])
}

// Row returns a copy of the shard ids at slot, in node order.
func (m *Matrix) Row(slot int) []int {
	row := make([]int, m.layout.NodeCount)
	for c := range row {
		row[c] = m.cells[c][slot]
	}
	return row
}

// Groups is the number of replica groups per node.
func (m *Matrix) Groups() int {
	return m.layout.SlotsPerNode / m.layout.ReplicationFactor
}

func (m *Matrix) Group(slot int) int {
	return slot / m.layout.ReplicationFactor
}

// Position is the intra-group position of slot: 0 for the leader, then followers.
func (m *Matrix) Position(slot int) int {
	return slot % m.layout.ReplicationFactor
}

func (m *Matrix) IsLeaderSlot(slot int) bool {
	return m.Position(slot) == 0
}

func (m *Matrix) LeaderSlot(group int) int {
	return group * m.layout.ReplicationFactor
}

// RankCycleRepeat counts how many full rank cycles precede group.
func (m *Matrix) RankCycleRepeat(group int) int {
	return group / m.layout.RankCycle
}

// PromotionPosition is the follower position that takes over leadership of
// group when its leader's node fails.
func (m *Matrix) PromotionPosition(group int) int {
	if m.layout.Variant == VariantBalanced && m.RankCycleRepeat(group)%2 == 1 {
		return 2
	}
	return 1
}
