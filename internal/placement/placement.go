// Package placement builds deterministic replica placement matrices.
//
// A matrix assigns one shard id to every (node, slot) cell. Slots are read in
// consecutive groups of three: the first slot of a group holds leader replicas
// and the next two hold followers.
//
// Key Concepts:
// - Row Bijection: every slot holds each shard id of its group exactly once across nodes
// - Rank Cycle: the period after which the follower offsets repeat
// - Third Shift: the per-rank offset of the second follower, chosen so no node
//   holds two replicas of the same shard
// - Shift Registry: hand-built offset tables for node counts where the natural
//   sequence collides
//
// Usage Flow:
// 1. Resolve the rank cycle and shift table from the node count (ResolveRankCycle)
//    or from an explicit rank order (ResolveRankOrder)
// 2. Build the matrix from a Layout
// 3. Hand the matrix to the failover simulator and the distribution metrics
//
// Example:
//
//	rc, _ := placement.ResolveRankCycle(4, false) // cycle 3, table [1 3 2]
//	m, _ := placement.Build(domain.Layout{
//		SlotsPerNode:      9,
//		NodeCount:         4,
//		ReplicationFactor: domain.ReplicationFactor,
//		RankCycle:         rc.Cycle,
//		ShiftTable:        rc.ShiftTable,
//	})
//	m.Row(0) // [0 1 2 3]
package placement

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zplan/internal/domain"
	zerrors "github.com/zzenonn/zplan/internal/errors"
)

// Build lays out a placement matrix. It fails when the layout cannot satisfy
// the row bijection or the no co-location guarantee.
func Build(layout domain.Layout) (*domain.Matrix, error) {
	if err := validate(&layout); err != nil {
		return nil, err
	}

	rf, nodes := layout.ReplicationFactor, layout.NodeCount
	cells := make([][]int, nodes)
	for c := range cells {
		cells[c] = make([]int, layout.SlotsPerNode)
	}

	for r := 0; r < layout.SlotsPerNode; r++ {
		group := r / rf
		base := group * nodes
		contribution := offset(r%rf, group%layout.RankCycle, layout.ShiftTable)
		descending := layout.Variant == domain.VariantPolar && (group/layout.RankCycle)%2 == 1

		for c := 0; c < nodes; c++ {
			node := c
			if descending {
				node = nodes - 1 - c
			}
			cells[node][r] = base + (contribution+c)%nodes + layout.IDOrigin
		}
	}

	log.WithFields(log.Fields{
		"slots":      layout.SlotsPerNode,
		"nodes":      nodes,
		"rank_cycle": layout.RankCycle,
		"variant":    layout.Variant,
	}).Debug("built placement matrix")

	return domain.NewMatrix(layout, cells), nil
}

// offset is the per-row shift applied to every node index.
func offset(pos, rank int, shiftTable []int) int {
	switch pos {
	case 0:
		return 0
	case 1:
		return rank + 1
	default:
		return rank + 1 + shiftTable[rank]
	}
}

func validate(layout *domain.Layout) error {
	if layout.Variant == "" {
		layout.Variant = domain.VariantRotation
	}
	if _, err := domain.ParseVariant(string(layout.Variant)); err != nil {
		return err
	}
	if layout.ReplicationFactor != domain.ReplicationFactor {
		return fmt.Errorf("%w: got %d", zerrors.ErrUnsupportedReplication, layout.ReplicationFactor)
	}
	if layout.NodeCount < layout.ReplicationFactor {
		return fmt.Errorf("%w: got %d", zerrors.ErrInvalidNodeCount, layout.NodeCount)
	}
	if layout.RankCycle < 1 || layout.RankCycle > layout.NodeCount-1 {
		return zerrors.OutOfRangeError(zerrors.ErrRankOrderOutOfRange, layout.RankCycle, 1, layout.NodeCount-1)
	}
	if len(layout.ShiftTable) != layout.RankCycle {
		return fmt.Errorf("%w: %d entries for cycle %d", zerrors.ErrShiftTableLength, len(layout.ShiftTable), layout.RankCycle)
	}
	if rank := Collision(layout.ShiftTable, layout.NodeCount); rank >= 0 {
		return fmt.Errorf("%w: rank %d collides on %d nodes", zerrors.ErrUnsupportedRankCycle, rank, layout.NodeCount)
	}
	if layout.SlotsPerNode <= 0 {
		return fmt.Errorf("%w: got %d", zerrors.ErrInvalidSlotCount, layout.SlotsPerNode)
	}
	if period := layout.ReplicationFactor * layout.RankCycle; layout.SlotsPerNode%period != 0 {
		return fmt.Errorf("%w: %d is not a multiple of %d", zerrors.ErrSlotsNotMultiple, layout.SlotsPerNode, period)
	}
	return nil
}
