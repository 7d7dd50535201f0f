package service

import (
	"github.com/emirpasic/gods/sets/treeset"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zplan/internal/domain"
	zerrors "github.com/zzenonn/zplan/internal/errors"
)

// SimulateFailover replays the loss of failedNode against m. Every shard that
// led its group on the failed node is handed to the surviving replica at the
// group's promotion position. Nodes are walked in ascending order, then slots,
// and the first match wins.
func SimulateFailover(m *domain.Matrix, failedNode int) (*domain.FailoverReport, error) {
	nodes := m.NodeCount()
	if failedNode < 0 || failedNode >= nodes {
		return nil, zerrors.OutOfRangeError(zerrors.ErrFailedNodeOutOfRange, failedNode, 0, nodes-1)
	}

	lost := treeset.NewWithIntComparator()
	for r := 0; r < m.SlotsPerNode(); r++ {
		lost.Add(m.Cell(failedNode, r))
	}

	leaders := make([]int, m.Groups())
	for g := range leaders {
		leaders[g] = m.Cell(failedNode, m.LeaderSlot(g))
	}
	promoted := make([]bool, m.Groups())

	report := &domain.FailoverReport{
		FailedNode:      failedNode,
		LostShardIDs:    make([]int, 0, lost.Size()),
		HitCounts:       make([]int, nodes),
		PromotionCounts: make([]int, nodes),
	}
	for _, v := range lost.Values() {
		report.LostShardIDs = append(report.LostShardIDs, v.(int))
	}

	for c := 0; c < nodes; c++ {
		if c == failedNode {
			continue
		}
		for r := 0; r < m.SlotsPerNode(); r++ {
			v := m.Cell(c, r)
			if !lost.Contains(v) {
				continue
			}
			report.HitCounts[c]++

			g := m.Group(r)
			if promoted[g] || v != leaders[g] || m.Position(r) != m.PromotionPosition(g) {
				continue
			}
			promoted[g] = true
			report.Promotions = append(report.Promotions, domain.Promotion{
				ShardID: v,
				Node:    c,
				Group:   g,
				Slot:    r,
			})
			report.PromotionCounts[c]++
		}
	}

	log.WithFields(log.Fields{
		"failed_node": failedNode,
		"lost":        len(report.LostShardIDs),
		"promotions":  len(report.Promotions),
	}).Debug("simulated failover")

	return report, nil
}
