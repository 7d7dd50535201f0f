package service

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/emirpasic/gods/sets/hashset"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/zzenonn/zplan/internal/domain"
	zerrors "github.com/zzenonn/zplan/internal/errors"
	"github.com/zzenonn/zplan/internal/placement"
)

// DistinctCounts returns the number of distinct shard ids held by each node.
func DistinctCounts(m *domain.Matrix) []int {
	counts := make([]int, m.NodeCount())
	for c := range counts {
		set := hashset.New()
		for r := 0; r < m.SlotsPerNode(); r++ {
			set.Add(m.Cell(c, r))
		}
		counts[c] = set.Size()
	}
	return counts
}

// HitSpread returns the smallest and largest hit count and their difference.
func HitSpread(hits []int) (lo, hi, delta int) {
	if len(hits) == 0 {
		return 0, 0, 0
	}
	lo, hi = slices.Min(hits), slices.Max(hits)
	return lo, hi, hi - lo
}

// SweepParams fixes everything but the rank cycle for a failover sweep.
type SweepParams struct {
	SlotsPerNode int
	NodeCount    int
	FailedNode   int
	IDOrigin     int
	Variant      domain.Variant
}

// FailoverDeltaSweep builds one matrix per rank cycle in 1..NodeCount-1, fails
// FailedNode on each, and reports how unevenly the lost replicas land on the
// survivors. Cycles that cannot be built are reported as skipped.
func FailoverDeltaSweep(ctx context.Context, p SweepParams) ([]domain.SweepEntry, error) {
	if p.SlotsPerNode <= 0 {
		return nil, fmt.Errorf("%w: got %d", zerrors.ErrInvalidSlotCount, p.SlotsPerNode)
	}
	if p.NodeCount < domain.ReplicationFactor {
		return nil, fmt.Errorf("%w: got %d", zerrors.ErrInvalidNodeCount, p.NodeCount)
	}
	if p.FailedNode < 0 || p.FailedNode >= p.NodeCount {
		return nil, zerrors.OutOfRangeError(zerrors.ErrFailedNodeOutOfRange, p.FailedNode, 0, p.NodeCount-1)
	}

	entries := make([]domain.SweepEntry, p.NodeCount-1)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries[i] = sweepCycle(p, i+1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func sweepCycle(p SweepParams, cycle int) domain.SweepEntry {
	entry := domain.SweepEntry{RankCycle: cycle}

	table, err := placement.ShiftTable(cycle, p.NodeCount)
	if err != nil {
		return skip(entry, err)
	}
	entry.ShiftTable = table

	m, err := placement.Build(domain.Layout{
		SlotsPerNode:      p.SlotsPerNode,
		NodeCount:         p.NodeCount,
		ReplicationFactor: domain.ReplicationFactor,
		RankCycle:         cycle,
		ShiftTable:        table,
		IDOrigin:          p.IDOrigin,
		Variant:           p.Variant,
	})
	if err != nil {
		return skip(entry, err)
	}

	report, err := SimulateFailover(m, p.FailedNode)
	if err != nil {
		return skip(entry, err)
	}

	entry.HitCounts = report.SurvivorHitCounts()
	entry.Min, entry.Max, entry.Delta = HitSpread(entry.HitCounts)
	return entry
}

func skip(entry domain.SweepEntry, err error) domain.SweepEntry {
	log.WithField("rank_cycle", entry.RankCycle).Debugf("skipping rank cycle: %v", err)
	entry.Err = err
	entry.Skipped = err.Error()
	return entry
}
