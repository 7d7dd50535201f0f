package placement

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zplan/internal/domain"
	zerrors "github.com/zzenonn/zplan/internal/errors"
)

// RankCycle is the period of the placement pattern and its third-shift table.
type RankCycle struct {
	Cycle      int
	ShiftTable []int
}

// ResolveRankCycle derives the rank cycle for nodeCount. When nodeCount-1 is
// even, balance halves the cycle so every node sees leadership twice as often
// during failover.
func ResolveRankCycle(nodeCount int, balance bool) (RankCycle, error) {
	if nodeCount < domain.ReplicationFactor {
		return RankCycle{}, fmt.Errorf("%w: got %d", zerrors.ErrInvalidNodeCount, nodeCount)
	}

	cycle := nodeCount - 1
	if cycle%2 == 0 && balance {
		cycle /= 2
	}

	return resolve(cycle, nodeCount)
}

// ResolveRankOrder uses an explicit rank order instead of deriving one.
func ResolveRankOrder(nodeCount, rankOrder int) (RankCycle, error) {
	if nodeCount < domain.ReplicationFactor {
		return RankCycle{}, fmt.Errorf("%w: got %d", zerrors.ErrInvalidNodeCount, nodeCount)
	}
	if rankOrder < 1 || rankOrder > nodeCount-1 {
		return RankCycle{}, zerrors.OutOfRangeError(zerrors.ErrRankOrderOutOfRange, rankOrder, 1, nodeCount-1)
	}
	return resolve(rankOrder, nodeCount)
}

func resolve(cycle, nodeCount int) (RankCycle, error) {
	table, err := ShiftTable(cycle, nodeCount)
	if err != nil {
		return RankCycle{}, err
	}
	log.WithFields(log.Fields{
		"nodes":       nodeCount,
		"rank_cycle":  cycle,
		"shift_table": table,
	}).Debug("resolved rank cycle")
	return RankCycle{Cycle: cycle, ShiftTable: table}, nil
}

// ShiftTable returns the third-shift offsets for cycle on nodeCount nodes.
// The natural sequence 1..cycle is used when it keeps every group's replicas
// apart. Otherwise the table must come from the registry.
func ShiftTable(cycle, nodeCount int) ([]int, error) {
	if cycle < 1 || cycle > nodeCount-1 {
		return nil, zerrors.OutOfRangeError(zerrors.ErrRankOrderOutOfRange, cycle, 1, nodeCount-1)
	}

	natural := make([]int, cycle)
	for i := range natural {
		natural[i] = i + 1
	}
	if Collision(natural, nodeCount) < 0 {
		return natural, nil
	}

	table, ok := lookupShiftTable(cycle, nodeCount)
	if !ok || Collision(table, nodeCount) >= 0 {
		return nil, fmt.Errorf("%w: cycle %d on %d nodes", zerrors.ErrUnsupportedRankCycle, cycle, nodeCount)
	}
	return table, nil
}

// Collision returns the first rank whose three replica offsets are not
// pairwise distinct modulo nodeCount, or -1 when table is collision free.
func Collision(table []int, nodeCount int) int {
	for rank, shift := range table {
		first := (rank + 1) % nodeCount
		second := (rank + 1 + shift) % nodeCount
		if first == 0 || second == 0 || first == second {
			return rank
		}
	}
	return -1
}
