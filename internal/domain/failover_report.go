package domain

import "slices"

// Promotion records a surviving replica elected leader for its group.
type Promotion struct {
	ShardID int `json:"shard_id" yaml:"shard_id"`
	Node    int `json:"node" yaml:"node"`
	Group   int `json:"group" yaml:"group"`
	Slot    int `json:"slot" yaml:"slot"`
}

// FailoverReport is the outcome of simulating the loss of one node.
type FailoverReport struct {
	FailedNode int `json:"failed_node" yaml:"failed_node"`
	// LostShardIDs is sorted ascending.
	LostShardIDs []int       `json:"lost_shard_ids" yaml:"lost_shard_ids"`
	Promotions   []Promotion `json:"promotions" yaml:"promotions"`
	// HitCounts and PromotionCounts are indexed by node.
	HitCounts       []int `json:"hit_counts" yaml:"hit_counts"`
	PromotionCounts []int `json:"promotion_counts" yaml:"promotion_counts"`
}

// IsLost reports whether shard lost a replica on the failed node.
func (r *FailoverReport) IsLost(shard int) bool {
	_, found := slices.BinarySearch(r.LostShardIDs, shard)
	return found
}

// PromotedAt reports whether the cell at (node, slot) became a leader.
func (r *FailoverReport) PromotedAt(node, slot int) bool {
	for _, p := range r.Promotions {
		if p.Node == node && p.Slot == slot {
			return true
		}
	}
	return false
}

// SurvivorHitCounts returns the hit counts of every node but the failed one.
func (r *FailoverReport) SurvivorHitCounts() []int {
	hits := make([]int, 0, len(r.HitCounts))
	for node, n := range r.HitCounts {
		if node != r.FailedNode {
			hits = append(hits, n)
		}
	}
	return hits
}

// SweepEntry summarises failover load for one candidate rank cycle.
type SweepEntry struct {
	RankCycle  int   `json:"rank_cycle" yaml:"rank_cycle"`
	ShiftTable []int `json:"shift_table,omitempty" yaml:"shift_table,omitempty"`
	// HitCounts covers surviving nodes only, in node order.
	HitCounts []int  `json:"hit_counts,omitempty" yaml:"hit_counts,omitempty"`
	Min       int    `json:"min" yaml:"min"`
	Max       int    `json:"max" yaml:"max"`
	Delta     int    `json:"delta" yaml:"delta"`
	Skipped   string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Err       error  `json:"-" yaml:"-"`
}
