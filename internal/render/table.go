// Package render turns placement matrices and failover reports into text.
// Renderers only read their inputs.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/zzenonn/zplan/internal/domain"
)

const (
	roleLeader   = "leader"
	roleFollower = "follower"
)

// NodeLabel is the column heading used for node c.
func NodeLabel(c int) string {
	return fmt.Sprintf("N-%03d", c)
}

func header(table *tablewriter.Table, cells []string) {
	args := make([]any, len(cells))
	for i, c := range cells {
		args[i] = c
	}
	table.Header(args...)
}

// Table prints one row per slot and one column per node. Leader slots are
// starred in the slot column and labelled in the role column.
func Table(w io.Writer, m *domain.Matrix) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Slot", "Role"}
	for c := 0; c < m.NodeCount(); c++ {
		headers = append(headers, NodeLabel(c))
	}
	header(table, headers)

	for r := 0; r < m.SlotsPerNode(); r++ {
		slot, role := strconv.Itoa(r), roleFollower
		if m.IsLeaderSlot(r) {
			slot, role = "*"+slot, roleLeader
		}
		row := []string{slot, role}
		for _, v := range m.Row(r) {
			row = append(row, strconv.Itoa(v))
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// FailoverTable prints per-node hit and promotion counts followed by the
// promotion list.
func FailoverTable(w io.Writer, report *domain.FailoverReport) error {
	table := tablewriter.NewWriter(w)
	header(table, []string{"Node", "Hits", "Promotions", "Promoted Shards"})

	promotedShards := make(map[int][]string)
	for _, p := range report.Promotions {
		promotedShards[p.Node] = append(promotedShards[p.Node], strconv.Itoa(p.ShardID))
	}

	for c := range report.HitCounts {
		label := NodeLabel(c)
		if c == report.FailedNode {
			label += " (failed)"
		}
		row := []string{
			label,
			humanize.Comma(int64(report.HitCounts[c])),
			humanize.Comma(int64(report.PromotionCounts[c])),
			strings.Join(promotedShards[c], ","),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "lost %s shards, %s promotions\n",
		humanize.Comma(int64(len(report.LostShardIDs))), humanize.Comma(int64(len(report.Promotions))))
	return err
}

// SweepTable prints one row per candidate rank cycle.
func SweepTable(w io.Writer, entries []domain.SweepEntry) error {
	table := tablewriter.NewWriter(w)
	header(table, []string{"Rank Cycle", "Min", "Max", "Delta", "Hits"})

	for _, e := range entries {
		var row []string
		if e.Err != nil {
			row = []string{strconv.Itoa(e.RankCycle), "-", "-", "-", "skipped: " + e.Skipped}
		} else {
			hits := make([]string, len(e.HitCounts))
			for i, h := range e.HitCounts {
				hits[i] = humanize.Comma(int64(h))
			}
			row = []string{
				strconv.Itoa(e.RankCycle),
				humanize.Comma(int64(e.Min)),
				humanize.Comma(int64(e.Max)),
				humanize.Comma(int64(e.Delta)),
				strings.Join(hits, " "),
			}
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// ShiftTables prints each registered rank cycle with its shift table.
func ShiftTables(w io.Writer, pairs [][2]int, tables [][]int) error {
	table := tablewriter.NewWriter(w)
	header(table, []string{"Nodes", "Rank Cycle", "Shift Table"})

	for i, pair := range pairs {
		shifts := make([]string, len(tables[i]))
		for j, s := range tables[i] {
			shifts[j] = strconv.Itoa(s)
		}
		row := []string{strconv.Itoa(pair[1]), strconv.Itoa(pair[0]), strings.Join(shifts, " ")}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// DistinctSummary prints how many distinct shards each node holds.
func DistinctSummary(w io.Writer, counts []int) error {
	parts := make([]string, len(counts))
	for c, n := range counts {
		parts[c] = NodeLabel(c) + "=" + humanize.Comma(int64(n))
	}
	_, err := fmt.Fprintf(w, "distinct shards per node: %s\n", strings.Join(parts, " "))
	return err
}
