package render

import (
	"fmt"
	"io"

	"github.com/zzenonn/zplan/internal/domain"
)

// Cell colours in the exported graph.
const (
	colorPromoted   = "red"
	colorAffected   = "blue"
	colorLeaderRow  = "orange"
	colorUnaffected = "white"
	colorHits       = "green"
	colorPromotions = "yellow"
)

var groupEdgeColors = [2]string{"black", "red"}

// printer remembers the first write error so the graph body reads linearly.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Graph writes a graphviz digraph with one record per node and a chain of
// edges through each group's leader slot. When report is non-nil, cells that
// lost a replica are coloured as affected or promoted and every record ends
// with its hit and promotion counts.
func Graph(w io.Writer, m *domain.Matrix, report *domain.FailoverReport) error {
	p := &printer{w: w}
	p.printf("digraph G {\n")
	p.printf("\trankdir=LR;\n")

	for c := 0; c < m.NodeCount(); c++ {
		headColor := "black"
		if report != nil && c == report.FailedNode {
			headColor = colorPromoted
		}
		p.printf("\thost%d [shape=none label=<<table><tr><td bgcolor=\"%s\"><font color=\"white\">Node-%d</font></td></tr>\n",
			c, headColor, c)

		for r := 0; r < m.SlotsPerNode(); r++ {
			v := m.Cell(c, r)
			color := cellColor(m, report, c, r, v)
			if m.IsLeaderSlot(r) {
				p.printf("<tr><td bgcolor=\"%s\" port=\"%s\">%d</td></tr>\n", color, port(c, m.Group(r)), v)
			} else {
				p.printf("<tr><td bgcolor=\"%s\">%d</td></tr>\n", color, v)
			}
		}

		if report != nil {
			p.printf("<tr><td bgcolor=\"%s\">%d</td></tr>\n", colorHits, report.HitCounts[c])
			p.printf("<tr><td bgcolor=\"%s\">%d</td></tr>\n", colorPromotions, report.PromotionCounts[c])
		}
		p.printf("</table>>];\n")
	}

	for g := 0; g < m.Groups(); g++ {
		color := groupEdgeColors[g%2]
		for c := 0; c < m.NodeCount()-1; c++ {
			from, to := port(c, g), port(c+1, g)
			if c == 0 {
				p.printf("\thost%d:%s -> host%d:%s [ label=\"group%d\" color=\"%s\" ];\n", c, from, c+1, to, g, color)
			} else {
				p.printf("\thost%d:%s -> host%d:%s [ color=\"%s\" ];\n", c, from, c+1, to, color)
			}
		}
	}

	p.printf("}\n")
	return p.err
}

func port(node, group int) string {
	return fmt.Sprintf("g%d_%d", node, group)
}

func cellColor(m *domain.Matrix, report *domain.FailoverReport, node, slot, v int) string {
	if report != nil && report.IsLost(v) {
		if report.PromotedAt(node, slot) {
			return colorPromoted
		}
		return colorAffected
	}
	if m.IsLeaderSlot(slot) {
		return colorLeaderRow
	}
	return colorUnaffected
}
