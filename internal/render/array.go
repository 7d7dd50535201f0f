package render

import (
	"bufio"
	"io"
	"strconv"

	"github.com/zzenonn/zplan/internal/domain"
)

// ArrayDump writes the matrix as a Go slice literal with one inner slice per
// node, values in slot order.
func ArrayDump(w io.Writer, m *domain.Matrix) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("var placement = [][]int{\n")
	for c := 0; c < m.NodeCount(); c++ {
		bw.WriteString("\t{")
		for r, v := range m.Column(c) {
			if r > 0 {
				bw.WriteString(", ")
			}
			bw.WriteString(strconv.Itoa(v))
		}
		bw.WriteString("}, // node ")
		bw.WriteString(strconv.Itoa(c))
		bw.WriteString("\n")
	}
	bw.WriteString("}\n")
	return bw.Flush()
}
