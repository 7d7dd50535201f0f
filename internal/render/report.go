package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zzenonn/zplan/internal/domain"
	zerrors "github.com/zzenonn/zplan/internal/errors"
)

// Format selects how reports are written.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", zerrors.ErrUnknownFormat, s)
	}
}

// Encode writes v as YAML or JSON. Text output goes through the table
// renderers instead.
func Encode(w io.Writer, v any, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("%w: %q cannot be encoded", zerrors.ErrUnknownFormat, format)
	}
}

// MatrixDocument is the encodable form of a placement matrix. Cells are
// indexed [node][slot].
type MatrixDocument struct {
	Layout domain.Layout `json:"layout" yaml:"layout"`
	Cells  [][]int       `json:"cells" yaml:"cells"`
}

func NewMatrixDocument(m *domain.Matrix) MatrixDocument {
	cells := make([][]int, m.NodeCount())
	for c := range cells {
		cells[c] = m.Column(c)
	}
	return MatrixDocument{Layout: m.Layout(), Cells: cells}
}

// FailoverDocument pairs a failover report with the layout it ran against.
type FailoverDocument struct {
	Layout domain.Layout          `json:"layout" yaml:"layout"`
	Report *domain.FailoverReport `json:"report" yaml:"report"`
}

// SweepDocument is the encodable form of a rank cycle sweep.
type SweepDocument struct {
	SlotsPerNode int                 `json:"slots_per_node" yaml:"slots_per_node"`
	NodeCount    int                 `json:"node_count" yaml:"node_count"`
	FailedNode   int                 `json:"failed_node" yaml:"failed_node"`
	Entries      []domain.SweepEntry `json:"entries" yaml:"entries"`
}
