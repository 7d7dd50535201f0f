package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zzenonn/zplan/internal/domain"
	zerrors "github.com/zzenonn/zplan/internal/errors"
	"github.com/zzenonn/zplan/internal/placement"
	"github.com/zzenonn/zplan/internal/render"
	"github.com/zzenonn/zplan/internal/service"
)

const shapeArgs = "[slots-per-node] [node-count]"

var matrixCmd = &cobra.Command{
	Use:   "matrix " + shapeArgs,
	Short: "Print the placement matrix",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := planRequest(args)
		if err != nil {
			return err
		}
		format, err := render.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}

		m, err := planService.Plan(req)
		if err != nil {
			return err
		}

		return emit(cmd, func(w io.Writer) error {
			if format != render.FormatText {
				return render.Encode(w, render.NewMatrixDocument(m), format)
			}
			if err := render.Table(w, m); err != nil {
				return err
			}
			return render.DistinctSummary(w, service.DistinctCounts(m))
		})
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph " + shapeArgs,
	Short: "Export the placement as a graphviz digraph",
	Long: `Export the placement as a graphviz digraph. With --failed-node the
affected and promoted cells are coloured and every node shows its hit and
promotion counts.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := planRequest(args)
		if err != nil {
			return err
		}

		var (
			m      *domain.Matrix
			report *domain.FailoverReport
		)
		if cfg.FailedNode < 0 {
			m, err = planService.Plan(req)
		} else {
			m, report, err = planService.Failover(req, cfg.FailedNode)
		}
		if err != nil {
			return err
		}

		return emit(cmd, func(w io.Writer) error {
			return render.Graph(w, m, report)
		})
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump " + shapeArgs,
	Short: "Dump the placement as a Go slice literal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := planRequest(args)
		if err != nil {
			return err
		}

		m, err := planService.Plan(req)
		if err != nil {
			return err
		}

		return emit(cmd, func(w io.Writer) error {
			return render.ArrayDump(w, m)
		})
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the registered shift tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs := placement.RegisteredShiftTables()
		tables := make([][]int, len(pairs))
		for i, pair := range pairs {
			table, err := placement.ShiftTable(pair[0], pair[1])
			if err != nil {
				return err
			}
			tables[i] = table
		}

		return emit(cmd, func(w io.Writer) error {
			return render.ShiftTables(w, pairs, tables)
		})
	},
}

// planRequest combines the positional shape with the configured options.
func planRequest(args []string) (service.PlanRequest, error) {
	slots, err := strconv.Atoi(args[0])
	if err != nil {
		return service.PlanRequest{}, fmt.Errorf("%w: %q", zerrors.ErrInvalidSlotCount, args[0])
	}
	nodes, err := strconv.Atoi(args[1])
	if err != nil {
		return service.PlanRequest{}, fmt.Errorf("%w: %q", zerrors.ErrInvalidNodeCount, args[1])
	}

	variant, err := domain.ParseVariant(cfg.Variant)
	if err != nil {
		return service.PlanRequest{}, err
	}

	req := service.PlanRequest{
		SlotsPerNode: slots,
		NodeCount:    nodes,
		RankOrder:    cfg.RankOrder,
		Balance:      cfg.Balance,
		IDOrigin:     cfg.IDOrigin,
		Variant:      variant,
	}
	return req, req.Validate()
}

// emit writes to stdout, or exports to --output when it is set.
func emit(cmd *cobra.Command, write func(io.Writer) error) error {
	if cfg.Output == "" {
		return write(cmd.OutOrStdout())
	}

	location, err := planService.Export(cmd.Context(), cfg.Output, write, cfg.Quiet)
	if err != nil {
		return err
	}
	if !cfg.Quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Plan written to %s\n", location)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(tablesCmd)
}
