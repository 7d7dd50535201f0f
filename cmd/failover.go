package main

import (
	"io"

	"github.com/spf13/cobra"

	zerrors "github.com/zzenonn/zplan/internal/errors"
	"github.com/zzenonn/zplan/internal/render"
)

var failoverCmd = &cobra.Command{
	Use:   "failover " + shapeArgs + " --failed-node N",
	Short: "Simulate the loss of one node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.FailedNode < 0 {
			return zerrors.FlagNotSetError("failed-node")
		}
		req, err := planRequest(args)
		if err != nil {
			return err
		}
		format, err := render.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}

		m, report, err := planService.Failover(req, cfg.FailedNode)
		if err != nil {
			return err
		}

		return emit(cmd, func(w io.Writer) error {
			if format != render.FormatText {
				return render.Encode(w, render.FailoverDocument{Layout: m.Layout(), Report: report}, format)
			}
			if err := render.Table(w, m); err != nil {
				return err
			}
			return render.FailoverTable(w, report)
		})
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep " + shapeArgs + " --failed-node N",
	Short: "Compare failover load across every rank cycle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.FailedNode < 0 {
			return zerrors.FlagNotSetError("failed-node")
		}
		req, err := planRequest(args)
		if err != nil {
			return err
		}
		format, err := render.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}

		entries, err := planService.Sweep(cmd.Context(), req, cfg.FailedNode)
		if err != nil {
			return err
		}

		return emit(cmd, func(w io.Writer) error {
			if format != render.FormatText {
				return render.Encode(w, render.SweepDocument{
					SlotsPerNode: req.SlotsPerNode,
					NodeCount:    req.NodeCount,
					FailedNode:   cfg.FailedNode,
					Entries:      entries,
				}, format)
			}
			return render.SweepTable(w, entries)
		})
	},
}

func init() {
	rootCmd.AddCommand(failoverCmd)
	rootCmd.AddCommand(sweepCmd)
}
