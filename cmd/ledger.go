package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	zerrors "github.com/zzenonn/zplan/internal/errors"
	"github.com/zzenonn/zplan/internal/repository/db"
	"github.com/zzenonn/zplan/internal/repository/migrate"
	"github.com/zzenonn/zplan/internal/repository/objectstore"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Manage the DynamoDB export ledger",
}

var ledgerInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the export ledger table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.LedgerTable == "" {
			return zerrors.FlagNotSetError("ledger-table")
		}
		dynamoDb, err := connectDatabase(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to connect to the database: %w", err)
		}

		m := &migrate.CreateExportLedgerTable{Name: cfg.LedgerTable}
		if err := m.Up(cmd.Context(), dynamoDb.Client); err != nil {
			return fmt.Errorf("failed to create %s: %w", m.TableName(), err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Export ledger %s created\n", m.TableName())
		return nil
	},
}

var ledgerDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the export ledger table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.LedgerTable == "" {
			return zerrors.FlagNotSetError("ledger-table")
		}
		dynamoDb, err := connectDatabase(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to connect to the database: %w", err)
		}

		m := &migrate.CreateExportLedgerTable{Name: cfg.LedgerTable}
		if err := m.Down(cmd.Context(), dynamoDb.Client); err != nil {
			return fmt.Errorf("failed to delete %s: %w", m.TableName(), err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Export ledger %s deleted\n", m.TableName())
		return nil
	},
}

var ledgerListCmd = &cobra.Command{
	Use:   "list [target]",
	Short: "List recorded exports to a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.LedgerTable == "" {
			return zerrors.FlagNotSetError("ledger-table")
		}
		target, err := objectstore.ParseTarget(args[0])
		if err != nil {
			return err
		}
		dynamoDb, err := connectDatabase(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to connect to the database: %w", err)
		}

		repo := db.NewExportRepository(dynamoDb.Client, cfg.LedgerTable)
		records, err := repo.ListExports(cmd.Context(), target.String())
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("Exported At", "Location", "Storage", "Size")
		for _, rec := range records {
			row := []string{
				rec.ExportedAt.Format(time.RFC3339),
				rec.Location,
				rec.StorageType,
				humanize.Bytes(uint64(rec.Bytes)),
			}
			if err := table.Append(row); err != nil {
				return err
			}
		}
		return table.Render()
	},
}

var ledgerDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find export ledger tables in the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		dynamoDb, err := connectDatabase(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to connect to the database: %w", err)
		}

		tables, err := dynamoDb.FindLedgerTables(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range tables {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerInitCmd)
	ledgerCmd.AddCommand(ledgerDropCmd)
	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerDiscoverCmd)
	rootCmd.AddCommand(ledgerCmd)
}
