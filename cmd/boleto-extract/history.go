package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alisio/boleto-extract/internal/config"
	"github.com/alisio/boleto-extract/internal/history"
	"github.com/alisio/boleto-extract/internal/report"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		RunE:  historyList,
	}
	cmd.PersistentFlags().String("history-db", "", "SQLite file with run history")
	cmd.Flags().Int("limit", 20, "maximum runs to list")
	cmd.AddCommand(historyExportCmd())
	return cmd
}

func historyExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded outcomes to an XLSX file",
		RunE:  historyExport,
	}
	cmd.Flags().String("out", "", "output XLSX file path (required)")
	cmd.Flags().String("from", "", "only runs started on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "only runs started on or before this date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func openHistoryStore(ctx context.Context, cmd *cobra.Command) (*history.Store, error) {
	_ = viper.BindPFlag(config.KeyHistoryDB, cmd.Flags().Lookup("history-db"))
	cfg := config.FromViper(viper.GetViper())
	if cfg.HistoryDB == "" {
		return nil, fmt.Errorf("no history database configured (use --history-db or BOLETO_HISTORY_DB)")
	}
	return history.Open(ctx, cfg.HistoryDB, slog.Default())
}

func historyList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openHistoryStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	for _, r := range runs {
		mode := ""
		if r.DryRun {
			mode = " (dry-run)"
		}
		fmt.Printf("%s  %s%s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Directory, mode)
		fmt.Printf("    id=%s model=%s succeeded=%d failed=%d\n", r.ID, r.Model, r.Succeeded, r.Failed)
	}
	return nil
}

func historyExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out, _ := cmd.Flags().GetString("out")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	// Runs are filtered by start time; both bounds are whole days, the upper
	// one inclusive.
	var from time.Time
	to := time.Now().UTC().AddDate(0, 0, 1)
	if fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return fmt.Errorf("invalid --from date, use YYYY-MM-DD: %w", err)
		}
		from = parsed
	}
	if toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return fmt.Errorf("invalid --to date, use YYYY-MM-DD: %w", err)
		}
		to = parsed.AddDate(0, 0, 1)
	}

	store, err := openHistoryStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	outcomes, err := store.ListOutcomesBetween(ctx, from, to)
	if err != nil {
		return err
	}

	b, err := report.WriteXLSX(outcomes, slog.Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}

	fmt.Printf("Exported %d outcomes to %s\n", len(outcomes), out)
	return nil
}
