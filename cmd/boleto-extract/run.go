package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alisio/boleto-extract/internal/catalog"
	"github.com/alisio/boleto-extract/internal/config"
	"github.com/alisio/boleto-extract/internal/extract"
	"github.com/alisio/boleto-extract/internal/history"
	"github.com/alisio/boleto-extract/internal/llm"
	"github.com/alisio/boleto-extract/internal/pipeline"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a directory of receipts",
		Long: `Process every eligible receipt in --dir: extract text, classify against
the --catalog CSV, query the LLM for date and amount, and rename the file.

Examples:
  boleto-extract run --dir ~/boletos --catalog contas.csv
  boleto-extract run --dir ~/boletos --catalog contas.csv --dry-run
  boleto-extract run --dir ~/boletos --catalog contas.csv --model llama3.1 --workers 4
  boleto-extract run --dir ~/boletos --catalog contas.csv --watch`,
		RunE: runRun,
	}

	cmd.Flags().String("dir", "", "directory with receipts to process (required)")
	cmd.Flags().String("catalog", "", "payee catalog CSV file (required)")
	cmd.Flags().Bool("dry-run", false, "resolve new names without renaming anything")
	cmd.Flags().Bool("watch", false, "keep watching the directory and process files as they arrive")
	cmd.Flags().Duration("debounce", pipeline.DefaultDebounce, "quiet window before a watch batch starts")
	cmd.Flags().StringP("model", "m", config.DefaultModel, "LLM model name")
	cmd.Flags().String("base-url", config.DefaultBaseURL, "OpenAI-compatible base URL")
	cmd.Flags().String("api-key", config.DefaultAPIKey, "API key for the LLM endpoint")
	cmd.Flags().String("lang", config.DefaultLang, "tesseract language")
	cmd.Flags().Int("timeout", config.DefaultTimeout, "LLM request timeout in seconds")
	cmd.Flags().Int("workers", 1, "files processed in parallel")
	cmd.Flags().String("history-db", "", "SQLite file recording run history (empty disables)")
	_ = cmd.MarkFlagRequired("dir")
	_ = cmd.MarkFlagRequired("catalog")

	_ = viper.BindPFlag(config.KeyModel, cmd.Flags().Lookup("model"))
	_ = viper.BindPFlag(config.KeyBaseURL, cmd.Flags().Lookup("base-url"))
	_ = viper.BindPFlag(config.KeyAPIKey, cmd.Flags().Lookup("api-key"))
	_ = viper.BindPFlag(config.KeyLang, cmd.Flags().Lookup("lang"))
	_ = viper.BindPFlag(config.KeyTimeout, cmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag(config.KeyWorkers, cmd.Flags().Lookup("workers"))

	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	// Bound here, not in the constructor: the history commands carry the same
	// flag, and a key can only stay bound to one of them.
	_ = viper.BindPFlag(config.KeyHistoryDB, cmd.Flags().Lookup("history-db"))
	dir, _ := cmd.Flags().GetString("dir")
	catalogPath, _ := cmd.Flags().GetString("catalog")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	watch, _ := cmd.Flags().GetBool("watch")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	cfg := config.FromViper(viper.GetViper())
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := slog.Default()

	extractor := extract.New(extract.Config{TesseractLang: cfg.TesseractLang}, logger)
	if err := extractor.Preflight(ctx); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}

	cat, err := catalog.Load(catalogPath, logger)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", "payees", len(cat.Entries))

	client := llm.New(llm.Config{
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	}, logger)

	afterBatch := func(started, finished time.Time, report *pipeline.BatchReport) {
		if cfg.HistoryDB != "" {
			recordHistory(cfg, history.Run{
				StartedAt:  started,
				FinishedAt: finished,
				Directory:  dir,
				Catalog:    catalogPath,
				Model:      cfg.Model,
				DryRun:     dryRun,
				Succeeded:  report.Succeeded,
				Failed:     report.Failed,
			}, report, logger)
		}
		printSummary(report, dryRun)
	}

	p := pipeline.New(pipeline.Config{
		Dir:          dir,
		Prompt:       llm.DefaultPrompt,
		DryRun:       dryRun,
		Workers:      cfg.Workers,
		ShowProgress: true,
		AfterBatch:   afterBatch,
	}, cat, extractor, client, logger)

	if watch {
		err := p.Watch(ctx, debounce)
		if errors.Is(err, context.Canceled) {
			return nil // interrupt is the normal way out of watch mode
		}
		return err
	}

	_, runErr := p.Run(ctx)
	return runErr
}

func printSummary(report *pipeline.BatchReport, dryRun bool) {
	fmt.Printf("Processing complete!\n")
	fmt.Printf("- Files: %d\n", len(report.Outcomes))
	fmt.Printf("- Succeeded: %d\n", report.Succeeded)
	fmt.Printf("- Failed: %d\n", report.Failed)
	if dryRun {
		fmt.Printf("- Dry run: no file was renamed\n")
	}
	for _, f := range report.Failures() {
		fmt.Printf("  %s: [%s] %s\n", f.Filename, f.FailKind, f.Reason)
	}
}

// recordHistory writes the run to the history database. Bookkeeping only:
// failures are logged, never returned, and a cancelled run is still recorded,
// so this takes its own context.
func recordHistory(cfg config.Config, run history.Run, report *pipeline.BatchReport, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := history.Open(ctx, cfg.HistoryDB, logger)
	if err != nil {
		logger.Warn("history disabled for this run", "db", cfg.HistoryDB, "error", err)
		return
	}
	defer store.Close()

	if _, err := store.RecordRun(ctx, run, report.Outcomes); err != nil {
		logger.Warn("failed to record run history", "error", err)
	}
}
