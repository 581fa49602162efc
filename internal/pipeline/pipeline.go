// Package pipeline drives each eligible file through extraction,
// classification, LLM field extraction, interpretation and rename. One
// file's failure never aborts the batch.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/alisio/boleto-extract/constants"
	"github.com/alisio/boleto-extract/internal/catalog"
	"github.com/alisio/boleto-extract/internal/classify"
	"github.com/alisio/boleto-extract/internal/extract"
	"github.com/alisio/boleto-extract/internal/interpret"
	"github.com/alisio/boleto-extract/internal/rename"
)

// Extractor is the text-extraction stage; satisfied by *extract.Extractor.
type Extractor interface {
	Extract(ctx context.Context, path string) (extract.Result, error)
}

// Completer is the LLM stage; satisfied by *llm.Client.
type Completer interface {
	Complete(ctx context.Context, text, promptTemplate string) (string, error)
}

type Config struct {
	Dir          string
	Prompt       string
	DryRun       bool
	Workers      int  // default 1; files are independent, catalog is read-only
	ShowProgress bool // draw a progress bar on stderr

	// AfterBatch, when set, is called at the end of every non-empty batch,
	// including a cancelled one (with the partial report). Watch mode runs
	// many batches per process, so per-batch bookkeeping hangs off this.
	AfterBatch func(started, finished time.Time, report *BatchReport)
}

type Pipeline struct {
	cfg    Config
	cat    *catalog.Catalog
	ex     Extractor
	llm    Completer
	logger *slog.Logger
}

func New(cfg Config, cat *catalog.Catalog, ex Extractor, completer Completer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Pipeline{cfg: cfg, cat: cat, ex: ex, llm: completer, logger: logger}
}

// Run processes every eligible file in the configured directory and returns
// the batch report. Cancellation stops new files from starting; the file in
// flight finishes and an already applied rename is not rolled back.
func (p *Pipeline) Run(ctx context.Context) (*BatchReport, error) {
	started := time.Now()

	files, err := ListFiles(p.cfg.Dir, p.logger)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{}
	if len(files) == 0 {
		p.logger.Warn("no eligible files to process", "dir", p.cfg.Dir)
		return report, nil
	}
	if p.cfg.DryRun {
		p.logger.Info("dry-run mode active, no file will be renamed")
	}
	p.logger.Info("starting batch", "files", len(files), "workers", p.cfg.Workers)

	var bar *progressbar.ProgressBar
	if p.cfg.ShowProgress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("processing receipts"),
		)
	}

	// Index-addressed slots keep report order equal to input order whatever
	// the worker count.
	outcomes := make([]FileOutcome, len(files))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = p.processFile(ctx, files[i])
				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}()
	}

feed:
	for i := range files {
		// Checked ahead of the select: when the context is already done and a
		// worker is idle, select alone could still pick the dispatch case.
		if ctx.Err() != nil {
			p.logger.Warn("run cancelled, not starting remaining files")
			break feed
		}
		select {
		case <-ctx.Done():
			p.logger.Warn("run cancelled, not starting remaining files")
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for _, out := range outcomes {
		if out.Filename == "" {
			continue // never dispatched, run was cancelled
		}
		report.Outcomes = append(report.Outcomes, out)
		if out.Status == constants.OutcomeFailed {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}

	p.logger.Info("processing finished", "succeeded", report.Succeeded, "failed", report.Failed)
	for _, f := range report.Failures() {
		p.logger.Error("failure summary", "file", f.Filename, "kind", string(f.FailKind), "reason", f.Reason)
	}

	if p.cfg.AfterBatch != nil {
		p.cfg.AfterBatch(started, time.Now(), report)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (p *Pipeline) processFile(ctx context.Context, name string) FileOutcome {
	out := FileOutcome{Filename: name, Status: constants.OutcomeFailed}
	logger := p.logger.With("file", name)
	logger.Info("processing file")

	path := filepath.Join(p.cfg.Dir, name)
	res, err := p.ex.Extract(ctx, path)
	if err != nil {
		return fail(out, FailureExtraction, err, logger)
	}
	if strings.TrimSpace(res.Text) == "" {
		return fail(out, FailureEmptyContent, errors.New("no content extracted"), logger)
	}
	logger.Debug("content extracted", "method", res.Method, "pages", res.Pages, "chars", len(res.Text))

	out.Label = classify.Classify(res.Text, p.cat, logger)

	raw, err := p.llm.Complete(ctx, res.Text, p.cfg.Prompt)
	if err != nil {
		return fail(out, FailureLLM, err, logger)
	}

	rec, err := interpret.Interpret(raw, logger)
	if err != nil {
		return fail(out, FailureInterpretation, err, logger)
	}
	out.Date, out.Amount = rec.Date, rec.Amount

	candidate := rename.Plan(p.cfg.Dir, name, rec.Date, rec.Amount, out.Label)
	renamed, err := rename.Commit(path, candidate, p.cfg.DryRun, logger)
	if err != nil {
		return fail(out, FailureRename, err, logger)
	}

	out.RenamedTo = filepath.Base(renamed.FinalPath)
	out.Collisions = renamed.Collisions
	if p.cfg.DryRun {
		out.Status = constants.OutcomeDryRun
	} else {
		out.Status = constants.OutcomeRenamed
	}
	logger.Info("file processed", "label", out.Label, "renamed_to", out.RenamedTo)
	return out
}

func fail(out FileOutcome, kind FailureKind, err error, logger *slog.Logger) FileOutcome {
	out.FailKind = kind
	out.Reason = err.Error()
	logger.Error("file failed", "kind", string(kind), "error", err)
	return out
}
