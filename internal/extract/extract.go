// Package extract turns a receipt document (PDF or scanned image) into raw
// text. PDFs are read through their text layer first; documents without one
// are rasterized and OCR'd page by page. External tools run behind a Runner
// so tests never shell out.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alisio/boleto-extract/constants"
)

var (
	ErrNotFound          = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyDocument     = errors.New("document has no content")
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "por"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // page cap for the OCR fallback; 0 = no limit
}

// Result is the outcome of one extraction. Text may be whitespace-only;
// deciding whether that is usable is the caller's call.
type Result struct {
	Text     string
	Pages    int
	Format   constants.Format
	Method   string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language string
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "por"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// NewWithRunner is New with an injected Runner, for tests.
func NewWithRunner(cfg Config, r Runner, logger *slog.Logger) *Extractor {
	e := New(cfg, logger)
	e.runner = r
	return e
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Result{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Result{}, fmt.Errorf("stat %s: %w", path, err)
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting extraction", "path", path, "ext", ext)

	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Preflight verifies the external tools are runnable, so a batch fails
// before the first file rather than on it.
func (e *Extractor) Preflight(ctx context.Context) error {
	checks := []struct {
		bin  string
		args []string
	}{
		{e.cfg.Tesseract, []string{"--version"}},
		{e.cfg.Pdftotext, []string{"-v"}},
		{e.cfg.Pdftoppm, []string{"-v"}},
	}
	for _, c := range checks {
		if _, _, err := e.runner.Run(ctx, c.bin, c.args...); err != nil {
			return fmt.Errorf("%s is not runnable: %w", c.bin, err)
		}
	}
	return nil
}
