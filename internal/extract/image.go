package extract

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for the dimension check
	_ "image/png"
	"os"

	"github.com/alisio/boleto-extract/constants"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	res := Result{Format: constants.IMAGE, Language: e.cfg.TesseractLang}

	if err := checkImageDimensions(path); err != nil {
		return res, err
	}

	txt, warn, err := e.tesseractOCR(ctx, path)
	res.Warnings = warn
	if err != nil {
		return res, err
	}

	res.Text = txt
	res.Pages = 1
	res.Method = "image-ocr"
	return res, nil
}

// checkImageDimensions decodes only the image header. The file handle is
// closed before OCR runs, on every path.
func checkImageDimensions(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		_ = f.Close()
		return fmt.Errorf("%w: image file is empty", ErrEmptyDocument)
	}
	cfg, _, err := image.DecodeConfig(f)
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close image: %w", closeErr)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("%w: image has a zero dimension", ErrEmptyDocument)
	}
	return nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}
