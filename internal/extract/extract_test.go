package extract

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubRunner fakes the external OCR tools.
type stubRunner struct {
	calls []string
	run   func(name string, args ...string) (string, string, error)
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, name)
	out, stderr, err := s.run(name, args...)
	return []byte(out), []byte(stderr), err
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, f.Close())
	return path
}

func TestExtractUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", []byte("hello"))

	e := NewWithRunner(Config{}, &stubRunner{}, testLogger())
	_, err := e.Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractMissingFile(t *testing.T) {
	e := NewWithRunner(Config{}, &stubRunner{}, testLogger())
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExtractPDFTextLayer(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "boleto.pdf", []byte("%PDF-fake"))

	r := &stubRunner{run: func(name string, args ...string) (string, string, error) {
		if strings.Contains(name, "pdftotext") {
			return "primeira pagina\fsegunda pagina", "", nil
		}
		return "", "", fmt.Errorf("unexpected call: %s", name)
	}}

	e := NewWithRunner(Config{}, r, testLogger())
	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "segunda pagina")
	// the fake pdf fails the structural check, which is only a warning
	assert.NotEmpty(t, res.Warnings)
}

func TestExtractPDFFallsBackToOCR(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.pdf", []byte("%PDF-fake"))

	r := &stubRunner{run: func(name string, args ...string) (string, string, error) {
		switch {
		case strings.Contains(name, "pdftotext"):
			return "  \n\f \n", "", nil // whitespace-only text layer
		case strings.Contains(name, "pdftoppm"):
			prefix := args[len(args)-1]
			for i := 1; i <= 2; i++ {
				out := fmt.Sprintf("%s-%d.png", prefix, i)
				if err := os.WriteFile(out, []byte("png"), 0o644); err != nil {
					return "", "", err
				}
			}
			return "", "", nil
		case strings.Contains(name, "tesseract"):
			page := args[0]
			if strings.HasSuffix(page, "-1.png") {
				return "primeira", "", nil
			}
			return "segunda", "", nil
		}
		return "", "", fmt.Errorf("unexpected call: %s", name)
	}}

	e := NewWithRunner(Config{}, r, testLogger())
	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "primeira\n\f\nsegunda", res.Text)
}

func TestExtractImage(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "recibo.png")

	r := &stubRunner{run: func(name string, args ...string) (string, string, error) {
		require.Contains(t, name, "tesseract")
		assert.Equal(t, []string{path, "stdout", "-l", "por"}, args)
		return "texto reconhecido", "", nil
	}}

	e := NewWithRunner(Config{}, r, testLogger())
	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "texto reconhecido", res.Text)
	assert.Equal(t, "por", res.Language)
}

func TestExtractEmptyImage(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vazio.png", nil)

	e := NewWithRunner(Config{}, &stubRunner{}, testLogger())
	_, err := e.Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestPreflightReportsMissingBinary(t *testing.T) {
	r := &stubRunner{run: func(name string, args ...string) (string, string, error) {
		if strings.Contains(name, "pdftoppm") {
			return "", "", fmt.Errorf("exec: %q: executable file not found", name)
		}
		return "ok", "", nil
	}}

	e := NewWithRunner(Config{}, r, testLogger())
	err := e.Preflight(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftoppm")
}

func TestPreflightOK(t *testing.T) {
	r := &stubRunner{run: func(string, ...string) (string, string, error) { return "v1", "", nil }}
	e := NewWithRunner(Config{}, r, testLogger())
	require.NoError(t, e.Preflight(context.Background()))
	assert.Len(t, r.calls, 3)
}
