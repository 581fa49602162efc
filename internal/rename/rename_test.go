package rename

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name         string
		originalName string
		date, amount string
		label        string
		want         string
	}{
		{"basic", "boleto123.pdf", "2020-08-20", "41.00", "acme", "2020-08-20-R$41.00-acme.pdf"},
		{"uppercase extension", "SCAN.PDF", "2023-02-17", "10799.10", "energia", "2023-02-17-R$10799.10-energia.pdf"},
		{"jpeg", "foto.jpeg", "2021-01-05", "0.99", "agua", "2021-01-05-R$0.99-agua.jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan("/tmp/recibos", tt.originalName, tt.date, tt.amount, tt.label)
			assert.Equal(t, filepath.Join("/tmp/recibos", tt.want), got)
		})
	}
}

func TestCommitRenames(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "boleto.pdf")
	touch(t, src)
	dst := Plan(dir, "boleto.pdf", "2020-08-20", "41.00", "acme")

	out, err := Commit(src, dst, false, testLogger())
	require.NoError(t, err)
	assert.Equal(t, dst, out.FinalPath)
	assert.Zero(t, out.Collisions)
	assert.False(t, out.DryRun)

	assert.NoFileExists(t, src)
	assert.FileExists(t, dst)
}

func TestCommitResolvesCollisions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "boleto.pdf")
	touch(t, src)

	dst := filepath.Join(dir, "2020-08-20-R$41.00-acme.pdf")
	touch(t, dst)

	out, err := Commit(src, dst, false, testLogger())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2020-08-20-R$41.00-acme_1.pdf"), out.FinalPath)
	assert.Equal(t, 1, out.Collisions)
	assert.FileExists(t, out.FinalPath)
}

// Two occupied candidates must yield the fixed-base suffix _2, not _1_2.
func TestCommitTwoCollisionsYieldsSuffixTwo(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "boleto.pdf")
	touch(t, src)

	touch(t, filepath.Join(dir, "2020-08-20-R$41.00-acme.pdf"))
	touch(t, filepath.Join(dir, "2020-08-20-R$41.00-acme_1.pdf"))

	out, err := Commit(src, filepath.Join(dir, "2020-08-20-R$41.00-acme.pdf"), false, testLogger())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2020-08-20-R$41.00-acme_2.pdf"), out.FinalPath)
	assert.Equal(t, 2, out.Collisions)
}

func TestCommitDryRun(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "boleto.pdf")
	touch(t, src)

	dst := filepath.Join(dir, "2020-08-20-R$41.00-acme.pdf")
	touch(t, dst)

	out, err := Commit(src, dst, true, testLogger())
	require.NoError(t, err)
	assert.True(t, out.DryRun)
	// collision still resolved, nothing moved
	assert.Equal(t, filepath.Join(dir, "2020-08-20-R$41.00-acme_1.pdf"), out.FinalPath)
	assert.FileExists(t, src)
	assert.NoFileExists(t, out.FinalPath)
}

func TestCommitMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := Commit(filepath.Join(dir, "gone.pdf"), filepath.Join(dir, "x.pdf"), false, testLogger())
	assert.ErrorIs(t, err, ErrRename)
}
