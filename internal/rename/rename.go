// Package rename composes the canonical receipt filename and applies it,
// resolving collisions deterministically.
package rename

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alisio/boleto-extract/constants"
)

var (
	ErrRename            = errors.New("rename failed")
	ErrTooManyCollisions = errors.New("no free filename")
)

// maxCollisionAttempts bounds the suffix search; past this the directory is
// pathological and the file is reported as failed rather than looping on.
const maxCollisionAttempts = 10000

// Outcome reports what Commit did, or would have done under dry-run.
type Outcome struct {
	OriginalPath string
	FinalPath    string
	Collisions   int
	DryRun       bool
}

// Plan composes the destination path: {date}-R${amount}-{label}.{ext}, with
// the original extension lower-cased.
func Plan(dir, originalName, date, amount, label string) string {
	ext := constants.NormalizeExt(filepath.Ext(originalName))
	return filepath.Join(dir, fmt.Sprintf("%s-R$%s-%s.%s", date, amount, label, ext))
}

// Commit renames originalPath to candidatePath. When the candidate exists,
// numeric suffixes _1, _2, ... are tried against the original stem until a
// free name is found, re-checking existence at every step. Dry-run still
// resolves collisions against the real filesystem but moves nothing, so the
// reported name is the one a real run would have produced.
func Commit(originalPath, candidatePath string, dryRun bool, logger *slog.Logger) (Outcome, error) {
	if logger == nil {
		logger = slog.Default()
	}
	out := Outcome{OriginalPath: originalPath, FinalPath: candidatePath, DryRun: dryRun}

	dir := filepath.Dir(candidatePath)
	ext := filepath.Ext(candidatePath)
	stem := strings.TrimSuffix(filepath.Base(candidatePath), ext)

	final := candidatePath
	for n := 0; ; n++ {
		if n > maxCollisionAttempts {
			return out, fmt.Errorf("%w after %d attempts: %s", ErrTooManyCollisions, maxCollisionAttempts, candidatePath)
		}
		if n > 0 {
			final = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		}
		exists, err := pathExists(final)
		if err != nil {
			return out, fmt.Errorf("%w: %v", ErrRename, err)
		}
		if !exists {
			break
		}
		if n == 0 {
			logger.Warn("destination already exists, looking for a free suffix", "path", final)
		}
		out.Collisions++
	}
	out.FinalPath = final

	if dryRun {
		logger.Info("dry-run, rename skipped", "from", originalPath, "to", final)
		return out, nil
	}

	if err := os.Rename(originalPath, final); err != nil {
		return out, fmt.Errorf("%w: %v", ErrRename, err)
	}
	logger.Info("file renamed", "from", originalPath, "to", final)
	return out, nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
