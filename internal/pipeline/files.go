package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/alisio/boleto-extract/constants"
)

// Files already carrying a date prefix were renamed by an earlier run.
var reDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// ListFiles returns the names in dir eligible for processing: regular files
// with an allowed extension, not yet renamed, and not marked unidentified.
// Names are sorted so runs over the same directory are deterministic.
func ListFiles(dir string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}
	logger.Info("scanning directory", "path", dir, "entries", len(entries))

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if eligibleName(entry.Name()) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	logger.Info("eligible files found", "count", len(files))
	return files, nil
}

// eligibleName reports whether a file name qualifies for processing: allowed
// extension, no date prefix from an earlier run, no unidentified marker.
func eligibleName(name string) bool {
	if _, ok := constants.AllowedExtensions[constants.NormalizeExt(filepath.Ext(name))]; !ok {
		return false
	}
	if reDatePrefix.MatchString(name) {
		return false
	}
	if strings.Contains(strings.ToLower(name), constants.Unidentified) {
		return false
	}
	return true
}
