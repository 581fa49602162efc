// Package classify assigns a payee label to extracted document text by
// matching catalog codes as substrings.
package classify

import (
	"log/slog"
	"strings"

	"github.com/alisio/boleto-extract/constants"
	"github.com/alisio/boleto-extract/internal/catalog"
)

// Classify returns the label of the first catalog entry whose every code
// appears in the lower-cased document text. Entries with no codes never
// match. When nothing matches it returns the unidentified sentinel.
func Classify(text string, cat *catalog.Catalog, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	lower := strings.ToLower(text)
	for _, entry := range cat.Entries {
		if len(entry.Codes) == 0 {
			continue
		}
		if containsAll(lower, entry.Codes) {
			logger.Info("document classified",
				"label", entry.Label,
				"codes", strings.Join(entry.Codes, ","),
			)
			return entry.Label
		}
	}
	logger.Info("document matched no catalog entry")
	return constants.Unidentified
}

func containsAll(text string, codes []string) bool {
	for _, code := range codes {
		if !strings.Contains(text, code) {
			return false
		}
	}
	return true
}
