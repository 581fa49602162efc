// Package catalog loads the payee-code reference table used to classify
// payment receipts. The table is a UTF-8 CSV (BOM tolerated) whose header
// must carry a payee-name column and a codes column; the codes column holds
// a list of tokens that must all appear in a document for the entry to match.
package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Column names required in the catalog header, matched case-insensitively.
const (
	labelColumn = "nome_pagamento"
	codesColumn = "codigos"
)

// ErrInvalidFormat reports a catalog source that cannot be used at all:
// missing required columns, empty file, or zero usable rows.
var ErrInvalidFormat = errors.New("invalid catalog format")

// Entry pairs a payee label with the normalized codes that identify it.
// An entry whose code set is empty stays in the catalog but never matches.
type Entry struct {
	Label string
	Codes []string
}

// Catalog is an ordered list of entries. Order is load order and is a
// tie-break policy: the first fully matching entry wins.
type Catalog struct {
	Entries []Entry
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads and normalizes a catalog CSV. Rows missing a label or a codes
// value are skipped with a warning; a file with no usable rows fails with
// ErrInvalidFormat. The codes field may have been split across trailing
// columns by embedded commas, so all columns from the codes column onward
// are rejoined before normalization.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidFormat, err)
	}

	labelIdx, codesIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case labelColumn:
			labelIdx = i
		case codesColumn:
			codesIdx = i
		}
	}
	if labelIdx < 0 || codesIdx < 0 {
		return nil, fmt.Errorf("%w: header must contain %q and %q columns", ErrInvalidFormat, labelColumn, codesColumn)
	}

	cat := &Catalog{}
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidFormat, line, err)
		}
		if blankRow(row) {
			continue
		}
		if len(row) <= codesIdx || len(row) <= labelIdx {
			logger.Warn("catalog row missing codes column", "line", line)
			continue
		}

		label := strings.TrimSpace(row[labelIdx])
		fragments := make([]string, 0, len(row)-codesIdx)
		for _, frag := range row[codesIdx:] {
			fragments = append(fragments, strings.TrimSpace(frag))
		}
		rawCodes := strings.TrimSpace(strings.Join(fragments, ","))

		if label == "" || rawCodes == "" {
			logger.Warn("catalog row incomplete, skipping", "line", line)
			continue
		}

		cat.Entries = append(cat.Entries, Entry{
			Label: label,
			Codes: NormalizeCodes(rawCodes, logger),
		})
	}

	if len(cat.Entries) == 0 {
		return nil, fmt.Errorf("%w: no valid rows", ErrInvalidFormat)
	}

	logger.Info("catalog loaded", "path", path, "entries", len(cat.Entries))
	return cat, nil
}

func blankRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
