// Package report renders batch outcomes as an XLSX workbook.
package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/alisio/boleto-extract/internal/pipeline"
)

// WriteXLSX returns an XLSX workbook (as bytes) with one row per outcome.
func WriteXLSX(outcomes []pipeline.FileOutcome, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Boletos"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Payment Date",
		"Amount",
		"Payee",
		"Original File",
		"Renamed To",
		"Status",
		"Failure Reason",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, out := range outcomes {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, out.Date)
		write(2, out.Amount)
		write(3, out.Label)
		write(4, out.Filename)
		write(5, out.RenamedTo)
		write(6, string(out.Status))
		write(7, truncate(out.Reason, 140))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "B", 12) // amount
	_ = f.SetColWidth(sheet, "C", "C", 24) // payee
	_ = f.SetColWidth(sheet, "D", "E", 44) // file names
	_ = f.SetColWidth(sheet, "F", "F", 10) // status
	_ = f.SetColWidth(sheet, "G", "G", 48) // reason

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"rows", len(outcomes),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
