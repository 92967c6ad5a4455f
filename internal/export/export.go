// Package export writes the trade journal as an Excel workbook.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/xuri/excelize/v2"

	"trading-journal/internal/analytics"
	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/models"
)

// SheetName is the name of the single worksheet in an export.
const SheetName = "Trading Journal"

// Headers returns the column headers in order.
func Headers() []string {
	h := []string{
		"Date",
		"Market Context",
		"Bias",
		"Direction",
		"P&L($)",
		"Risk Amount($)",
		"Risk-Reward Ratio",
		"Entry Reason",
		"Exit Reason",
	}
	for i, rule := range models.Rules {
		h = append(h, fmt.Sprintf("Rule %d: %s", i+1, rule))
	}
	return append(h, "Rules Followed")
}

// Row is one exported trade. Amounts are float64, everything else a string.
type Row []interface{}

// Rows maps trades to export rows, preserving order.
func Rows(trades []models.Trade) []Row {
	rows := make([]Row, 0, len(trades))
	for _, t := range trades {
		row := Row{
			t.Date,
			t.MarketContext,
			string(t.Bias),
			string(t.Direction),
			t.PnL,
			t.RiskAmount,
			analytics.RiskReward(t),
			t.EntryReason,
			t.ExitReason,
		}
		for _, followed := range t.RulesFollowed {
			row = append(row, yesNo(followed))
		}
		rows = append(rows, append(row, analytics.RulesSummary(t)))
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Filename returns the export file name for the given day.
func Filename(now time.Time) string {
	return fmt.Sprintf("trading-journal-%s.xlsx", now.Format(models.DateLayout))
}

// Write encodes trades as an xlsx workbook to w.
func Write(w io.Writer, trades []models.Trade) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := Headers()
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range Rows(trades) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}(row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		return err
	}

	return f.Write(w)
}

// Result describes a written export file.
type Result struct {
	Path     string `json:"path" yaml:"path"`
	Rows     int    `json:"rows" yaml:"rows"`
	Checksum string `json:"checksum" yaml:"checksum"`
}

// ToFile writes the workbook into dir using the dated file name and returns
// the path, the row count and an xxhash64 checksum of the file contents.
func ToFile(ctx context.Context, dir string, trades []models.Trade, now time.Time) (Result, error) {
	if len(trades) == 0 {
		return Result{}, apperrors.ErrNoDataToExport
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return Result{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, Filename(now))
	file, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create export file: %w", err)
	}

	digest := xxhash.New()
	if err := Write(io.MultiWriter(file, digest), trades); err != nil {
		file.Close()
		os.Remove(path)
		return Result{}, err
	}
	if err := file.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close export file: %w", err)
	}

	return Result{
		Path:     path,
		Rows:     len(trades),
		Checksum: fmt.Sprintf("%016x", digest.Sum64()),
	}, nil
}
