// Package report renders the ranked inventory as CSV or XLSX downloads.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"stockpulse/backend/internal/domain"
)

const SheetName = "Inventory"

var header = []string{"Model", "Stock", "Safety Stock", "Status", "Difference"}

func rowValues(row domain.InventoryRow) []string {
	return []string{
		row.Model,
		strconv.Itoa(row.Stock),
		strconv.Itoa(row.SafetyStock),
		row.StockStatus.Label(),
		strconv.Itoa(row.Difference),
	}
}

func totals(summary domain.InventorySummary) [][]string {
	return [][]string{
		{"Total Models", strconv.Itoa(summary.TotalModels)},
		{"Out of Stock", strconv.Itoa(summary.OutOfStock)},
		{"Low Stock", strconv.Itoa(summary.LowStock)},
	}
}

// Filename is the download name for the given extension, dated by the summary.
func Filename(summary domain.InventorySummary, ext string) string {
	return fmt.Sprintf("inventory-%s.%s", domain.Day(summary.GeneratedAt), ext)
}

func WriteCSV(w io.Writer, summary domain.InventorySummary) error {
	out := csv.NewWriter(w)
	if err := out.Write(header); err != nil {
		return err
	}
	for _, row := range summary.Rows {
		if err := out.Write(rowValues(row)); err != nil {
			return err
		}
	}
	if err := out.Write([]string{}); err != nil {
		return err
	}
	if err := out.WriteAll(totals(summary)); err != nil {
		return err
	}
	out.Flush()
	return out.Error()
}

func WriteXLSX(w io.Writer, summary domain.InventorySummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := setRow(f, 1, header); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	line := 2
	for _, row := range summary.Rows {
		values := []any{row.Model, row.Stock, row.SafetyStock, row.StockStatus.Label(), row.Difference}
		if err := setRow(f, line, values); err != nil {
			return err
		}
		line++
	}

	// one empty row between the table and the totals block
	line++
	for _, total := range totals(summary) {
		count, _ := strconv.Atoi(total[1])
		if err := setRow(f, line, []any{total[0], count}); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, cellName(1, line), cellName(1, line), bold); err != nil {
			return fmt.Errorf("style totals: %w", err)
		}
		line++
	}

	return f.Write(w)
}

func cellName(col int, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func setRow[T any](f *excelize.File, row int, values []T) error {
	for i, value := range values {
		if err := f.SetCellValue(SheetName, cellName(i+1, row), value); err != nil {
			return fmt.Errorf("write cell %s: %w", cellName(i+1, row), err)
		}
	}
	return nil
}
