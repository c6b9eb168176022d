package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"spesometro/internal/aggregate"
	"spesometro/internal/core"
)

// Workbook sheet names.
const (
	SheetExpenses   = "Expenses"
	SheetByCategory = "By Category"
	SheetMonthly    = "Monthly"
)

// WorkbookData is what WriteXLSX lays out. Expenses should already be
// filtered to the exported period.
type WorkbookData struct {
	Year     int
	Expenses []core.Expense
	Resolve  func(id string) core.Category
	Monthly  [12]core.Money
}

// WriteXLSX writes a workbook with one sheet of expense rows, one with the
// category breakdown and one with the twelve monthly totals of Year.
func WriteXLSX(w io.Writer, data WorkbookData) error {
	if len(data.Expenses) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetExpenses); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{SheetByCategory, SheetMonthly} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	expenseRows := [][]any{{"Date", "Description", "Category", "Amount", "Note"}}
	for _, e := range data.Expenses {
		expenseRows = append(expenseRows, []any{
			e.Date.String(), e.Description, data.Resolve(e.Category).Name, e.Amount.Float(), e.Note,
		})
	}

	categoryRows := [][]any{{"Category", "Amount", "Percent"}}
	for _, row := range aggregate.Breakdown(data.Expenses, data.Resolve) {
		categoryRows = append(categoryRows, []any{row.Name, row.Amount.Float(), row.Percent})
	}

	monthlyRows := [][]any{{"Month", fmt.Sprintf("Total %d", data.Year)}}
	for i, m := range data.Monthly {
		monthlyRows = append(monthlyRows, []any{time.Month(i + 1).String(), m.Float()})
	}

	for sheet, rows := range map[string][][]any{
		SheetExpenses:   expenseRows,
		SheetByCategory: categoryRows,
		SheetMonthly:    monthlyRows,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("style header of %s: %w", sheet, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
