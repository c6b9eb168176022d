package google

import (
	"fmt"
	"strings"
	"time"

	"spesometro/internal/core"
	ports "spesometro/internal/sheets"
)

// Row labels of the report layout.
const (
	labelMonth     = "Month"
	labelTotal     = "Total"
	labelExpenses  = "Expenses"
	labelGenerated = "Generated"
	labelCategory  = "Category"
	labelDay       = "Day"
)

// monthReportValues lays a report out as a values matrix:
//
//	Month | 2024-03
//	Total | 127.5
//	Expenses | 4
//	Generated | RFC 3339 stamp
//	(blank)
//	Category | Amount | Percent
//	one row per category
//	(blank)
//	Day | Amount
//	one row per day of month
func monthReportValues(r ports.MonthReport) [][]interface{} {
	values := [][]interface{}{
		{labelMonth, fmt.Sprintf("%04d-%02d", r.Year, int(r.Month))},
		{labelTotal, r.Total.Float()},
		{labelExpenses, r.Count},
		{labelGenerated, r.GeneratedAt.UTC().Format(time.RFC3339)},
		{},
		{labelCategory, "Amount", "Percent"},
	}
	for _, c := range r.ByCategory {
		values = append(values, []interface{}{c.Name, c.Amount.Float(), c.Percent})
	}
	values = append(values, []interface{}{}, []interface{}{labelDay, "Amount"})
	for i, d := range r.Daily {
		values = append(values, []interface{}{i + 1, d.Float()})
	}
	return values
}

// parseMonthReport converts a values matrix (as returned by Sheets API) back
// into a MonthReport. Only the header block and the category section are
// required.
func parseMonthReport(values [][]interface{}, year int, month time.Month) (ports.MonthReport, error) {
	r := ports.MonthReport{Year: year, Month: month}
	want := fmt.Sprintf("%04d-%02d", year, int(month))

	section := ""
	seenHeader := false
	for _, raw := range values {
		row := toStrings(raw)
		label := safeGet(row, 0)
		if label == "" {
			section = ""
			continue
		}
		switch {
		case strings.EqualFold(label, labelMonth):
			if got := safeGet(row, 1); got != want {
				return ports.MonthReport{}, fmt.Errorf("unexpected report month: got %q, want %q", got, want)
			}
			seenHeader = true
		case strings.EqualFold(label, labelTotal):
			if cents, ok := parseEurosToCents(safeGet(row, 1)); ok {
				r.Total = core.Money{Cents: cents}
			}
		case strings.EqualFold(label, labelExpenses):
			fmt.Sscan(safeGet(row, 1), &r.Count)
		case strings.EqualFold(label, labelGenerated):
			if ts, err := time.Parse(time.RFC3339, safeGet(row, 1)); err == nil {
				r.GeneratedAt = ts
			}
		case strings.EqualFold(label, labelCategory):
			section = labelCategory
		case strings.EqualFold(label, labelDay):
			section = labelDay
		case section == labelCategory:
			cents, ok := parseEurosToCents(safeGet(row, 1))
			if !ok {
				continue
			}
			var pct float64
			fmt.Sscan(strings.ReplaceAll(safeGet(row, 2), ",", "."), &pct)
			r.ByCategory = append(r.ByCategory, core.CategoryAmount{Name: label, Amount: core.Money{Cents: cents}, Percent: pct})
		case section == labelDay:
			if cents, ok := parseEurosToCents(safeGet(row, 1)); ok {
				r.Daily = append(r.Daily, core.Money{Cents: cents})
			}
		}
	}
	if !seenHeader {
		return ports.MonthReport{}, fmt.Errorf("unexpected report layout: missing %s row", labelMonth)
	}
	return r, nil
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
