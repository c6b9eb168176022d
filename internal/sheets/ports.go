// Package sheets defines the outbound ports for publishing ledger reports to
// a spreadsheet.
package sheets

import (
	"context"
	"time"

	"spesometro/internal/core"
)

// MonthReport is the snapshot of one calendar month written to a sheet.
type MonthReport struct {
	Year        int
	Month       time.Month
	Total       core.Money
	Count       int
	ByCategory  []core.CategoryAmount
	Daily       []core.Money
	GeneratedAt time.Time
}

// Ports for outbound adapters.
type (
	ReportWriter interface {
		// WriteMonthReport replaces the month's tab and returns the written range.
		WriteMonthReport(ctx context.Context, r MonthReport) (ref string, err error)
	}

	// ReportReader reads back what a previous WriteMonthReport stored.
	// ok is false when the month has never been written.
	ReportReader interface {
		ReadMonthReport(ctx context.Context, year int, month time.Month) (r MonthReport, ok bool, err error)
	}

	ReportStore interface {
		ReportWriter
		ReportReader
	}
)

// Same reports whether two snapshots carry the same figures. GeneratedAt
// and Daily are ignored because the daily series follows from the rest.
func Same(a, b MonthReport) bool {
	if a.Year != b.Year || a.Month != b.Month || a.Total != b.Total || a.Count != b.Count {
		return false
	}
	if len(a.ByCategory) != len(b.ByCategory) {
		return false
	}
	for i := range a.ByCategory {
		if a.ByCategory[i].Name != b.ByCategory[i].Name || a.ByCategory[i].Amount != b.ByCategory[i].Amount {
			return false
		}
	}
	return true
}
