// Package worker keeps spreadsheet month reports in step with the ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spesometro/internal/aggregate"
	"spesometro/internal/amqp"
	"spesometro/internal/core"
	applog "spesometro/internal/log"
	"spesometro/internal/sheets"
	"spesometro/internal/store"
)

// ExportWorker rebuilds month reports from the Store and writes them through
// a sheets.ReportWriter.
type ExportWorker struct {
	store  *store.Store
	agg    *aggregate.Aggregator
	sheets sheets.ReportWriter
	now    func() time.Time
	logger *slog.Logger
}

func NewExportWorker(st *store.Store, agg *aggregate.Aggregator, w sheets.ReportWriter, logger *slog.Logger) *ExportWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportWorker{store: st, agg: agg, sheets: w, now: time.Now, logger: logger}
}

// BuildMonthReport snapshots one month from the current ledger state.
func (w *ExportWorker) BuildMonthReport(year int, month time.Month) sheets.MonthReport {
	ov := w.agg.MonthOverview(year, month)
	return sheets.MonthReport{
		Year:        year,
		Month:       month,
		Total:       ov.Total,
		Count:       ov.Count,
		ByCategory:  ov.ByCategory,
		Daily:       w.agg.DailyTotals(year, month),
		GeneratedAt: w.now().UTC(),
	}
}

// ExportMonth writes the month report. When the writer can read back and
// the stored figures already match, nothing is written and false is returned.
func (w *ExportWorker) ExportMonth(ctx context.Context, year int, month time.Month) (bool, error) {
	r := w.BuildMonthReport(year, month)

	if reader, ok := w.sheets.(sheets.ReportReader); ok {
		current, found, err := reader.ReadMonthReport(ctx, year, month)
		if err != nil {
			w.logger.WarnContext(ctx, "Could not read existing month report, rewriting",
				applog.FieldYear, year, applog.FieldMonth, int(month), applog.FieldError, err)
		} else if found && sheets.Same(current, r) {
			w.logger.DebugContext(ctx, "Month report up to date",
				applog.FieldYear, year, applog.FieldMonth, int(month))
			return false, nil
		}
	}

	ref, err := w.sheets.WriteMonthReport(ctx, r)
	if err != nil {
		return false, fmt.Errorf("write month report %04d-%02d: %w", year, int(month), err)
	}
	w.logger.InfoContext(ctx, "Month report exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldYear, year,
		applog.FieldMonth, int(month),
		applog.FieldSheetsRef, ref,
		applog.FieldAmountCents, r.Total.Cents,
		applog.FieldExpenses, r.Count)
	return true, nil
}

// reload refreshes the Store from the substrate. A failed read keeps the
// previous ledger and is returned so the caller can retry later.
func (w *ExportWorker) reload(ctx context.Context) error {
	if err := w.store.Reload(ctx); err != nil {
		return err
	}
	w.agg.Invalidate()
	return nil
}

// HandleLedgerChanged reloads the ledger and re-exports what the change
// touched: the expense's month, or the current month for category changes.
// A reload failure is returned so the message is redelivered.
func (w *ExportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChanged) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		applog.FieldEventKind, msg.Kind, applog.FieldEntityID, msg.ID)

	if err := w.reload(ctx); err != nil {
		return err
	}

	date := core.DateOf(w.now())
	if msg.Date != "" {
		d, err := core.ParseDate(msg.Date)
		if err != nil {
			// Undecodable dates cannot be fixed by a retry.
			w.logger.ErrorContext(ctx, "Ignoring ledger change with bad date",
				applog.FieldEntityID, msg.ID, applog.FieldDate, msg.Date)
			return nil
		}
		date = d
	}

	_, err := w.ExportMonth(ctx, date.Year(), date.Month())
	return err
}

// ExportRecent reloads the ledger and exports the last n months, oldest
// first. Every month is attempted; failures are joined.
func (w *ExportWorker) ExportRecent(ctx context.Context, n int) error {
	if err := w.reload(ctx); err != nil {
		return err
	}

	var errs []error
	written := 0
	for _, m := range w.agg.LastMonthsTotals(n) {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := w.ExportMonth(ctx, m.Year, m.Month)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			written++
		}
	}
	w.logger.InfoContext(ctx, "Periodic export completed", "months", n, "written", written, "failed", len(errs))
	return errors.Join(errs...)
}

// RunPeriodic calls ExportRecent every interval until ctx is done.
func (w *ExportWorker) RunPeriodic(ctx context.Context, interval time.Duration, months int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.ExportRecent(ctx, months); err != nil {
				w.logger.ErrorContext(ctx, "Periodic export failed",
					applog.FieldOperation, applog.OpExport, applog.FieldError, err)
			}
		}
	}
}
