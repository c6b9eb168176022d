package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"spesometro/internal/report"
	"spesometro/internal/sheets"
	"spesometro/internal/sheets/google"
	"spesometro/internal/worker"
)

func exportCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as a JSON backup, a workbook or spreadsheet tabs",
	}

	cmd.AddCommand(exportJSONCmd(open))
	cmd.AddCommand(exportXLSXCmd(open))
	cmd.AddCommand(exportSheetsCmd(open))

	return cmd
}

func exportJSONCmd(open opener) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "json",
		Short: "Write a JSON backup of every expense and category",
		RunE: run(open, func(cmd *cobra.Command, a *app, _ []string) error {
			if output == "" {
				output = report.BackupFileName(a.now())
			}
			err := writeOutput(cmd, output, func(w io.Writer) error {
				return report.WriteJSONBackup(w, a.store.Expenses(), a.store.Categories(), a.now())
			})
			if errors.Is(err, report.ErrNothingToExport) {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No expenses to export."))
				return nil
			}
			return err
		}),
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default spesometro-backup-<date>.json)`)
	return cmd
}

func exportXLSXCmd(open opener) *cobra.Command {
	var (
		output string
		year   int
	)

	cmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Write a year's expenses, category breakdown and monthly totals to a workbook",
		RunE: run(open, func(cmd *cobra.Command, a *app, _ []string) error {
			if year == 0 {
				year = a.today().Year()
			}
			if output == "" {
				output = fmt.Sprintf("spesometro-%d.xlsx", year)
			}
			data := report.WorkbookData{
				Year:     year,
				Expenses: a.agg.ExpensesForYear(year),
				Resolve:  a.store.Category,
				Monthly:  a.agg.MonthlyTotals(year),
			}
			if len(data.Expenses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(fmt.Sprintf("No expenses in %d to export.", year)))
				return nil
			}
			return writeOutput(cmd, output, func(w io.Writer) error {
				return report.WriteXLSX(w, data)
			})
		}),
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default spesometro-<year>.xlsx)`)
	cmd.Flags().IntVar(&year, "year", 0, "year to export (default current)")
	return cmd
}

func exportSheetsCmd(open opener) *cobra.Command {
	var (
		month  string
		months int
	)

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write month report tabs to the configured Google spreadsheet",
		RunE: run(open, func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			w, err := a.openSheets(ctx)
			if err != nil {
				return err
			}
			exporter := worker.NewExportWorker(a.store, a.agg, w, a.logger.Slog())

			if month != "" {
				y, m, err := parseMonth(month, a.today())
				if err != nil {
					return err
				}
				written, err := exporter.ExportMonth(ctx, y, m)
				if err != nil {
					return err
				}
				if !written {
					fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(monthLabel(y, m)+" is already up to date."))
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Exported "+monthLabel(y, m)))
				return nil
			}

			if months <= 0 {
				months = a.cfg.ExportMonths
			}
			if err := exporter.ExportRecent(ctx, months); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Exported the last %d months", months)))
			return nil
		}),
	}

	cmd.Flags().StringVar(&month, "month", "", "export one month (YYYY-MM)")
	cmd.Flags().IntVar(&months, "months", 0, "export the last N months (default EXPORT_MONTHS)")
	return cmd
}

func (a *app) openSheets(ctx context.Context) (sheets.ReportWriter, error) {
	if a.sheets != nil {
		return a.sheets, nil
	}
	return google.New(ctx, google.Config{
		SpreadsheetID:      a.cfg.GoogleSpreadsheetID,
		SheetName:          a.cfg.GoogleSheetName,
		ServiceAccountJSON: a.cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: a.cfg.GoogleServiceAccountFile,
	})
}

// writeOutput streams into path, or stdout for "-". A failed write removes
// the partial file.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Wrote "+path))
	return nil
}
