package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spesometro/internal/core"
	"spesometro/internal/report"
)

// Report periods.
const (
	periodCurrentMonth = "current-month"
	periodLastMonth    = "last-month"
	periodAll          = "all"
	periodCurrentYear  = "current-year"
	periodLast6Months  = "last-6-months"
)

func reportCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Spending reports by category, month or day",
	}

	cmd.AddCommand(categoryReportCmd(open))
	cmd.AddCommand(monthlyReportCmd(open))
	cmd.AddCommand(dailyReportCmd(open))
	cmd.AddCommand(insightsCmd(open))

	return cmd
}

func categoryReportCmd(open opener) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "category",
		Short: "Spending by category",
		RunE: run(open, func(cmd *cobra.Command, a *app, _ []string) error {
			var (
				expenses []core.Expense
				title    string
			)
			today := a.today()
			switch period {
			case periodCurrentMonth:
				expenses = a.agg.ExpensesForMonth(today.Year(), today.Month())
				title = monthLabel(today.Year(), today.Month())
			case periodLastMonth:
				y, m := previousMonth(today.Year(), today.Month())
				expenses, title = a.agg.ExpensesForMonth(y, m), monthLabel(y, m)
			case periodAll:
				expenses, title = a.store.Expenses(), "All time"
			default:
				return invalidPeriod(period, periodCurrentMonth, periodLastMonth, periodAll)
			}

			r := report.Category(expenses, a.store.Category)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Spending by category, "+title))
			fmt.Fprintf(out, "Total %s over %d expenses in %d categories\n", formatMoney(r.Total), r.Count, r.CategoriesUsed)
			if r.Top == nil {
				fmt.Fprintln(out, mutedStyle.Render("No expenses in this period."))
				return nil
			}
			fmt.Fprintf(out, "Top category: %s %s (%s)\n\n", r.Top.Icon, r.Top.Name, formatMoney(r.Top.Amount))
			return printBreakdown(out, r.Rows)
		}),
	}

	cmd.Flags().StringVar(&period, "period", periodCurrentMonth, "current-month, last-month or all")
	return cmd
}

func monthlyReportCmd(open opener) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Monthly totals",
		RunE: run(open, func(cmd *cobra.Command, a *app, _ []string) error {
			var (
				labels []string
				series []core.Money
			)
			today := a.today()
			switch period {
			case periodCurrentYear:
				totals := a.agg.MonthlyTotals(today.Year())
				series = totals[:]
				for i := range totals {
					labels = append(labels, fmt.Sprintf("%s %d", time.Month(i+1), today.Year()))
				}
			case periodLast6Months:
				months := a.agg.LastMonthsTotals(6)
				series = report.MonthTotals(months)
				for _, m := range months {
					labels = append(labels, monthLabel(m.Year, m.Month))
				}
			default:
				return invalidPeriod(period, periodCurrentYear, periodLast6Months)
			}

			r := report.Monthly(series)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Monthly spending"))
			t := newTable(out, "Month", "Total")
			for i, m := range series {
				t.row(labels[i], formatMoney(m))
			}
			if err := t.flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nTotal %s, average %s, highest %s, lowest %s\n",
				formatMoney(r.Total), formatMoney(r.Average), formatMoney(r.Highest), formatMoney(r.Lowest))
			return nil
		}),
	}

	cmd.Flags().StringVar(&period, "period", periodCurrentYear, "current-year or last-6-months")
	return cmd
}

func dailyReportCmd(open opener) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Day by day totals of a month",
		RunE: run(open, func(cmd *cobra.Command, a *app, _ []string) error {
			today := a.today()
			y, m := today.Year(), today.Month()
			switch period {
			case periodCurrentMonth:
			case periodLastMonth:
				y, m = previousMonth(y, m)
			default:
				return invalidPeriod(period, periodCurrentMonth, periodLastMonth)
			}

			series := a.agg.DailyTotals(y, m)
			r := report.Daily(series)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Daily spending, "+monthLabel(y, m)))
			t := newTable(out, "Day", "Total", "Level")
			for i, d := range series {
				if d.IsZero() {
					continue
				}
				t.row(core.NewDate(y, m, i+1).String(), formatMoney(d), formatLevel(d))
			}
			if err := t.flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nTotal %s on %d days, average %s per spending day\n",
				formatMoney(r.Total), r.SpendingDays, formatMoney(r.Average))
			if r.HighestDay > 0 {
				fmt.Fprintf(out, "Highest: %s on day %d\n", formatMoney(r.Highest), r.HighestDay)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&period, "period", periodCurrentMonth, "current-month or last-month")
	return cmd
}

func insightsCmd(open opener) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Highlights of a month",
		RunE: run(open, func(cmd *cobra.Command, a *app, _ []string) error {
			y, m, err := parseMonth(month, a.today())
			if err != nil {
				return err
			}
			in := report.MonthInsights(a.agg, y, m)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Insights, "+monthLabel(y, m)))
			if in.TopCategory == nil {
				fmt.Fprintln(out, mutedStyle.Render("No expenses this month."))
				return nil
			}
			fmt.Fprintf(out, "Top category:    %s %s, %s (%.1f%%)\n", in.TopCategory.Icon, in.TopCategory.Name,
				formatMoney(in.TopCategory.Amount), in.TopCategory.Percent)
			fmt.Fprintf(out, "Highest day:     %s, %s\n", core.NewDate(y, m, in.HighestDay), formatMoney(in.HighestDayTotal))
			fmt.Fprintf(out, "Most active day: %s, %d expenses\n", core.NewDate(y, m, in.MostActiveDay), in.MostActiveCount)
			fmt.Fprintf(out, "Daily average:   %s\n", formatMoney(in.DailyAverage))
			return nil
		}),
	}

	cmd.Flags().StringVar(&month, "month", "", "month (YYYY-MM, default current)")
	return cmd
}

func printBreakdown(out io.Writer, rows []core.CategoryAmount) error {
	t := newTable(out, "Category", "Amount", "Share")
	for _, r := range rows {
		t.row(r.Icon+" "+r.Name, formatMoney(r.Amount), fmt.Sprintf("%.1f%%", r.Percent))
	}
	return t.flush()
}

func invalidPeriod(got string, valid ...string) error {
	return fmt.Errorf("invalid period %q, want one of: %s", got, strings.Join(valid, ", "))
}
