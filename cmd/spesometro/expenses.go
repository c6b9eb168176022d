package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"spesometro/internal/core"
	"spesometro/internal/store"
)

func addCmd(open opener) *cobra.Command {
	var (
		categoryID string
		date       string
		note       string
	)

	cmd := &cobra.Command{
		Use:   "add <amount> <description>",
		Short: "Record an expense",
		Example: `  spesometro add 42.50 Lunch --category food
  spesometro add 12 "Bus pass" -c transport -d 2024-03-02`,
		Args: cobra.ExactArgs(2),
		RunE: run(open, func(cmd *cobra.Command, a *app, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			in := store.NewExpense{
				Amount:      amount,
				Description: args[1],
				CategoryID:  categoryID,
				Note:        note,
			}
			if date != "" {
				if in.Date, err = core.ParseDate(date); err != nil {
					return err
				}
			}

			e, err := a.ledger.AddExpense(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("failed to add expense: %w", err)
			}
			c := a.store.Category(e.Category)
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Added %s %s (%s %s) on %s",
				formatMoney(e.Amount), e.Description, c.Icon, c.Name, e.Date)))
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("  id: "+e.ID))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&categoryID, "category", "c", core.OtherCategoryID, "category id")
	cmd.Flags().StringVarP(&date, "date", "d", "", "expense date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "optional note")
	return cmd
}

func deleteCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: run(open, func(cmd *cobra.Command, a *app, args []string) error {
			e, ok := a.store.Expense(args[0])
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No expense with id "+args[0]))
				return nil
			}
			if err := a.ledger.DeleteExpense(cmd.Context(), e.ID); err != nil {
				return fmt.Errorf("failed to delete expense: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Deleted %s %s", formatMoney(e.Amount), e.Description)))
			return nil
		}),
	}
}

func listCmd(open opener) *cobra.Command {
	var (
		date  string
		month string
		year  int
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		Long: `List expenses for a day, a month or a year. Without a filter the most
recent expenses are shown.`,
		RunE: run(open, func(cmd *cobra.Command, a *app, _ []string) error {
			var (
				expenses []core.Expense
				title    string
			)
			switch {
			case date != "":
				d, err := core.ParseDate(date)
				if err != nil {
					return err
				}
				expenses, title = a.agg.ExpensesForDate(d), d.String()
			case month != "":
				y, m, err := parseMonth(month, a.today())
				if err != nil {
					return err
				}
				expenses, title = a.agg.ExpensesForMonth(y, m), monthLabel(y, m)
			case year != 0:
				expenses, title = a.agg.ExpensesForYear(year), fmt.Sprint(year)
			default:
				expenses, title = a.agg.RecentExpenses(limit), "Recent expenses"
			}
			return printExpenses(cmd, a, title, expenses)
		}),
	}

	cmd.Flags().StringVar(&date, "date", "", "show one day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&month, "month", "", "show one month (YYYY-MM)")
	cmd.Flags().IntVar(&year, "year", 0, "show one year")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of recent expenses without a filter")
	cmd.MarkFlagsMutuallyExclusive("date", "month", "year")
	return cmd
}

func printExpenses(cmd *cobra.Command, a *app, title string, expenses []core.Expense) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(title))
	if len(expenses) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No expenses found. Use 'spesometro add' to record one."))
		return nil
	}

	t := newTable(out, "Date", "Amount", "Category", "Description", "ID")
	for _, e := range expenses {
		c := a.store.Category(e.Category)
		desc := e.Description
		if e.Note != "" {
			desc += " " + mutedStyle.Render("("+e.Note+")")
		}
		t.row(e.Date.String(), formatMoney(e.Amount), c.Icon+" "+c.Name, desc, mutedStyle.Render(e.ID))
	}
	if err := t.flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d expenses, total %s\n", len(expenses), formatMoney(core.Sum(expenses)))
	return nil
}

func summaryCmd(open opener) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show today, the month and its category breakdown",
		RunE: run(open, func(cmd *cobra.Command, a *app, _ []string) error {
			y, m, err := parseMonth(month, a.today())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			today := a.agg.TodayTotal()
			fmt.Fprintf(out, "%s %s  %s\n", headerStyle.Render("Today:"), formatMoney(today), formatLevel(today))
			fmt.Fprintf(out, "%s %s\n\n", headerStyle.Render("This month:"), formatMoney(a.agg.CurrentMonthTotal()))

			d := a.agg.MonthDetails(y, m)
			fmt.Fprintln(out, titleStyle.Render(monthLabel(y, m)))
			fmt.Fprintf(out, "Total %s over %d expenses on %d days, %s per day\n",
				formatMoney(d.Total), d.Count, d.SpendingDays, formatMoney(d.DailyAverage))
			fmt.Fprintf(out, "Compared with %d: %s\n\n", y-1, formatTrend(a.agg.MonthTrend(y, m)))

			ov := a.agg.MonthOverview(y, m)
			if len(ov.ByCategory) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No expenses this month."))
				return nil
			}
			return printBreakdown(out, ov.ByCategory)
		}),
	}

	cmd.Flags().StringVar(&month, "month", "", "month to summarize (YYYY-MM, default current)")
	return cmd
}

func trendCmd(open opener) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Compare each month and the year with the previous year",
		RunE: run(open, func(cmd *cobra.Command, a *app, _ []string) error {
			if year == 0 {
				year = a.today().Year()
			}
			out := cmd.OutOrStdout()

			ov := a.agg.YearOverview(year)
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d vs %d", year, year-1)))
			fmt.Fprintf(out, "Year total %s (%s), %s per month\n\n",
				formatMoney(ov.Total), formatTrend(a.agg.YearTrend(year)), formatMoney(ov.MonthlyAverage))

			prior := a.agg.MonthlyTotals(year - 1)
			t := newTable(out, "Month", fmt.Sprint(year), fmt.Sprint(year-1), "Trend")
			for i, total := range ov.Monthly {
				m := time.Month(i + 1)
				t.row(m.String(), formatMoney(total), formatMoney(prior[i]), formatTrend(a.agg.MonthTrend(year, m)))
			}
			return t.flush()
		}),
	}

	cmd.Flags().IntVar(&year, "year", 0, "year to compare (default current)")
	return cmd
}
