// Package report turns aggregate series into the summary figures shown by
// the CLI and written by the exporters.
package report

import (
	"time"

	"spesometro/internal/aggregate"
	"spesometro/internal/core"
)

// CategoryReport summarizes a set of expenses by category.
type CategoryReport struct {
	Total          core.Money
	Count          int
	CategoriesUsed int
	// Top is nil when there are no expenses.
	Top  *core.CategoryAmount
	Rows []core.CategoryAmount
}

func Category(expenses []core.Expense, resolve func(id string) core.Category) CategoryReport {
	rows := aggregate.Breakdown(expenses, resolve)
	r := CategoryReport{
		Total:          core.Sum(expenses),
		Count:          len(expenses),
		CategoriesUsed: len(rows),
		Rows:           rows,
	}
	if len(rows) > 0 {
		top := rows[0]
		r.Top = &top
	}
	return r
}

// SeriesReport summarizes a series of monthly totals.
type SeriesReport struct {
	Total   core.Money
	Average core.Money
	Highest core.Money
	// Lowest ignores months without spending; zero when every month is empty.
	Lowest core.Money
}

func Monthly(series []core.Money) SeriesReport {
	var r SeriesReport
	for _, m := range series {
		r.Total = r.Total.Add(m)
		if m.Cents > r.Highest.Cents {
			r.Highest = m
		}
		if m.Cents > 0 && (r.Lowest.IsZero() || m.Cents < r.Lowest.Cents) {
			r.Lowest = m
		}
	}
	r.Average = r.Total.DivideBy(len(series))
	return r
}

// DailyReport summarizes the per-day totals of one month.
type DailyReport struct {
	Total        core.Money
	SpendingDays int
	// Average is taken over spending days only.
	Average    core.Money
	Highest    core.Money
	HighestDay int
}

func Daily(series []core.Money) DailyReport {
	var r DailyReport
	for i, d := range series {
		r.Total = r.Total.Add(d)
		if d.Cents > 0 {
			r.SpendingDays++
		}
		if d.Cents > r.Highest.Cents {
			r.Highest = d
			r.HighestDay = i + 1
		}
	}
	r.Average = r.Total.DivideBy(r.SpendingDays)
	return r
}

// MonthTotals projects LastMonthsTotals onto a plain series.
func MonthTotals(months []aggregate.MonthTotal) []core.Money {
	out := make([]core.Money, len(months))
	for i, m := range months {
		out[i] = m.Total
	}
	return out
}

// Insights are the highlights of one calendar month.
type Insights struct {
	Year  int
	Month time.Month
	// TopCategory is nil for a month without expenses.
	TopCategory *core.CategoryAmount
	// HighestDay is the day of month with the largest total, 0 if none.
	HighestDay      int
	HighestDayTotal core.Money
	// MostActiveDay is the day of month with the most expenses, 0 if none.
	MostActiveDay   int
	MostActiveCount int
	// DailyAverage spreads the month total over every day of the month.
	DailyAverage core.Money
}

func MonthInsights(a *aggregate.Aggregator, year int, month time.Month) Insights {
	in := Insights{Year: year, Month: month}
	expenses := a.ExpensesForMonth(year, month)
	if len(expenses) == 0 {
		return in
	}

	if rows := a.CategoryBreakdown(expenses); len(rows) > 0 {
		top := rows[0]
		in.TopCategory = &top
	}

	daily := a.DailyTotals(year, month)
	d := Daily(daily)
	in.HighestDay = d.HighestDay
	in.HighestDayTotal = d.Highest

	counts := make([]int, len(daily))
	for _, e := range expenses {
		counts[e.Date.Day()-1]++
	}
	for i, n := range counts {
		if n > in.MostActiveCount {
			in.MostActiveCount = n
			in.MostActiveDay = i + 1
		}
	}

	in.DailyAverage = d.Total.DivideBy(len(daily))
	return in
}

// SpendingLevel buckets a daily total for calendar shading.
type SpendingLevel string

const (
	LevelNone   SpendingLevel = "none"
	LevelLow    SpendingLevel = "low"
	LevelMedium SpendingLevel = "medium"
	LevelHigh   SpendingLevel = "high"
)

var (
	lowCeiling    = core.Money{Cents: 2000}
	mediumCeiling = core.Money{Cents: 5000}
)

func Level(amount core.Money) SpendingLevel {
	switch {
	case amount.Cents <= 0:
		return LevelNone
	case amount.Cents <= lowCeiling.Cents:
		return LevelLow
	case amount.Cents <= mediumCeiling.Cents:
		return LevelMedium
	default:
		return LevelHigh
	}
}
