// Package aggregate answers read-only questions about the ledger: what was
// spent on a day, in a month or a year, and how it splits across categories.
//
// Every query is a projection of the Source's current expenses. Buckets are
// chosen by comparing calendar fields of the expense date, never instants.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"spesometro/internal/cache"
	"spesometro/internal/core"
)

// Source is the read side of the ledger. *store.Store satisfies it.
type Source interface {
	Expenses() []core.Expense
	Category(id string) core.Category
	// Revision changes whenever the expense collection may have changed.
	Revision() uint64
}

type Aggregator struct {
	src      Source
	now      func() time.Time
	overview cache.Cache[core.MonthOverview]
}

type Option func(*Aggregator)

// WithClock overrides time.Now for the "today" and "current month" views.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithOverviewCache memoizes MonthOverview results. Entries are keyed by the
// source revision, so a mutation never serves a stale overview.
func WithOverviewCache(c cache.Cache[core.MonthOverview]) Option {
	return func(a *Aggregator) { a.overview = c }
}

func New(src Source, opts ...Option) *Aggregator {
	a := &Aggregator{src: src, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Invalidate drops every memoized overview. Entries from older revisions are
// never served, but they occupy the cache until evicted.
func (a *Aggregator) Invalidate() {
	if a.overview != nil {
		a.overview.Purge()
	}
}

func (a *Aggregator) today() core.Date {
	return core.DateOf(a.now())
}

// ExpensesForDate returns the expenses dated exactly on date, newest first.
func (a *Aggregator) ExpensesForDate(date core.Date) []core.Expense {
	return filter(a.src.Expenses(), func(e core.Expense) bool { return e.Date.SameDay(date) })
}

// ExpensesForMonth returns the expenses dated in the given calendar month.
func (a *Aggregator) ExpensesForMonth(year int, month time.Month) []core.Expense {
	return filter(a.src.Expenses(), func(e core.Expense) bool { return e.Date.InMonth(year, month) })
}

func (a *Aggregator) ExpensesForYear(year int) []core.Expense {
	return filter(a.src.Expenses(), func(e core.Expense) bool { return e.Date.Year() == year })
}

func filter(expenses []core.Expense, keep func(core.Expense) bool) []core.Expense {
	var out []core.Expense
	for _, e := range expenses {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (a *Aggregator) TotalForDate(date core.Date) core.Money {
	return core.Sum(a.ExpensesForDate(date))
}

func (a *Aggregator) TotalForMonth(year int, month time.Month) core.Money {
	return core.Sum(a.ExpensesForMonth(year, month))
}

func (a *Aggregator) TotalForYear(year int) core.Money {
	return core.Sum(a.ExpensesForYear(year))
}

func (a *Aggregator) TodayTotal() core.Money {
	return a.TotalForDate(a.today())
}

func (a *Aggregator) CurrentMonthTotal() core.Money {
	t := a.today()
	return a.TotalForMonth(t.Year(), t.Month())
}

// RecentExpenses returns at most n expenses in insertion order, newest first.
func (a *Aggregator) RecentExpenses(n int) []core.Expense {
	all := a.src.Expenses()
	if n < 0 {
		n = 0
	}
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// CategoryTotals sums amounts per category id. Categories without expenses
// are absent from the result.
func CategoryTotals(expenses []core.Expense) map[string]core.Money {
	totals := make(map[string]core.Money)
	for _, e := range expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	return totals
}

// MonthlyTotals returns the twelve month sums of year, January first.
func (a *Aggregator) MonthlyTotals(year int) [12]core.Money {
	var totals [12]core.Money
	for _, e := range a.ExpensesForYear(year) {
		i := int(e.Date.Month()) - 1
		totals[i] = totals[i].Add(e.Amount)
	}
	return totals
}

// DailyTotals returns one sum per day of the month; index 0 is day 1.
func (a *Aggregator) DailyTotals(year int, month time.Month) []core.Money {
	totals := make([]core.Money, core.DaysIn(year, month))
	for _, e := range a.ExpensesForMonth(year, month) {
		i := e.Date.Day() - 1
		totals[i] = totals[i].Add(e.Amount)
	}
	return totals
}

// MonthTrend compares a month with the same month one year earlier.
func (a *Aggregator) MonthTrend(year int, month time.Month) core.Trend {
	return core.ClassifyTrend(a.TotalForMonth(year, month), a.TotalForMonth(year-1, month))
}

// YearTrend compares a year with the previous one.
func (a *Aggregator) YearTrend(year int) core.Trend {
	return core.ClassifyTrend(a.TotalForYear(year), a.TotalForYear(year-1))
}

// CategoryBreakdown groups expenses by resolved category, largest amount
// first. Expenses whose category no longer exists fold into "other".
func (a *Aggregator) CategoryBreakdown(expenses []core.Expense) []core.CategoryAmount {
	return Breakdown(expenses, a.src.Category)
}

// Breakdown is CategoryBreakdown with an explicit category resolver.
func Breakdown(expenses []core.Expense, resolve func(id string) core.Category) []core.CategoryAmount {
	total := core.Sum(expenses)
	byID := make(map[string]*core.CategoryAmount)
	var order []string
	for _, e := range expenses {
		c := resolve(e.Category)
		row, ok := byID[c.ID]
		if !ok {
			row = &core.CategoryAmount{CategoryID: c.ID, Name: c.Name, Color: c.Color, Icon: c.Icon}
			byID[c.ID] = row
			order = append(order, c.ID)
		}
		row.Amount = row.Amount.Add(e.Amount)
	}

	out := make([]core.CategoryAmount, 0, len(order))
	for _, id := range order {
		row := *byID[id]
		row.Percent = Percent(row.Amount, total)
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents > out[j].Amount.Cents })
	return out
}

// Percent returns part as a percentage of total with one decimal.
func Percent(part, total core.Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	return math.Round(float64(part.Cents)*1000/float64(total.Cents)) / 10
}

func (a *Aggregator) MonthOverview(year int, month time.Month) core.MonthOverview {
	key := fmt.Sprintf("%d:%04d-%02d", a.src.Revision(), year, int(month))
	if a.overview != nil {
		if ov, ok := a.overview.Get(key); ok {
			return ov
		}
	}

	expenses := a.ExpensesForMonth(year, month)
	ov := core.MonthOverview{
		Year:       year,
		Month:      month,
		Total:      core.Sum(expenses),
		Count:      len(expenses),
		ByCategory: a.CategoryBreakdown(expenses),
	}
	if a.overview != nil {
		a.overview.Set(key, ov)
	}
	return ov
}

// MonthDetails summarizes a month. The daily average spreads the total over
// the days elapsed so far: all of them for a past month, up to today for the
// current one, none for a future month.
func (a *Aggregator) MonthDetails(year int, month time.Month) core.MonthDetails {
	expenses := a.ExpensesForMonth(year, month)
	days := make(map[int]struct{})
	for _, e := range expenses {
		days[e.Date.Day()] = struct{}{}
	}
	total := core.Sum(expenses)
	return core.MonthDetails{
		Year:         year,
		Month:        month,
		Total:        total,
		Count:        len(expenses),
		SpendingDays: len(days),
		DailyAverage: total.DivideBy(a.daysElapsed(year, month)),
	}
}

func (a *Aggregator) daysElapsed(year int, month time.Month) int {
	today := a.today()
	first := core.NewDate(year, month, 1)
	switch {
	case today.InMonth(year, month):
		return today.Day()
	case today.Before(first.Time):
		return 0
	default:
		return core.DaysIn(year, month)
	}
}

func (a *Aggregator) DayDetails(date core.Date) core.DayDetails {
	expenses := a.ExpensesForDate(date)
	total := core.Sum(expenses)
	return core.DayDetails{
		Date:       date,
		Total:      total,
		Count:      len(expenses),
		PerExpense: total.DivideBy(len(expenses)),
		Expenses:   expenses,
	}
}

// YearOverview reports the year total and its monthly average over twelve
// months. The average is zero when the year has no expenses.
func (a *Aggregator) YearOverview(year int) core.YearOverview {
	expenses := a.ExpensesForYear(year)
	ov := core.YearOverview{
		Year:    year,
		Total:   core.Sum(expenses),
		Count:   len(expenses),
		Monthly: a.MonthlyTotals(year),
	}
	if ov.Count > 0 {
		ov.MonthlyAverage = ov.Total.DivideBy(12)
	}
	return ov
}

// MonthTotal is one entry of LastMonthsTotals.
type MonthTotal struct {
	Year  int
	Month time.Month
	Total core.Money
}

// LastMonthsTotals returns the totals of the n months ending with the
// current one, oldest first.
func (a *Aggregator) LastMonthsTotals(n int) []MonthTotal {
	if n <= 0 {
		return nil
	}
	t := a.today()
	out := make([]MonthTotal, n)
	for i := 0; i < n; i++ {
		m := time.Date(t.Year(), t.Month()-time.Month(n-1-i), 1, 0, 0, 0, 0, time.UTC)
		out[i] = MonthTotal{Year: m.Year(), Month: m.Month(), Total: a.TotalForMonth(m.Year(), m.Month())}
	}
	return out
}
