package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spesometro/internal/cache"
	"spesometro/internal/core"
	"spesometro/internal/store"
)

type fakeSource struct {
	expenses []core.Expense
	rev      uint64
}

func (f *fakeSource) Expenses() []core.Expense { return append([]core.Expense(nil), f.expenses...) }
func (f *fakeSource) Revision() uint64         { return f.rev }
func (f *fakeSource) Category(id string) core.Category {
	c, _ := store.ResolveCategory(core.DefaultCategories(), id)
	return c
}

func (f *fakeSource) add(cents int64, category, date string) {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	f.expenses = append([]core.Expense{{
		ID:          date + category,
		Amount:      core.Money{Cents: cents},
		Description: "x",
		Category:    category,
		Date:        d,
	}}, f.expenses...)
	f.rev++
}

var now = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

func newAggregator(src Source, opts ...Option) *Aggregator {
	return New(src, append([]Option{WithClock(func() time.Time { return now })}, opts...)...)
}

func sampleSource() *fakeSource {
	src := &fakeSource{}
	src.add(4250, "food", "2024-03-15")
	src.add(1000, "transport", "2024-03-15")
	src.add(2000, "food", "2024-03-01")
	src.add(5000, "bills", "2024-01-31")
	src.add(700, "food", "2023-03-10")
	src.add(300, "gone", "2024-12-31")
	return src
}

func TestLunchExample(t *testing.T) {
	src := &fakeSource{}
	src.add(4250, "food", "2024-03-15")
	a := newAggregator(src)

	got := a.ExpensesForDate(core.NewDate(2024, time.March, 15))
	require.Len(t, got, 1)
	assert.Equal(t, "42.50", got[0].Amount.String())
	assert.Equal(t, "42.50", a.TotalForDate(core.NewDate(2024, time.March, 15)).String())
}

func TestTotals(t *testing.T) {
	a := newAggregator(sampleSource())

	assert.Equal(t, int64(5250), a.TotalForDate(core.NewDate(2024, time.March, 15)).Cents)
	assert.Equal(t, int64(0), a.TotalForDate(core.NewDate(2024, time.March, 16)).Cents)
	assert.Equal(t, int64(7250), a.TotalForMonth(2024, time.March).Cents)
	assert.Equal(t, int64(12550), a.TotalForYear(2024).Cents)
	assert.Equal(t, int64(700), a.TotalForYear(2023).Cents)
	assert.Equal(t, int64(7250), a.CurrentMonthTotal().Cents)
	assert.Equal(t, int64(0), a.TodayTotal().Cents)
}

func TestCalendarBucketsIgnoreTimeOfDay(t *testing.T) {
	src := &fakeSource{expenses: []core.Expense{
		{ID: "a", Amount: core.Money{Cents: 100}, Date: core.DateOf(time.Date(2024, 5, 1, 0, 0, 1, 0, time.UTC)), CreatedAt: time.Date(2024, 5, 1, 0, 0, 1, 0, time.UTC)},
		{ID: "b", Amount: core.Money{Cents: 200}, Date: core.DateOf(time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)), CreatedAt: time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)},
	}}
	a := newAggregator(src)
	assert.Len(t, a.ExpensesForDate(core.NewDate(2024, time.May, 1)), 2)
	assert.Equal(t, int64(300), a.DailyTotals(2024, time.May)[0].Cents)
}

func TestCategoryTotals(t *testing.T) {
	assert.Empty(t, CategoryTotals(nil))

	a := newAggregator(sampleSource())
	totals := CategoryTotals(a.ExpensesForMonth(2024, time.March))
	assert.Equal(t, map[string]core.Money{
		"food":      {Cents: 6250},
		"transport": {Cents: 1000},
	}, totals)
}

func TestMonthlyTotalsSumToYear(t *testing.T) {
	a := newAggregator(sampleSource())
	for _, year := range []int{2022, 2023, 2024} {
		monthly := a.MonthlyTotals(year)
		require.Len(t, monthly, 12)
		var sum core.Money
		for _, m := range monthly {
			sum = sum.Add(m)
		}
		assert.Equal(t, a.TotalForYear(year), sum, "year %d", year)
	}
	monthly := a.MonthlyTotals(2024)
	assert.Equal(t, int64(5000), monthly[0].Cents)
	assert.Equal(t, int64(7250), monthly[2].Cents)
	assert.Equal(t, int64(300), monthly[11].Cents)
}

func TestDailyTotalsSumToMonth(t *testing.T) {
	a := newAggregator(sampleSource())
	tests := []struct {
		year  int
		month time.Month
		days  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2024, time.March, 31},
		{2024, time.April, 30},
		{2024, time.January, 31},
	}
	for _, tt := range tests {
		daily := a.DailyTotals(tt.year, tt.month)
		require.Len(t, daily, tt.days)
		var sum core.Money
		for _, d := range daily {
			sum = sum.Add(d)
		}
		assert.Equal(t, a.TotalForMonth(tt.year, tt.month), sum)
	}
	assert.Equal(t, int64(2000), a.DailyTotals(2024, time.March)[0].Cents)
	assert.Equal(t, int64(5250), a.DailyTotals(2024, time.March)[14].Cents)
}

func TestMonthTrend(t *testing.T) {
	src := &fakeSource{}
	src.add(15000, "food", "2024-06-01")
	src.add(10000, "food", "2023-06-20")
	src.add(10500, "food", "2024-07-01")
	src.add(10000, "food", "2023-07-01")
	src.add(8000, "food", "2023-09-10")
	a := newAggregator(src)

	assert.Equal(t, core.Trend{Direction: core.TrendUp, Percent: 50}, a.MonthTrend(2024, time.June))
	assert.Equal(t, core.Trend{Direction: core.TrendNeutral}, a.MonthTrend(2024, time.July))
	assert.Equal(t, core.Trend{Direction: core.TrendNeutral}, a.MonthTrend(2024, time.August))
	assert.Equal(t, core.Trend{Direction: core.TrendNeutral}, a.MonthTrend(2024, time.September), "an empty month is not a drop")
	assert.Equal(t, core.TrendUp, a.YearTrend(2024).Direction)
}

func TestCategoryBreakdown(t *testing.T) {
	a := newAggregator(sampleSource())

	rows := a.CategoryBreakdown(a.ExpensesForYear(2024))
	require.Len(t, rows, 4)
	assert.Equal(t, "food", rows[0].CategoryID)
	assert.Equal(t, "Food & Dining", rows[0].Name)
	assert.Equal(t, int64(6250), rows[0].Amount.Cents)
	assert.Equal(t, 49.8, rows[0].Percent)
	assert.Equal(t, "bills", rows[1].CategoryID)
	assert.Equal(t, "other", rows[3].CategoryID, "unknown ids fold into other")

	assert.Empty(t, a.CategoryBreakdown(nil))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(core.Money{Cents: 5}, core.Money{}))
	assert.Equal(t, 33.3, Percent(core.Money{Cents: 1}, core.Money{Cents: 3}))
	assert.Equal(t, 66.7, Percent(core.Money{Cents: 2}, core.Money{Cents: 3}))
	assert.Equal(t, 100.0, Percent(core.Money{Cents: 3}, core.Money{Cents: 3}))
}

func TestMonthOverviewCachedByRevision(t *testing.T) {
	src := sampleSource()
	c := cache.NewLRUCache[core.MonthOverview](10, time.Minute)
	a := newAggregator(src, WithOverviewCache(c))

	ov := a.MonthOverview(2024, time.March)
	assert.Equal(t, int64(7250), ov.Total.Cents)
	assert.Equal(t, 3, ov.Count)
	assert.Equal(t, time.March, ov.Month)
	require.Len(t, ov.ByCategory, 2)

	_ = a.MonthOverview(2024, time.March)
	assert.Equal(t, uint64(1), c.Stats().Hits)

	src.add(100, "food", "2024-03-02")
	ov = a.MonthOverview(2024, time.March)
	assert.Equal(t, int64(7350), ov.Total.Cents, "a new revision bypasses the cached entry")
}

func TestInvalidateDropsCachedOverviews(t *testing.T) {
	src := sampleSource()
	c := cache.NewLRUCache[core.MonthOverview](10, time.Minute)
	a := newAggregator(src, WithOverviewCache(c))

	_ = a.MonthOverview(2024, time.March)
	_ = a.MonthOverview(2024, time.February)
	require.Equal(t, 2, c.Size())

	a.Invalidate()
	assert.Equal(t, 0, c.Size())

	newAggregator(src).Invalidate() // no cache configured
}

func TestMonthDetails(t *testing.T) {
	a := newAggregator(sampleSource())

	d := a.MonthDetails(2024, time.March)
	assert.Equal(t, 3, d.Count)
	assert.Equal(t, 2, d.SpendingDays)
	assert.Equal(t, core.Money{Cents: 7250}.DivideBy(20), d.DailyAverage, "current month averages over days elapsed")

	d = a.MonthDetails(2024, time.January)
	assert.Equal(t, core.Money{Cents: 5000}.DivideBy(31), d.DailyAverage)

	d = a.MonthDetails(2024, time.December)
	assert.Equal(t, int64(300), d.Total.Cents)
	assert.True(t, d.DailyAverage.IsZero(), "future months have no elapsed days")
}

func TestDayDetails(t *testing.T) {
	a := newAggregator(sampleSource())

	d := a.DayDetails(core.NewDate(2024, time.March, 15))
	assert.Equal(t, 2, d.Count)
	assert.Equal(t, int64(5250), d.Total.Cents)
	assert.Equal(t, int64(2625), d.PerExpense.Cents)

	d = a.DayDetails(core.NewDate(2024, time.March, 16))
	assert.Zero(t, d.Count)
	assert.True(t, d.PerExpense.IsZero())
}

func TestYearOverview(t *testing.T) {
	a := newAggregator(sampleSource())

	ov := a.YearOverview(2024)
	assert.Equal(t, int64(12550), ov.Total.Cents)
	assert.Equal(t, int64(1046), ov.MonthlyAverage.Cents)
	assert.Equal(t, 5, ov.Count)

	ov = a.YearOverview(2020)
	assert.True(t, ov.MonthlyAverage.IsZero())
}

func TestRecentExpenses(t *testing.T) {
	a := newAggregator(sampleSource())
	recent := a.RecentExpenses(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "2024-12-31gone", recent[0].ID)
	assert.Len(t, a.RecentExpenses(100), 6)
	assert.Empty(t, a.RecentExpenses(-1))
}

func TestLastMonthsTotals(t *testing.T) {
	a := newAggregator(sampleSource())
	got := a.LastMonthsTotals(4)
	require.Len(t, got, 4)
	assert.Equal(t, MonthTotal{Year: 2023, Month: time.December}, got[0])
	assert.Equal(t, MonthTotal{Year: 2024, Month: time.January, Total: core.Money{Cents: 5000}}, got[1])
	assert.Equal(t, MonthTotal{Year: 2024, Month: time.March, Total: core.Money{Cents: 7250}}, got[3])
	assert.Nil(t, a.LastMonthsTotals(0))
}
