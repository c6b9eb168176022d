package core

import "time"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	CategoryID string
	Name       string
	Color      string
	Icon       string
	Amount     Money
	// Percent of the breakdown total, one decimal.
	Percent float64
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      time.Month
	Total      Money
	Count      int
	ByCategory []CategoryAmount
}

// MonthDetails describes the spending of one month up to a reference day.
type MonthDetails struct {
	Year         int
	Month        time.Month
	Total        Money
	Count        int
	SpendingDays int
	DailyAverage Money
}

// DayDetails describes a single calendar day.
type DayDetails struct {
	Date       Date
	Total      Money
	Count      int
	PerExpense Money
	Expenses   []Expense
}

// YearOverview is the yearly total with its monthly average.
type YearOverview struct {
	Year           int
	Total          Money
	Count          int
	MonthlyAverage Money
	Monthly        [12]Money
}
