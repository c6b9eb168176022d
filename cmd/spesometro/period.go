package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"spesometro/internal/core"
)

// parseMonth reads "YYYY-MM"; an empty string selects the month of today.
func parseMonth(s string, today core.Date) (int, time.Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return today.Year(), today.Month(), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	return t.Year(), t.Month(), nil
}

// previousMonth returns the calendar month before year/month.
func previousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

func monthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month, year)
}

// parseAmount reads a positive decimal with at most two significant
// decimals; "12,50" and "12.50" are the same amount.
func parseAmount(s string) (float64, error) {
	cents, err := core.ParseDecimalToCents(s)
	if errors.Is(err, core.ErrInvalidAmount) {
		return 0, fmt.Errorf("invalid amount %q: want a positive number like 12.50", s)
	}
	if err != nil {
		return 0, err
	}
	return core.Money{Cents: cents}.Float(), nil
}
