package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date layout used for persisted and CLI dates.
const DateLayout = "2006-01-02"

// OtherCategoryID is the id every dangling category reference resolves to.
const OtherCategoryID = "other"

type (
	// Date is a calendar day with no time-of-day component. It is always
	// normalised to midnight UTC so that equality is a pure field comparison.
	Date struct {
		time.Time
	}

	Expense struct {
		ID          string    `json:"id"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Date        Date      `json:"date"`
		Note        string    `json:"note"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon"`
		// Budget is carried for data-shape compatibility; nothing reads it.
		Budget float64 `json:"budget"`
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrDuplicateCategory = errors.New("category name already exists")
	ErrCategoryNotFound  = errors.New("category not found")
)

// FallbackCategory is the last-resort record returned when neither the
// requested category nor an "other" category exists.
var FallbackCategory = Category{
	ID:    OtherCategoryID,
	Name:  "Other",
	Color: "#8B8C89",
	Icon:  "📦",
}

// DefaultCategories returns a fresh copy of the categories seeded on first run.
func DefaultCategories() []Category {
	return []Category{
		{ID: "food", Name: "Food & Dining", Color: "#FF6B6B", Icon: "🍔"},
		{ID: "transport", Name: "Transportation", Color: "#4ECDC4", Icon: "🚗"},
		{ID: "shopping", Name: "Shopping", Color: "#FFD166", Icon: "🛍️"},
		{ID: "entertainment", Name: "Entertainment", Color: "#06D6A0", Icon: "🎬"},
		{ID: "bills", Name: "Bills & Utilities", Color: "#118AB2", Icon: "💡"},
		{ID: "health", Name: "Health & Wellness", Color: "#EF476F", Icon: "🏥"},
		{ID: "education", Name: "Education", Color: "#7209B7", Icon: "📚"},
		{ID: "groceries", Name: "Groceries", Color: "#FF9E6D", Icon: "🛒"},
		{ID: "travel", Name: "Travel", Color: "#8338EC", Icon: "✈️"},
		{ID: OtherCategoryID, Name: "Other", Color: "#8B8C89", Icon: "📦"},
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: missing", ErrInvalidDate)
	}
	return nil
}

// IsEmpty returns true if the date is zero (an omitted date).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// SameDay reports whether both dates fall on the same calendar day.
func (d Date) SameDay(o Date) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := o.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// InMonth reports whether the date falls in the given calendar month.
func (d Date) InMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Validate checks a complete record: a dated, described, positive expense.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	return e.Amount.Validate()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	return nil
}
