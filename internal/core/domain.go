package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Date is a calendar date at day granularity. The embedded time.Time is
	// always midnight UTC so two Dates for the same day compare equal.
	Date struct {
		time.Time
	}

	// Expense is an immutable-once-created record owned by the store.
	// CategoryName and CategoryColor are denormalized at fetch time.
	Expense struct {
		ID            int64           `json:"id"`
		Amount        decimal.Decimal `json:"amount"`
		Description   string          `json:"description"`
		CategoryID    int64           `json:"categoryId"`
		CategoryName  string          `json:"categoryName"`
		CategoryColor string          `json:"categoryColor,omitempty"`
		Date          Date            `json:"date"`
		UserID        int64           `json:"userId"`
		Version       int64           `json:"-"`
	}

	Category struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		Color     string `json:"color"`
		IsDefault bool   `json:"isDefault"`
		UserID    int64  `json:"userId"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidCategory  = errors.New("invalid category reference")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to day granularity, discarding time-of-day and zone.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Key returns the canonical ISO day string, usable as a map key.
func (d Date) Key() string {
	return d.Time.Format(dateLayout)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// SameDay reports whether both dates fall on the same calendar day.
func (d Date) SameDay(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON renders the date as "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts "2006-01-02" and full RFC 3339 timestamps, which
// older clients still send. Timestamps are truncated to the day.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ErrInvalidDate
	}
	*d = DateOf(t)
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if e.CategoryID <= 0 {
		return ErrInvalidCategory
	}
	return nil
}
