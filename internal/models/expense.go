package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for storage and transport.
const DateLayout = "2006-01-02"

// RecordType distinguishes money coming in from money going out.
type RecordType string

const (
	Income  RecordType = "Income"
	Expense RecordType = "Expense"
)

// MaxAmount is the largest value a decimal(10,2) column can hold.
var MaxAmount = decimal.RequireFromString("99999999.99")

// ExpenseRecord is a single ledger entry owned by one user.
type ExpenseRecord struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	Type       RecordType      `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredOn time.Time       `json:"occurred_on"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Signed returns the amount as it contributes to a balance.
func (r ExpenseRecord) Signed() decimal.Decimal {
	if r.Type == Expense {
		return r.Amount.Neg()
	}
	return r.Amount
}

// ParseRecordType accepts "Income" or "Expense" in any letter case.
func ParseRecordType(s string) (RecordType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	}
	return "", &ValidationError{Field: "category", Reason: "must be Income or Expense"}
}

// Valid reports whether t is one of the known record types.
func (t RecordType) Valid() bool {
	return t == Income || t == Expense
}

// ParseAmount parses a decimal amount, accepting a comma as the decimal
// separator. The value is rounded half-up to cents.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "is required"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "is not a number"}
	}
	d = d.Round(2)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks the bounds of an already parsed amount.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	if d.GreaterThan(MaxAmount) {
		return &ValidationError{Field: "amount", Reason: "is too large"}
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return d, nil
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DailyBalance is the net movement of a single calendar day.
type DailyBalance struct {
	Date time.Time       `json:"date"`
	Net  decimal.Decimal `json:"net"`
}

// MonthlyTotal summarises one calendar month.
type MonthlyTotal struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}
