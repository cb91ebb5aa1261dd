// Package ledger holds the per-user income and expense records and derives
// balances from them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// Store persists ledger records.
type Store interface {
	CreateExpense(ctx context.Context, userID int64, typ models.RecordType, amount decimal.Decimal, occurredOn time.Time) (*models.ExpenseRecord, error)
	GetExpense(ctx context.Context, id int64) (*models.ExpenseRecord, error)
	DeleteExpense(ctx context.Context, id, userID int64) error
	ListExpenses(ctx context.Context, userID int64) ([]models.ExpenseRecord, error)
}

// Service applies validation and ownership rules on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a ledger service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// AddRecord validates and stores a new record for userID. A zero occurredOn
// means today.
func (s *Service) AddRecord(ctx context.Context, userID int64, typ models.RecordType, amount decimal.Decimal, occurredOn time.Time) (*models.ExpenseRecord, error) {
	if !typ.Valid() {
		return nil, &models.ValidationError{Field: "category", Reason: "must be Income or Expense"}
	}
	if err := models.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if occurredOn.IsZero() {
		occurredOn = s.now()
	}

	rec, err := s.store.CreateExpense(ctx, userID, typ, amount.Round(2), models.DateOf(occurredOn))
	if err != nil {
		return nil, fmt.Errorf("add record: %w", err)
	}
	return rec, nil
}

// DeleteRecord removes a record owned by userID. Records of other users are
// reported as models.ErrForbidden.
func (s *Service) DeleteRecord(ctx context.Context, userID, recordID int64) error {
	rec, err := s.store.GetExpense(ctx, recordID)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", recordID, err)
	}
	if rec.UserID != userID {
		return fmt.Errorf("delete record %d: %w", recordID, models.ErrForbidden)
	}

	// The owner check is repeated in the statement itself, so a record can
	// only ever disappear for its owner.
	if err := s.store.DeleteExpense(ctx, recordID, userID); err != nil {
		return fmt.Errorf("delete record %d: %w", recordID, err)
	}
	return nil
}

// ListRecords returns the records of userID ordered by date, then insertion.
func (s *Service) ListRecords(ctx context.Context, userID int64) ([]models.ExpenseRecord, error) {
	records, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Dashboard is everything the overview screen shows for one user.
type Dashboard struct {
	Records        []models.ExpenseRecord
	DailyBalances  []models.DailyBalance
	RunningBalance decimal.Decimal
	MonthlyTotals  []models.MonthlyTotal
}

// Dashboard loads the records of userID and derives their balances.
func (s *Service) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	records, err := s.ListRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Records:        records,
		DailyBalances:  ComputeDailyBalances(records),
		RunningBalance: ComputeRunningBalance(records),
		MonthlyTotals:  ComputeMonthlyTotals(records),
	}, nil
}

// SuggestBalance returns the net already booked for date, or for today when
// date is zero.
func (s *Service) SuggestBalance(ctx context.Context, userID int64, date time.Time) (decimal.Decimal, error) {
	if date.IsZero() {
		date = s.now()
	}
	records, err := s.ListRecords(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return ComputeDateBalance(records, date), nil
}

// IsClientError reports whether err is caused by the caller rather than by
// infrastructure.
func IsClientError(err error) bool {
	var verr *models.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrForbidden)
}
