package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

const expenseColumns = "id, user_id, category, amount, occurred_on, created_at, updated_at"

// CreateExpense inserts a new ledger record and returns it with its ID set.
func (db *DB) CreateExpense(ctx context.Context, userID int64, typ models.RecordType, amount decimal.Decimal, occurredOn time.Time) (*models.ExpenseRecord, error) {
	now := db.now()
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO expenses (user_id, category, amount, occurred_on, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		userID, string(typ), amount.StringFixed(2), occurredOn.Format(models.DateLayout), now, now,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("create expense for user %d: %w", userID, models.ErrNotFound)
		}
		return nil, storageErr("create expense", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, storageErr("create expense", err)
	}
	return db.GetExpense(ctx, id)
}

// GetExpense retrieves a single record by ID regardless of owner.
func (db *DB) GetExpense(ctx context.Context, id int64) (*models.ExpenseRecord, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, storageErr("get expense", err)
	}
	return e, nil
}

// DeleteExpense removes the record with the given ID if it belongs to userID.
// It returns models.ErrNotFound when no such row exists.
func (db *DB) DeleteExpense(ctx context.Context, id, userID int64) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return storageErr("delete expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("delete expense", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListExpenses retrieves every record owned by userID, ordered by date and
// then insertion order.
func (db *DB) ListExpenses(ctx context.Context, userID int64) ([]models.ExpenseRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY occurred_on ASC, id ASC",
		userID,
	)
	if err != nil {
		return nil, storageErr("list expenses", err)
	}
	defer rows.Close()

	expenses := []models.ExpenseRecord{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, storageErr("list expenses", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list expenses", err)
	}
	return expenses, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (*models.ExpenseRecord, error) {
	var e models.ExpenseRecord
	var category, occurredOn string
	if err := s.Scan(&e.ID, &e.UserID, &category, &e.Amount, &occurredOn, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Type = models.RecordType(category)
	d, err := time.Parse(models.DateLayout, occurredOn)
	if err != nil {
		return nil, fmt.Errorf("parse occurred_on %q: %w", occurredOn, err)
	}
	e.OccurredOn = d
	return &e, nil
}
