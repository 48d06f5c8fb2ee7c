package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvmaia/contas/internal/models"
	"github.com/mvmaia/contas/internal/storage"
)

// CreateBill persists a new bill, resolving categoryName to a category owned
// by bill.UserID inside the same transaction. A name that does not resolve
// rejects the insert; a bill row is never written with a null category.
func (s *SQLiteStore) CreateBill(ctx context.Context, categoryName string, bill *models.Bill) error {
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	name := storage.NormalizeCategoryName(categoryName)
	var categoryID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM categories WHERE user_id = ? AND name = ?",
		bill.UserID, name,
	).Scan(&categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: category %s", storage.ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve category: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO bills (user_id, category_id, description, amount, transaction_date, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		bill.UserID, categoryID, bill.Description, bill.Amount.String(), bill.TransactionDate.String(), timestamp(bill.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read bill id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	bill.ID = id
	bill.CategoryID = categoryID
	return nil
}

// ListBills returns the user's bills matching the filter, newest transaction
// first. Ties on the date are broken by id ascending so listings are
// deterministic.
func (s *SQLiteStore) ListBills(ctx context.Context, userID int64, filter storage.BillFilter) ([]models.Bill, error) {
	query := "SELECT id, user_id, category_id, description, amount, transaction_date, created_at FROM bills WHERE user_id = ?"
	args := []any{userID}

	// Dates are stored as YYYY-MM-DD, so string comparison is date
	// comparison. Both bounds are inclusive.
	if filter.StartDate != nil {
		query += " AND transaction_date >= ?"
		args = append(args, filter.StartDate.String())
	}
	if filter.FinalDate != nil {
		query += " AND transaction_date <= ?"
		args = append(args, filter.FinalDate.String())
	}
	query += " ORDER BY transaction_date DESC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	bills := []models.Bill{}
	for rows.Next() {
		var b models.Bill
		var amount, txDate, createdAt string
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Description, &amount, &txDate, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		b.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount for bill %d: %w", b.ID, err)
		}
		b.TransactionDate, err = models.ParseDate(txDate)
		if err != nil {
			return nil, fmt.Errorf("corrupt transaction_date for bill %d: %w", b.ID, err)
		}
		b.CreatedAt = parseTimestamp(createdAt)
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return bills, nil
}

// UpdateBill applies the non-nil fields of upd to the user's bill.
// A category change is verified against the same user's categories before
// the write, keeping the cross-user invariant intact.
func (s *SQLiteStore) UpdateBill(ctx context.Context, userID, id int64, upd storage.BillUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ownedRowExists(ctx, tx, "bills", userID, id); err != nil {
		return err
	}

	sets := []string{}
	args := []any{}
	if upd.CategoryID != nil {
		if err := ownedRowExists(ctx, tx, "categories", userID, *upd.CategoryID); err != nil {
			return err
		}
		sets = append(sets, "category_id = ?")
		args = append(args, *upd.CategoryID)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, upd.Amount.String())
	}
	if upd.TransactionDate != nil {
		sets = append(sets, "transaction_date = ?")
		args = append(args, upd.TransactionDate.String())
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id, userID)

	if _, err := tx.ExecContext(ctx,
		"UPDATE bills SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?",
		args...,
	); err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteBill removes the user's bill.
func (s *SQLiteStore) DeleteBill(ctx context.Context, userID, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ownedRowExists(ctx, tx, "bills", userID, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM bills WHERE id = ? AND user_id = ?", id, userID,
	); err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
