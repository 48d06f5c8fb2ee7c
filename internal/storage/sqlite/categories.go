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

// CreateCategory persists a new category, normalizing the name.
// The (user_id, name) unique constraint is the duplicate guard, so
// concurrent creates cannot race a check-then-insert.
func (s *SQLiteStore) CreateCategory(ctx context.Context, category *models.Category) error {
	category.Name = storage.NormalizeCategoryName(category.Name)
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (user_id, name, budget_amount, created_at) VALUES (?, ?, ?, ?)",
		category.UserID, category.Name, decimalOrNull(category.BudgetAmount), timestamp(category.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %s", storage.ErrDuplicate, category.Name)
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read category id: %w", err)
	}
	category.ID = id
	return nil
}

// ListCategories returns all categories owned by the user.
func (s *SQLiteStore) ListCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, name, budget_amount, created_at FROM categories WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		var budget sql.NullString
		var createdAt string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &budget, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if budget.Valid {
			amount, err := decimal.NewFromString(budget.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt budget_amount for category %d: %w", c.ID, err)
			}
			c.BudgetAmount = &amount
		}
		c.CreatedAt = parseTimestamp(createdAt)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory applies the non-nil fields of upd to the user's category.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, userID, id int64, upd storage.CategoryUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ownedRowExists(ctx, tx, "categories", userID, id); err != nil {
		return err
	}

	sets := []string{}
	args := []any{}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, storage.NormalizeCategoryName(*upd.Name))
	}
	if upd.BudgetAmount != nil {
		sets = append(sets, "budget_amount = ?")
		args = append(args, upd.BudgetAmount.String())
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id, userID)

	_, err = tx.ExecContext(ctx,
		"UPDATE categories SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?",
		args...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category name", storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteCategory removes the user's category unless bills still reference it.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, userID, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ownedRowExists(ctx, tx, "categories", userID, id); err != nil {
		return err
	}

	var refs int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bills WHERE category_id = ?", id,
	).Scan(&refs); err != nil {
		return fmt.Errorf("failed to count referencing bills: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: %d bills reference category %d", storage.ErrCategoryInUse, refs, id)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM categories WHERE id = ? AND user_id = ?", id, userID,
	); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ownedRowExists verifies that the row exists and belongs to the user.
// Absent and not-owned both map to ErrNotFound.
func ownedRowExists(ctx context.Context, tx *sql.Tx, table string, userID, id int64) error {
	var found int64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM "+table+" WHERE id = ? AND user_id = ?", id, userID,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", storage.ErrNotFound, strings.TrimSuffix(table, "s"), id)
	}
	if err != nil {
		return fmt.Errorf("failed to check ownership: %w", err)
	}
	return nil
}

// decimalOrNull converts an optional decimal to a driver value.
func decimalOrNull(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
