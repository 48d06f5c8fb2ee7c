package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mvmaia/contas/internal/models"
	"github.com/mvmaia/contas/internal/storage"
)

// CreateUser persists a new user to the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, cumulative_budget, created_at) VALUES (?, ?, ?, ?, ?)",
		user.Name, user.Email, user.PasswordHash, user.CumulativeBudget, timestamp(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s", storage.ErrDuplicate, user.Email)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

// GetUserByID retrieves a user by id.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, cumulative_budget, created_at FROM users WHERE "+where,
		arg,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CumulativeBudget, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.CreatedAt = parseTimestamp(createdAt)
	return user, nil
}

// ToggleCumulativeBudget flips the user's cumulative_budget flag and returns
// the new value.
func (s *SQLiteStore) ToggleCumulativeBudget(ctx context.Context, userID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current bool
	err = tx.QueryRowContext(ctx,
		"SELECT cumulative_budget FROM users WHERE id = ?", userID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: user %d", storage.ErrNotFound, userID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cumulative_budget: %w", err)
	}

	next := !current
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET cumulative_budget = ? WHERE id = ?", next, userID,
	); err != nil {
		return false, fmt.Errorf("failed to update cumulative_budget: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return next, nil
}
