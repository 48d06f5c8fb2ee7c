// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mvmaia/contas/internal/models"
)

var (
	// ErrNotFound means the row does not exist or is not owned by the
	// requesting user. The two cases are not distinguished.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate means a uniqueness rule was violated (email, or
	// category name per user).
	ErrDuplicate = errors.New("already exists")
	// ErrCategoryInUse means a category cannot be deleted because bills
	// still reference it.
	ErrCategoryInUse = errors.New("category has associated bills")
)

// NormalizeCategoryName is the single normalization policy for category
// names, applied on every create path (API, voice pipeline, bulk import):
// trim surrounding whitespace and upper-case.
func NormalizeCategoryName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// CategoryUpdate holds the partial fields of a category update.
// Nil fields are left unchanged.
type CategoryUpdate struct {
	Name         *string
	BudgetAmount *decimal.Decimal
}

// BillUpdate holds the partial fields of a bill update.
// Nil fields are left unchanged.
type BillUpdate struct {
	CategoryID      *int64
	Description     *string
	Amount          *decimal.Decimal
	TransactionDate *models.Date
}

// BillFilter selects bills by an optional inclusive date range.
type BillFilter struct {
	StartDate *models.Date
	FinalDate *models.Date
}

// Store defines the persistence operations for users, categories and bills.
// All category and bill operations are scoped to the owning user: rows
// belonging to other users behave as if they did not exist.
type Store interface {
	// CreateUser persists a new user and populates its ID and CreatedAt.
	// Returns ErrDuplicate if the email is already registered.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns ErrNotFound if absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by id. Returns ErrNotFound if absent.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// ToggleCumulativeBudget flips the user's cumulative_budget flag and
	// returns the new value.
	ToggleCumulativeBudget(ctx context.Context, userID int64) (bool, error)

	// CreateCategory persists a new category for its UserID, normalizing
	// the name. Returns ErrDuplicate if the user already has a category
	// with the normalized name.
	CreateCategory(ctx context.Context, category *models.Category) error

	// ListCategories returns all categories owned by the user.
	ListCategories(ctx context.Context, userID int64) ([]models.Category, error)

	// UpdateCategory applies the non-nil fields of upd to the user's
	// category. Returns ErrNotFound if the category does not exist or is
	// not owned by the user, ErrDuplicate if renaming collides.
	UpdateCategory(ctx context.Context, userID, id int64, upd CategoryUpdate) error

	// DeleteCategory removes the user's category. Returns ErrNotFound if
	// absent or not owned, ErrCategoryInUse if bills still reference it.
	DeleteCategory(ctx context.Context, userID, id int64) error

	// CreateBill persists a new bill, resolving categoryName (normalized)
	// to a category owned by bill.UserID. Returns ErrNotFound if the name
	// does not resolve; the bill is never inserted with a null category.
	// On success bill.ID, bill.CategoryID and bill.CreatedAt are populated.
	CreateBill(ctx context.Context, categoryName string, bill *models.Bill) error

	// ListBills returns the user's bills matching the filter, ordered by
	// transaction_date descending with ties broken by id ascending.
	ListBills(ctx context.Context, userID int64, filter BillFilter) ([]models.Bill, error)

	// UpdateBill applies the non-nil fields of upd to the user's bill.
	// Returns ErrNotFound if the bill does not exist, is not owned by the
	// user, or upd.CategoryID references a category the user does not own.
	UpdateBill(ctx context.Context, userID, id int64, upd BillUpdate) error

	// DeleteBill removes the user's bill. Returns ErrNotFound if absent
	// or not owned.
	DeleteBill(ctx context.Context, userID, id int64) error

	// Close releases any resources held by the store.
	Close() error
}
