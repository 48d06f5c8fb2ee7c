package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a user-defined spending bucket with an optional budget.
// Names are unique per user after normalization (trim + upper-case).
type Category struct {
	// ID is the unique identifier for the category.
	ID int64 `json:"id"`

	// UserID is the owning user. Categories are never visible across users.
	UserID int64 `json:"user_id"`

	// Name is the normalized category name.
	Name string `json:"name"`

	// BudgetAmount is the optional monthly budget. Nil means no budget.
	// Decimal, never binary floating point.
	BudgetAmount *decimal.Decimal `json:"budget_amount"`

	// CreatedAt is when the category was created.
	CreatedAt time.Time `json:"created_at"`
}
