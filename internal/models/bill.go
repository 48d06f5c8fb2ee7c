package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill is one recorded financial transaction, owned by a user and linked to
// one of that user's categories.
type Bill struct {
	// ID is the unique identifier for the bill.
	ID int64 `json:"id"`

	// UserID is the owning user.
	UserID int64 `json:"user_id"`

	// CategoryID references a category owned by the same user.
	CategoryID int64 `json:"category_id"`

	// Description is free text describing the transaction.
	Description string `json:"description"`

	// Amount is the transaction amount. Decimal, round-trips exactly
	// through JSON and storage.
	Amount decimal.Decimal `json:"amount"`

	// TransactionDate is the calendar date the transaction happened.
	TransactionDate Date `json:"transaction_date"`

	// CreatedAt is the immutable audit timestamp.
	CreatedAt time.Time `json:"created_at"`
}
