package models

import "time"

// User represents a registered account. Every category and bill belongs to
// exactly one user and is only reachable through that user's id.
type User struct {
	// ID is the unique identifier for the user.
	ID int64 `json:"id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is the user's email address (unique). Used for login.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized.
	PasswordHash string `json:"-"`

	// CumulativeBudget toggles whether category budgets roll over
	// historical totals. Flipped by the toggle endpoint.
	CumulativeBudget bool `json:"cumulative_budget"`

	// CreatedAt is when the account was registered.
	CreatedAt time.Time `json:"created_at"`
}
