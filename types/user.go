package types

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user account can carry. Sellers create listings; buyers browse them.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID uuid.UUID `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. Unique across all accounts.
	Email string `json:"email" db:"email"`

	// Phone is the user's contact phone number.
	Phone string `json:"phone" db:"phone"`

	// UserType indicates whether the account is a "buyer" or a "seller".
	UserType string `json:"usertype" db:"usertype"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Seller is the public projection of a car's owner attached to car reads.
type Seller struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
