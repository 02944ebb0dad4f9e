package domain

import (
	"errors"
	"time"
)

var ErrAccountExists = errors.New("username or email already exists")
var ErrAccountNotFound = errors.New("account not found")
var ErrInvalidCredentials = errors.New("invalid credentials")

// Account models a registered chat user. Accounts are created at signup and
// immutable afterwards; the Mongo unique indexes on username and email are
// the authority for duplicate detection.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
