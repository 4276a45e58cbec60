package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")

	// ErrSignupInProgress means another signup for the same username holds
	// the signup lock. The caller may retry.
	ErrSignupInProgress = errors.New("signup already in progress")
)

// Account is a persisted user record keyed by its unique username.
type Account struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	PasswordDigest string    `json:"-"`
	EmailAddress   string    `json:"email"`
	CreatedAt      time.Time `json:"created_at"`
}

// AccountSummary is the public view returned after signup.
type AccountSummary struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	EmailAddress string `json:"email"`
}

func (a *Account) Summary() *AccountSummary {
	return &AccountSummary{
		ID:           a.ID,
		Username:     a.Username,
		EmailAddress: a.EmailAddress,
	}
}

// AccountError tags one of the account error kinds with the username that
// triggered it. errors.Is matches against the kind.
type AccountError struct {
	Kind     error
	Username string
}

func NewAccountError(kind error, username string) *AccountError {
	return &AccountError{Kind: kind, Username: username}
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("%s: username: %s", e.Kind, e.Username)
}

func (e *AccountError) Unwrap() error {
	return e.Kind
}
