package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrMissingFields  = errors.New("all fields are required")
	ErrBadUsername    = errors.New("username must be 50 characters or fewer")
	ErrBadEmail       = errors.New("please enter a valid email address")
	ErrUsernameTaken  = errors.New("this username is already taken")
	ErrEmailTaken     = errors.New("an account with this email already exists")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrWrongPassword  = errors.New("old password is incorrect")
)

// User is an account record. Hash and salt are opaque blobs and must never
// leave the service layer.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	PasswordSalt []byte
	CreatedAt    time.Time
}

// NormalizeEmail lowercases and trims an email; the result is the unique
// login handle.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
