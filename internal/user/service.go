package user

import (
	"context"
	"errors"
	"regexp"
	"unicode/utf8"

	"github.com/MrJamesThe3rd/invox/internal/auth"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailInUse(ctx context.Context, email string, excludeID int64) (bool, error)
	UpdatePassword(ctx context.Context, id int64, hash, salt []byte) error
	UpdateEmail(ctx context.Context, id int64, email string) error
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Service struct {
	repo   Repository
	tokens *auth.TokenManager
}

func NewService(repo Repository, tokens *auth.TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Register creates an account with a normalized email and a fresh salted
// password hash. Returns the new user id.
func (s *Service) Register(ctx context.Context, username, email, password string) (int64, error) {
	if username == "" || email == "" || password == "" {
		return 0, ErrMissingFields
	}

	if utf8.RuneCountInString(username) > 50 {
		return 0, ErrBadUsername
	}

	if !emailPattern.MatchString(email) {
		return 0, ErrBadEmail
	}

	taken, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return 0, err
	}

	if taken {
		return 0, ErrUsernameTaken
	}

	normalized := NormalizeEmail(email)

	inUse, err := s.repo.EmailInUse(ctx, normalized, 0)
	if err != nil {
		return 0, err
	}

	if inUse {
		return 0, ErrEmailTaken
	}

	hash, salt, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}

	u := &User{
		Username:     username,
		Email:        normalized,
		PasswordHash: hash,
		PasswordSalt: salt,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return 0, err
	}

	return u.ID, nil
}

// Login verifies credentials and mints a bearer token. A missing account and
// a wrong password return the same error so callers cannot enumerate users.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrBadCredentials
		}

		return "", err
	}

	if !auth.VerifyPassword(password, u.PasswordHash, u.PasswordSalt) {
		return "", ErrBadCredentials
	}

	return s.tokens.Issue(u.ID, u.Username, u.Email)
}

// Profile returns the user record; callers must expose only username and
// email.
func (s *Service) Profile(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// ChangePassword verifies the old password and replaces both hash and salt.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !auth.VerifyPassword(oldPassword, u.PasswordHash, u.PasswordSalt) {
		return ErrWrongPassword
	}

	hash, salt, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.repo.UpdatePassword(ctx, userID, hash, salt)
}

// ChangeEmail validates and normalizes the new address, checks it is not in
// use by another account, and updates the record. Returns the stored form.
func (s *Service) ChangeEmail(ctx context.Context, userID int64, newEmail string) (string, error) {
	normalized := NormalizeEmail(newEmail)
	if normalized == "" {
		return "", ErrMissingFields
	}

	if !emailPattern.MatchString(normalized) {
		return "", ErrBadEmail
	}

	inUse, err := s.repo.EmailInUse(ctx, normalized, userID)
	if err != nil {
		return "", err
	}

	if inUse {
		return "", ErrEmailTaken
	}

	if err := s.repo.UpdateEmail(ctx, userID, normalized); err != nil {
		return "", err
	}

	return normalized, nil
}
