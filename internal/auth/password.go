package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"framing-command-center/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = apperr.Wrap(apperr.ErrUnauthorized, "auth: invalid credentials")

// Admin checks the single dashboard account's credentials.
type Admin struct {
	username string
	hash     []byte
}

// NewAdmin returns nil when passwordHash is empty, meaning admin login is disabled.
func NewAdmin(username, passwordHash string) (*Admin, error) {
	passwordHash = strings.TrimSpace(passwordHash)
	if passwordHash == "" {
		return nil, nil
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, errors.New("ADMIN_PASSWORD_HASH is not a bcrypt hash")
	}
	return &Admin{username: username, hash: []byte(passwordHash)}, nil
}

// Authenticate reports ErrInvalidCredentials for any mismatch without saying which part failed.
func (a *Admin) Authenticate(username, password string) error {
	if a == nil {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil || !userOK {
		return ErrInvalidCredentials
	}
	return nil
}

func (a *Admin) Username() string { return a.username }

// HashPassword produces a value suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", apperr.Validation("password", "must be at least 8 characters")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
