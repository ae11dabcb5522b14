package auth

import (
	"errors"
	"testing"

	"framing-command-center/internal/apperr"
)

func TestAdminAuthenticate(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	admin, err := NewAdmin("admin", hash)
	if err != nil || admin == nil {
		t.Fatalf("new admin: %v", err)
	}

	if err := admin.Authenticate("admin", "correct horse"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := admin.Authenticate("admin", "wrong"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := admin.Authenticate("root", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestNewAdminDisabledWithoutHash(t *testing.T) {
	admin, err := NewAdmin("admin", "")
	if err != nil || admin != nil {
		t.Fatalf("expected disabled admin, got %v %v", admin, err)
	}
	if err := admin.Authenticate("admin", "x"); err == nil {
		t.Fatalf("nil admin must reject every login")
	}
}

func TestNewAdminRejectsPlaintext(t *testing.T) {
	if _, err := NewAdmin("admin", "hunter2"); err == nil {
		t.Fatalf("expected non-bcrypt value to be rejected")
	}
}

func TestHashPasswordMinimumLength(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
