package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/auth"
)

func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewAuthService(repo, ts, discardLogger()), ts
}

// =========================================================================
// SIGNUP
// =========================================================================

func TestSignup(t *testing.T) {
	repo := newFakeUserRepo()
	svc, ts := newTestAuthService(t, repo)

	result, err := svc.Signup(context.Background(), "alice", " alice@example.com ")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if result.User.Email != "alice@example.com" || result.User.Username != "alice" {
		t.Errorf("User = %+v", result.User)
	}
	if result.User.CreatedAt == 0 {
		t.Error("CreatedAt not set")
	}

	email, err := ts.Validate(result.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if email != "alice@example.com" {
		t.Errorf("token subject = %q", email)
	}
}

func TestSignup_MissingFields(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())

	tests := []struct{ username, email string }{
		{"", "a@example.com"},
		{"alice", ""},
		{"  ", "  "},
	}
	for _, tt := range tests {
		_, err := svc.Signup(context.Background(), tt.username, tt.email)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Signup(%q, %q) error = %v, want ErrValidation", tt.username, tt.email, err)
		}
	}
}

// The second signup conflicts and the original user is left unchanged.
func TestSignup_Duplicate(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	if _, err := svc.Signup(context.Background(), "alice", "a@example.com"); err != nil {
		t.Fatalf("first Signup() error = %v", err)
	}

	_, err := svc.Signup(context.Background(), "mallory", "a@example.com")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Signup() error = %v, want ErrConflict", err)
	}
	if err.Error() != "User already exists with this email" {
		t.Errorf("message = %q", err.Error())
	}
	if repo.users["a@example.com"].Username != "alice" {
		t.Errorf("original user changed: %+v", repo.users["a@example.com"])
	}
}

func TestSignup_StoreFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = apperror.StoreUnavailable("put user", errors.New("down"))
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Signup(context.Background(), "alice", "a@example.com")
	if !errors.Is(err, apperror.ErrStoreUnavailable) {
		t.Errorf("Signup() error = %v, want ErrStoreUnavailable", err)
	}
}

// =========================================================================
// LOGIN
// =========================================================================

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, auth.NewMockIssuer(), discardLogger())

	if _, err := svc.Signup(context.Background(), "alice", "a@example.com"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	result, err := svc.Login(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.Username != "alice" {
		t.Errorf("Username = %q", result.User.Username)
	}
	if !strings.HasPrefix(result.Token, "mock-jwt-token-") {
		t.Errorf("Token = %q, want mock token", result.Token)
	}
}

func TestLogin_Errors(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.Login(context.Background(), "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Login(\"\") error = %v, want ErrValidation", err)
	}

	_, err = svc.Login(context.Background(), "nobody@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Login(unknown) error = %v, want ErrNotFound", err)
	}
	if err != nil && err.Error() != "User not found" {
		t.Errorf("message = %q", err.Error())
	}
}
