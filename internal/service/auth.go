package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/auth"
	"github.com/sakif/meme-museum/internal/model"
	"github.com/sakif/meme-museum/internal/repository"
)

// AuthService handles email-only signup and login.
//
//	AuthHandler (HTTP) → AuthService → UserRepository
//	                   ↘ auth.Issuer (JWT or mock token)
//
// There are no passwords: knowing an email is enough to log in as it.
// The token returned is informational unless a JWT secret is configured.
type AuthService struct {
	users  repository.UserRepository
	tokens auth.Issuer
	logger *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokens auth.Issuer, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// AuthResult bundles the user record with the token issued for it.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup registers a new user.
//
// The repository enforces email uniqueness in the same write that creates
// the row, so two racing signups for one email yield exactly one user and
// one conflict.
func (s *AuthService) Signup(ctx context.Context, username, email string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, apperror.ValidationFailed("email", "Username and email are required")
	}

	user := &model.User{Email: email, Username: username}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "User already exists with this email",
				Field:   "email",
			}
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user signed up", slog.String("email", email))
	return s.issue(user)
}

// Login looks a user up by email.
func (s *AuthService) Login(ctx context.Context, email string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "Email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "User not found", Field: "email"}
		}
		return nil, fmt.Errorf("service/auth: fetching user: %w", err)
	}

	s.logger.Info("user logged in", slog.String("email", email))
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
