package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/service"
)

// AuthService is implemented by *service.AuthService.
type AuthService interface {
	Signup(ctx context.Context, username, email string) (*service.AuthResult, error)
	Login(ctx context.Context, email string) (*service.AuthResult, error)
}

var _ AuthService = (*service.AuthService)(nil)

// AuthHandler serves the signup and login routes.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup → create a user, return it with a token
//   - HandleLogin  → look a user up by email, return it with a token
//
// There is no password. Identity is the email address alone.
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Email string `json:"email"`
}

// HandleSignup registers a user.
//
// HTTP: POST /auth/signup
// Request body: {"username": "alice", "email": "alice@example.com"}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "Invalid JSON body"), "Failed to sign up")
		return
	}

	result, err := h.auth.Signup(r.Context(), req.Username, req.Email)
	if err != nil {
		writeError(w, h.logger, err, "Failed to sign up")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "User signed up successfully",
		User:    result.User,
		Token:   result.Token,
	})
}

// HandleLogin issues a token for an existing user.
//
// HTTP: POST /auth/login
// Request body: {"email": "alice@example.com"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "Invalid JSON body"), "Failed to login")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email)
	if err != nil {
		writeError(w, h.logger, err, "Failed to login")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "User logged in successfully",
		User:    result.User,
		Token:   result.Token,
	})
}
