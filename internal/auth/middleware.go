package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sakif/meme-museum/internal/apperror"
)

// contextKey is unexported so no other package can read or shadow our values.
type contextKey string

const emailKey contextKey = "email"

// RequireAuth rejects requests without a valid "Authorization: Bearer <jwt>"
// header and stores the token's email in the request context.
//
// Rejections are handed to fail as an apperror.ErrUnauthorized; the HTTP
// layer owns the response format (see handler.AuthFailure).
func RequireAuth(tokens *TokenService, fail func(http.ResponseWriter, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := tokens.Validate(bearerToken(r))
			if err != nil {
				fail(w, fmt.Errorf("%w: %w", apperror.Unauthorized("Authentication required"), err))
				return
			}

			ctx := context.WithValue(r.Context(), emailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EmailFromContext returns the authenticated email, or ("", false) for
// anonymous requests.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok && email != ""
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
