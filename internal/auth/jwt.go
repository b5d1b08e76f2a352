// Package auth issues and checks the tokens returned by signup and login.
//
// TWO ISSUERS:
// The gallery identifies users by email only; there are no passwords. What a
// client gets back after signup or login depends on configuration:
//
//   - JWT_SECRET set   → TokenService issues an HS256 JWT whose subject is the email.
//   - JWT_SECRET empty → MockIssuer returns the placeholder "mock-jwt-token-<unix ms>".
//
// Only TokenService tokens can be validated. RequireAuth (middleware.go) is
// therefore only installed when a secret is configured.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"alice@example.com","iss":"meme-museum","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuerName = "meme-museum"
	// TokenTTL is the lifetime of an issued JWT.
	TokenTTL = 24 * time.Hour
)

// Issuer hands out a token for an authenticated email.
type Issuer interface {
	Issue(email string) (string, error)
}

// MockIssuer returns placeholder tokens that carry no identity.
type MockIssuer struct {
	now func() time.Time
}

func NewMockIssuer() *MockIssuer {
	return &MockIssuer{now: time.Now}
}

func (m *MockIssuer) Issue(string) (string, error) {
	return fmt.Sprintf("mock-jwt-token-%d", m.now().UnixMilli()), nil
}

// TokenService handles JWT creation and validation with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

var (
	_ Issuer = (*TokenService)(nil)
	_ Issuer = (*MockIssuer)(nil)
)

// NewTokenService creates a TokenService with the given secret.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: TokenTTL}, nil
}

// Issue signs a token for email, valid for TokenTTL.
func (s *TokenService) Issue(email string) (string, error) {
	return s.IssueWithDuration(email, s.ttl)
}

// IssueWithDuration signs a token with a custom lifetime. A negative
// duration yields an already-expired token, which tests use.
func (s *TokenService) IssueWithDuration(email string, d time.Duration) (string, error) {
	now := time.Now()
	c := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    issuerName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a JWT string and returns its subject (the email).
//
// The parser checks the signature, expiry, issuer and algorithm. Restricting
// the method to HS256 blocks "alg: none" and key-confusion tokens.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}
	return c.Subject, nil
}
