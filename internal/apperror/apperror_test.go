// Run with: go test ./internal/apperror/ -v
package apperror

import (
	"errors"
	"testing"
)

// Each case checks that errors.Is() identifies the class through the AppError
// wrapper. Handlers rely on exactly this to pick a status code.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("meme", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("email", "Email is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "MissingFile is a validation error",
			err:       MissingFile("memeFile"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "a@b.c"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "UnsupportedMediaType wraps its sentinel",
			err:       UnsupportedMediaType("notes.txt", "text/plain"),
			target:    ErrUnsupportedMediaType,
			wantMatch: true,
		},
		{
			name:      "PayloadTooLarge wraps its sentinel",
			err:       PayloadTooLarge(10),
			target:    ErrPayloadTooLarge,
			wantMatch: true,
		},
		{
			name:      "StoreUnavailable keeps sentinel and cause",
			err:       StoreUnavailable("put meme", errBoom),
			target:    errBoom,
			wantMatch: true,
		},
		{
			name:      "ChannelUnavailable wraps its sentinel",
			err:       ChannelUnavailable(errBoom),
			target:    ErrChannelUnavailable,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("meme", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "PayloadTooLarge does NOT match ErrUnsupportedMediaType",
			err:       PayloadTooLarge(10),
			target:    ErrUnsupportedMediaType,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

var errBoom = errors.New("boom")

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("meme", "abc123"),
			wantMessage: "meme not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("memeId", "Meme ID is required"),
			wantMessage: "Meme ID is required",
		},
		{
			name:        "MissingFile has a fixed message",
			err:         MissingFile("memeFile"),
			wantMessage: "No image file uploaded",
		},
		{
			name:        "PayloadTooLarge names the limit",
			err:         PayloadTooLarge(5242880),
			wantMessage: "File too large: the limit is 5242880 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("meme", "abc123")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestStoreUnavailableAs(t *testing.T) {
	// A wrapped infrastructure failure is not an AppError; handlers treat it as a 500.
	err := StoreUnavailable("scan memes", errBoom)

	var appErr *AppError
	if errors.As(err, &appErr) {
		t.Errorf("errors.As(StoreUnavailable) unexpectedly found an AppError: %v", appErr)
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("errors.Is(%v, ErrStoreUnavailable) = false", err)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "Email is required")
	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}
