package handler

// RESPONSE ENVELOPE:
// Every JSON response carries "success". Successful responses add the payload
// fields (meme, memes + count, user + token) and usually a "message".
// Failures look like:
//
//	{"success": false, "message": "Meme not found"}
//	{"success": false, "message": "Failed to load gallery", "error": "<raw error>"}
//
// "error" is only present on 500s, where "message" names the operation that
// failed and "error" carries the underlying error text.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/model"
)

type envelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
	Meme    *model.Meme   `json:"meme,omitempty"`
	Memes   *[]model.Meme `json:"memes,omitempty"`
	Count   *int          `json:"count,omitempty"`
	User    *model.User   `json:"user,omitempty"`
	Token   string        `json:"token,omitempty"`
}

func listEnvelope(memes []model.Meme) envelope {
	if memes == nil {
		memes = []model.Meme{}
	}
	count := len(memes)
	return envelope{Success: true, Memes: &memes, Count: &count}
}

// writeJSON sends a JSON response. Headers and status must be set before the
// body; once Encode writes, later header changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// statusFor maps an error class onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperror.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates a service error into an envelope.
//
// Errors of a known class keep their status. An AppError contributes its own
// message; a bare wrapped sentinel uses the error text. Everything else is a
// 500 whose message is failMsg (e.g. "Failed to upload meme") and whose error
// field is the raw error string.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, failMsg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(failMsg, slog.String("error", err.Error()))
		writeJSON(w, status, envelope{
			Success: false,
			Message: failMsg,
			Error:   err.Error(),
		})
		return
	}

	message := err.Error()
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// AuthFailure returns the callback auth.RequireAuth uses to reject a request,
// so a 401 carries the same envelope as every other error.
func AuthFailure(logger *slog.Logger) func(http.ResponseWriter, error) {
	return func(w http.ResponseWriter, err error) {
		logger.Warn("request rejected", slog.String("error", err.Error()))
		writeError(w, logger, err, "Authentication failed")
	}
}
