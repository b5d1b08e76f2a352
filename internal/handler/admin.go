package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/auth"
)

// AdminHandler serves the admin routes. Whether they are gated by a bearer
// token is decided by the router, not here.
type AdminHandler struct {
	memes  MemeService
	logger *slog.Logger
}

func NewAdminHandler(memes MemeService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{memes: memes, logger: logger}
}

type featureRequest struct {
	MemeID string `json:"memeId"`
}

// HandleFeature marks a meme as featured and announces it.
//
// HTTP: POST /admin/feature
// Request body: {"memeId": "..."}
func (h *AdminHandler) HandleFeature(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "Invalid JSON body"), "Failed to feature meme")
		return
	}

	meme, err := h.memes.Feature(r.Context(), req.MemeID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to feature meme")
		return
	}

	if email, ok := auth.EmailFromContext(r.Context()); ok {
		h.logger.Info("admin feature", slog.String("id", meme.ID), slog.String("by", email))
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Meme featured successfully – SNS notification sent",
		Meme:    meme,
	})
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealth answers GET /healthz.
func HandleHealth(store Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			logger.Error("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, envelope{
				Success: false,
				Message: "Store unavailable",
				Error:   err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true})
	}
}
