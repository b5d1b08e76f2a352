package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/model"
	"github.com/sakif/meme-museum/internal/service"
	"github.com/sakif/meme-museum/internal/upload"
)

// MemeService is implemented by *service.MemeService.
type MemeService interface {
	Upload(ctx context.Context, in service.MemeInput, file *multipart.FileHeader) (*model.Meme, error)
	Update(ctx context.Context, id string, in service.MemeInput, file *multipart.FileHeader) (*model.Meme, error)
	Gallery(ctx context.Context) ([]model.Meme, error)
	Trending(ctx context.Context) ([]model.Meme, error)
	Featured(ctx context.Context) ([]model.Meme, error)
	Get(ctx context.Context, id string) (*model.Meme, error)
	Like(ctx context.Context, id string) (*model.Meme, error)
	Feature(ctx context.Context, id string) (*model.Meme, error)
}

// ImageServer is implemented by *upload.Uploader.
type ImageServer interface {
	Serve(w http.ResponseWriter, r *http.Request, name string)
	MaxBytes() int64
}

var (
	_ MemeService = (*service.MemeService)(nil)
	_ ImageServer = (*upload.Uploader)(nil)
)

// formOverhead is the room left in the request body for the text fields and
// multipart boundaries on top of the image itself.
const formOverhead = 1 << 20

// memoryLimit is how much of a multipart body is held in memory before
// file parts spill to temporary files.
const memoryLimit = 8 << 20

// MemeHandler serves the meme routes.
//
// HANDLER RESPONSIBILITIES:
//   - HandleUpload   → POST /memes/upload (multipart, file required)
//   - HandleUpdate   → PUT  /memes/update/{id} (multipart, file optional)
//   - HandleGallery  → GET  /memes/gallery
//   - HandleTrending → GET  /memes/trending
//   - HandleFeatured → GET  /memes/featured
//   - HandleGet      → GET  /memes/{id}
//   - HandleLike     → POST /memes/{id}/like
//   - HandleImage    → GET  /uploads/{name}
type MemeHandler struct {
	memes  MemeService
	images ImageServer
	logger *slog.Logger
}

func NewMemeHandler(memes MemeService, images ImageServer, logger *slog.Logger) *MemeHandler {
	return &MemeHandler{memes: memes, images: images, logger: logger}
}

// parseForm reads a multipart form, or an urlencoded one, and returns its
// text fields plus the memeFile part if present.
//
// The body is capped at the upload limit plus formOverhead. Going over the cap
// is reported as PayloadTooLarge; a body that is not multipart at all is not an
// error, it simply carries no file.
func (h *MemeHandler) parseForm(w http.ResponseWriter, r *http.Request) (service.MemeInput, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.images.MaxBytes()+formOverhead)

	err := r.ParseMultipartForm(memoryLimit)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return service.MemeInput{}, nil, apperror.PayloadTooLarge(h.images.MaxBytes())
	case err != nil && !errors.Is(err, http.ErrNotMultipart):
		return service.MemeInput{}, nil, apperror.ValidationFailed("body", "Malformed form data")
	}

	in := service.MemeInput{
		Title:       r.FormValue(model.FieldTitle),
		Author:      r.FormValue(model.FieldAuthor),
		Description: r.FormValue(model.FieldDescription),
		Tags:        r.FormValue(model.FieldTags),
	}

	var file *multipart.FileHeader
	if r.MultipartForm != nil {
		if parts := r.MultipartForm.File[upload.FormField]; len(parts) > 0 {
			file = parts[0]
		}
	}
	return in, file, nil
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// HandleUpload creates a meme from a multipart form.
//
// HTTP: POST /memes/upload
// Form fields: title, author, description, tags (comma-separated), memeFile
func (h *MemeHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)

	in, file, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, h.logger, err, "Failed to upload meme")
		return
	}

	meme, err := h.memes.Upload(r.Context(), in, file)
	if err != nil {
		writeError(w, h.logger, err, "Failed to upload meme")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Meme uploaded successfully!",
		Meme:    meme,
	})
}

// HandleUpdate patches an existing meme.
//
// HTTP: PUT /memes/update/{id}
func (h *MemeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)

	in, file, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, h.logger, err, "Failed to update meme")
		return
	}

	meme, err := h.memes.Update(r.Context(), chi.URLParam(r, "id"), in, file)
	if err != nil {
		writeError(w, h.logger, err, "Failed to update meme")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Meme updated successfully!",
		Meme:    meme,
	})
}

func (h *MemeHandler) HandleGallery(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.memes.Gallery, "Failed to load gallery")
}

func (h *MemeHandler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.memes.Trending, "Failed to load trending memes")
}

func (h *MemeHandler) HandleFeatured(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.memes.Featured, "Failed to load featured memes")
}

func (h *MemeHandler) writeList(
	w http.ResponseWriter,
	r *http.Request,
	list func(context.Context) ([]model.Meme, error),
	failMsg string,
) {
	memes, err := list(r.Context())
	if err != nil {
		writeError(w, h.logger, err, failMsg)
		return
	}
	writeJSON(w, http.StatusOK, listEnvelope(memes))
}

// HandleGet returns one meme.
//
// HTTP: GET /memes/{id}
func (h *MemeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	meme, err := h.memes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, "Failed to load meme")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Meme: meme})
}

// HandleLike adds one like and returns the updated meme.
//
// HTTP: POST /memes/{id}/like
func (h *MemeHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	meme, err := h.memes.Like(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, "Failed to like meme")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Meme liked", Meme: meme})
}

// HandleImage streams a stored image, or redirects to it.
//
// HTTP: GET /uploads/{name}
func (h *MemeHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	h.images.Serve(w, r, chi.URLParam(r, "name"))
}
