// Package upload accepts image files from multipart forms.
//
// FLOW:
//  1. Validate the part: extension, media type and size.
//  2. Give it a collision-free storage name: a random UUID plus the original extension.
//  3. Hand the bytes to a Store (local disk or S3).
//  4. Return the public path "/uploads/<name>", which becomes the meme's imageUrl.
//
// Validation happens before anything is written, so a rejected file leaves
// no trace in the store.
package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/sakif/meme-museum/internal/apperror"
)

const (
	// FormField is the multipart field that carries the image.
	FormField = "memeFile"
	// URLPrefix is the public path images are served under.
	URLPrefix = "/uploads/"
	// DefaultMaxBytes is 5 MiB.
	DefaultMaxBytes int64 = 5 << 20
)

// allowedExtensions and allowedMediaTypes are exact matches. A name like
// "x.pnghtml" must not pass, because the stored file keeps its extension and
// the disk store picks the served Content-Type from it.
var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// image/jpg is not registered but some clients send it.
var allowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// allowedMediaType reports whether contentType, parameters stripped, is allowed.
func allowedMediaType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return allowedMediaTypes[mediaType]
}

// Store persists image bytes under a storage name and serves them back.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader, size int64) error
	Delete(ctx context.Context, name string) error
	// Serve writes the image (or a redirect to it) for GET /uploads/{name}.
	Serve(w http.ResponseWriter, r *http.Request, name string)
}

type Uploader struct {
	store    Store
	maxBytes int64
	logger   *slog.Logger
}

func NewUploader(store Store, maxBytes int64, logger *slog.Logger) *Uploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Uploader{store: store, maxBytes: maxBytes, logger: logger}
}

// MaxBytes is the per-file limit.
func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// Validate checks one file part and returns its media type.
//
// A part that declares no type, or only application/octet-stream, is sniffed
// from its first bytes. A nil header is a missing file.
func (u *Uploader) Validate(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", apperror.MissingFile(FormField)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return "", apperror.UnsupportedMediaType(fh.Filename, fh.Header.Get("Content-Type"))
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniffed, err := sniff(fh)
		if err != nil {
			return "", err
		}
		contentType = sniffed
	}
	if !allowedMediaType(contentType) {
		return "", apperror.UnsupportedMediaType(fh.Filename, contentType)
	}

	if fh.Size > u.maxBytes {
		return "", apperror.PayloadTooLarge(u.maxBytes)
	}
	return contentType, nil
}

func sniff(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("upload: opening part: %w", err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("upload: detecting media type: %w", err)
	}
	return mt.String(), nil
}

// StorageName returns "<uuid><ext>" with the extension lower-cased.
func StorageName(filename string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}

// Accept validates the part, stores it and returns its imageUrl.
func (u *Uploader) Accept(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	contentType, err := u.Validate(fh)
	if err != nil {
		return "", err
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("upload: opening part: %w", err)
	}
	defer f.Close()

	name := StorageName(fh.Filename)
	if err := u.store.Save(ctx, name, contentType, f, fh.Size); err != nil {
		return "", fmt.Errorf("upload: saving %s: %w", name, err)
	}

	u.logger.Info("image stored",
		slog.String("name", name),
		slog.String("content_type", contentType),
		slog.Int64("size", fh.Size),
	)
	return URLPrefix + name, nil
}

// Discard removes a stored image by its imageUrl. Failures are logged only.
func (u *Uploader) Discard(ctx context.Context, imageURL string) {
	name := strings.TrimPrefix(imageURL, URLPrefix)
	if err := u.store.Delete(ctx, name); err != nil {
		u.logger.Warn("failed to discard image",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}
}

// Serve handles GET /uploads/{name}.
func (u *Uploader) Serve(w http.ResponseWriter, r *http.Request, name string) {
	if !validName(name) {
		http.NotFound(w, r)
		return
	}
	u.store.Serve(w, r, name)
}

// validName rejects anything that is not a single path element.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
