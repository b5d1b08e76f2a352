// Package service contains the business rules of the gallery.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes JSON envelopes
//	Service (business layer) → defaults, tag parsing, derived views, notifications
//	Repository (data layer)  → SQLite or DynamoDB
//
// Services take interfaces, not concrete stores, so tests run against
// in-memory fakes and main picks the backend.
//
// NOTIFICATIONS ARE BEST-EFFORT:
// After a successful write the service tells the Notifier. A notification
// error is logged and dropped; it never changes the result returned to the
// caller.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"slices"
	"sort"
	"strings"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/model"
	"github.com/sakif/meme-museum/internal/repository"
	"github.com/sakif/meme-museum/internal/upload"
)

// Notifier is implemented by *notify.Notifier.
type Notifier interface {
	MemeUploaded(ctx context.Context, meme *model.Meme) error
	MemeFeatured(ctx context.Context, meme *model.Meme) error
	Milestone(ctx context.Context, meme *model.Meme, milestone int64) error
}

// Images is implemented by *upload.Uploader.
type Images interface {
	Accept(ctx context.Context, fh *multipart.FileHeader) (string, error)
	Discard(ctx context.Context, imageURL string)
}

// MemeInput carries the text fields of the upload and update forms.
// Empty strings mean "not supplied".
type MemeInput struct {
	Title       string
	Author      string
	Description string
	Tags        string // comma-separated
}

type MemeService struct {
	repo       repository.MemeRepository
	images     Images
	notifier   Notifier
	milestones []int64
	logger     *slog.Logger
}

func NewMemeService(
	repo repository.MemeRepository,
	images Images,
	notifier Notifier,
	milestones []int64,
	logger *slog.Logger,
) *MemeService {
	return &MemeService{
		repo:       repo,
		images:     images,
		notifier:   notifier,
		milestones: milestones,
		logger:     logger,
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// Upload stores the image, creates the meme with placeholders for missing
// fields, and announces it.
//
// A missing file fails before the image store or the record store is touched.
// If the record cannot be written the stored image is removed again.
func (s *MemeService) Upload(ctx context.Context, in MemeInput, file *multipart.FileHeader) (*model.Meme, error) {
	if file == nil {
		return nil, apperror.MissingFile(upload.FormField)
	}

	imageURL, err := s.images.Accept(ctx, file)
	if err != nil {
		return nil, err
	}

	meme := &model.Meme{
		Title:       orDefault(in.Title, model.DefaultTitle),
		Author:      orDefault(in.Author, model.DefaultAuthor),
		Description: orDefault(in.Description, model.DefaultDescription),
		Tags:        model.ParseTags(in.Tags),
		ImageURL:    imageURL,
	}
	if err := s.repo.Create(ctx, meme); err != nil {
		s.images.Discard(ctx, imageURL)
		return nil, fmt.Errorf("service/meme: creating meme: %w", err)
	}

	s.logger.Info("meme uploaded",
		slog.String("id", meme.ID),
		slog.String("title", meme.Title),
		slog.String("image_url", meme.ImageURL),
	)

	if err := s.notifier.MemeUploaded(ctx, meme); err != nil {
		s.logNotifyFailure("upload", meme.ID, err)
	}
	return meme, nil
}

// Update merges the non-empty form fields, and a replacement image if one
// was sent, into an existing meme.
//
// Empty fields are left alone, so a form cannot blank out a title. Tags are
// only touched when the tags field is non-empty.
func (s *MemeService) Update(ctx context.Context, id string, in MemeInput, file *multipart.FileHeader) (*model.Meme, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "Meme ID is required")
	}

	var patch model.MemePatch
	if v := strings.TrimSpace(in.Title); v != "" {
		patch.Title = &v
	}
	if v := strings.TrimSpace(in.Author); v != "" {
		patch.Author = &v
	}
	if v := strings.TrimSpace(in.Description); v != "" {
		patch.Description = &v
	}
	if in.Tags != "" {
		patch.Tags = model.ParseTags(in.Tags)
	}

	if file != nil {
		imageURL, err := s.images.Accept(ctx, file)
		if err != nil {
			return nil, err
		}
		patch.ImageURL = &imageURL
	}

	meme, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if patch.ImageURL != nil {
			s.images.Discard(ctx, *patch.ImageURL)
		}
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, memeNotFound()
		}
		return nil, fmt.Errorf("service/meme: updating meme %s: %w", id, err)
	}

	s.logger.Info("meme updated", slog.String("id", id), slog.Int("fields", len(patch.Fields())))
	return meme, nil
}

// Gallery returns every meme, newest first.
func (s *MemeService) Gallery(ctx context.Context) ([]model.Meme, error) {
	memes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/meme: listing memes: %w", err)
	}
	sort.SliceStable(memes, func(i, j int) bool {
		return memes[i].CreatedAt > memes[j].CreatedAt
	})
	return memes, nil
}

// Trending returns every meme ordered by likes, highest first. The sort is
// stable, so memes with equal likes keep their scan order.
func (s *MemeService) Trending(ctx context.Context) ([]model.Meme, error) {
	memes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/meme: listing memes: %w", err)
	}
	sort.SliceStable(memes, func(i, j int) bool {
		return memes[i].Likes > memes[j].Likes
	})
	return memes, nil
}

// Featured returns the memes with featured set.
func (s *MemeService) Featured(ctx context.Context) ([]model.Meme, error) {
	memes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/meme: listing memes: %w", err)
	}
	featured := make([]model.Meme, 0, len(memes))
	for _, m := range memes {
		if m.Featured {
			featured = append(featured, m)
		}
	}
	return featured, nil
}

func (s *MemeService) Get(ctx context.Context, id string) (*model.Meme, error) {
	meme, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, memeNotFound()
	}
	return meme, err
}

// Like adds one like. Reaching a configured milestone sends a notification.
func (s *MemeService) Like(ctx context.Context, id string) (*model.Meme, error) {
	meme, err := s.repo.IncrementLikes(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, memeNotFound()
		}
		return nil, fmt.Errorf("service/meme: liking meme %s: %w", id, err)
	}

	if slices.Contains(s.milestones, meme.Likes) {
		s.logger.Info("like milestone reached", slog.String("id", id), slog.Int64("likes", meme.Likes))
		if err := s.notifier.Milestone(ctx, meme, meme.Likes); err != nil {
			s.logNotifyFailure("milestone", id, err)
		}
	}
	return meme, nil
}

// Feature sets featured=true. Featuring an already featured meme succeeds
// and leaves it featured.
func (s *MemeService) Feature(ctx context.Context, id string) (*model.Meme, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("memeId", "Meme ID is required")
	}

	featured := true
	meme, err := s.repo.Update(ctx, id, model.MemePatch{Featured: &featured})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, memeNotFound()
		}
		return nil, fmt.Errorf("service/meme: featuring meme %s: %w", id, err)
	}

	s.logger.Info("meme featured", slog.String("id", id))
	if err := s.notifier.MemeFeatured(ctx, meme); err != nil {
		s.logNotifyFailure("feature", id, err)
	}
	return meme, nil
}

func (s *MemeService) logNotifyFailure(event, id string, err error) {
	s.logger.Error("SNS notification failed",
		slog.String("event", event),
		slog.String("id", id),
		slog.String("error", err.Error()),
	)
}

func memeNotFound() *apperror.AppError {
	return &apperror.AppError{
		Err:     apperror.ErrNotFound,
		Message: "Meme not found",
		Field:   "id",
	}
}
