// Package repository declares the storage contracts the service layer depends on.
//
// Two backends implement them: repository/sqlite (embedded, the default) and
// repository/dynamo. Services only ever see these interfaces, so the backend
// is a wiring decision made once in internal/server.
//
// ERROR CONTRACT:
// Implementations translate driver errors into the apperror classes:
//   - a missing key is apperror.ErrNotFound, never sql.ErrNoRows or an SDK error
//   - a duplicate user is apperror.ErrConflict
//   - anything else wraps apperror.ErrStoreUnavailable
package repository

import (
	"context"

	"github.com/sakif/meme-museum/internal/model"
)

type MemeRepository interface {
	// Create assigns ID and timestamps, and resets Likes and Featured.
	Create(ctx context.Context, meme *model.Meme) error
	GetByID(ctx context.Context, id string) (*model.Meme, error)
	// List returns every meme in one call, in no particular order.
	List(ctx context.Context) ([]model.Meme, error)
	// Update writes only the patch fields plus updatedAt in a single conditional write.
	Update(ctx context.Context, id string, patch model.MemePatch) (*model.Meme, error)
	// Delete is idempotent: deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	// IncrementLikes adds one to likes atomically on the store side.
	IncrementLikes(ctx context.Context, id string) (*model.Meme, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}
