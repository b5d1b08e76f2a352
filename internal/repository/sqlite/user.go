package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/model"
	"github.com/sakif/meme-museum/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a user keyed by email.
//
// ON CONFLICT DO NOTHING turns the uniqueness check and the insert into one
// statement: zero affected rows means the email was already taken, and the
// existing row is untouched.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.CreatedAt = model.NowMillis()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, username, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`,
		user.Email, user.Username, user.CreatedAt,
	)
	if err != nil {
		return apperror.StoreUnavailable("sqlite: creating user", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return apperror.StoreUnavailable("sqlite: checking rows affected", err)
	}
	if n == 0 {
		return apperror.Conflict("user", user.Email)
	}
	return nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT email, username, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.Email, &u.Username, &u.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", email)
	}
	if err != nil {
		return nil, apperror.StoreUnavailable("sqlite: getting user "+email, err)
	}
	return &u, nil
}
