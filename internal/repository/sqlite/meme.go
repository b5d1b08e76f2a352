package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/model"
	"github.com/sakif/meme-museum/internal/repository"
)

var _ repository.MemeRepository = (*DB)(nil)

const memeColumns = `id, title, author, description, tags, image_url, likes, featured, created_at, updated_at`

// patchColumns maps MemePatch field names onto table columns.
var patchColumns = map[string]string{
	model.FieldTitle:       "title",
	model.FieldAuthor:      "author",
	model.FieldDescription: "description",
	model.FieldTags:        "tags",
	model.FieldImageURL:    "image_url",
	model.FieldFeatured:    "featured",
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeme(row rowScanner) (*model.Meme, error) {
	var (
		m    model.Meme
		tags string
	)
	if err := row.Scan(
		&m.ID, &m.Title, &m.Author, &m.Description, &tags,
		&m.ImageURL, &m.Likes, &m.Featured, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of meme %s: %w", m.ID, err)
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return &m, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	return string(b), err
}

// Create inserts a new meme. ID, timestamps, likes and featured are assigned here
// and written back into the caller's struct.
func (db *DB) Create(ctx context.Context, meme *model.Meme) error {
	meme.ID = xid.New().String()
	meme.Likes = 0
	meme.Featured = false
	meme.CreatedAt = model.NowMillis()
	meme.UpdatedAt = meme.CreatedAt
	if meme.Tags == nil {
		meme.Tags = []string{}
	}

	tags, err := encodeTags(meme.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO memes (`+memeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meme.ID, meme.Title, meme.Author, meme.Description, tags,
		meme.ImageURL, meme.Likes, meme.Featured, meme.CreatedAt, meme.UpdatedAt,
	)
	if err != nil {
		return apperror.StoreUnavailable("sqlite: creating meme", err)
	}
	return nil
}

func (db *DB) GetByID(ctx context.Context, id string) (*model.Meme, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+memeColumns+` FROM memes WHERE id = ?`, id)

	meme, err := scanMeme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("meme", id)
	}
	if err != nil {
		return nil, apperror.StoreUnavailable("sqlite: getting meme "+id, err)
	}
	return meme, nil
}

// List returns every meme. Ordering is left to the service layer.
func (db *DB) List(ctx context.Context) ([]model.Meme, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+memeColumns+` FROM memes`)
	if err != nil {
		return nil, apperror.StoreUnavailable("sqlite: listing memes", err)
	}
	defer rows.Close()

	memes := []model.Meme{}
	for rows.Next() {
		m, err := scanMeme(rows)
		if err != nil {
			return nil, apperror.StoreUnavailable("sqlite: scanning meme row", err)
		}
		memes = append(memes, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.StoreUnavailable("sqlite: iterating memes", err)
	}
	return memes, nil
}

// Update applies a merge-patch in one statement.
//
// The SET list is built from patch.Fields() plus updated_at, so an empty patch
// still advances updated_at. RETURNING hands back the stored row; no row means
// the id does not exist and nothing was written.
func (db *DB) Update(ctx context.Context, id string, patch model.MemePatch) (*model.Meme, error) {
	fields := patch.Fields()

	// Sorted so the generated SQL is stable across calls.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names)+1)
	args := make([]any, 0, len(names)+2)
	for _, name := range names {
		column, ok := patchColumns[name]
		if !ok {
			return nil, fmt.Errorf("sqlite: unknown patch field %q", name)
		}
		value := fields[name]
		if name == model.FieldTags {
			encoded, err := encodeTags(value.([]string))
			if err != nil {
				return nil, fmt.Errorf("sqlite: encoding tags: %w", err)
			}
			value = encoded
		}
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, model.NowMillis(), id)

	row := db.conn.QueryRowContext(ctx,
		`UPDATE memes SET `+strings.Join(sets, ", ")+` WHERE id = ? RETURNING `+memeColumns,
		args...,
	)
	meme, err := scanMeme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("meme", id)
	}
	if err != nil {
		return nil, apperror.StoreUnavailable("sqlite: updating meme "+id, err)
	}
	return meme, nil
}

// Delete removes a meme. A missing id is not an error.
func (db *DB) Delete(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM memes WHERE id = ?`, id); err != nil {
		return apperror.StoreUnavailable("sqlite: deleting meme "+id, err)
	}
	return nil
}

// IncrementLikes adds one like. The arithmetic happens inside SQLite.
func (db *DB) IncrementLikes(ctx context.Context, id string) (*model.Meme, error) {
	row := db.conn.QueryRowContext(ctx,
		`UPDATE memes SET likes = likes + 1, updated_at = ?
		 WHERE id = ? RETURNING `+memeColumns,
		model.NowMillis(), id,
	)
	meme, err := scanMeme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("meme", id)
	}
	if err != nil {
		return nil, apperror.StoreUnavailable("sqlite: liking meme "+id, err)
	}
	return meme, nil
}
