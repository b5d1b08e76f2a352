package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"sync"

	"github.com/sakif/meme-museum/internal/apperror"
	"github.com/sakif/meme-museum/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory implementations of the service's dependencies.
// Each one stores copies, never the caller's pointer, so a test cannot
// accidentally mutate "stored" state through a returned value.

type fakeMemeRepo struct {
	mu     sync.Mutex
	memes  map[string]*model.Meme
	order  []string // insertion order, returned by List
	nextID int
	clock  int64

	createErr error
	listErr   error
	updateErr error
}

func newFakeMemeRepo() *fakeMemeRepo {
	return &fakeMemeRepo{memes: map[string]*model.Meme{}, clock: 1000}
}

func (f *fakeMemeRepo) tick() int64 {
	f.clock++
	return f.clock
}

func (f *fakeMemeRepo) Create(_ context.Context, m *model.Meme) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	m.ID = fmt.Sprintf("meme-%d", f.nextID)
	m.Likes, m.Featured = 0, false
	m.CreatedAt = f.tick()
	m.UpdatedAt = m.CreatedAt
	stored := *m
	f.memes[m.ID] = &stored
	f.order = append(f.order, m.ID)
	return nil
}

func (f *fakeMemeRepo) GetByID(_ context.Context, id string) (*model.Meme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memes[id]
	if !ok {
		return nil, apperror.NotFound("meme", id)
	}
	out := *m
	return &out, nil
}

func (f *fakeMemeRepo) List(context.Context) ([]model.Meme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Meme, 0, len(f.order))
	for _, id := range f.order {
		if m, ok := f.memes[id]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMemeRepo) Update(_ context.Context, id string, patch model.MemePatch) (*model.Meme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	m, ok := f.memes[id]
	if !ok {
		return nil, apperror.NotFound("meme", id)
	}
	patch.Apply(m)
	m.UpdatedAt = f.tick()
	out := *m
	return &out, nil
}

func (f *fakeMemeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.memes, id)
	return nil
}

func (f *fakeMemeRepo) IncrementLikes(_ context.Context, id string) (*model.Meme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memes[id]
	if !ok {
		return nil, apperror.NotFound("meme", id)
	}
	m.Likes++
	m.UpdatedAt = f.tick()
	out := *m
	return &out, nil
}

type fakeImages struct {
	accepted  []string
	discarded []string
	err       error
}

func (f *fakeImages) Accept(_ context.Context, fh *multipart.FileHeader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	url := "/uploads/" + fh.Filename
	f.accepted = append(f.accepted, url)
	return url, nil
}

func (f *fakeImages) Discard(_ context.Context, imageURL string) {
	f.discarded = append(f.discarded, imageURL)
}

type fakeNotifier struct {
	uploaded   []string
	featured   []string
	milestones []int64
	err        error
}

func (f *fakeNotifier) MemeUploaded(_ context.Context, m *model.Meme) error {
	f.uploaded = append(f.uploaded, m.ID)
	return f.err
}

func (f *fakeNotifier) MemeFeatured(_ context.Context, m *model.Meme) error {
	f.featured = append(f.featured, m.ID)
	return f.err
}

func (f *fakeNotifier) Milestone(_ context.Context, _ *model.Meme, n int64) error {
	f.milestones = append(f.milestones, n)
	return f.err
}

type fakeUserRepo struct {
	users     map[string]model.User
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]model.User{}}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users[u.Email]; ok {
		return apperror.Conflict("user", u.Email)
	}
	u.CreatedAt = 42
	f.users[u.Email] = *u
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	return &u, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func file(name string) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: 10}
}
