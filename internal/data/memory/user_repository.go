package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fin-api-ledger/internal/domain/user"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository keeps users in a map keyed by id
type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*user.User)}
}

func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.ErrDuplicateEmail{Email: u.Email}
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound{UserID: id}
	}
	found := *u
	return &found, nil
}
