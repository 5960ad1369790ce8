// Package memory provides a process-local user store for development and tests.
package memory

import (
	"context"
	"sync"

	domain "authapi/backend/internal/domain/auth"
)

// UserRepository keeps users in a mutex-guarded map keyed by email.
type UserRepository struct {
	mu     sync.RWMutex
	byMail map[string]domain.User
	nextID int64
}

// NewUserRepository constructs an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{byMail: make(map[string]domain.User)}
}

var _ domain.UserRepository = (*UserRepository)(nil)

// FindByEmail fetches a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byMail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// Insert stores the user and assigns its id. The uniqueness check and the
// write happen under one lock.
func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byMail[user.Email]; exists {
		return domain.ErrEmailExists
	}
	r.nextID++
	user.ID = r.nextID
	r.byMail[user.Email] = *user
	return nil
}

// Len reports the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byMail)
}
