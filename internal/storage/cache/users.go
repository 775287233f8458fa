// Package cache decorates repositories with in-process LRU caches.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/edueval/teaching-system/internal/domain/users"
)

// DefaultUserCacheSize is used when a non-positive size is requested.
const DefaultUserCacheSize = 1024

// UserRepository caches users by ID in front of another repository. Every
// authenticated request resolves its principal by ID, so this keeps the hot
// path off the database.
type UserRepository struct {
	next users.Repository
	byID *lru.Cache[string, users.User]
}

// NewUserRepository wraps next with an LRU of the given size.
func NewUserRepository(next users.Repository, size int) (*UserRepository, error) {
	if size <= 0 {
		size = DefaultUserCacheSize
	}
	c, err := lru.New[string, users.User](size)
	if err != nil {
		return nil, err
	}
	return &UserRepository{next: next, byID: c}, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (users.User, error) {
	if u, ok := r.byID.Get(id); ok {
		return u, nil
	}
	u, err := r.next.FindByID(ctx, id)
	if err != nil {
		return users.User{}, err
	}
	r.byID.Add(id, u)
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (users.User, error) {
	return r.next.FindByEmail(ctx, email)
}

func (r *UserRepository) Save(ctx context.Context, user users.User) (users.User, error) {
	saved, err := r.next.Save(ctx, user)
	if err != nil {
		if user.ID != "" {
			r.byID.Remove(user.ID)
		}
		return users.User{}, err
	}
	r.byID.Add(saved.ID, saved)
	return saved, nil
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]users.User, error) {
	return r.next.List(ctx, offset, limit)
}

// Len reports how many users are cached.
func (r *UserRepository) Len() int {
	return r.byID.Len()
}

var _ users.Repository = (*UserRepository)(nil)
