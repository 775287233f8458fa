package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edueval/teaching-system/internal/domain/users"
)

// UserRepository implements users.Repository in-memory. Emails are unique
// case-insensitively, mirroring the SQL schema.
type UserRepository struct {
	mu      sync.RWMutex
	store   map[string]users.User
	byEmail map[string]string
}

// NewUserRepository constructs repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		store:   make(map[string]users.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) FindByID(_ context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.store[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return r.store[id], nil
}

// Save inserts when user.ID is empty, otherwise replaces the stored user.
func (r *UserRepository) Save(_ context.Context, user users.User) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	if owner, taken := r.byEmail[user.Email]; taken && owner != user.ID {
		return users.User{}, users.ErrEmailExists
	}

	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = newID()
		user.CreatedAt = now
	} else if existing, ok := r.store[user.ID]; ok {
		if user.CreatedAt.IsZero() {
			user.CreatedAt = existing.CreatedAt
		}
		if existing.Email != user.Email {
			delete(r.byEmail, existing.Email)
		}
	} else {
		return users.User{}, users.ErrNotFound
	}
	user.UpdatedAt = now
	r.store[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return user, nil
}

func (r *UserRepository) List(_ context.Context, offset, limit int) ([]users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]users.User, 0, len(r.store))
	for _, u := range r.store {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].Email < res[j].Email
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return paginate(res, offset, limit), nil
}

var _ users.Repository = (*UserRepository)(nil)
