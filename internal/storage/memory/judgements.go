package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/edueval/teaching-system/internal/domain/judgements"
	"github.com/edueval/teaching-system/internal/domain/record"
)

// JudgementRepository implements judgements.Repository in-memory.
type JudgementRepository struct {
	mu    sync.RWMutex
	store map[string]judgements.Judgement
}

// NewJudgementRepository constructs an in-memory judgement repo.
func NewJudgementRepository() *JudgementRepository {
	return &JudgementRepository{store: make(map[string]judgements.Judgement)}
}

func judgementKey(id string) string { return record.Key(record.KindJudgement, id) }

func (r *JudgementRepository) FindByID(_ context.Context, id string) (judgements.Judgement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.store[judgementKey(id)]
	if !ok {
		return judgements.Judgement{}, judgements.ErrNotFound
	}
	return j, nil
}

func (r *JudgementRepository) Upsert(_ context.Context, j judgements.Judgement) (judgements.Judgement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := judgementKey(j.ID)
	if existing, ok := r.store[key]; ok && existing.UserID != j.UserID {
		return judgements.Judgement{}, judgements.ErrForbidden
	}
	r.store[key] = j
	return j, nil
}

func (r *JudgementRepository) Replace(_ context.Context, j judgements.Judgement) (judgements.Judgement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[judgementKey(j.ID)] = j
	return j, nil
}

func (r *JudgementRepository) ListByUser(_ context.Context, userID string) ([]judgements.Judgement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := []judgements.Judgement{}
	for _, j := range r.store {
		if j.UserID == userID {
			list = append(list, j)
		}
	}
	sort.Slice(list, func(i, k int) bool {
		if list[i].JudgedAt.Equal(list[k].JudgedAt) {
			return list[i].ID < list[k].ID
		}
		return list[i].JudgedAt.Before(list[k].JudgedAt)
	})
	return list, nil
}

func (r *JudgementRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := judgementKey(id)
	if _, ok := r.store[key]; !ok {
		return judgements.ErrNotFound
	}
	delete(r.store, key)
	return nil
}

var _ judgements.Repository = (*JudgementRepository)(nil)
