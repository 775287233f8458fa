package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edueval/teaching-system/internal/domain/evaluations"
	"github.com/edueval/teaching-system/internal/domain/record"
)

// EvaluationRepository implements evaluations.Repository in-memory, keyed by
// the record's composite key.
type EvaluationRepository struct {
	mu    sync.RWMutex
	store map[string]evaluations.Evaluation
}

// NewEvaluationRepository constructs an in-memory evaluation repo.
func NewEvaluationRepository() *EvaluationRepository {
	return &EvaluationRepository{store: make(map[string]evaluations.Evaluation)}
}

func evaluationKey(id string) string { return record.Key(record.KindEvaluation, id) }

func (r *EvaluationRepository) FindByID(_ context.Context, id string) (evaluations.Evaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.store[evaluationKey(id)]
	if !ok {
		return evaluations.Evaluation{}, evaluations.ErrNotFound
	}
	return e, nil
}

func (r *EvaluationRepository) Insert(_ context.Context, e evaluations.Evaluation) (evaluations.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := evaluationKey(e.ID)
	if _, ok := r.store[key]; ok {
		return evaluations.Evaluation{}, evaluations.ErrExists
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	r.store[key] = e
	return e, nil
}

func (r *EvaluationRepository) Update(_ context.Context, e evaluations.Evaluation) (evaluations.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := evaluationKey(e.ID)
	existing, ok := r.store[key]
	if !ok {
		return evaluations.Evaluation{}, evaluations.ErrNotFound
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	r.store[key] = e
	return e, nil
}

func (r *EvaluationRepository) ListByUser(_ context.Context, userID string) ([]evaluations.Evaluation, error) {
	return r.filter(func(e evaluations.Evaluation) bool { return e.UserID == userID }), nil
}

func (r *EvaluationRepository) List(context.Context) ([]evaluations.Evaluation, error) {
	return r.filter(func(evaluations.Evaluation) bool { return true }), nil
}

func (r *EvaluationRepository) filter(keep func(evaluations.Evaluation) bool) []evaluations.Evaluation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := []evaluations.Evaluation{}
	for _, e := range r.store {
		if keep(e) {
			list = append(list, e)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (r *EvaluationRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := evaluationKey(id)
	if _, ok := r.store[key]; !ok {
		return evaluations.ErrNotFound
	}
	delete(r.store, key)
	return nil
}

var _ evaluations.Repository = (*EvaluationRepository)(nil)
