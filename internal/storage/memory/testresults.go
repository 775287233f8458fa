package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edueval/teaching-system/internal/domain/record"
	"github.com/edueval/teaching-system/internal/domain/testresults"
)

// TestResultRepository implements testresults.Repository in-memory.
type TestResultRepository struct {
	mu    sync.RWMutex
	store map[string]testresults.TestResult
}

// NewTestResultRepository constructs an in-memory test result repo.
func NewTestResultRepository() *TestResultRepository {
	return &TestResultRepository{store: make(map[string]testresults.TestResult)}
}

func testResultKey(id string) string { return record.Key(record.KindTestResult, id) }

func (r *TestResultRepository) FindByID(_ context.Context, id string) (testresults.TestResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.store[testResultKey(id)]
	if !ok {
		return testresults.TestResult{}, testresults.ErrNotFound
	}
	return res, nil
}

func (r *TestResultRepository) Insert(_ context.Context, res testresults.TestResult) (testresults.TestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := testResultKey(res.ID)
	if _, ok := r.store[key]; ok {
		return testresults.TestResult{}, testresults.ErrExists
	}
	res.CreatedAt = time.Now().UTC()
	r.store[key] = res
	return res, nil
}

func (r *TestResultRepository) ListByUser(_ context.Context, userID string) ([]testresults.TestResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := []testresults.TestResult{}
	for _, res := range r.store {
		if res.UserID == userID {
			list = append(list, res)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (r *TestResultRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := testResultKey(id)
	if _, ok := r.store[key]; !ok {
		return testresults.ErrNotFound
	}
	delete(r.store, key)
	return nil
}

var _ testresults.Repository = (*TestResultRepository)(nil)
