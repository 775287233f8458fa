package testresults

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edueval/teaching-system/internal/domain/record"
)

var (
	ErrNotImplemented = errors.New("test results repository: not implemented")
	ErrNotFound       = fmt.Errorf("test result: %w", record.ErrNotFound)
	ErrExists         = fmt.Errorf("test result: %w", record.ErrExists)
	ErrForbidden      = fmt.Errorf("test result: %w", record.ErrForbidden)
)

// TestResult is a student's scored answer sheet for one paper.
type TestResult struct {
	ID          string    `json:"test_id"`
	UserID      string    `json:"user_id"`
	ScoreSum    float64   `json:"score_sum"`
	PaperNumber string    `json:"paper_number"`
	Answer      string    `json:"answer"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository abstracts persistence for test results.
type Repository interface {
	FindByID(ctx context.Context, id string) (TestResult, error)
	Insert(ctx context.Context, r TestResult) (TestResult, error)
	ListByUser(ctx context.Context, userID string) ([]TestResult, error)
	Delete(ctx context.Context, id string) error
}

// NullRepository stub implementation returning ErrNotImplemented.
type NullRepository struct{}

func (NullRepository) FindByID(context.Context, string) (TestResult, error) {
	return TestResult{}, ErrNotImplemented
}

func (NullRepository) Insert(context.Context, TestResult) (TestResult, error) {
	return TestResult{}, ErrNotImplemented
}

func (NullRepository) ListByUser(context.Context, string) ([]TestResult, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) Delete(context.Context, string) error { return ErrNotImplemented }

// Service exposes business operations over test results.
type Service interface {
	Upload(ctx context.Context, r TestResult) (TestResult, error)
	ListByUser(ctx context.Context, userID string) ([]TestResult, error)
	GetByTestID(ctx context.Context, testID string) (TestResult, error)
	GetByID(ctx context.Context, userID, testID string) (TestResult, error)
	Delete(ctx context.Context, id string) error
}

// NewService builds a test result service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

type service struct {
	repo Repository
}

func (s *service) Upload(ctx context.Context, r TestResult) (TestResult, error) {
	r.ID = strings.TrimSpace(r.ID)
	r.UserID = strings.TrimSpace(r.UserID)
	r.PaperNumber = strings.TrimSpace(r.PaperNumber)
	if r.ID == "" {
		return TestResult{}, record.Required("test_id")
	}
	if r.UserID == "" {
		return TestResult{}, record.Required("user_id")
	}
	if r.ScoreSum < 0 {
		return TestResult{}, fmt.Errorf("%w: score_sum must not be negative", record.ErrInvalid)
	}
	return s.repo.Insert(ctx, r)
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]TestResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, record.Required("user_id")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) GetByTestID(ctx context.Context, testID string) (TestResult, error) {
	if strings.TrimSpace(testID) == "" {
		return TestResult{}, record.Required("test_id")
	}
	return s.repo.FindByID(ctx, testID)
}

func (s *service) GetByID(ctx context.Context, userID, testID string) (TestResult, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(testID) == "" {
		return TestResult{}, fmt.Errorf("%w: user_id and test_id are required", record.ErrInvalid)
	}
	r, err := s.GetByTestID(ctx, testID)
	if err != nil {
		return TestResult{}, err
	}
	if r.UserID != userID {
		return TestResult{}, ErrForbidden
	}
	return r, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return record.Required("test_id")
	}
	return s.repo.Delete(ctx, id)
}
