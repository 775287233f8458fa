package evaluations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edueval/teaching-system/internal/domain/record"
)

var (
	ErrNotImplemented = errors.New("evaluations repository: not implemented")
	ErrNotFound       = fmt.Errorf("evaluation: %w", record.ErrNotFound)
	ErrExists         = fmt.Errorf("evaluation: %w", record.ErrExists)
	ErrForbidden      = fmt.Errorf("evaluation: %w", record.ErrForbidden)
	ErrIDImmutable    = fmt.Errorf("%w: evaluation id cannot be changed", record.ErrInvalid)
)

// Evaluation is a teacher's graded assessment of a student.
type Evaluation struct {
	ID           string    `json:"evaluation_id"`
	UserID       string    `json:"user_id"`
	PointsDegree string    `json:"points_degree"`
	Feedback     string    `json:"feedback"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository abstracts persistence for evaluations.
type Repository interface {
	FindByID(ctx context.Context, id string) (Evaluation, error)
	// Insert stores a new evaluation and returns ErrExists on a duplicate ID.
	Insert(ctx context.Context, e Evaluation) (Evaluation, error)
	// Update replaces an existing evaluation and returns ErrNotFound when absent.
	Update(ctx context.Context, e Evaluation) (Evaluation, error)
	ListByUser(ctx context.Context, userID string) ([]Evaluation, error)
	List(ctx context.Context) ([]Evaluation, error)
	Delete(ctx context.Context, id string) error
}

// NullRepository stub implementation returning ErrNotImplemented.
type NullRepository struct{}

func (NullRepository) FindByID(context.Context, string) (Evaluation, error) {
	return Evaluation{}, ErrNotImplemented
}

func (NullRepository) Insert(context.Context, Evaluation) (Evaluation, error) {
	return Evaluation{}, ErrNotImplemented
}

func (NullRepository) Update(context.Context, Evaluation) (Evaluation, error) {
	return Evaluation{}, ErrNotImplemented
}

func (NullRepository) ListByUser(context.Context, string) ([]Evaluation, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) List(context.Context) ([]Evaluation, error) { return nil, ErrNotImplemented }

func (NullRepository) Delete(context.Context, string) error { return ErrNotImplemented }

// Service exposes business operations over evaluations.
type Service interface {
	Upload(ctx context.Context, e Evaluation) (Evaluation, error)
	Modify(ctx context.Context, id string, e Evaluation) (Evaluation, error)
	// GetByID returns the evaluation only when it belongs to userID.
	GetByID(ctx context.Context, id, userID string) (Evaluation, error)
	// Get returns the evaluation without an ownership check.
	Get(ctx context.Context, id string) (Evaluation, error)
	ListByUser(ctx context.Context, userID string) ([]Evaluation, error)
	ListAll(ctx context.Context) ([]Evaluation, error)
	Delete(ctx context.Context, id string) error
}

// NewService builds an evaluation service with the given repository.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

type service struct {
	repo Repository
}

func normalize(e Evaluation) Evaluation {
	e.ID = strings.TrimSpace(e.ID)
	e.UserID = strings.TrimSpace(e.UserID)
	e.PointsDegree = strings.TrimSpace(e.PointsDegree)
	e.Feedback = strings.TrimSpace(e.Feedback)
	return e
}

func (s *service) Upload(ctx context.Context, e Evaluation) (Evaluation, error) {
	e = normalize(e)
	if e.ID == "" {
		return Evaluation{}, record.Required("evaluation_id")
	}
	if e.UserID == "" {
		return Evaluation{}, record.Required("user_id")
	}
	return s.repo.Insert(ctx, e)
}

func (s *service) Modify(ctx context.Context, id string, e Evaluation) (Evaluation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Evaluation{}, record.Required("evaluation_id")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}

	e = normalize(e)
	if e.ID != id {
		return Evaluation{}, ErrIDImmutable
	}
	if e.UserID == "" {
		return Evaluation{}, record.Required("user_id")
	}
	e.CreatedAt = existing.CreatedAt
	return s.repo.Update(ctx, e)
}

func (s *service) GetByID(ctx context.Context, id, userID string) (Evaluation, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(userID) == "" {
		return Evaluation{}, fmt.Errorf("%w: evaluation_id and user_id are required", record.ErrInvalid)
	}
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	if e.UserID != userID {
		return Evaluation{}, ErrForbidden
	}
	return e, nil
}

func (s *service) Get(ctx context.Context, id string) (Evaluation, error) {
	if strings.TrimSpace(id) == "" {
		return Evaluation{}, record.Required("evaluation_id")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]Evaluation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, record.Required("user_id")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListAll(ctx context.Context) ([]Evaluation, error) {
	return s.repo.List(ctx)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return record.Required("evaluation_id")
	}
	return s.repo.Delete(ctx, id)
}
