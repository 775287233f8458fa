package judgements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edueval/teaching-system/internal/domain/record"
)

var (
	ErrNotImplemented = errors.New("judgements repository: not implemented")
	ErrNotFound       = fmt.Errorf("judgement: %w", record.ErrNotFound)
	ErrForbidden      = fmt.Errorf("judgement: %w", record.ErrForbidden)
)

const (
	MinRating = 1
	MaxRating = 5
)

// Judgement is a user's rating of, and optional objection to, another record
// such as an evaluation.
type Judgement struct {
	ID        string    `json:"judgement_id"`
	UserID    string    `json:"user_id"`
	Objection string    `json:"objection"`
	ObjectID  string    `json:"object_id"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	JudgedAt  time.Time `json:"judged_at"`
}

// Repository abstracts persistence for judgements.
type Repository interface {
	FindByID(ctx context.Context, id string) (Judgement, error)
	// Upsert inserts the judgement or replaces the one with the same ID.
	// Replacing a judgement held by a different user fails with
	// ErrForbidden and leaves it untouched.
	Upsert(ctx context.Context, j Judgement) (Judgement, error)
	// Replace is Upsert without the owner check.
	Replace(ctx context.Context, j Judgement) (Judgement, error)
	ListByUser(ctx context.Context, userID string) ([]Judgement, error)
	Delete(ctx context.Context, id string) error
}

// NullRepository stub implementation returning ErrNotImplemented.
type NullRepository struct{}

func (NullRepository) FindByID(context.Context, string) (Judgement, error) {
	return Judgement{}, ErrNotImplemented
}

func (NullRepository) Upsert(context.Context, Judgement) (Judgement, error) {
	return Judgement{}, ErrNotImplemented
}

func (NullRepository) Replace(context.Context, Judgement) (Judgement, error) {
	return Judgement{}, ErrNotImplemented
}

func (NullRepository) ListByUser(context.Context, string) ([]Judgement, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) Delete(context.Context, string) error { return ErrNotImplemented }

// Service exposes business operations over judgements.
type Service interface {
	// Upload files a judgement for j.UserID; an existing judgement with the
	// same ID is overwritten only when it belongs to the same user.
	Upload(ctx context.Context, j Judgement) (Judgement, error)
	// Override files a judgement regardless of who holds the ID, moving it
	// to j.UserID. Reserved for administrators.
	Override(ctx context.Context, j Judgement) (Judgement, error)
	ListByUser(ctx context.Context, userID string) ([]Judgement, error)
	GetByID(ctx context.Context, userID, judgementID string) (Judgement, error)
	GetByJudgementID(ctx context.Context, judgementID string) (Judgement, error)
	Delete(ctx context.Context, id string) error
}

// NewService builds a judgement service. now may be nil.
func NewService(repo Repository, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}
}

type service struct {
	repo Repository
	now  func() time.Time
}

func (s *service) Upload(ctx context.Context, j Judgement) (Judgement, error) {
	j, err := s.prepare(j)
	if err != nil {
		return Judgement{}, err
	}
	return s.repo.Upsert(ctx, j)
}

func (s *service) Override(ctx context.Context, j Judgement) (Judgement, error) {
	j, err := s.prepare(j)
	if err != nil {
		return Judgement{}, err
	}
	return s.repo.Replace(ctx, j)
}

func (s *service) prepare(j Judgement) (Judgement, error) {
	j.ID = strings.TrimSpace(j.ID)
	j.UserID = strings.TrimSpace(j.UserID)
	j.ObjectID = strings.TrimSpace(j.ObjectID)
	j.Objection = strings.TrimSpace(j.Objection)
	j.Content = strings.TrimSpace(j.Content)
	if j.ID == "" {
		return Judgement{}, record.Required("judgement_id")
	}
	if j.UserID == "" {
		return Judgement{}, record.Required("user_id")
	}
	if j.Rating < MinRating || j.Rating > MaxRating {
		return Judgement{}, fmt.Errorf("%w: rating must be between %d and %d", record.ErrInvalid, MinRating, MaxRating)
	}
	if j.JudgedAt.IsZero() {
		j.JudgedAt = s.now().UTC()
	}
	return j, nil
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]Judgement, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, record.Required("user_id")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) GetByID(ctx context.Context, userID, judgementID string) (Judgement, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(judgementID) == "" {
		return Judgement{}, fmt.Errorf("%w: user_id and judgement_id are required", record.ErrInvalid)
	}
	j, err := s.GetByJudgementID(ctx, judgementID)
	if err != nil {
		return Judgement{}, err
	}
	if j.UserID != userID {
		return Judgement{}, ErrForbidden
	}
	return j, nil
}

func (s *service) GetByJudgementID(ctx context.Context, judgementID string) (Judgement, error) {
	if strings.TrimSpace(judgementID) == "" {
		return Judgement{}, record.Required("judgement_id")
	}
	return s.repo.FindByID(ctx, judgementID)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return record.Required("judgement_id")
	}
	return s.repo.Delete(ctx, id)
}
