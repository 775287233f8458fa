// Package seed loads fixture users and records into the configured store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edueval/teaching-system/internal/domain"
	"github.com/edueval/teaching-system/internal/domain/evaluations"
	"github.com/edueval/teaching-system/internal/domain/judgements"
	"github.com/edueval/teaching-system/internal/domain/record"
	"github.com/edueval/teaching-system/internal/domain/testresults"
	"github.com/edueval/teaching-system/internal/domain/users"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the YAML document accepted by Load.
type Fixtures struct {
	Users       []UserFixture       `yaml:"users"`
	Evaluations []EvaluationFixture `yaml:"evaluations"`
	TestResults []TestResultFixture `yaml:"test_results"`
	Judgements  []JudgementFixture  `yaml:"judgements"`
}

type UserFixture struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// Record fixtures name their owner by email in User, or by ID in UserID.
type EvaluationFixture struct {
	ID           string `yaml:"evaluation_id"`
	User         string `yaml:"user"`
	UserID       string `yaml:"user_id"`
	PointsDegree string `yaml:"points_degree"`
	Feedback     string `yaml:"feedback"`
}

type TestResultFixture struct {
	ID          string  `yaml:"test_id"`
	User        string  `yaml:"user"`
	UserID      string  `yaml:"user_id"`
	ScoreSum    float64 `yaml:"score_sum"`
	PaperNumber string  `yaml:"paper_number"`
	Answer      string  `yaml:"answer"`
}

type JudgementFixture struct {
	ID        string    `yaml:"judgement_id"`
	User      string    `yaml:"user"`
	UserID    string    `yaml:"user_id"`
	Objection string    `yaml:"objection"`
	ObjectID  string    `yaml:"object_id"`
	Rating    int       `yaml:"rating"`
	Content   string    `yaml:"content"`
	JudgedAt  time.Time `yaml:"judged_at"`
}

// Report counts what a seeding run did.
type Report struct {
	UsersCreated   int
	UsersSkipped   int
	RecordsCreated int
	RecordsSkipped int
}

// Load decodes fixtures, rejecting unknown keys.
func Load(r io.Reader) (Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return Fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}
	return f, nil
}

// Default returns the built-in sample data.
func Default() (Fixtures, error) {
	return Load(bytes.NewReader(defaultFixtures))
}

// Run inserts every fixture that is not already present. It is safe to run
// repeatedly against the same store.
func Run(ctx context.Context, services domain.Container, f Fixtures, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var report Report

	for _, u := range f.Users {
		created, err := services.Users.Provision(ctx, users.RegisterInput{
			Email:    u.Email,
			Name:     u.Name,
			Password: u.Password,
			Role:     u.Role,
		})
		if errors.Is(err, users.ErrEmailExists) {
			report.UsersSkipped++
			logger.Info("user exists; skipping", "email", u.Email)
			continue
		}
		if err != nil {
			return report, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		report.UsersCreated++
		logger.Info("user seeded", "email", created.Email, "role", created.Role, "id", created.ID)
	}

	resolve := newOwnerResolver(ctx, services.Users)

	for _, e := range f.Evaluations {
		userID, err := resolve(e.User, e.UserID)
		if err != nil {
			return report, err
		}
		_, err = services.Evaluations.Upload(ctx, evaluations.Evaluation{
			ID: e.ID, UserID: userID, PointsDegree: e.PointsDegree, Feedback: e.Feedback,
		})
		if err := tally(&report, logger, record.KindEvaluation, e.ID, err); err != nil {
			return report, err
		}
	}

	for _, t := range f.TestResults {
		userID, err := resolve(t.User, t.UserID)
		if err != nil {
			return report, err
		}
		_, err = services.TestResults.Upload(ctx, testresults.TestResult{
			ID: t.ID, UserID: userID, ScoreSum: t.ScoreSum, PaperNumber: t.PaperNumber, Answer: t.Answer,
		})
		if err := tally(&report, logger, record.KindTestResult, t.ID, err); err != nil {
			return report, err
		}
	}

	for _, j := range f.Judgements {
		userID, err := resolve(j.User, j.UserID)
		if err != nil {
			return report, err
		}
		// Judgement uploads overwrite, so check first to keep reruns no-ops.
		if _, err := services.Judgements.GetByJudgementID(ctx, j.ID); err == nil {
			_ = tally(&report, logger, record.KindJudgement, j.ID, record.ErrExists)
			continue
		} else if !errors.Is(err, record.ErrNotFound) {
			return report, fmt.Errorf("seed %s %s: %w", record.KindJudgement, j.ID, err)
		}
		_, err = services.Judgements.Upload(ctx, judgements.Judgement{
			ID: j.ID, UserID: userID, Objection: j.Objection, ObjectID: j.ObjectID,
			Rating: j.Rating, Content: j.Content, JudgedAt: j.JudgedAt,
		})
		if err := tally(&report, logger, record.KindJudgement, j.ID, err); err != nil {
			return report, err
		}
	}

	return report, nil
}

// newOwnerResolver maps a fixture's owner reference to a user ID, memoizing
// email lookups.
func newOwnerResolver(ctx context.Context, service users.Service) func(email, id string) (string, error) {
	known := map[string]string{}
	return func(email, id string) (string, error) {
		if id != "" {
			return id, nil
		}
		if cached, ok := known[email]; ok {
			return cached, nil
		}
		u, err := service.GetByEmail(ctx, email)
		if err != nil {
			return "", fmt.Errorf("resolve owner %q: %w", email, err)
		}
		known[email] = u.ID
		return u.ID, nil
	}
}

func tally(report *Report, logger *slog.Logger, kind record.Kind, id string, err error) error {
	switch {
	case err == nil:
		report.RecordsCreated++
		logger.Info("record seeded", "kind", kind, "id", id)
		return nil
	case errors.Is(err, record.ErrExists):
		report.RecordsSkipped++
		logger.Info("record exists; skipping", "kind", kind, "id", id)
		return nil
	default:
		return fmt.Errorf("seed %s %s: %w", kind, id, err)
	}
}
