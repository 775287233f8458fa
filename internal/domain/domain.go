package domain

import (
	"context"
	"strings"
	"time"

	"github.com/edueval/teaching-system/internal/domain/evaluations"
	"github.com/edueval/teaching-system/internal/domain/judgements"
	"github.com/edueval/teaching-system/internal/domain/record"
	"github.com/edueval/teaching-system/internal/domain/testresults"
	"github.com/edueval/teaching-system/internal/domain/users"
)

// Container wires domain services together.
type Container struct {
	Users       users.Service
	Evaluations evaluations.Service
	TestResults testresults.Service
	Judgements  judgements.Service
}

// Options configures the domain container.
type Options struct {
	UserRepo       users.Repository
	EvaluationRepo evaluations.Repository
	TestResultRepo testresults.Repository
	JudgementRepo  judgements.Repository
	Clock          func() time.Time
}

// New constructs a domain container with provided repositories.
func New(opts Options) Container {
	userRepo := opts.UserRepo
	if userRepo == nil {
		userRepo = users.NullRepository{}
	}

	evaluationRepo := opts.EvaluationRepo
	if evaluationRepo == nil {
		evaluationRepo = evaluations.NullRepository{}
	}

	testResultRepo := opts.TestResultRepo
	if testResultRepo == nil {
		testResultRepo = testresults.NullRepository{}
	}

	judgementRepo := opts.JudgementRepo
	if judgementRepo == nil {
		judgementRepo = judgements.NullRepository{}
	}

	return Container{
		Users:       users.NewService(userRepo),
		Evaluations: evaluations.NewService(evaluationRepo),
		TestResults: testresults.NewService(testResultRepo),
		Judgements:  judgements.NewService(judgementRepo, opts.Clock),
	}
}

// DeleteRecord removes a record of the given kind.
func (c Container) DeleteRecord(ctx context.Context, kind record.Kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return record.Required("record id")
	}
	switch kind {
	case record.KindEvaluation:
		return c.Evaluations.Delete(ctx, id)
	case record.KindTestResult:
		return c.TestResults.Delete(ctx, id)
	case record.KindJudgement:
		return c.Judgements.Delete(ctx, id)
	default:
		parsed, err := record.ParseKind(string(kind))
		if err != nil {
			return err
		}
		return c.DeleteRecord(ctx, parsed, id)
	}
}
