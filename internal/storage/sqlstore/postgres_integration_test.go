//go:build integration

package sqlstore_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/edueval/teaching-system/internal/database"
	"github.com/edueval/teaching-system/internal/domain/evaluations"
	"github.com/edueval/teaching-system/internal/domain/judgements"
	"github.com/edueval/teaching-system/internal/domain/record"
	"github.com/edueval/teaching-system/internal/domain/users"
	"github.com/edueval/teaching-system/internal/storage/sqlstore"
)

func setupPostgres(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres integration tests")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, database.Options{Dialect: database.DialectPostgres, DSN: dsn})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, stmt := range []string{
		"TRUNCATE judgements",
		"TRUNCATE test_results",
		"TRUNCATE evaluations",
		"TRUNCATE users",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("cleanup %s: %v", stmt, err)
		}
	}
	return db
}

func TestPostgresUserRepositoryIntegration(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	repo := sqlstore.NewUserRepository(db.DB, db.Dialect())

	created, err := repo.Save(ctx, users.User{Email: "integration@example.com", PasswordHash: "h", Role: users.RoleStudent})
	if err != nil {
		t.Fatalf("save user failed: %v", err)
	}
	if _, err := repo.Save(ctx, users.User{Email: "integration@example.com", PasswordHash: "h"}); err != users.ErrEmailExists {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	fetched, err := repo.FindByEmail(ctx, "INTEGRATION@example.com")
	if err != nil {
		t.Fatalf("find user failed: %v", err)
	}
	if fetched.ID != created.ID {
		t.Fatalf("expected id %s, got %s", created.ID, fetched.ID)
	}
}

func TestPostgresRecordRepositoriesIntegration(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	evals := sqlstore.NewEvaluationRepository(db.DB, db.Dialect())
	if _, err := evals.Insert(ctx, evaluations.Evaluation{ID: "eval_001", UserID: "user_001", PointsDegree: "A"}); err != nil {
		t.Fatalf("insert evaluation failed: %v", err)
	}
	if _, err := evals.Insert(ctx, evaluations.Evaluation{ID: "eval_001", UserID: "user_001"}); err != evaluations.ErrExists {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := evals.Update(ctx, evaluations.Evaluation{ID: "eval_001", UserID: "user_001", PointsDegree: "B"}); err != nil {
		t.Fatalf("update evaluation failed: %v", err)
	}

	judges := sqlstore.NewJudgementRepository(db.DB, db.Dialect())
	for _, rating := range []int{5, 2} {
		if _, err := judges.Upsert(ctx, judgements.Judgement{ID: "judge_001", UserID: "user_002", Rating: rating}); err != nil {
			t.Fatalf("upsert judgement failed: %v", err)
		}
	}
	got, err := judges.FindByID(ctx, "judge_001")
	if err != nil {
		t.Fatalf("find judgement failed: %v", err)
	}
	if got.Rating != 2 {
		t.Fatalf("expected rating 2 after upsert, got %d", got.Rating)
	}
	if _, err := judges.Upsert(ctx, judgements.Judgement{ID: "judge_001", UserID: "user_003", Rating: 1}); !errors.Is(err, judgements.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a different owner, got %v", err)
	}

	if err := judges.Delete(ctx, "judge_001"); err != nil {
		t.Fatalf("delete judgement failed: %v", err)
	}
	if err := judges.Delete(ctx, "judge_001"); err == nil || !isNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func isNotFound(err error) bool {
	return err == judgements.ErrNotFound || err == record.ErrNotFound
}
