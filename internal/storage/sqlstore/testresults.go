package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/edueval/teaching-system/internal/domain/testresults"
)

// TestResultRepository persists test results in a SQL database.
type TestResultRepository struct {
	conn
}

// NewTestResultRepository constructs a SQL-backed test result repository.
func NewTestResultRepository(db *sql.DB, dialect string) *TestResultRepository {
	return &TestResultRepository{conn: newConn(db, dialect)}
}

const testResultColumns = `id, user_id, score_sum, paper_number, answer, created_at`

func scanTestResult(row interface{ Scan(...any) error }) (testresults.TestResult, error) {
	var t testresults.TestResult
	err := row.Scan(&t.ID, &t.UserID, &t.ScoreSum, &t.PaperNumber, &t.Answer, &t.CreatedAt)
	return t, err
}

func (r *TestResultRepository) FindByID(ctx context.Context, id string) (testresults.TestResult, error) {
	query := r.q(`SELECT ` + testResultColumns + ` FROM test_results WHERE id = ?`)
	t, err := scanTestResult(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return testresults.TestResult{}, testresults.ErrNotFound
		}
		return testresults.TestResult{}, fmt.Errorf("find test result: %w", err)
	}
	return t, nil
}

func (r *TestResultRepository) Insert(ctx context.Context, t testresults.TestResult) (testresults.TestResult, error) {
	t.CreatedAt = now()
	const insert = `
        INSERT INTO test_results (id, user_id, score_sum, paper_number, answer, created_at)
        VALUES (?,?,?,?,?,?)
    `
	if _, err := r.db.ExecContext(ctx, r.q(insert), t.ID, t.UserID, t.ScoreSum, t.PaperNumber, t.Answer, t.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return testresults.TestResult{}, testresults.ErrExists
		}
		return testresults.TestResult{}, fmt.Errorf("insert test result: %w", err)
	}
	return t, nil
}

func (r *TestResultRepository) ListByUser(ctx context.Context, userID string) ([]testresults.TestResult, error) {
	query := r.q(`SELECT ` + testResultColumns + ` FROM test_results WHERE user_id = ? ORDER BY created_at, id`)
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list test results: %w", err)
	}
	defer rows.Close()

	list := []testresults.TestResult{}
	for rows.Next() {
		t, err := scanTestResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan test result: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *TestResultRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM test_results WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete test result: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("delete test result: %w", err)
	}
	if !ok {
		return testresults.ErrNotFound
	}
	return nil
}

var _ testresults.Repository = (*TestResultRepository)(nil)
