package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/edueval/teaching-system/internal/domain/evaluations"
)

// EvaluationRepository persists evaluations in a SQL database.
type EvaluationRepository struct {
	conn
}

// NewEvaluationRepository constructs a SQL-backed evaluation repository.
func NewEvaluationRepository(db *sql.DB, dialect string) *EvaluationRepository {
	return &EvaluationRepository{conn: newConn(db, dialect)}
}

const evaluationColumns = `id, user_id, points_degree, feedback, created_at, updated_at`

func scanEvaluation(row interface{ Scan(...any) error }) (evaluations.Evaluation, error) {
	var e evaluations.Evaluation
	err := row.Scan(&e.ID, &e.UserID, &e.PointsDegree, &e.Feedback, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *EvaluationRepository) FindByID(ctx context.Context, id string) (evaluations.Evaluation, error) {
	query := r.q(`SELECT ` + evaluationColumns + ` FROM evaluations WHERE id = ?`)
	e, err := scanEvaluation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return evaluations.Evaluation{}, evaluations.ErrNotFound
		}
		return evaluations.Evaluation{}, fmt.Errorf("find evaluation: %w", err)
	}
	return e, nil
}

func (r *EvaluationRepository) Insert(ctx context.Context, e evaluations.Evaluation) (evaluations.Evaluation, error) {
	ts := now()
	const insert = `
        INSERT INTO evaluations (id, user_id, points_degree, feedback, created_at, updated_at)
        VALUES (?,?,?,?,?,?)
    `
	if _, err := r.db.ExecContext(ctx, r.q(insert), e.ID, e.UserID, e.PointsDegree, e.Feedback, ts, ts); err != nil {
		if isUniqueViolation(err) {
			return evaluations.Evaluation{}, evaluations.ErrExists
		}
		return evaluations.Evaluation{}, fmt.Errorf("insert evaluation: %w", err)
	}
	e.CreatedAt = ts
	e.UpdatedAt = ts
	return e, nil
}

func (r *EvaluationRepository) Update(ctx context.Context, e evaluations.Evaluation) (evaluations.Evaluation, error) {
	ts := now()
	const update = `
        UPDATE evaluations
           SET user_id = ?,
               points_degree = ?,
               feedback = ?,
               updated_at = ?
         WHERE id = ?
        RETURNING created_at
    `
	err := r.db.QueryRowContext(ctx, r.q(update), e.UserID, e.PointsDegree, e.Feedback, ts, e.ID).Scan(&e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return evaluations.Evaluation{}, evaluations.ErrNotFound
		}
		return evaluations.Evaluation{}, fmt.Errorf("update evaluation: %w", err)
	}
	e.UpdatedAt = ts
	return e, nil
}

func (r *EvaluationRepository) ListByUser(ctx context.Context, userID string) ([]evaluations.Evaluation, error) {
	query := r.q(`SELECT ` + evaluationColumns + ` FROM evaluations WHERE user_id = ? ORDER BY created_at, id`)
	return r.list(ctx, query, userID)
}

func (r *EvaluationRepository) List(ctx context.Context) ([]evaluations.Evaluation, error) {
	return r.list(ctx, `SELECT `+evaluationColumns+` FROM evaluations ORDER BY created_at, id`)
}

func (r *EvaluationRepository) list(ctx context.Context, query string, args ...any) ([]evaluations.Evaluation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	list := []evaluations.Evaluation{}
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *EvaluationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM evaluations WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete evaluation: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("delete evaluation: %w", err)
	}
	if !ok {
		return evaluations.ErrNotFound
	}
	return nil
}

var _ evaluations.Repository = (*EvaluationRepository)(nil)
