package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/edueval/teaching-system/internal/domain/judgements"
)

// JudgementRepository persists judgements in a SQL database.
type JudgementRepository struct {
	conn
}

// NewJudgementRepository constructs a SQL-backed judgement repository.
func NewJudgementRepository(db *sql.DB, dialect string) *JudgementRepository {
	return &JudgementRepository{conn: newConn(db, dialect)}
}

const judgementColumns = `id, user_id, objection, object_id, rating, content, judged_at`

func scanJudgement(row interface{ Scan(...any) error }) (judgements.Judgement, error) {
	var j judgements.Judgement
	err := row.Scan(&j.ID, &j.UserID, &j.Objection, &j.ObjectID, &j.Rating, &j.Content, &j.JudgedAt)
	return j, err
}

func (r *JudgementRepository) FindByID(ctx context.Context, id string) (judgements.Judgement, error) {
	query := r.q(`SELECT ` + judgementColumns + ` FROM judgements WHERE id = ?`)
	j, err := scanJudgement(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return judgements.Judgement{}, judgements.ErrNotFound
		}
		return judgements.Judgement{}, fmt.Errorf("find judgement: %w", err)
	}
	return j, nil
}

const upsertJudgement = `
        INSERT INTO judgements (id, user_id, objection, object_id, rating, content, judged_at)
        VALUES (?,?,?,?,?,?,?)
        ON CONFLICT (id) DO UPDATE
           SET user_id = excluded.user_id,
               objection = excluded.objection,
               object_id = excluded.object_id,
               rating = excluded.rating,
               content = excluded.content,
               judged_at = excluded.judged_at
    `

// Upsert leaves a row held by another user untouched; the conflicting
// update then affects no rows.
func (r *JudgementRepository) Upsert(ctx context.Context, j judgements.Judgement) (judgements.Judgement, error) {
	j.JudgedAt = j.JudgedAt.UTC().Truncate(time.Microsecond)
	res, err := r.db.ExecContext(ctx, r.q(upsertJudgement+` WHERE judgements.user_id = excluded.user_id`),
		j.ID, j.UserID, j.Objection, j.ObjectID, j.Rating, j.Content, j.JudgedAt,
	)
	if err != nil {
		return judgements.Judgement{}, fmt.Errorf("upsert judgement: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return judgements.Judgement{}, fmt.Errorf("upsert judgement: %w", err)
	}
	if !ok {
		return judgements.Judgement{}, judgements.ErrForbidden
	}
	return j, nil
}

func (r *JudgementRepository) Replace(ctx context.Context, j judgements.Judgement) (judgements.Judgement, error) {
	j.JudgedAt = j.JudgedAt.UTC().Truncate(time.Microsecond)
	if _, err := r.db.ExecContext(ctx, r.q(upsertJudgement),
		j.ID, j.UserID, j.Objection, j.ObjectID, j.Rating, j.Content, j.JudgedAt,
	); err != nil {
		return judgements.Judgement{}, fmt.Errorf("replace judgement: %w", err)
	}
	return j, nil
}

func (r *JudgementRepository) ListByUser(ctx context.Context, userID string) ([]judgements.Judgement, error) {
	query := r.q(`SELECT ` + judgementColumns + ` FROM judgements WHERE user_id = ? ORDER BY judged_at, id`)
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list judgements: %w", err)
	}
	defer rows.Close()

	list := []judgements.Judgement{}
	for rows.Next() {
		j, err := scanJudgement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan judgement: %w", err)
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

func (r *JudgementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM judgements WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete judgement: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("delete judgement: %w", err)
	}
	if !ok {
		return judgements.ErrNotFound
	}
	return nil
}

var _ judgements.Repository = (*JudgementRepository)(nil)
