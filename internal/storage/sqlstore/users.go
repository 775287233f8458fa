package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edueval/teaching-system/internal/domain/users"
)

// UserRepository persists users in a SQL database.
type UserRepository struct {
	conn
}

// NewUserRepository constructs a SQL-backed user repository.
func NewUserRepository(db *sql.DB, dialect string) *UserRepository {
	return &UserRepository{conn: newConn(db, dialect)}
}

const userColumns = `id, email, name, role, password_hash, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (users.User, error) {
	var u users.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return users.User{}, err
	}
	u.Role = users.Role(role)
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (users.User, error) {
	query := r.q(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (users.User, error) {
	query := r.q(`SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER(?)`)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Save(ctx context.Context, user users.User) (users.User, error) {
	ts := now()
	user.Email = strings.ToLower(user.Email)

	if user.ID == "" {
		user.ID = uuid.NewString()
		const insert = `
            INSERT INTO users (id, email, name, role, password_hash, created_at, updated_at)
            VALUES (?,?,?,?,?,?,?)
        `
		if _, err := r.db.ExecContext(ctx, r.q(insert),
			user.ID, user.Email, user.Name, string(user.Role), user.PasswordHash, ts, ts,
		); err != nil {
			if isUniqueViolation(err) {
				return users.User{}, users.ErrEmailExists
			}
			return users.User{}, fmt.Errorf("insert user: %w", err)
		}
		user.CreatedAt = ts
		user.UpdatedAt = ts
		return user, nil
	}

	const update = `
        UPDATE users
           SET email = ?,
               name = ?,
               role = ?,
               password_hash = ?,
               updated_at = ?
         WHERE id = ?
        RETURNING created_at
    `
	var created time.Time
	err := r.db.QueryRowContext(ctx, r.q(update),
		user.Email, user.Name, string(user.Role), user.PasswordHash, ts, user.ID,
	).Scan(&created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		if isUniqueViolation(err) {
			return users.User{}, users.ErrEmailExists
		}
		return users.User{}, fmt.Errorf("update user: %w", err)
	}
	user.CreatedAt = created
	user.UpdatedAt = ts
	return user, nil
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]users.User, error) {
	offset, limit = pageBounds(offset, limit)
	query := r.q(`SELECT ` + userColumns + ` FROM users ORDER BY created_at, email LIMIT ? OFFSET ?`)
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	list := []users.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

var _ users.Repository = (*UserRepository)(nil)
