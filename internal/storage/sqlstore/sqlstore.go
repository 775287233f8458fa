// Package sqlstore implements the domain repositories on database/sql. The
// same queries serve Postgres (pgx) and SQLite (modernc); placeholders are
// written as '?' and rebound per dialect.
package sqlstore

import (
	"database/sql"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/edueval/teaching-system/internal/database"
)

const pgUniqueViolation = "23505"

// conn bundles a handle with the dialect its queries are rebound for.
type conn struct {
	db      *sql.DB
	dialect string
}

func newConn(db *sql.DB, dialect string) conn {
	return conn{db: db, dialect: dialect}
}

// q rewrites '?' placeholders to $n when talking to Postgres.
func (c conn) q(query string) string {
	if c.dialect != database.DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isUniqueViolation reports whether err is a primary key or unique
// constraint failure on either backend.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

// now returns a UTC timestamp at the precision both backends can store.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func pageBounds(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = math.MaxInt32
	}
	return offset, limit
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
