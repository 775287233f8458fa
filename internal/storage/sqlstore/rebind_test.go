package sqlstore

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/edueval/teaching-system/internal/database"
)

func TestPlaceholderRebinding(t *testing.T) {
	pg := newConn(nil, database.DialectPostgres)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.q("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := newConn(nil, database.DialectSQLite)
	assert.Equal(t, "SELECT * FROM t WHERE a = ?", lite.q("SELECT * FROM t WHERE a = ?"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestPageBounds(t *testing.T) {
	offset, limit := pageBounds(-3, 0)
	assert.Equal(t, 0, offset)
	assert.Greater(t, limit, 1_000_000)

	offset, limit = pageBounds(5, 10)
	assert.Equal(t, 5, offset)
	assert.Equal(t, 10, limit)
}
