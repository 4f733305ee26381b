package database

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

// TestWrapDBError - Teste da classificação de erros dos dois drivers
func TestWrapDBError(t *testing.T) {
	assert.NoError(t, wrapDBError("upsert lead", nil))

	err := wrapDBError("summary", &pgconn.PgError{Code: "42P01", Message: `relation "leads" does not exist`})
	assert.ErrorIs(t, err, ErrSchemaMissing)

	err = wrapDBError("summary", &pq.Error{Code: "42P01", Message: `relation "leads" does not exist`})
	assert.ErrorIs(t, err, ErrSchemaMissing)

	unique := &pgconn.PgError{Code: "23505"}
	err = wrapDBError("upsert lead", unique)
	assert.ErrorContains(t, err, "postgres 23505")
	assert.ErrorIs(t, err, unique)

	plain := errors.New("connection reset")
	assert.ErrorIs(t, wrapDBError("upsert lead", plain), plain)
}
