package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrSchemaMissing indica que a tabela leads não existe; Migrate não rodou.
var ErrSchemaMissing = errors.New("leads table missing")

// pgCode extrai o SQLSTATE do tipo de erro de qualquer um dos drivers.
func pgCode(err error) (string, string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.Message, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Message, true
	}
	return "", "", false
}

func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	code, msg, ok := pgCode(err)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	if code == "42P01" {
		return fmt.Errorf("%s: %w: %s", op, ErrSchemaMissing, msg)
	}
	return fmt.Errorf("%s: postgres %s: %w", op, code, err)
}
