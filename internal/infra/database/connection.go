package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"
)

// NewDBConnection abre o pool e verifica se o servidor responde. driver é
// "pgx" ou "postgres" (lib/pq); os dois usam o mesmo schema.
func NewDBConnection(driver, connString string) (*sql.DB, error) {
	if driver == "" {
		driver = DriverPgx
	}
	db, err := sql.Open(driver, connString)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
