// Package db opens the Postgres pool every repository runs on.
package db

import (
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	maxOpenConns    = 25
	connMaxIdleTime = 5 * time.Minute
)

// Open connects to Postgres via the pgx stdlib driver, verifies the
// connection with a ping, and bounds the pool. The caller owns the handle
// and must Close it.
func Open(dsn string) (*sql.DB, error) {
	pool, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxOpenConns)
	pool.SetMaxIdleConns(maxOpenConns)
	pool.SetConnMaxIdleTime(connMaxIdleTime)
	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return pool, nil
}
