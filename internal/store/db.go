package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
)

// DB stores scanner results (servers, their player lists, and join/leave
// history) in Postgres. Schema creation is someone else's job: DB expects
// the servers/player_list/player_actions tables to already exist and only
// ever issues DML against them.
type DB struct {
	x *sqlx.DB
}

// Open connects to the Postgres database at dsn.
func Open(dsn string) (*DB, error) {
	x, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	x.SetMaxOpenConns(16)
	x.SetConnMaxLifetime(time.Hour)
	return &DB{x}, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.x.Close()
}
