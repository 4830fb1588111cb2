package postgres

import (
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"vetscan/internal/config"
)

// connMaxIdleTime bounds how long a pooled connection sits idle. Ingest
// traffic is bursty, so idle connections are released fairly quickly.
const connMaxIdleTime = 5 * time.Minute

// NewDB opens the document store connection pool.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	log.Printf("postgres.NewDB: connected to %s (pool max_open=%d max_idle=%d)",
		cfg.Name, cfg.MaxOpen, cfg.MaxIdle)
	return db, nil
}
