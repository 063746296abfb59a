package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/lostfound-api/pkg/config"
)

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// schema holds the statements needed by the report store. Every statement is
// idempotent so it can run on each boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		doc_key TEXT PRIMARY KEY,
		report_id TEXT UNIQUE,
		type TEXT NOT NULL,
		category TEXT NOT NULL,
		title VARCHAR(64) NOT NULL,
		description VARCHAR(1000),
		location_building VARCHAR(64) NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		image_url TEXT,
		created_by_name TEXT NOT NULL DEFAULT '',
		created_by_email TEXT NOT NULL,
		created_by_phone CHAR(10),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'pending',
		reviewed_at TIMESTAMPTZ,
		reviewed_by TEXT,
		CONSTRAINT reports_review_pair CHECK ((reviewed_at IS NULL) = (reviewed_by IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS reports_status_created_idx ON reports (status, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS reports_creator_idx ON reports (lower(created_by_email))`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		actor_email TEXT NOT NULL,
		action TEXT NOT NULL,
		report_id TEXT NOT NULL,
		from_status TEXT,
		to_status TEXT,
		details JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS audit_logs_report_idx ON audit_logs (report_id, created_at DESC)`,
}

// EnsureSchema creates the tables and indexes used by the service.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
