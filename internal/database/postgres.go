package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var PostgresDB *sql.DB

// ConnectPostgres opens the pool, verifies it and creates the schema.
func ConnectPostgres(postgresURI string) error {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	log.Info().Msg("✅ Connected to PostgreSQL")

	if err := InitPostgresTables(ctx, db); err != nil {
		db.Close()
		return err
	}

	PostgresDB = db
	return nil
}

// InitPostgresTables creates the schema if it does not exist yet.
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			full_name VARCHAR(255),
			role VARCHAR(10) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS feedback_forms (
			id BIGSERIAL PRIMARY KEY,
			uuid UUID NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			question TEXT NOT NULL,
			owner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// A review belongs to exactly one of a user or a form, and only
		// public submissions are form-scoped.
		`CREATE TABLE IF NOT EXISTS reviews (
			id BIGSERIAL PRIMARY KEY,
			content TEXT NOT NULL,
			author VARCHAR(120),
			sentiment VARCHAR(10) NOT NULL CHECK (sentiment IN ('positive', 'neutral', 'negative')),
			sentiment_score DOUBLE PRECISION NOT NULL CHECK (sentiment_score >= 0 AND sentiment_score <= 1),
			source VARCHAR(10) NOT NULL CHECK (source IN ('manual', 'import', 'public')),
			owner_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
			form_id BIGINT REFERENCES feedback_forms(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT reviews_single_owner CHECK ((owner_id IS NULL) <> (form_id IS NULL)),
			CONSTRAINT reviews_source_scope CHECK ((source = 'public') = (form_id IS NOT NULL))
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users(LOWER(email))`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_forms_owner_id ON feedback_forms(owner_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_owner_recent ON reviews(owner_id, created_at DESC, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_form_recent ON reviews(form_id, created_at DESC, id DESC)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("init postgres schema: %w", err)
		}
	}

	log.Info().Msg("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
