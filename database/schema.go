package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouseSchema creates the raw event tables.
var ClickHouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS page_views (
		event_id      String,
		session_id    String,
		current_page  String,
		previous_page Nullable(String),
		timestamp     DateTime64(3, 'UTC'),
		city          String,
		region        String,
		country       String,
		latitude      Nullable(Float64),
		longitude     Nullable(Float64),
		device_type   LowCardinality(String),
		source        String,
		source_type   LowCardinality(String),
		referrer      String,
		user_agent    String
	) ENGINE = MergeTree
	ORDER BY (timestamp, session_id)`,

	`CREATE TABLE IF NOT EXISTS scan_events (
		event_id         String,
		session_id       String,
		source           String,
		batch_id         String,
		product          String,
		timestamp        DateTime64(3, 'UTC'),
		city             String,
		region           String,
		country          String,
		latitude         Nullable(Float64),
		longitude        Nullable(Float64),
		device_type      LowCardinality(String),
		referrer         String,
		user_agent       String,
		form_opened      Bool,
		whatsapp_clicked Bool
	) ENGINE = MergeTree
	ORDER BY (timestamp, session_id)`,

	`CREATE TABLE IF NOT EXISTS engagement_events (
		event_id   String,
		session_id String,
		action     LowCardinality(String),
		page       String,
		timestamp  DateTime64(3, 'UTC'),
		data       String
	) ENGINE = MergeTree
	ORDER BY (timestamp, action)`,
}

// PostgresSchema creates the lead and admin tables.
var PostgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS customer_submissions (
		id                       BIGSERIAL PRIMARY KEY,
		session_id               TEXT,
		scan_event_id            TEXT,
		name                     TEXT NOT NULL,
		email                    TEXT NOT NULL DEFAULT '',
		phone                    TEXT NOT NULL DEFAULT '',
		city                     TEXT NOT NULL DEFAULT '',
		state                    TEXT NOT NULL DEFAULT '',
		country                  TEXT NOT NULL DEFAULT '',
		use_case                 TEXT NOT NULL DEFAULT '',
		quantity_needed          TEXT NOT NULL DEFAULT '',
		batch_id                 TEXT NOT NULL DEFAULT '',
		source                   TEXT NOT NULL DEFAULT '',
		submitted_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
		time_from_scan_to_submit BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_customer_submissions_submitted_at ON customer_submissions (submitted_at)`,
	`CREATE INDEX IF NOT EXISTS idx_customer_submissions_session_id ON customer_submissions (session_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id              SERIAL PRIMARY KEY,
		email           TEXT NOT NULL UNIQUE,
		hashed_password BYTEA NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

func EnsureClickHouseSchema(ctx context.Context, conn clickhouse.Conn) error {
	for _, stmt := range ClickHouseSchema {
		if err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply ClickHouse schema: %w", err)
		}
	}
	return nil
}

func EnsurePostgresSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range PostgresSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply PostgreSQL schema: %w", err)
		}
	}
	return nil
}
