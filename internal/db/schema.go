package db

import (
	"context"
	"fmt"
)

// Spots own their reviews and photos; deleting a spot removes both.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token      TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS spots (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		address    TEXT NOT NULL DEFAULT '',
		latitude   DOUBLE PRECISION NOT NULL,
		longitude  DOUBLE PRECISION NOT NULL,
		category   TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS spot_reviews (
		id        TEXT PRIMARY KEY,
		spot_id   TEXT NOT NULL REFERENCES spots(id) ON DELETE CASCADE,
		title     TEXT NOT NULL DEFAULT '',
		body      TEXT NOT NULL DEFAULT '',
		rating    INTEGER NOT NULL CHECK (rating BETWEEN 0 AND 5),
		reviewer  TEXT NOT NULL,
		posted_on TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS spot_reviews_spot_id_idx ON spot_reviews (spot_id)`,
	`CREATE TABLE IF NOT EXISTS spot_photos (
		id          TEXT PRIMARY KEY,
		spot_id     TEXT NOT NULL REFERENCES spots(id) ON DELETE CASCADE,
		image_url   TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		reviewer    TEXT NOT NULL,
		posted_on   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id        TEXT PRIMARY KEY,
		display_name   TEXT NOT NULL DEFAULT '',
		favorite_spots TEXT[] NOT NULL DEFAULT '{}',
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS storage_objects (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		blob_key   TEXT NOT NULL,
		url        TEXT NOT NULL,
		kind       TEXT NOT NULL,
		size_bytes BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates every table the API needs. Statements are idempotent.
func EnsureSchema(ctx context.Context, q Querier) error {
	for i, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
