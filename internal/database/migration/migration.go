package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the last table step; its presence means the schema is in place.
const sentinelTable = "reviews"

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name       TEXT        NOT NULL,
  email      TEXT        NOT NULL UNIQUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_businesses",
		SQL: `CREATE TABLE IF NOT EXISTS businesses (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name       TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_roles",
		SQL: `CREATE TABLE IF NOT EXISTS roles (
  id   SERIAL PRIMARY KEY,
  name TEXT   NOT NULL UNIQUE
);`,
	},
	{
		Name: "seed_roles",
		SQL:  `INSERT INTO roles (name) VALUES ('admin'), ('super-admin') ON CONFLICT (name) DO NOTHING;`,
	},
	{
		Name: "create_table_user_roles",
		SQL: `CREATE TABLE IF NOT EXISTS user_roles (
  user_id UUID    NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  role_id INTEGER NOT NULL REFERENCES roles (id) ON DELETE CASCADE,
  PRIMARY KEY (user_id, role_id)
);`,
	},
	{
		Name: "create_table_business_admins",
		SQL: `CREATE TABLE IF NOT EXISTS business_admins (
  business_id UUID NOT NULL REFERENCES businesses (id) ON DELETE CASCADE,
  user_id     UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  PRIMARY KEY (business_id, user_id)
);`,
	},
	{
		Name: "create_table_reviews",
		SQL: `CREATE TABLE IF NOT EXISTS reviews (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  business_id UUID        NOT NULL,
  user_id     UUID,
  author_name TEXT        NOT NULL,
  comment     TEXT        NOT NULL,
  rating      SMALLINT    NOT NULL CHECK (rating BETWEEN 1 AND 5),
  images      JSONB,
  status      TEXT        NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT reviews_business_id_fkey FOREIGN KEY (business_id) REFERENCES businesses (id) ON DELETE CASCADE,
  CONSTRAINT reviews_user_id_fkey FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE SET NULL
);`,
	},
	{
		Name: "create_index_reviews_business_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reviews_business_created_at ON reviews (business_id, created_at DESC, id DESC);`,
	},
	{
		Name: "create_index_reviews_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reviews_status ON reviews (status);`,
	},
	{
		Name: "create_index_business_admins_user",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_business_admins_user ON business_admins (user_id);`,
	},
}

// EnsureMigrated checks if the reviews table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log zerolog.Logger, dbHost string) error {
	start := time.Now()
	log = log.With().Str("component", "database").Str("db_host", dbHost).Logger()

	log.Info().Str("event", "db_migration_check").Str("status", "starting").Send()

	var exists bool
	query := "SELECT to_regclass('public." + sentinelTable + "') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Str("status", "error").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info().
			Str("event", "db_migration_skip").
			Str("status", "success").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_start").Str("status", "in_progress").Int("steps", len(steps)).Send()

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error().Err(err).
				Str("event", "db_migration_failed").
				Str("status", "error").
				Str("migration_step", step.Name).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Send()
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Debug().
			Str("event", "db_migration_step").
			Str("status", "success").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Send()
	}

	log.Info().
		Str("event", "db_migration_success").
		Str("status", "success").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Send()

	return nil
}
