package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/tusur-bots/faculty-advisor/internal/logging"
)

// migration represents a single schema migration. Statements are chosen by
// driver because column types differ between SQLite and PostgreSQL.
type migration struct {
	version int
	name    string
	up      func(d Driver) []string
}

var migrations = []migration{
	{version: 1, name: "users_and_applications", up: migration001UsersAndApplications},
	{version: 2, name: "recommendation_history", up: migration002RecommendationHistory},
}

// runMigrations executes pending migrations in order.
func (s *SQLStorage) runMigrations(ctx context.Context) error {
	if err := s.createMigrationsTable(ctx); err != nil {
		return err
	}

	version, err := s.currentMigrationVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		logging.Info().Int("version", m.version).Str("name", m.name).Msg("running migration")
		for _, stmt := range m.up(s.driver) {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
		}
		if err := s.setMigrationVersion(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLStorage) createMigrationsTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

func (s *SQLStorage) currentMigrationVersion(ctx context.Context) (int, error) {
	var version int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func (s *SQLStorage) setMigrationVersion(ctx context.Context, m migration) error {
	query, args, err := s.sb.Insert("schema_migrations").
		Columns("version", "name", "applied_at").
		Values(m.version, m.name, formatTime(time.Now())).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func migration001UsersAndApplications(d Driver) []string {
	id, bigint, boolean, trueLit := "INTEGER PRIMARY KEY AUTOINCREMENT", "INTEGER", "INTEGER", "1"
	if d == DriverPostgres {
		id, bigint, boolean, trueLit = "BIGSERIAL PRIMARY KEY", "BIGINT", "BOOLEAN", "TRUE"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id ` + id + `,
			external_id ` + bigint + ` NOT NULL UNIQUE,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			is_active ` + boolean + ` NOT NULL DEFAULT ` + trueLit + `,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS applications (
			id ` + id + `,
			user_id ` + bigint + ` NOT NULL REFERENCES users(id),
			faculty_code TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT '` + DefaultStatus + `',
			created_at TEXT NOT NULL,
			UNIQUE (user_id, faculty_code)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_user ON applications(user_id)`,
	}
}

func migration002RecommendationHistory(d Driver) []string {
	floatType := "REAL"
	if d == DriverPostgres {
		floatType = "DOUBLE PRECISION"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS recommendations (
			id TEXT PRIMARY KEY,
			chat_hash TEXT NOT NULL,
			faculty_code TEXT NOT NULL,
			source TEXT NOT NULL,
			confidence ` + floatType + ` NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_created ON recommendations(created_at DESC)`,
	}
}
