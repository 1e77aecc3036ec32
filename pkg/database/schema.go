package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		grade_level INTEGER NOT NULL CHECK (grade_level >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS participation_events (
		id INTEGER PRIMARY KEY,
		student_id INTEGER NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		date INTEGER NOT NULL,
		notes TEXT,
		points INTEGER NOT NULL CHECK (points >= 0),
		kind INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participation_events_student ON participation_events(student_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		grade_level INTEGER NOT NULL CHECK (grade_level >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS participation_events (
		id BIGSERIAL PRIMARY KEY,
		student_id BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		date BIGINT NOT NULL,
		notes TEXT,
		points INTEGER NOT NULL CHECK (points >= 0),
		kind SMALLINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participation_events_student ON participation_events(student_id)`,
}

// EnsureSchema creates the roster tables when they do not exist yet.
func EnsureSchema(db *sqlx.DB) error {
	statements := sqliteSchema
	if db.DriverName() == "postgres" {
		statements = postgresSchema
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
