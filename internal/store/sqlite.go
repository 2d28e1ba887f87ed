package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/attendance-kiosk/internal/model"
)

// DefaultHistoryLimit caps RecentAttempts when no limit is given.
const DefaultHistoryLimit = 20

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One connection: SQLite serializes writers anyway, and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordAttempt inserts one journal row. Generates a UUID if ID is empty.
func (s *SQLiteStore) RecordAttempt(ctx context.Context, a model.Attempt) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Outcome == "" {
		return fmt.Errorf("attempt %s has no outcome", a.ID)
	}
	a.StartedAt = a.StartedAt.UTC()
	a.FinishedAt = a.FinishedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO attempts (
			id, epoch, outcome, status, employee,
			error_code, confidence, started_at, finished_at
		) VALUES (
			:id, :epoch, :outcome, :status, :employee,
			:error_code, :confidence, :started_at, :finished_at
		)`, a)
	if err != nil {
		return fmt.Errorf("recording attempt %s: %w", a.ID, err)
	}
	return nil
}

// RecentAttempts returns the newest attempts first. A non-positive limit
// means DefaultHistoryLimit.
func (s *SQLiteStore) RecentAttempts(ctx context.Context, limit int) ([]model.Attempt, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var attempts []model.Attempt
	err := s.db.SelectContext(ctx, &attempts, `
		SELECT id, epoch, outcome, status, employee,
			error_code, confidence, started_at, finished_at
		FROM attempts
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying attempts: %w", err)
	}
	return attempts, nil
}

// OutcomeCounts tallies attempts started at or after since, by outcome.
func (s *SQLiteStore) OutcomeCounts(
	ctx context.Context,
	since time.Time,
) (map[model.OutcomeKind]int, error) {
	var rows []struct {
		Outcome model.OutcomeKind `db:"outcome"`
		Count   int               `db:"n"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT outcome, COUNT(*) AS n
		FROM attempts
		WHERE started_at >= ?
		GROUP BY outcome`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("counting attempts: %w", err)
	}

	counts := make(map[model.OutcomeKind]int, len(rows))
	for _, r := range rows {
		counts[r.Outcome] = r.Count
	}
	return counts, nil
}
