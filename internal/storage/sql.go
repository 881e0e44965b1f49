package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"planboard/internal/domain"
)

// Dialect selects the upsert syntax and column types.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

func init() {
	// modernc registers itself as "sqlite".
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLLayoutStore keeps each user's layout as one JSON document in the
// layouts table. Saves read, merge and upsert inside a transaction.
type SQLLayoutStore struct {
	db      *sqlx.DB
	dialect Dialect
	log     *slog.Logger
}

// NewSQLLayoutStore migrates the schema on db and returns the store. The
// store takes ownership of db.
func NewSQLLayoutStore(ctx context.Context, db *sqlx.DB, dialect Dialect, log *slog.Logger) (*SQLLayoutStore, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &SQLLayoutStore{db: db, dialect: dialect, log: log}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLLayoutStore) migrate(ctx context.Context) error {
	docType := "TEXT"
	if s.dialect == DialectMySQL {
		docType = "LONGTEXT"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS layouts (
		user_id VARCHAR(191) PRIMARY KEY,
		document %s NOT NULL,
		updated_at BIGINT NOT NULL
	)`, docType)
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *SQLLayoutStore) upsertQuery() string {
	switch s.dialect {
	case DialectMySQL:
		return `INSERT INTO layouts (user_id, document, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE document = VALUES(document), updated_at = VALUES(updated_at)`
	default:
		return s.db.Rebind(`INSERT INTO layouts (user_id, document, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`)
	}
}

func (s *SQLLayoutStore) SaveLayout(ctx context.Context, userID string, l *domain.Layout) error {
	return runInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var existing string
		err := tx.GetContext(ctx, &existing, tx.Rebind(`SELECT document FROM layouts WHERE user_id = ?`), userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read layout: %w", err)
		}

		merged, err := mergeDocument([]byte(existing), l)
		if err != nil {
			// A corrupt stored document is replaced rather than blocking saves.
			s.log.Warn("replacing unreadable layout document", "user_id", userID, "error", err)
			merged, err = mergeDocument(nil, l)
			if err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, s.upsertQuery(), userID, string(merged), time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("upsert layout: %w", err)
		}
		return nil
	})
}

func (s *SQLLayoutStore) LoadLayout(ctx context.Context, userID string) (*domain.Layout, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, s.db.Rebind(`SELECT document FROM layouts WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return decodeDocument([]byte(raw))
}

// RawDocument returns the stored JSON for userID.
func (s *SQLLayoutStore) RawDocument(ctx context.Context, userID string) (string, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, s.db.Rebind(`SELECT document FROM layouts WHERE user_id = ?`), userID)
	return raw, err
}

func (s *SQLLayoutStore) Close(context.Context) error {
	return s.db.Close()
}

// runInTx runs fn within a transaction, rolling back if fn fails.
func runInTx(ctx context.Context, db *sqlx.DB, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
