package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"atm/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository keeps the record in a single-row account_state table and an
// ordered transaction_history table.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(ctx, dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements AccountRepository
func (r *SQLiteRepository) Load(ctx context.Context) (Record, error) {
	var (
		rec   Record
		cents int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT pin, balance_cents FROM account_state WHERE id = 1`).Scan(&rec.Pin, &cents)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNoState
	}
	if err != nil {
		return Record{}, fmt.Errorf("select account state: %w", err)
	}
	rec.Balance = core.Money{Cents: cents}

	rows, err := r.db.QueryContext(ctx, `SELECT entry FROM transaction_history ORDER BY seq`)
	if err != nil {
		return Record{}, fmt.Errorf("select history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return Record{}, fmt.Errorf("scan history entry: %w", err)
		}
		rec.History = append(rec.History, entry)
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("iterate history: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}

	slog.DebugContext(ctx, "Account state loaded from SQLite",
		"path", r.path,
		"balance_cents", rec.Balance.Cents,
		"history_entries", len(rec.History))
	return rec, nil
}

// Save implements AccountRepository. The previous record is replaced in one
// transaction.
func (r *SQLiteRepository) Save(ctx context.Context, rec Record) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO account_state (id, pin, balance_cents, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			pin = excluded.pin,
			balance_cents = excluded.balance_cents,
			updated_at = excluded.updated_at`,
		rec.Pin, rec.Balance.Cents)
	if err != nil {
		return fmt.Errorf("upsert account state: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM transaction_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transaction_history (seq, entry) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()

	for i, entry := range rec.History {
		if _, err = stmt.ExecContext(ctx, i+1, entry); err != nil {
			return fmt.Errorf("insert history entry %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.DebugContext(ctx, "Account state saved to SQLite",
		"path", r.path,
		"balance_cents", rec.Balance.Cents,
		"history_entries", len(rec.History))
	return nil
}

var _ AccountRepository = (*SQLiteRepository)(nil)
