package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"bankdash/internal/log"
	"bankdash/internal/session"
)

// Activity is one row of the audit log.
type Activity struct {
	ID         string
	Kind       string
	SessionID  string
	AccountID  string
	Amount     string
	Outcome    string
	Detail     string
	OccurredAt time.Time
}

// SQLiteRepository stores session tokens and the activity audit log.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Default()
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps :memory: coherent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Token implements session.TokenStore.
func (r *SQLiteRepository) Token(ctx context.Context, sessionID string) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx,
		`SELECT token FROM session_tokens WHERE session_id = ?`, sessionID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", session.ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

// SaveToken implements session.TokenStore.
func (r *SQLiteRepository) SaveToken(ctx context.Context, sessionID, token string) error {
	token = session.NormalizeToken(token)
	if token == "" {
		return session.ErrInvalidToken
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_tokens (session_id, token) VALUES (?, ?)
		ON CONFLICT(session_id) DO UPDATE SET token = excluded.token, updated_at = CURRENT_TIMESTAMP`,
		sessionID, token)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// DeleteToken implements session.TokenStore.
func (r *SQLiteRepository) DeleteToken(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_tokens WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// RecordActivity appends a to the audit log. Redelivered messages with the
// same id are ignored.
func (r *SQLiteRepository) RecordActivity(ctx context.Context, a Activity) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, kind, session_id, account_id, amount, outcome, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		a.ID, a.Kind, a.SessionID, a.AccountID, a.Amount, a.Outcome, a.Detail, a.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		r.logger.DebugContext(ctx, "Duplicate activity ignored", log.FieldActivityID, a.ID)
	}
	return nil
}

// RecentActivity returns up to limit entries, newest first.
func (r *SQLiteRepository) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, session_id, account_id, amount, outcome, detail, occurred_at
		FROM activity_log ORDER BY occurred_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Kind, &a.SessionID, &a.AccountID, &a.Amount, &a.Outcome, &a.Detail, &a.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
