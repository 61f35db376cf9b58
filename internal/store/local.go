package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"pageguard/internal/config"
	"pageguard/internal/logging"
	"pageguard/internal/types"
)

const (
	defaultHistoryCap = 50
	defaultLogCap     = 200
	defaultLocalDB    = ".pageguard/pageguard.db"
)

// LocalBackend is the degraded-mode store: a single SQLite file holding
// users, logs, and analysis history. History and logs are capacity-bounded
// (most recent N kept) so degraded mode never grows without bound.
type LocalBackend struct {
	db         *sql.DB
	mu         sync.Mutex
	historyCap int
	logCap     int
}

// NewLocalBackend opens (or creates) the local SQLite store.
func NewLocalBackend(cfg config.StorageConfig) (*LocalBackend, error) {
	path := cfg.LocalPath
	if path == "" {
		path = defaultLocalDB
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}

	b := &LocalBackend{
		db:         db,
		historyCap: cfg.HistoryCap,
		logCap:     cfg.LogCap,
	}
	if b.historyCap <= 0 {
		b.historyCap = defaultHistoryCap
	}
	if b.logCap <= 0 {
		b.logCap = defaultLogCap
	}

	if err := b.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("local store ready at %s (history_cap=%d log_cap=%d)", path, b.historyCap, b.logCap)
	return b, nil
}

func (b *LocalBackend) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_logs_created ON logs(created_at);
	CREATE TABLE IF NOT EXISTS analysis_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		project_name TEXT NOT NULL,
		reference_url TEXT,
		results TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_user ON analysis_history(user_id);
	`
	if _, err := b.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// RegisterUser creates a user; a duplicate email is ErrUserExists.
func (b *LocalBackend) RegisterUser(ctx context.Context, email, name string) (*types.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var existing string
	err := b.db.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&existing)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query user: %w", err)
	}

	user := &types.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err = b.db.ExecContext(ctx,
		"INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Email, user.Name, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// LoginUser looks a user up by email. In degraded mode an unknown email is
// auto-created so local demo sessions work without a registration step; this
// is intentional zero-friction behavior, not an auth mechanism.
func (b *LocalBackend) LoginUser(ctx context.Context, email string) (*types.User, error) {
	b.mu.Lock()
	user := &types.User{}
	err := b.db.QueryRowContext(ctx,
		"SELECT id, email, name, created_at FROM users WHERE email = ?", email).
		Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	b.mu.Unlock()

	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return b.RegisterUser(ctx, email, email)
}

// AddLog appends one audit record and evicts beyond the cap. The retained
// set is computed from the snapshot inside the same transaction as the
// insert, so concurrent appends are never dropped by a stale truncation.
func (b *LocalBackend) AddLog(ctx context.Context, userID, userName, action, details string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO logs (id, user_id, user_name, action, details, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.NewString(), userID, userName, action, details, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM logs WHERE id NOT IN (
			SELECT id FROM logs ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, b.logCap)
	if err != nil {
		return fmt.Errorf("evict logs: %w", err)
	}
	return tx.Commit()
}

// Logs returns audit records, newest first.
func (b *LocalBackend) Logs(ctx context.Context) ([]types.LogEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, err := b.db.QueryContext(ctx,
		"SELECT id, user_id, user_name, action, details, created_at FROM logs ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var entries []types.LogEntry
	for rows.Next() {
		var e types.LogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.Action, &e.Details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveSession stores one analysis session. Results are serialized to a JSON
// column; the whole record is written atomically with cap eviction.
func (b *LocalBackend) SaveSession(ctx context.Context, session types.AnalysisSession) (*types.AnalysisSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Timestamp.IsZero() {
		session.Timestamp = time.Now().UTC()
	}
	results, err := json.Marshal(session.Results)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO analysis_history (id, user_id, project_name, reference_url, results, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		session.ID, session.UserID, session.ProjectName, session.ReferenceURL, string(results), session.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM analysis_history WHERE id NOT IN (
			SELECT id FROM analysis_history ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, b.historyCap)
	if err != nil {
		return nil, fmt.Errorf("evict history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &session, nil
}

// History returns the owner's sessions, newest first. Other users' records
// are never visible.
func (b *LocalBackend) History(ctx context.Context, userID string) ([]types.AnalysisSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, err := b.db.QueryContext(ctx, `
		SELECT id, user_id, project_name, reference_url, results, created_at
		FROM analysis_history WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var sessions []types.AnalysisSession
	for rows.Next() {
		var s types.AnalysisSession
		var results string
		if err := rows.Scan(&s.ID, &s.UserID, &s.ProjectName, &s.ReferenceURL, &results, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if err := json.Unmarshal([]byte(results), &s.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results for %s: %w", s.ID, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// DeleteHistory removes one session. Deleting a non-existent id is not an
// error.
func (b *LocalBackend) DeleteHistory(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.db.ExecContext(ctx, "DELETE FROM analysis_history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ClearHistory removes all of one owner's sessions. Idempotent.
func (b *LocalBackend) ClearHistory(ctx context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.db.ExecContext(ctx, "DELETE FROM analysis_history WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *LocalBackend) Close() error {
	return b.db.Close()
}
