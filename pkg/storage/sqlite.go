package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/finzap/finzap/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements the Store interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) WasAlertSent(ctx context.Context, userID, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sent_alerts WHERE user_id = ? AND alert_key = ?)`,
		userID, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check alert state: %w", err)
	}
	return exists, nil
}

func (s *SQLite) MarkAlertSent(ctx context.Context, userID, key string) error {
	// Conditional insert on the composite key: marking twice is harmless,
	// including under a concurrent double invocation.
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sent_alerts (user_id, alert_key, sent_at) VALUES (?, ?, ?)`,
		userID, key, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark alert sent: %w", err)
	}
	return nil
}

func (s *SQLite) PruneSentAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sent_alerts WHERE sent_at < ?`, cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune sent alerts: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return removed, nil
}

func (s *SQLite) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, phone, name, plan, messages_used, period_start, created_at, updated_at
		 FROM users WHERE phone = ?`, phone,
	).Scan(&u.ID, &u.Phone, &u.Name, &u.Plan, &u.MessagesUsed, &u.PeriodStart, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *SQLite) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.PeriodStart.IsZero() {
		user.PeriodStart = now
	}
	if user.Plan == "" {
		user.Plan = model.PlanFree
	}
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, phone, name, plan, messages_used, period_start, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Phone, user.Name, user.Plan,
		user.MessagesUsed, user.PeriodStart, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *SQLite) IncrementMessageCount(ctx context.Context, userID string) error {
	return s.updateUser(ctx, userID,
		`UPDATE users SET messages_used = messages_used + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID,
	)
}

func (s *SQLite) StartNewPeriod(ctx context.Context, userID string, start time.Time) error {
	return s.updateUser(ctx, userID,
		`UPDATE users SET messages_used = 0, period_start = ?, updated_at = ? WHERE id = ?`,
		start.UTC(), time.Now().UTC(), userID,
	)
}

func (s *SQLite) SetPlan(ctx context.Context, userID string, plan model.Plan) error {
	return s.updateUser(ctx, userID,
		`UPDATE users SET plan = ?, updated_at = ? WHERE id = ?`,
		plan, time.Now().UTC(), userID,
	)
}

func (s *SQLite) updateUser(ctx context.Context, userID, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
