package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kotvukai/internal/domain"
)

// SQLiteSignalRepository implements domain.SignalRepository on SQLite.
// Writes are serialized; SQLite allows a single writer.
type SQLiteSignalRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteSignalRepository creates a SQLite-backed SignalRepository
func NewSQLiteSignalRepository(db *sql.DB) domain.SignalRepository {
	return &SQLiteSignalRepository{db: db}
}

func (r *SQLiteSignalRepository) Append(ctx context.Context, signal *domain.SignalRecord) (uuid.UUID, error) {
	prepareAppend(signal)

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO signals (id, pair, type, entry, tp, sl, reason, accuracy, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		signal.ID.String(),
		signal.Pair,
		signal.Type,
		signal.Entry,
		signal.TakeProfit,
		signal.StopLoss,
		signal.Reason,
		signal.Accuracy,
		signal.CreatedAt.UnixMicro(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save signal: %w", err)
	}
	return signal.ID, nil
}

func (r *SQLiteSignalRepository) ListRecent(ctx context.Context, limit int) ([]*domain.SignalRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pair, type, entry, tp, sl, reason, accuracy, created_at
		FROM signals
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent signals: %w", err)
	}
	defer rows.Close()

	signals := make([]*domain.SignalRecord, 0)
	for rows.Next() {
		var (
			s       domain.SignalRecord
			id      string
			created int64
		)
		if err := rows.Scan(&id, &s.Pair, &s.Type, &s.Entry, &s.TakeProfit, &s.StopLoss, &s.Reason, &s.Accuracy, &created); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse signal id %q: %w", id, err)
		}
		s.CreatedAt = time.UnixMicro(created).UTC()
		signals = append(signals, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}
	return signals, nil
}

func (r *SQLiteSignalRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SQLiteSettingsRepository implements domain.SettingsRepository on SQLite
type SQLiteSettingsRepository struct {
	db *sql.DB
	mu sync.Mutex
}

var _ domain.SettingsRepository = (*SQLiteSettingsRepository)(nil)

func NewSQLiteSettingsRepository(db *sql.DB) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{db: db}
}

func (r *SQLiteSettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM system_settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteSettingsRepository) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO system_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteSettingsRepository) List(ctx context.Context, prefix string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM system_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		if strings.HasPrefix(k, prefix) {
			settings[k] = v
		}
	}
	return settings, rows.Err()
}
