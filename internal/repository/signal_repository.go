package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"kotvukai/internal/domain"
)

// SignalRepositoryImpl implements domain.SignalRepository on Postgres
type SignalRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewSignalRepository creates a new SignalRepository
func NewSignalRepository(db *pgxpool.Pool) domain.SignalRepository {
	return &SignalRepositoryImpl{db: db}
}

// clampLimit applies the default page size and caps it
func clampLimit(limit int) int {
	if limit <= 0 || limit > domain.DefaultRecentSignals {
		return domain.DefaultRecentSignals
	}
	return limit
}

// prepareAppend assigns identity and creation time
func prepareAppend(signal *domain.SignalRecord) {
	if signal.ID == uuid.Nil {
		signal.ID = uuid.New()
	}
	if signal.CreatedAt.IsZero() {
		signal.CreatedAt = time.Now().UTC()
	}
}

// Append saves a new signal and returns its ID
func (r *SignalRepositoryImpl) Append(ctx context.Context, signal *domain.SignalRecord) (uuid.UUID, error) {
	prepareAppend(signal)

	query := `
		INSERT INTO signals (
			id, pair, type, entry, tp, sl, reason, accuracy, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.Exec(ctx, query,
		signal.ID,
		signal.Pair,
		signal.Type,
		signal.Entry,
		signal.TakeProfit,
		signal.StopLoss,
		signal.Reason,
		signal.Accuracy,
		signal.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save signal: %w", err)
	}

	return signal.ID, nil
}

// ListRecent retrieves the most recent signals, newest first
func (r *SignalRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]*domain.SignalRecord, error) {
	query := `
		SELECT id, pair, type, entry, tp, sl, reason, accuracy, created_at
		FROM signals
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent signals: %w", err)
	}
	defer rows.Close()

	signals := make([]*domain.SignalRecord, 0)
	for rows.Next() {
		signal := &domain.SignalRecord{}
		err := rows.Scan(
			&signal.ID,
			&signal.Pair,
			&signal.Type,
			&signal.Entry,
			&signal.TakeProfit,
			&signal.StopLoss,
			&signal.Reason,
			&signal.Accuracy,
			&signal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, signal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}

	return signals, nil
}

// Ping checks the connection pool
func (r *SignalRepositoryImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
