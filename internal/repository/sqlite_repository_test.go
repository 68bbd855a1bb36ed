package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"kotvukai/internal/database"
	"kotvukai/internal/domain"
	"kotvukai/internal/infra"
)

func openTestDB(t *testing.T) (domain.SignalRepository, *SQLiteSettingsRepository) {
	t.Helper()
	ctx := context.Background()

	db, err := infra.NewSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.RunSQLiteMigrations(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Migrations are idempotent
	if err := database.RunSQLiteMigrations(ctx, db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	return NewSQLiteSignalRepository(db), NewSQLiteSettingsRepository(db)
}

func TestSQLiteSignalRepository_AppendAndListRecent(t *testing.T) {
	signals, _ := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 25; i++ {
		rec := &domain.SignalRecord{
			Pair:       "BTCUSDT",
			Type:       domain.SignalLong,
			Entry:      40000 + float64(i),
			TakeProfit: 42000,
			StopLoss:   39000,
			Reason:     "breakout",
			Accuracy:   70,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		id, err := signals.Append(ctx, rec)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if id == uuid.Nil || id != rec.ID {
			t.Fatalf("append %d: expected assigned id, got %s", i, id)
		}
		ids = append(ids, id)
	}

	recent, err := signals.ListRecent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != domain.DefaultRecentSignals {
		t.Fatalf("expected %d signals, got %d", domain.DefaultRecentSignals, len(recent))
	}
	if recent[0].ID != ids[24] || recent[19].ID != ids[5] {
		t.Errorf("expected newest first, got %s ... %s", recent[0].ID, recent[19].ID)
	}
	if !recent[0].CreatedAt.Equal(base.Add(24*time.Minute)) || recent[0].Entry != 40024 {
		t.Errorf("unexpected newest record %+v", recent[0])
	}

	few, err := signals.ListRecent(ctx, 3)
	if err != nil || len(few) != 3 {
		t.Errorf("expected 3 signals, got %d (%v)", len(few), err)
	}
	many, _ := signals.ListRecent(ctx, 500)
	if len(many) != domain.DefaultRecentSignals {
		t.Errorf("limit should be capped at %d, got %d", domain.DefaultRecentSignals, len(many))
	}

	if err := signals.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestSQLiteSignalRepository_AssignsCreatedAt(t *testing.T) {
	signals, _ := openTestDB(t)
	ctx := context.Background()

	rec := &domain.SignalRecord{Pair: "ETHUSDT", Type: domain.SignalShort}
	before := time.Now().Add(-time.Second)
	if _, err := signals.Append(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if rec.CreatedAt.Before(before) {
		t.Errorf("expected created_at to be set, got %v", rec.CreatedAt)
	}

	recent, _ := signals.ListRecent(ctx, 1)
	if len(recent) != 1 || recent[0].Pair != "ETHUSDT" || recent[0].Type != domain.SignalShort {
		t.Errorf("unexpected stored record %+v", recent)
	}
}

func TestSQLiteSettingsRepository(t *testing.T) {
	_, settings := openTestDB(t)
	ctx := context.Background()

	if _, err := settings.Get(ctx, "plan_Free"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	for k, v := range map[string]string{"plan_Free": "a", "plan_Pro": "b", "planXPro": "c", "other": "d"} {
		if err := settings.Set(ctx, k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := settings.Set(ctx, "plan_Free", "a2"); err != nil {
		t.Fatal(err)
	}

	v, err := settings.Get(ctx, "plan_Free")
	if err != nil || v != "a2" {
		t.Errorf("expected upserted value a2, got %q (%v)", v, err)
	}

	plans, err := settings.List(ctx, domain.PlanSettingPrefix)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 2 || plans["plan_Pro"] != "b" {
		t.Errorf("expected only plan_ keys, got %v", plans)
	}
}
