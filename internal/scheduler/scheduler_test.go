package scheduler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/mail"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "mrpdeals-scheduler-test-*.db")
	if err != nil {
		t.Fatalf("create temp db: %v", err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := store.NewDB(f.Name())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testScheduler(t *testing.T) *Scheduler {
	t.Helper()

	db := testDB(t)
	logger := testLogger()
	events := service.NewEventService(db, logger)
	resets := service.NewResetService(db, mail.NewLogSender(logger), "MRP Deals", logger)
	return New(events, resets, nil, logger)
}

func TestNew(t *testing.T) {
	s := testScheduler(t)
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.events == nil || s.resets == nil {
		t.Error("New() scheduler missing services")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := testScheduler(t)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("Start() registered %d jobs, want 2", got)
	}

	s.Stop()
}

func TestScheduler_Jobs(t *testing.T) {
	s := testScheduler(t)

	// Jobs run against an empty database without error.
	s.purgeExpiredResets()
	s.pruneEvents()
}

func TestScheduler_PruneEvents(t *testing.T) {
	db := testDB(t)
	logger := testLogger()
	events := service.NewEventService(db, logger)
	resets := service.NewResetService(db, mail.NewLogSender(logger), "MRP Deals", logger)
	s := New(events, resets, nil, logger)

	ctx := context.Background()
	if err := events.LogInfo(ctx, "system", "scheduler test event", nil, nil); err != nil {
		t.Fatalf("LogInfo() error = %v", err)
	}

	s.pruneEvents()

	list, total, err := events.List(ctx, store.ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("recent event was pruned, total = %d", total)
	}

	// Shrink retention so everything is stale.
	n, err := events.DeleteOldEvents(ctx, -time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteOldEvents() = %d, want 1", n)
	}
}
