package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "mrpdeals-service-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestUser(t *testing.T, db *sql.DB, email, role string) model.User {
	t.Helper()
	now := time.Now()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

type dealSpec struct {
	title        string
	slug         string
	displayOrder int64 // 0 means none
	isFeatured   bool
	createdAt    time.Time
	status       string
}

func createDealFromSpec(t *testing.T, db *sql.DB, spec dealSpec) model.Deal {
	t.Helper()
	q := store.New(db)
	ctx := context.Background()

	status := spec.status
	if status == "" {
		status = model.DealStatusPublished
	}
	createdAt := spec.createdAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	deal, err := q.CreateDeal(ctx, store.CreateDealParams{
		Title:        spec.title,
		Slug:         spec.slug,
		Description:  "test deal",
		Category:     model.CategoryCloud,
		Tags:         `[]`,
		AccessType:   model.AccessTypeFree,
		AffiliateURL: "https://example.com/go",
		IsFeatured:   spec.isFeatured,
		Status:       status,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	})
	if err != nil {
		t.Fatalf("CreateDeal %q: %v", spec.title, err)
	}

	if spec.displayOrder > 0 {
		err := q.UpdateDealPosition(ctx, store.UpdateDealPositionParams{
			ID:           deal.ID,
			DisplayOrder: sql.NullInt64{Int64: spec.displayOrder, Valid: true},
			UpdatedAt:    createdAt,
		})
		if err != nil {
			t.Fatalf("UpdateDealPosition: %v", err)
		}
		deal.DisplayOrder = sql.NullInt64{Int64: spec.displayOrder, Valid: true}
	}

	return deal
}
