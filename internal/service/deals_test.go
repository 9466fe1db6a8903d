package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/model"
)

func orderedSlugs(deals []model.Deal) []string {
	slugs := make([]string, len(deals))
	for i, d := range deals {
		slugs[i] = d.Slug
	}
	return slugs
}

func TestResolveOrder_ExplicitBeforeImplicit(t *testing.T) {
	now := time.Now()
	older := now.Add(-time.Hour)

	// B is featured but has no explicit order; A holds position 1; C is
	// an older deal without order. Explicit positions always win.
	deals := []model.Deal{
		{ID: 2, Slug: "b", IsFeatured: true, CreatedAt: now},
		{ID: 1, Slug: "a", DisplayOrder: sql.NullInt64{Int64: 1, Valid: true}, CreatedAt: now},
		{ID: 3, Slug: "c", CreatedAt: older},
	}

	got := orderedSlugs(ResolveOrder(deals))
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestResolveOrder(t *testing.T) {
	now := time.Now()
	older := now.Add(-time.Hour)
	oldest := now.Add(-2 * time.Hour)

	tests := []struct {
		name  string
		deals []model.Deal
		want  []string
	}{
		{
			name: "explicit orders ascending",
			deals: []model.Deal{
				{ID: 1, Slug: "third", DisplayOrder: sql.NullInt64{Int64: 3, Valid: true}},
				{ID: 2, Slug: "first", DisplayOrder: sql.NullInt64{Int64: 1, Valid: true}},
				{ID: 3, Slug: "second", DisplayOrder: sql.NullInt64{Int64: 2, Valid: true}},
			},
			want: []string{"first", "second", "third"},
		},
		{
			name: "featured before newest",
			deals: []model.Deal{
				{ID: 1, Slug: "newest", CreatedAt: now},
				{ID: 2, Slug: "featured", IsFeatured: true, CreatedAt: oldest},
				{ID: 3, Slug: "middle", CreatedAt: older},
			},
			want: []string{"featured", "newest", "middle"},
		},
		{
			name: "newest first within featured",
			deals: []model.Deal{
				{ID: 1, Slug: "feat-old", IsFeatured: true, CreatedAt: older},
				{ID: 2, Slug: "feat-new", IsFeatured: true, CreatedAt: now},
			},
			want: []string{"feat-new", "feat-old"},
		},
		{
			name: "identical timestamps fall back to id",
			deals: []model.Deal{
				{ID: 9, Slug: "nine", CreatedAt: now},
				{ID: 3, Slug: "three", CreatedAt: now},
			},
			want: []string{"three", "nine"},
		},
		{
			name: "duplicate explicit order falls back to id",
			deals: []model.Deal{
				{ID: 7, Slug: "seven", DisplayOrder: sql.NullInt64{Int64: 1, Valid: true}},
				{ID: 2, Slug: "two", DisplayOrder: sql.NullInt64{Int64: 1, Valid: true}},
			},
			want: []string{"two", "seven"},
		},
		{
			name:  "empty",
			deals: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := orderedSlugs(ResolveOrder(tt.deals))
			if len(got) != len(tt.want) {
				t.Fatalf("got %d deals, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("order = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestResolveOrder_DoesNotMutateInput(t *testing.T) {
	deals := []model.Deal{
		{ID: 2, Slug: "b"},
		{ID: 1, Slug: "a", DisplayOrder: sql.NullInt64{Int64: 1, Valid: true}},
	}
	_ = ResolveOrder(deals)
	if deals[0].Slug != "b" {
		t.Error("input slice was reordered")
	}
}

func TestApplyOrder_RoundTrip(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewDealService(db, nil, nil, testLogger())

	a := createDealFromSpec(t, db, dealSpec{title: "A", slug: "a"})
	b := createDealFromSpec(t, db, dealSpec{title: "B", slug: "b"})
	c := createDealFromSpec(t, db, dealSpec{title: "C", slug: "c"})

	err := svc.ApplyOrder(ctx, []OrderUpdate{
		{ID: c.ID, Position: 1},
		{ID: a.ID, Position: 2},
		{ID: b.ID, Position: 3},
	})
	if err != nil {
		t.Fatalf("ApplyOrder: %v", err)
	}

	// The listing must come back exactly as applied.
	deals, err := svc.ListPublished(ctx, "")
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	got := orderedSlugs(deals)
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestApplyOrder_RejectsBadPositions(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewDealService(db, nil, nil, testLogger())

	a := createDealFromSpec(t, db, dealSpec{title: "A", slug: "a"})
	b := createDealFromSpec(t, db, dealSpec{title: "B", slug: "b"})

	tests := []struct {
		name   string
		orders []OrderUpdate
	}{
		{"empty", nil},
		{"duplicate position", []OrderUpdate{{ID: a.ID, Position: 1}, {ID: b.ID, Position: 1}}},
		{"position out of range", []OrderUpdate{{ID: a.ID, Position: 1}, {ID: b.ID, Position: 5}}},
		{"zero position", []OrderUpdate{{ID: a.ID, Position: 0}, {ID: b.ID, Position: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ApplyOrder(ctx, tt.orders)
			if _, ok := AsValidationError(err); !ok {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}

	// Nothing may have been written.
	deal, err := svc.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if deal.DisplayOrder.Valid {
		t.Error("display order set despite validation failure")
	}
}

func TestClearOrder(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewDealService(db, nil, nil, testLogger())

	a := createDealFromSpec(t, db, dealSpec{title: "A", slug: "a", displayOrder: 1})

	if err := svc.ClearOrder(ctx, a.ID); err != nil {
		t.Fatalf("ClearOrder: %v", err)
	}

	deal, err := svc.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if deal.DisplayOrder.Valid {
		t.Error("display order still set after ClearOrder")
	}
}

func TestListPublished_FiltersCategoryAndStatus(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewDealService(db, nil, nil, testLogger())

	createDealFromSpec(t, db, dealSpec{title: "Cloud", slug: "cloud"})
	createDealFromSpec(t, db, dealSpec{title: "Draft", slug: "draft", status: model.DealStatusDraft})

	deals, err := svc.ListPublished(ctx, "")
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if len(deals) != 1 || deals[0].Slug != "cloud" {
		t.Fatalf("deals = %v, want only cloud", orderedSlugs(deals))
	}

	none, err := svc.ListPublished(ctx, model.CategoryEducation)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no Education deals, got %v", orderedSlugs(none))
	}
}

func TestCreate_Validation(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewDealService(db, nil, nil, testLogger())

	tests := []struct {
		name  string
		in    DealInput
		field string
	}{
		{
			name:  "missing title",
			in:    DealInput{Category: model.CategoryCloud, AccessType: model.AccessTypeFree, AffiliateURL: "https://x.com/a", Status: model.DealStatusDraft},
			field: "title",
		},
		{
			name:  "bad category",
			in:    DealInput{Title: "T", Category: "Gaming", AccessType: model.AccessTypeFree, AffiliateURL: "https://x.com/a", Status: model.DealStatusDraft},
			field: "category",
		},
		{
			name:  "bad link scheme",
			in:    DealInput{Title: "T", Category: model.CategoryCloud, AccessType: model.AccessTypeFree, AffiliateURL: "javascript:alert(1)", Status: model.DealStatusDraft},
			field: "affiliate_url",
		},
		{
			name:  "missing link",
			in:    DealInput{Title: "T", Category: model.CategoryCloud, AccessType: model.AccessTypeFree, Status: model.DealStatusDraft},
			field: "affiliate_url",
		},
		{
			name:  "bad access type",
			in:    DealInput{Title: "T", Category: model.CategoryCloud, AccessType: "VIP", AffiliateURL: "https://x.com/a", Status: model.DealStatusDraft},
			field: "access_type",
		},
		{
			name:  "bad status",
			in:    DealInput{Title: "T", Category: model.CategoryCloud, AccessType: model.AccessTypeFree, AffiliateURL: "https://x.com/a", Status: "PENDING"},
			field: "status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			ve, ok := AsValidationError(err)
			if !ok {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, found := ve.Fields[tt.field]; !found {
				t.Errorf("expected error on field %q, got %v", tt.field, ve.Fields)
			}
		})
	}
}

func TestCreate_SlugUniqueness(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewDealService(db, nil, nil, testLogger())

	in := DealInput{
		Title:        "Cloud Credits",
		Category:     model.CategoryCloud,
		AccessType:   model.AccessTypeCredit,
		AffiliateURL: "https://example.com/promo",
		Status:       model.DealStatusPublished,
	}

	first, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Slug != "cloud-credits" {
		t.Errorf("slug = %q, want cloud-credits", first.Slug)
	}

	second, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.Slug != "cloud-credits-2" {
		t.Errorf("slug = %q, want cloud-credits-2", second.Slug)
	}
}

func TestUpdate_KeepsSlugWhenTitleUnchanged(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewDealService(db, nil, nil, testLogger())

	deal, err := svc.Create(ctx, DealInput{
		Title:        "Cloud Credits",
		Category:     model.CategoryCloud,
		AccessType:   model.AccessTypeCredit,
		AffiliateURL: "https://example.com/promo",
		Status:       model.DealStatusPublished,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, deal.ID, DealInput{
		Title:        "Cloud Credits",
		Description:  "now with details",
		Category:     model.CategoryCloud,
		AccessType:   model.AccessTypeCredit,
		AffiliateURL: "https://example.com/promo2",
		Status:       model.DealStatusPublished,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Slug != deal.Slug {
		t.Errorf("slug changed from %q to %q", deal.Slug, updated.Slug)
	}
	if updated.Description != "now with details" {
		t.Errorf("description not updated: %q", updated.Description)
	}
}

func TestGetBySlug_NotFound(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	svc := NewDealService(db, nil, nil, testLogger())

	if _, err := svc.GetBySlug(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSuggestDescription_Disabled(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	svc := NewDealService(db, nil, nil, testLogger())

	_, err := svc.SuggestDescription(context.Background(), "T", model.CategoryCloud, model.AccessTypeFree)
	if err == nil {
		t.Fatal("expected error when AI is not configured")
	}
	if IsRemoteFailure(err) {
		t.Error("disabled AI must not report a remote failure")
	}
}
