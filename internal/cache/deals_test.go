package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/model"
)

func TestDealCache_RoundTrip(t *testing.T) {
	mem := newTestCache()
	defer func() { _ = mem.Close() }()
	dc := NewDealCache(mem, time.Minute)
	ctx := context.Background()

	if _, ok := dc.GetList(ctx, ""); ok {
		t.Fatal("expected miss on empty cache")
	}

	deals := []model.Deal{
		{ID: 1, Title: "Cloud Credits", Slug: "cloud-credits", Category: model.CategoryCloud},
		{ID: 2, Title: "AI Starter", Slug: "ai-starter", Category: model.CategoryAI},
	}
	dc.SetList(ctx, "", deals)

	got, ok := dc.GetList(ctx, "")
	if !ok {
		t.Fatal("expected hit after SetList")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 deals, got %d", len(got))
	}
	if got[0].ID != 1 || got[0].Slug != "cloud-credits" {
		t.Errorf("unexpected first deal: %+v", got[0])
	}
	if got[1].Category != model.CategoryAI {
		t.Errorf("expected category %s, got %s", model.CategoryAI, got[1].Category)
	}
}

func TestDealCache_CategoryKeys(t *testing.T) {
	mem := newTestCache()
	defer func() { _ = mem.Close() }()
	dc := NewDealCache(mem, time.Minute)
	ctx := context.Background()

	dc.SetList(ctx, model.CategoryCloud, []model.Deal{{ID: 1}})
	dc.SetList(ctx, model.CategoryAI, []model.Deal{{ID: 2}, {ID: 3}})

	cloud, ok := dc.GetList(ctx, model.CategoryCloud)
	if !ok || len(cloud) != 1 {
		t.Fatalf("expected 1 cloud deal, got %d (hit=%v)", len(cloud), ok)
	}
	ai, ok := dc.GetList(ctx, model.CategoryAI)
	if !ok || len(ai) != 2 {
		t.Fatalf("expected 2 ai deals, got %d (hit=%v)", len(ai), ok)
	}
}

func TestDealCache_Invalidate(t *testing.T) {
	mem := newTestCache()
	defer func() { _ = mem.Close() }()
	dc := NewDealCache(mem, time.Minute)
	ctx := context.Background()

	dc.SetList(ctx, "", []model.Deal{{ID: 1}})
	dc.SetList(ctx, model.CategoryCloud, []model.Deal{{ID: 1}})

	// Unrelated keys must survive invalidation.
	if err := mem.Set(ctx, "settings:site", []byte("x"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	dc.Invalidate(ctx)

	if _, ok := dc.GetList(ctx, ""); ok {
		t.Error("expected all listing dropped")
	}
	if _, ok := dc.GetList(ctx, model.CategoryCloud); ok {
		t.Error("expected category listing dropped")
	}
	if _, err := mem.Get(ctx, "settings:site"); err != nil {
		t.Errorf("expected unrelated key kept, got %v", err)
	}
}

func TestDealCache_CorruptEntry(t *testing.T) {
	mem := newTestCache()
	defer func() { _ = mem.Close() }()
	dc := NewDealCache(mem, time.Minute)
	ctx := context.Background()

	if err := mem.Set(ctx, listKey(""), []byte("{not json"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok := dc.GetList(ctx, ""); ok {
		t.Fatal("expected miss for corrupt entry")
	}
	// Corrupt entry should have been evicted.
	if has, _ := mem.Has(ctx, listKey("")); has {
		t.Error("expected corrupt entry evicted")
	}
}
