package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/model"
)

const dealKeyPrefix = "deals:"

// DealCache caches published deal listings in display order.
// Entries are stored as JSON so the same code works with both backends.
type DealCache struct {
	cache Cache
	ttl   time.Duration
}

// NewDealCache wraps a Cache with deal listing helpers.
func NewDealCache(c Cache, ttl time.Duration) *DealCache {
	return &DealCache{cache: c, ttl: ttl}
}

func listKey(category string) string {
	if category == "" {
		category = "all"
	}
	return dealKeyPrefix + "list:" + category
}

// GetList returns the cached listing for a category, or ok=false on a
// miss. Cache errors are treated as misses.
func (d *DealCache) GetList(ctx context.Context, category string) ([]model.Deal, bool) {
	data, err := d.cache.Get(ctx, listKey(category))
	if err != nil {
		return nil, false
	}

	var deals []model.Deal
	if err := json.Unmarshal(data, &deals); err != nil {
		_ = d.cache.Delete(ctx, listKey(category))
		return nil, false
	}
	return deals, true
}

// SetList stores the listing for a category. Failures are ignored since
// the cache is an optimization over the database.
func (d *DealCache) SetList(ctx context.Context, category string, deals []model.Deal) {
	data, err := json.Marshal(deals)
	if err != nil {
		return
	}
	_ = d.cache.Set(ctx, listKey(category), data, d.ttl)
}

// Invalidate drops all cached deal listings. Called after any deal
// write so readers never see stale ordering.
func (d *DealCache) Invalidate(ctx context.Context) {
	_ = d.cache.DeleteByPrefix(ctx, dealKeyPrefix)
}
