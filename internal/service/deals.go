// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/ai"
	"github.com/mrpdeals/mrpdeals-go/internal/cache"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
	"github.com/mrpdeals/mrpdeals-go/internal/util"
)

// DealService manages the deal catalog and its display order.
type DealService struct {
	db      *sql.DB
	queries *store.Queries
	cache   *cache.DealCache
	gen     *ai.Generator
	logger  *slog.Logger
}

// NewDealService creates a DealService. dealCache and gen may be nil,
// disabling listing caching and description drafting respectively.
func NewDealService(db *sql.DB, dealCache *cache.DealCache, gen *ai.Generator, logger *slog.Logger) *DealService {
	return &DealService{
		db:      db,
		queries: store.New(db),
		cache:   dealCache,
		gen:     gen,
		logger:  logger,
	}
}

// ResolveOrder sorts deals for the public listing and returns a new
// slice. Deals with an explicit display order come first, ascending.
// A deal with an explicit order always precedes one without. Deals
// without an explicit order fall back to featured first, then newest
// first. Equal deals stay in a stable order by id.
func ResolveOrder(deals []model.Deal) []model.Deal {
	sorted := make([]model.Deal, len(deals))
	copy(sorted, deals)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]

		switch {
		case a.DisplayOrder.Valid && b.DisplayOrder.Valid:
			if a.DisplayOrder.Int64 != b.DisplayOrder.Int64 {
				return a.DisplayOrder.Int64 < b.DisplayOrder.Int64
			}
		case a.DisplayOrder.Valid:
			return true
		case b.DisplayOrder.Valid:
			return false
		default:
			if a.IsFeatured != b.IsFeatured {
				return a.IsFeatured
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})

	return sorted
}

// ListPublished returns published deals in display order, optionally
// filtered by category. Results are served from the listing cache when
// possible.
func (s *DealService) ListPublished(ctx context.Context, category string) ([]model.Deal, error) {
	if s.cache != nil {
		if deals, ok := s.cache.GetList(ctx, category); ok {
			return deals, nil
		}
	}

	deals, err := s.queries.ListPublishedDeals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published deals: %w", err)
	}

	if category != "" {
		filtered := deals[:0]
		for _, d := range deals {
			if d.Category == category {
				filtered = append(filtered, d)
			}
		}
		deals = filtered
	}

	deals = ResolveOrder(deals)

	if s.cache != nil {
		s.cache.SetList(ctx, category, deals)
	}
	return deals, nil
}

// OrderUpdate assigns one deal its position in an explicit reordering.
type OrderUpdate struct {
	ID       int64 `json:"id"`
	Position int64 `json:"position"`
}

// ApplyOrder sets explicit display orders in a single transaction.
// Positions must form the contiguous range 1..N with no duplicates; on
// any error no deal is updated.
func (s *DealService) ApplyOrder(ctx context.Context, orders []OrderUpdate) error {
	if len(orders) == 0 {
		return NewValidationError("orders", "no positions given")
	}

	seen := make(map[int64]bool, len(orders))
	for _, o := range orders {
		if o.Position < 1 || o.Position > int64(len(orders)) {
			return NewValidationError("orders",
				fmt.Sprintf("position %d out of range 1..%d", o.Position, len(orders)))
		}
		if seen[o.Position] {
			return NewValidationError("orders", fmt.Sprintf("duplicate position %d", o.Position))
		}
		seen[o.Position] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	now := time.Now()
	for _, o := range orders {
		if err := qtx.UpdateDealPosition(ctx, store.UpdateDealPositionParams{
			ID:           o.ID,
			DisplayOrder: sql.NullInt64{Int64: o.Position, Valid: true},
			UpdatedAt:    now,
		}); err != nil {
			return fmt.Errorf("set position %d for deal %d: %w", o.Position, o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}

	s.invalidate(ctx)
	return nil
}

// ClearOrder removes the explicit display order from a deal, returning
// it to the featured/newest fallback ordering.
func (s *DealService) ClearOrder(ctx context.Context, id int64) error {
	err := s.queries.UpdateDealPosition(ctx, store.UpdateDealPositionParams{
		ID:        id,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("clear position for deal %d: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

// DealInput holds the fields for creating or updating a deal.
type DealInput struct {
	Title          string
	Description    string
	Category       string
	Tags           []string
	AccessType     string
	ValueHighlight string
	AffiliateURL   string
	ExpiryDate     sql.NullTime
	IsFeatured     bool
	Status         string
}

func validateDealInput(in DealInput) *ValidationError {
	fields := make(map[string]string)

	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "Title is required"
	} else if len(in.Title) > 200 {
		fields["title"] = "Title must be 200 characters or less"
	}

	if !model.ValidDealCategory(in.Category) {
		fields["category"] = "Unknown category"
	}
	if !model.ValidAccessType(in.AccessType) {
		fields["access_type"] = "Unknown access type"
	}
	if !model.ValidDealStatus(in.Status) {
		fields["status"] = "Unknown status"
	}

	if strings.TrimSpace(in.AffiliateURL) == "" {
		fields["affiliate_url"] = "Link is required"
	} else if u, err := url.Parse(in.AffiliateURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		fields["affiliate_url"] = "Link must be a valid http or https URL"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func encodeTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Create validates the input and inserts a new deal with a unique slug
// derived from the title.
func (s *DealService) Create(ctx context.Context, in DealInput) (model.Deal, error) {
	if ve := validateDealInput(in); ve != nil {
		return model.Deal{}, ve
	}

	slug, err := s.uniqueSlug(ctx, in.Title, 0)
	if err != nil {
		return model.Deal{}, err
	}

	now := time.Now()
	deal, err := s.queries.CreateDeal(ctx, store.CreateDealParams{
		Title:          strings.TrimSpace(in.Title),
		Slug:           slug,
		Description:    in.Description,
		Category:       in.Category,
		Tags:           encodeTags(in.Tags),
		AccessType:     in.AccessType,
		ValueHighlight: strings.TrimSpace(in.ValueHighlight),
		AffiliateURL:   strings.TrimSpace(in.AffiliateURL),
		ExpiryDate:     in.ExpiryDate,
		IsFeatured:     in.IsFeatured,
		Status:         in.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return model.Deal{}, fmt.Errorf("create deal: %w", err)
	}

	s.invalidate(ctx)
	return deal, nil
}

// Update validates the input and updates an existing deal. The slug is
// regenerated only when the title changed.
func (s *DealService) Update(ctx context.Context, id int64, in DealInput) (model.Deal, error) {
	if ve := validateDealInput(in); ve != nil {
		return model.Deal{}, ve
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return model.Deal{}, err
	}

	slug := current.Slug
	if strings.TrimSpace(in.Title) != current.Title {
		if slug, err = s.uniqueSlug(ctx, in.Title, id); err != nil {
			return model.Deal{}, err
		}
	}

	err = s.queries.UpdateDeal(ctx, store.UpdateDealParams{
		ID:             id,
		Title:          strings.TrimSpace(in.Title),
		Slug:           slug,
		Description:    in.Description,
		Category:       in.Category,
		Tags:           encodeTags(in.Tags),
		AccessType:     in.AccessType,
		ValueHighlight: strings.TrimSpace(in.ValueHighlight),
		AffiliateURL:   strings.TrimSpace(in.AffiliateURL),
		ExpiryDate:     in.ExpiryDate,
		IsFeatured:     in.IsFeatured,
		Status:         in.Status,
		UpdatedAt:      time.Now(),
	})
	if err != nil {
		return model.Deal{}, fmt.Errorf("update deal %d: %w", id, err)
	}

	s.invalidate(ctx)
	return s.GetByID(ctx, id)
}

// SetStatus changes a deal's publication status.
func (s *DealService) SetStatus(ctx context.Context, id int64, status string) error {
	if !model.ValidDealStatus(status) {
		return NewValidationError("status", "Unknown status")
	}
	err := s.queries.UpdateDealStatus(ctx, store.UpdateDealStatusParams{
		ID:        id,
		Status:    status,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("set status of deal %d: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a deal and its click history.
func (s *DealService) Delete(ctx context.Context, id int64) error {
	if err := s.queries.DeleteDeal(ctx, id); err != nil {
		return fmt.Errorf("delete deal %d: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

// GetByID fetches a deal, mapping a missing row to ErrNotFound.
func (s *DealService) GetByID(ctx context.Context, id int64) (model.Deal, error) {
	deal, err := s.queries.GetDealByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Deal{}, ErrNotFound
	}
	if err != nil {
		return model.Deal{}, fmt.Errorf("get deal %d: %w", id, err)
	}
	return deal, nil
}

// GetBySlug fetches a deal by slug, mapping a missing row to ErrNotFound.
func (s *DealService) GetBySlug(ctx context.Context, slug string) (model.Deal, error) {
	deal, err := s.queries.GetDealBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Deal{}, ErrNotFound
	}
	if err != nil {
		return model.Deal{}, fmt.Errorf("get deal %q: %w", slug, err)
	}
	return deal, nil
}

// List returns deals for the admin table with filters and pagination.
func (s *DealService) List(ctx context.Context, arg store.ListDealsParams) ([]model.Deal, int64, error) {
	deals, err := s.queries.ListDeals(ctx, arg)
	if err != nil {
		return nil, 0, fmt.Errorf("list deals: %w", err)
	}
	total, err := s.queries.CountDeals(ctx, arg)
	if err != nil {
		return nil, 0, fmt.Errorf("count deals: %w", err)
	}
	return deals, total, nil
}

// AIEnabled reports whether description drafting is configured.
func (s *DealService) AIEnabled() bool {
	return s.gen != nil && s.gen.Enabled()
}

// SuggestDescription drafts a Markdown description for a deal using the
// configured AI provider.
func (s *DealService) SuggestDescription(ctx context.Context, title, category, accessType string) (string, error) {
	if s.gen == nil || !s.gen.Enabled() {
		return "", ai.ErrDisabled
	}
	draft, err := s.gen.SuggestDescription(ctx, title, category, accessType)
	if err != nil {
		return "", &RemoteFailure{Op: "openai", Err: err}
	}
	return draft, nil
}

// uniqueSlug derives a slug from the title, appending a numeric suffix
// until it does not collide with another deal. excludeID skips the deal
// being updated.
func (s *DealService) uniqueSlug(ctx context.Context, title string, excludeID int64) (string, error) {
	base := util.Slugify(title)
	if base == "" {
		base = "deal"
	}

	slug := base
	for i := 2; ; i++ {
		existing, err := s.queries.GetDealBySlug(ctx, slug)
		if errors.Is(err, sql.ErrNoRows) {
			return slug, nil
		}
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", slug, err)
		}
		if existing.ID == excludeID {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *DealService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
