// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mileusna/useragent"

	"github.com/mrpdeals/mrpdeals-go/internal/geoip"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

// ClickService records click-throughs on deal links for the admin
// analytics view.
type ClickService struct {
	queries *store.Queries
	geo     *geoip.Lookup
	logger  *slog.Logger
}

// NewClickService creates a ClickService. geo may be nil when GeoIP is
// not configured.
func NewClickService(db *sql.DB, geo *geoip.Lookup, logger *slog.Logger) *ClickService {
	return &ClickService{
		queries: store.New(db),
		geo:     geo,
		logger:  logger,
	}
}

// Record stores one click-through and bumps the deal's click counter.
// Browser, OS and device type are parsed from the User-Agent header;
// the country comes from GeoIP when available.
func (s *ClickService) Record(ctx context.Context, dealID int64, userID *int64, ip, userAgent string) error {
	ua := useragent.Parse(userAgent)

	deviceType := "desktop"
	switch {
	case ua.Mobile:
		deviceType = "mobile"
	case ua.Tablet:
		deviceType = "tablet"
	case ua.Bot:
		deviceType = "bot"
	}

	var country sql.NullString
	if s.geo != nil {
		if code := s.geo.LookupCountry(ip); code != "" {
			country = sql.NullString{String: code, Valid: true}
		}
	}

	var nullUserID sql.NullInt64
	if userID != nil {
		nullUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}

	err := s.queries.CreateDealClick(ctx, store.CreateDealClickParams{
		DealID:     dealID,
		UserID:     nullUserID,
		Browser:    ua.Name,
		OS:         ua.OS,
		DeviceType: deviceType,
		Country:    country,
	})
	if err != nil {
		return fmt.Errorf("record click for deal %d: %w", dealID, err)
	}

	if err := s.queries.IncrementDealClickCount(ctx, dealID); err != nil {
		return fmt.Errorf("increment click count of deal %d: %w", dealID, err)
	}
	return nil
}

// ListForDeal returns the click history of one deal, newest first.
func (s *ClickService) ListForDeal(ctx context.Context, dealID, limit int64) ([]model.DealClick, int64, error) {
	clicks, err := s.queries.ListDealClicks(ctx, store.ListDealClicksParams{
		DealID: dealID,
		Limit:  limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list clicks for deal %d: %w", dealID, err)
	}
	total, err := s.queries.CountDealClicks(ctx, dealID)
	if err != nil {
		return nil, 0, fmt.Errorf("count clicks for deal %d: %w", dealID, err)
	}
	return clicks, total, nil
}
