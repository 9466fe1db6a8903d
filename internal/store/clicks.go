// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"

	"github.com/mrpdeals/mrpdeals-go/internal/model"
)

// CreateDealClickParams holds the fields for CreateDealClick.
type CreateDealClickParams struct {
	DealID     int64
	UserID     sql.NullInt64
	Browser    string
	OS         string
	DeviceType string
	Country    sql.NullString
}

// CreateDealClick records a click-through on a deal.
func (q *Queries) CreateDealClick(ctx context.Context, arg CreateDealClickParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO deal_clicks (deal_id, user_id, browser, os, device_type, country)
		VALUES (?, ?, ?, ?, ?, ?)`,
		arg.DealID, arg.UserID, arg.Browser, arg.OS, arg.DeviceType, arg.Country)
	return err
}

// ListDealClicksParams holds the fields for ListDealClicks.
type ListDealClicksParams struct {
	DealID int64
	Limit  int64
}

// ListDealClicks returns the most recent clicks for a deal.
func (q *Queries) ListDealClicks(ctx context.Context, arg ListDealClicksParams) ([]model.DealClick, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, deal_id, user_id, browser, os, device_type, country, created_at
		FROM deal_clicks WHERE deal_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`,
		arg.DealID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clicks []model.DealClick
	for rows.Next() {
		var c model.DealClick
		if err := rows.Scan(&c.ID, &c.DealID, &c.UserID, &c.Browser, &c.OS,
			&c.DeviceType, &c.Country, &c.CreatedAt); err != nil {
			return nil, err
		}
		clicks = append(clicks, c)
	}
	return clicks, rows.Err()
}

// CountDealClicks returns the number of recorded clicks for a deal.
func (q *Queries) CountDealClicks(ctx context.Context, dealID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deal_clicks WHERE deal_id = ?`, dealID).Scan(&n)
	return n, err
}
