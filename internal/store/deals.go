// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/model"
)

const dealColumns = `id, title, slug, description, category, tags, access_type,
	value_highlight, affiliate_url, logo_url, expiry_date, is_featured, status,
	display_order, click_count, created_at, updated_at`

func scanDeal(row interface{ Scan(...any) error }) (model.Deal, error) {
	var d model.Deal
	err := row.Scan(&d.ID, &d.Title, &d.Slug, &d.Description, &d.Category, &d.Tags,
		&d.AccessType, &d.ValueHighlight, &d.AffiliateURL, &d.LogoURL, &d.ExpiryDate,
		&d.IsFeatured, &d.Status, &d.DisplayOrder, &d.ClickCount, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func scanDeals(rows *sql.Rows) ([]model.Deal, error) {
	defer rows.Close()
	var deals []model.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// CreateDealParams holds the fields for CreateDeal.
type CreateDealParams struct {
	Title          string
	Slug           string
	Description    string
	Category       string
	Tags           string
	AccessType     string
	ValueHighlight string
	AffiliateURL   string
	LogoURL        sql.NullString
	ExpiryDate     sql.NullTime
	IsFeatured     bool
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateDeal inserts a deal and returns the stored row.
func (q *Queries) CreateDeal(ctx context.Context, arg CreateDealParams) (model.Deal, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO deals (title, slug, description, category, tags, access_type,
			value_highlight, affiliate_url, logo_url, expiry_date, is_featured,
			status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+dealColumns,
		arg.Title, arg.Slug, arg.Description, arg.Category, arg.Tags, arg.AccessType,
		arg.ValueHighlight, arg.AffiliateURL, arg.LogoURL, arg.ExpiryDate,
		arg.IsFeatured, arg.Status, arg.CreatedAt, arg.UpdatedAt)
	return scanDeal(row)
}

// GetDealByID fetches a deal by primary key.
func (q *Queries) GetDealByID(ctx context.Context, id int64) (model.Deal, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = ?`, id)
	return scanDeal(row)
}

// GetDealBySlug fetches a deal by its URL slug.
func (q *Queries) GetDealBySlug(ctx context.Context, slug string) (model.Deal, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE slug = ?`, slug)
	return scanDeal(row)
}

// ListPublishedDeals returns all published deals. Ordering is resolved
// by the deal service, not here.
func (q *Queries) ListPublishedDeals(ctx context.Context) ([]model.Deal, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE status = ?`, model.DealStatusPublished)
	if err != nil {
		return nil, err
	}
	return scanDeals(rows)
}

// ListDealsParams holds filters and pagination for the admin list.
type ListDealsParams struct {
	Search   string
	Category string
	Status   string
	Limit    int64
	Offset   int64
}

func dealFilterClause(arg ListDealsParams) (string, []any) {
	var conds []string
	var args []any
	if arg.Search != "" {
		conds = append(conds, "(title LIKE ? OR description LIKE ?)")
		pattern := "%" + arg.Search + "%"
		args = append(args, pattern, pattern)
	}
	if arg.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, arg.Category)
	}
	if arg.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, arg.Status)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListDeals returns a filtered page of deals for the admin list,
// newest first.
func (q *Queries) ListDeals(ctx context.Context, arg ListDealsParams) ([]model.Deal, error) {
	where, args := dealFilterClause(arg)
	args = append(args, arg.Limit, arg.Offset)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+dealColumns+` FROM deals`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, err
	}
	return scanDeals(rows)
}

// CountDeals returns the number of deals matching the same filters as
// ListDeals.
func (q *Queries) CountDeals(ctx context.Context, arg ListDealsParams) (int64, error) {
	where, args := dealFilterClause(arg)
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals`+where, args...).Scan(&n)
	return n, err
}

// CountDealsByStatus returns the number of deals with the given status.
func (q *Queries) CountDealsByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deals WHERE status = ?`, status).Scan(&n)
	return n, err
}

// SumDealClicks returns the total click count across all deals.
func (q *Queries) SumDealClicks(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(click_count), 0) FROM deals`).Scan(&n)
	return n, err
}

// UpdateDealParams holds the fields for UpdateDeal.
type UpdateDealParams struct {
	ID             int64
	Title          string
	Slug           string
	Description    string
	Category       string
	Tags           string
	AccessType     string
	ValueHighlight string
	AffiliateURL   string
	ExpiryDate     sql.NullTime
	IsFeatured     bool
	Status         string
	UpdatedAt      time.Time
}

// UpdateDeal updates the editable fields of a deal.
func (q *Queries) UpdateDeal(ctx context.Context, arg UpdateDealParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE deals SET title = ?, slug = ?, description = ?, category = ?,
			tags = ?, access_type = ?, value_highlight = ?, affiliate_url = ?,
			expiry_date = ?, is_featured = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		arg.Title, arg.Slug, arg.Description, arg.Category, arg.Tags,
		arg.AccessType, arg.ValueHighlight, arg.AffiliateURL, arg.ExpiryDate,
		arg.IsFeatured, arg.Status, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateDealStatusParams holds the fields for UpdateDealStatus.
type UpdateDealStatusParams struct {
	ID        int64
	Status    string
	UpdatedAt time.Time
}

// UpdateDealStatus switches a deal between published and draft.
func (q *Queries) UpdateDealStatus(ctx context.Context, arg UpdateDealStatusParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE deals SET status = ?, updated_at = ? WHERE id = ?`,
		arg.Status, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateDealLogoParams holds the fields for UpdateDealLogo.
type UpdateDealLogoParams struct {
	ID        int64
	LogoURL   sql.NullString
	UpdatedAt time.Time
}

// UpdateDealLogo sets or clears the logo URL of a deal.
func (q *Queries) UpdateDealLogo(ctx context.Context, arg UpdateDealLogoParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE deals SET logo_url = ?, updated_at = ? WHERE id = ?`,
		arg.LogoURL, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateDealPositionParams holds the fields for UpdateDealPosition.
type UpdateDealPositionParams struct {
	ID           int64
	DisplayOrder sql.NullInt64
	UpdatedAt    time.Time
}

// UpdateDealPosition sets the explicit display order of a deal. Run
// inside a transaction when reordering a batch.
func (q *Queries) UpdateDealPosition(ctx context.Context, arg UpdateDealPositionParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE deals SET display_order = ?, updated_at = ? WHERE id = ?`,
		arg.DisplayOrder, arg.UpdatedAt, arg.ID)
	return err
}

// IncrementDealClickCount bumps the click counter by one.
func (q *Queries) IncrementDealClickCount(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE deals SET click_count = click_count + 1 WHERE id = ?`, id)
	return err
}

// DeleteDeal removes a deal. Click rows cascade.
func (q *Queries) DeleteDeal(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	return err
}
