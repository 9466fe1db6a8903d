// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/auth"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

// Seed creates initial data in the database: the default admin account
// and baseline settings.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	if err := seedAdmin(ctx, queries); err != nil {
		return err
	}
	return seedSettings(ctx, queries)
}

func seedAdmin(ctx context.Context, queries *Queries) error {
	_, err := queries.GetUserByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		Name:         DefaultAdminName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"email", user.Email,
		"password", DefaultAdminPassword,
	)
	return nil
}

// SeedDemo creates a handful of sample deals so a fresh install has
// something to show. It is a no-op when any deal already exists.
func SeedDemo(ctx context.Context, db *sql.DB, doSeed bool) error {
	if !doSeed {
		return nil
	}

	queries := New(db)
	count, err := queries.CountDeals(ctx, ListDealsParams{})
	if err != nil {
		return fmt.Errorf("counting deals: %w", err)
	}
	if count > 0 {
		slog.Info("deals already exist, skipping demo seed")
		return nil
	}

	now := time.Now()
	demos := []CreateDealParams{
		{
			Title:          "Cloud Starter Credits",
			Slug:           "cloud-starter-credits",
			Description:    "Infrastructure credits for new projects on a major cloud provider.",
			Category:       model.CategoryCloud,
			Tags:           `["cloud","credits"]`,
			AccessType:     model.AccessTypeCredit,
			ValueHighlight: "$5,000 in credits",
			AffiliateURL:   "https://partner.example.com/cloud-starter",
			IsFeatured:     true,
			Status:         model.DealStatusPublished,
		},
		{
			Title:          "Team Wiki Pro Trial",
			Slug:           "team-wiki-pro-trial",
			Description:    "Extended trial of a collaborative documentation workspace.",
			Category:       model.CategoryProductivity,
			Tags:           `["docs","collaboration"]`,
			AccessType:     model.AccessTypeTrial,
			ValueHighlight: "6 months free",
			AffiliateURL:   "https://partner.example.com/team-wiki",
			Status:         model.DealStatusPublished,
		},
		{
			Title:          "AI Coding Assistant Discount",
			Slug:           "ai-coding-assistant-discount",
			Description:    "Yearly plan discount on an AI pair programming tool.",
			Category:       model.CategoryAI,
			Tags:           `["ai","devtools"]`,
			AccessType:     model.AccessTypeDiscount,
			ValueHighlight: "40% off first year",
			AffiliateURL:   "https://partner.example.com/ai-assistant",
			Status:         model.DealStatusDraft,
		},
	}

	for _, p := range demos {
		p.CreatedAt = now
		p.UpdatedAt = now
		if _, err := queries.CreateDeal(ctx, p); err != nil {
			return fmt.Errorf("seeding demo deal %s: %w", p.Slug, err)
		}
	}

	slog.Info("seeded demo deals", "count", len(demos))
	return nil
}

// seedSettings inserts baseline settings without overwriting existing
// values. The access code is deliberately left unset; the unlock
// endpoint reports a configuration error until an admin sets it.
func seedSettings(ctx context.Context, queries *Queries) error {
	defaults := map[string]string{
		model.SettingSiteName:    "MRP Deals",
		model.SettingSiteTagline: "Curated deals for makers",
	}

	for key, value := range defaults {
		_, err := queries.GetSetting(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking setting %s: %w", key, err)
		}
		if err := queries.UpsertSetting(ctx, UpsertSettingParams{
			Key:       key,
			Value:     value,
			UpdatedAt: time.Now(),
		}); err != nil {
			return fmt.Errorf("seeding setting %s: %w", key, err)
		}
	}
	return nil
}
