// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

// AccessService verifies unlock codes and grants full access to gated
// deal content. The expected code lives only in the settings table and
// is never sent to clients.
type AccessService struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewAccessService creates an AccessService.
func NewAccessService(db *sql.DB, logger *slog.Logger) *AccessService {
	return &AccessService{
		queries: store.New(db),
		logger:  logger,
	}
}

// Unlock checks a submitted code against the configured one and, on a
// match, persists full access for the user. Returns
// ErrNotAuthenticated when userID is nil, ErrAccessCodeNotConfigured
// when no code has been set, and ErrInvalidCode on a mismatch.
func (s *AccessService) Unlock(ctx context.Context, userID *int64, submitted string) error {
	if userID == nil {
		return ErrNotAuthenticated
	}

	expected, err := s.queries.GetSettingValue(ctx, model.SettingAccessCode)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("unlock attempted but access code is not configured", "user_id", *userID)
		return ErrAccessCodeNotConfigured
	}
	if err != nil {
		return fmt.Errorf("load access code: %w", err)
	}

	expected = strings.TrimSpace(expected)
	if expected == "" {
		s.logger.Error("unlock attempted but access code setting is empty", "user_id", *userID)
		return ErrAccessCodeNotConfigured
	}

	submitted = strings.TrimSpace(submitted)
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) != 1 {
		return ErrInvalidCode
	}

	err = s.queries.SetUserFullAccess(ctx, store.SetUserFullAccessParams{
		ID:            *userID,
		HasFullAccess: true,
		UpdatedAt:     time.Now(),
	})
	if err != nil {
		return fmt.Errorf("grant full access to user %d: %w", *userID, err)
	}

	s.logger.Info("full access unlocked", "user_id", *userID)
	return nil
}

// SetAccessCode stores a new unlock code. An empty code disables
// unlocking until a new one is set.
func (s *AccessService) SetAccessCode(ctx context.Context, code string) error {
	err := s.queries.UpsertSetting(ctx, store.UpsertSettingParams{
		Key:       model.SettingAccessCode,
		Value:     strings.TrimSpace(code),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("store access code: %w", err)
	}
	return nil
}

// AccessCodeConfigured reports whether a non-empty unlock code is set.
func (s *AccessService) AccessCodeConfigured(ctx context.Context) (bool, error) {
	value, err := s.queries.GetSettingValue(ctx, model.SettingAccessCode)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load access code: %w", err)
	}
	return strings.TrimSpace(value) != "", nil
}

// RevokeAccess removes a user's full access flag.
func (s *AccessService) RevokeAccess(ctx context.Context, userID int64) error {
	err := s.queries.SetUserFullAccess(ctx, store.SetUserFullAccessParams{
		ID:            userID,
		HasFullAccess: false,
		UpdatedAt:     time.Now(),
	})
	if err != nil {
		return fmt.Errorf("revoke full access of user %d: %w", userID, err)
	}
	return nil
}
