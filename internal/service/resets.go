// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/auth"
	"github.com/mrpdeals/mrpdeals-go/internal/mail"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

// ResetCodeTTL is how long a password reset code stays valid.
const ResetCodeTTL = 15 * time.Minute

const resetCodeDigits = 6

// ResetService runs the three-step password reset wizard: email entry,
// code verification, new password.
type ResetService struct {
	queries  *store.Queries
	sender   mail.Sender
	siteName string
	logger   *slog.Logger
}

// NewResetService creates a ResetService.
func NewResetService(db *sql.DB, sender mail.Sender, siteName string, logger *slog.Logger) *ResetService {
	return &ResetService{
		queries:  store.New(db),
		sender:   sender,
		siteName: siteName,
		logger:   logger,
	}
}

// Start generates a one-time code for the account with the given email
// and sends it. Returns ErrNotFound for unknown addresses; handlers
// show the same response either way so addresses cannot be probed.
func (s *ResetService) Start(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("look up account %q: %w", email, err)
	}

	code, err := generateResetCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	codeHash, err := auth.HashCode(code)
	if err != nil {
		return fmt.Errorf("hash reset code: %w", err)
	}

	// Only the newest code may be redeemed.
	if err := s.queries.InvalidatePasswordResets(ctx, user.ID); err != nil {
		return fmt.Errorf("invalidate old reset codes: %w", err)
	}

	_, err = s.queries.CreatePasswordReset(ctx, store.CreatePasswordResetParams{
		UserID:    user.ID,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().Add(ResetCodeTTL),
	})
	if err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	minutes := int(ResetCodeTTL.Minutes())
	if err := mail.SendResetCode(s.sender, s.siteName, user.Email, code, minutes); err != nil {
		return fmt.Errorf("send reset code: %w", err)
	}

	s.logger.Info("password reset started", "user_id", user.ID)
	return nil
}

// Verify checks a submitted code without consuming it, so the wizard
// can advance to the password step. Returns ErrInvalidCode when the
// code is wrong, expired or already used.
func (s *ResetService) Verify(ctx context.Context, email, code string) error {
	_, _, err := s.lookupUsableReset(ctx, email, code)
	return err
}

// Complete redeems the code and sets the new password.
func (s *ResetService) Complete(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return NewValidationError("password", "Password must be at least 8 characters")
	}

	user, reset, err := s.lookupUsableReset(ctx, email, code)
	if err != nil {
		return err
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	err = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		ID:           user.ID,
		PasswordHash: passwordHash,
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("update password of user %d: %w", user.ID, err)
	}

	if err := s.queries.MarkPasswordResetUsed(ctx, reset.ID); err != nil {
		return fmt.Errorf("mark reset code used: %w", err)
	}

	s.logger.Info("password reset completed", "user_id", user.ID)
	return nil
}

// PurgeExpired deletes expired reset rows and returns the count.
func (s *ResetService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.queries.DeleteExpiredPasswordResets(ctx, time.Now())
}

func (s *ResetService) lookupUsableReset(ctx context.Context, email, code string) (model.User, model.PasswordReset, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)

	user, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.PasswordReset{}, ErrInvalidCode
	}
	if err != nil {
		return model.User{}, model.PasswordReset{}, fmt.Errorf("look up account %q: %w", email, err)
	}

	reset, err := s.queries.GetActivePasswordReset(ctx, user.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.PasswordReset{}, ErrInvalidCode
	}
	if err != nil {
		return model.User{}, model.PasswordReset{}, fmt.Errorf("load reset code: %w", err)
	}
	if !reset.Usable(time.Now()) {
		return model.User{}, model.PasswordReset{}, ErrInvalidCode
	}

	ok, err := auth.CheckCode(code, reset.CodeHash)
	if err != nil || !ok {
		return model.User{}, model.PasswordReset{}, ErrInvalidCode
	}

	return user, reset, nil
}

// generateResetCode returns a random numeric code with leading zeros
// preserved.
func generateResetCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < resetCodeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", resetCodeDigits, n), nil
}
