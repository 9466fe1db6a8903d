// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/model"
)

// CreatePasswordResetParams holds the fields for CreatePasswordReset.
type CreatePasswordResetParams struct {
	UserID    int64
	CodeHash  string
	ExpiresAt time.Time
}

// CreatePasswordReset inserts a pending reset code for a user.
func (q *Queries) CreatePasswordReset(ctx context.Context, arg CreatePasswordResetParams) (model.PasswordReset, error) {
	var p model.PasswordReset
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO password_resets (user_id, code_hash, expires_at)
		VALUES (?, ?, ?)
		RETURNING id, user_id, code_hash, expires_at, used_at, created_at`,
		arg.UserID, arg.CodeHash, arg.ExpiresAt).
		Scan(&p.ID, &p.UserID, &p.CodeHash, &p.ExpiresAt, &p.UsedAt, &p.CreatedAt)
	return p, err
}

// GetActivePasswordReset returns the most recent unused, unexpired
// reset for a user.
func (q *Queries) GetActivePasswordReset(ctx context.Context, userID int64) (model.PasswordReset, error) {
	var p model.PasswordReset
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, code_hash, expires_at, used_at, created_at
		FROM password_resets
		WHERE user_id = ? AND used_at IS NULL AND expires_at > CURRENT_TIMESTAMP
		ORDER BY created_at DESC, id DESC LIMIT 1`, userID).
		Scan(&p.ID, &p.UserID, &p.CodeHash, &p.ExpiresAt, &p.UsedAt, &p.CreatedAt)
	return p, err
}

// MarkPasswordResetUsed consumes a reset code.
func (q *Queries) MarkPasswordResetUsed(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE password_resets SET used_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// InvalidatePasswordResets removes all pending resets for a user.
// Called before issuing a new code so only one is redeemable.
func (q *Queries) InvalidatePasswordResets(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM password_resets WHERE user_id = ? AND used_at IS NULL`, userID)
	return err
}

// DeleteExpiredPasswordResets removes resets that expired before the
// cutoff and returns the number deleted.
func (q *Queries) DeleteExpiredPasswordResets(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM password_resets WHERE expires_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
