// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrpdeals/mrpdeals-go/internal/cache"
	"github.com/mrpdeals/mrpdeals-go/internal/imaging"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
	"github.com/mrpdeals/mrpdeals-go/internal/util"
)

// MaxLogoSize is the upload limit for deal logos.
const MaxLogoSize = 5 * 1024 * 1024 // 5 MiB

// DefaultUploadDir is where logos are stored when not configured.
const DefaultUploadDir = "./uploads"

// LogoService handles deal logo uploads.
type LogoService struct {
	queries   *store.Queries
	processor *imaging.Processor
	cache     *cache.DealCache
	logger    *slog.Logger
}

// NewLogoService creates a LogoService storing files under uploadDir.
// dealCache may be nil.
func NewLogoService(db *sql.DB, uploadDir string, dealCache *cache.DealCache, logger *slog.Logger) *LogoService {
	if uploadDir == "" {
		uploadDir = DefaultUploadDir
	}
	return &LogoService{
		queries:   store.New(db),
		processor: imaging.NewProcessor(uploadDir),
		cache:     dealCache,
		logger:    logger,
	}
}

// UploadLogo validates, processes and stores a logo for a deal, then
// returns the public URL path. The previous logo's files are removed.
func (s *LogoService) UploadLogo(ctx context.Context, dealID int64, file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxLogoSize {
		return "", NewValidationError("logo", "Logo must be 5 MB or less")
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxLogoSize+1))
	if err != nil {
		return "", fmt.Errorf("read logo upload: %w", err)
	}
	if int64(len(data)) > MaxLogoSize {
		return "", NewValidationError("logo", "Logo must be 5 MB or less")
	}

	// Sniff the content rather than trusting the declared Content-Type.
	mimeType := s.processor.DetectMimeType(data)
	if !s.processor.IsImage(mimeType) {
		return "", NewValidationError("logo", "Logo must be a JPEG, PNG, GIF or WebP image")
	}

	filename, err := util.SanitizeFilename(header.Filename)
	if err != nil {
		return "", NewValidationError("logo", "Invalid file name")
	}

	deal, err := s.queries.GetDealByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("load deal %d: %w", dealID, err)
	}

	logoUUID := uuid.New().String()
	result, err := s.processor.ProcessLogo(bytes.NewReader(data), logoUUID, filename)
	if err != nil {
		return "", NewValidationError("logo", "Could not process image")
	}

	logoURL := "/uploads/logos/" + logoUUID + "/" + filename
	err = s.queries.UpdateDealLogo(ctx, store.UpdateDealLogoParams{
		ID:        dealID,
		LogoURL:   sql.NullString{String: logoURL, Valid: true},
		UpdatedAt: time.Now(),
	})
	if err != nil {
		_ = s.processor.DeleteLogo(logoUUID)
		return "", fmt.Errorf("store logo for deal %d: %w", dealID, err)
	}

	s.cleanupOldLogo(deal.LogoURL)
	s.logger.Info("deal logo uploaded",
		"deal_id", dealID, "size", result.Size, "dimensions", fmt.Sprintf("%dx%d", result.Width, result.Height))

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return logoURL, nil
}

// RemoveLogo clears a deal's logo and deletes its files.
func (s *LogoService) RemoveLogo(ctx context.Context, dealID int64) error {
	deal, err := s.queries.GetDealByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("load deal %d: %w", dealID, err)
	}

	err = s.queries.UpdateDealLogo(ctx, store.UpdateDealLogoParams{
		ID:        dealID,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("clear logo of deal %d: %w", dealID, err)
	}

	s.cleanupOldLogo(deal.LogoURL)
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return nil
}

// cleanupOldLogo removes the files behind a previous logo URL. Failures
// are logged, not returned: the database already points elsewhere.
func (s *LogoService) cleanupOldLogo(logoURL sql.NullString) {
	if !logoURL.Valid {
		return
	}
	// Logo URLs look like /uploads/logos/<uuid>/<filename>.
	trimmed := strings.TrimPrefix(logoURL.String, "/uploads/logos/")
	if trimmed == logoURL.String {
		return
	}
	logoUUID := path.Dir(trimmed)
	if logoUUID == "." || strings.Contains(logoUUID, "/") {
		return
	}
	if err := s.processor.DeleteLogo(logoUUID); err != nil {
		s.logger.Warn("failed to delete old logo files", "uuid", logoUUID, "error", err)
	}
}
