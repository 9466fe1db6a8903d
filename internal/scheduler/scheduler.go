// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance: event log retention,
// expired reset code cleanup and GeoIP database reloads.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrpdeals/mrpdeals-go/internal/geoip"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
)

// EventRetention is how long audit events are kept.
const EventRetention = 90 * 24 * time.Hour

// Scheduler owns the cron instance and its maintenance jobs.
type Scheduler struct {
	cron   *cron.Cron
	events *service.EventService
	resets *service.ResetService
	geo    *geoip.Lookup
	logger *slog.Logger
}

// New creates a scheduler. geo may be nil when GeoIP is not configured.
func New(events *service.EventService, resets *service.ResetService, geo *geoip.Lookup, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		events: events,
		resets: resets,
		geo:    geo,
		logger: logger,
	}
}

// Start registers the maintenance jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	// Expired reset codes every 15 minutes.
	if _, err := s.cron.AddFunc("*/15 * * * *", s.purgeExpiredResets); err != nil {
		return err
	}

	// Event retention nightly at 03:30.
	if _, err := s.cron.AddFunc("30 3 * * *", s.pruneEvents); err != nil {
		return err
	}

	// GeoIP reload daily at 04:00, picks up replaced database files.
	if s.geo != nil {
		if _, err := s.cron.AddFunc("0 4 * * *", s.reloadGeoIP); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) purgeExpiredResets() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.resets.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("failed to purge expired reset codes", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("purged expired reset codes", "count", n)
	}
}

func (s *Scheduler) pruneEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.events.DeleteOldEvents(ctx, EventRetention)
	if err != nil {
		s.logger.Error("failed to prune old events", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("pruned old events", "count", n)
	}
}

func (s *Scheduler) reloadGeoIP() {
	if err := s.geo.Reload(); err != nil {
		s.logger.Warn("failed to reload GeoIP database", "error", err)
	}
}
