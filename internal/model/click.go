// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Device types recorded for click analytics.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// DealClick records a single click-through on a deal's affiliate link.
type DealClick struct {
	ID         int64
	DealID     int64
	UserID     sql.NullInt64
	Browser    string
	OS         string
	DeviceType string
	Country    sql.NullString // ISO 3166-1 alpha-2, when GeoIP is enabled
	CreatedAt  time.Time
}
