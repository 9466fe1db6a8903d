// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves client IPs to ISO country codes with a MaxMind
// GeoLite2-Country database. Click analytics degrade gracefully when no
// database is configured.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// CodeLocal is recorded for clicks from private or loopback addresses.
const CodeLocal = "LOCAL"

// Lookup wraps a GeoLite2-Country reader. The zero value is unusable;
// call NewLookup and Init first. All methods are safe for concurrent use.
type Lookup struct {
	mu      sync.RWMutex
	reader  *maxminddb.Reader
	path    string
	modTime time.Time
	ready   bool
	enabled bool
}

// countryRecord decodes only the fields we need from the database.
type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// NewLookup creates an uninitialized Lookup.
func NewLookup() *Lookup {
	return &Lookup{}
}

// Init opens the database at path. An empty path disables lookups
// without error so deployments can opt out of geolocation entirely.
func (g *Lookup) Init(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ready = true
	g.path = path

	if path == "" {
		g.enabled = false
		return nil
	}

	return g.open()
}

// open loads or reloads the database file. Caller holds the write lock.
func (g *Lookup) open() error {
	info, err := os.Stat(g.path)
	if err != nil {
		g.enabled = false
		if os.IsNotExist(err) {
			return fmt.Errorf("geoip database not found: %s", g.path)
		}
		return fmt.Errorf("geoip database stat: %w", err)
	}

	// Unchanged on disk, nothing to do.
	if g.reader != nil && info.ModTime().Equal(g.modTime) {
		return nil
	}

	if g.reader != nil {
		_ = g.reader.Close()
		g.reader = nil
	}

	reader, err := maxminddb.Open(g.path)
	if err != nil {
		g.enabled = false
		return fmt.Errorf("geoip database open: %w", err)
	}

	g.reader = reader
	g.modTime = info.ModTime()
	g.enabled = true
	return nil
}

// Reload re-opens the database when the file on disk has changed. The
// scheduler calls this so monthly GeoLite2 updates are picked up
// without a restart.
func (g *Lookup) Reload() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.path == "" {
		return nil
	}
	return g.open()
}

// LookupCountry returns the two-letter ISO country code for ip, CodeLocal
// for private and loopback addresses, or "" when the address is invalid
// or no database is loaded.
func (g *Lookup) LookupCountry(ip string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.ready {
		return ""
	}

	addr := net.ParseIP(ip)
	if addr == nil {
		return ""
	}

	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() {
		return CodeLocal
	}

	if !g.enabled || g.reader == nil {
		return ""
	}

	var rec countryRecord
	if err := g.reader.Lookup(addr, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// IsEnabled reports whether a database is loaded and lookups can
// resolve public addresses.
func (g *Lookup) IsEnabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.enabled
}

// Close releases the database reader.
func (g *Lookup) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.reader == nil {
		return nil
	}
	err := g.reader.Close()
	g.reader = nil
	g.enabled = false
	return err
}

// countryNames covers the markets the directory actually sees traffic
// from; anything else falls back to the raw code.
var countryNames = map[string]string{
	CodeLocal: "Local Network",
	"US":      "United States",
	"GB":      "United Kingdom",
	"CA":      "Canada",
	"AU":      "Australia",
	"DE":      "Germany",
	"FR":      "France",
	"NL":      "Netherlands",
	"ES":      "Spain",
	"IT":      "Italy",
	"SE":      "Sweden",
	"PL":      "Poland",
	"BR":      "Brazil",
	"MX":      "Mexico",
	"IN":      "India",
	"JP":      "Japan",
	"SG":      "Singapore",
	"NZ":      "New Zealand",
	"IE":      "Ireland",
	"CH":      "Switzerland",
}

// CountryName returns a display name for a country code from
// LookupCountry.
func CountryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	if code == "" {
		return "Unknown"
	}
	return code
}
