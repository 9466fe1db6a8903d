// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the HTML templates and compiled static assets so
// the binary ships self-contained.
package web

import "embed"

// Templates holds the layouts, partials and page templates.
//
//go:embed all:templates
var Templates embed.FS

// Static holds the stylesheet and client scripts served at /static/dist/.
//
//go:embed all:static/dist
var Static embed.FS
