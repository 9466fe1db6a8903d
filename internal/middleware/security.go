// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// SecurityHeadersConfig controls the browser security headers attached
// to every response.
type SecurityHeadersConfig struct {
	// IsDevelopment relaxes CSP for local debugging and disables HSTS,
	// which would otherwise pin localhost to HTTPS.
	IsDevelopment bool

	// ContentSecurityPolicy overrides the built policy when non-empty.
	ContentSecurityPolicy string

	// HSTSMaxAge in seconds; 0 disables the header.
	HSTSMaxAge int

	// HSTSIncludeSubDomains extends the HSTS policy to subdomains.
	HSTSIncludeSubDomains bool

	// FrameOptions sets X-Frame-Options; empty omits the header.
	FrameOptions string

	// ReferrerPolicy sets Referrer-Policy; empty omits the header.
	ReferrerPolicy string

	// ExcludePaths skip all security headers, matched by prefix.
	ExcludePaths []string
}

// cspDirective keeps policy output ordered and diff-friendly.
type cspDirective struct {
	name  string
	value string
}

// DefaultSecurityHeadersConfig returns the policy the deals site runs
// with. Pages are server-rendered with one first-party script, so the
// production CSP allows nothing beyond 'self' plus data: images for
// inline SVG placeholders.
func DefaultSecurityHeadersConfig(isDev bool) SecurityHeadersConfig {
	cfg := SecurityHeadersConfig{
		IsDevelopment:  isDev,
		HSTSMaxAge:     31536000, // 1 year
		FrameOptions:   "DENY",
		ReferrerPolicy: "strict-origin-when-cross-origin",
	}

	scriptSrc := "'self'"
	if isDev {
		// Live-reload tooling injects inline scripts and eval.
		scriptSrc = "'self' 'unsafe-inline' 'unsafe-eval'"
	} else {
		cfg.HSTSIncludeSubDomains = true
	}

	cfg.ContentSecurityPolicy = buildCSP([]cspDirective{
		{"default-src", "'self'"},
		{"script-src", scriptSrc},
		{"style-src", "'self'"},
		{"img-src", "'self' data:"},
		{"font-src", "'self'"},
		{"connect-src", "'self'"},
		{"object-src", "'none'"},
		{"base-uri", "'self'"},
		{"form-action", "'self'"},
		{"frame-ancestors", "'none'"},
	})

	return cfg
}

func buildCSP(directives []cspDirective) string {
	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		parts = append(parts, d.name+" "+d.value)
	}
	return strings.Join(parts, "; ")
}

// SecurityHeaders attaches the configured security headers to every
// response not under an excluded path prefix.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range cfg.ExcludePaths {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			h := w.Header()

			if cfg.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}

			if !cfg.IsDevelopment && cfg.HSTSMaxAge > 0 {
				hsts := "max-age=" + strconv.Itoa(cfg.HSTSMaxAge)
				if cfg.HSTSIncludeSubDomains {
					hsts += "; includeSubDomains"
				}
				h.Set("Strict-Transport-Security", hsts)
			}

			if cfg.FrameOptions != "" {
				h.Set("X-Frame-Options", cfg.FrameOptions)
			}
			if cfg.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", cfg.ReferrerPolicy)
			}
			h.Set("X-Content-Type-Options", "nosniff")

			next.ServeHTTP(w, r)
		})
	}
}
