// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain filename", input: "logo.png", want: "logo.png"},
		{name: "filename with spaces", input: "company logo.png", want: "company logo.png"},
		{name: "traversal stripped to base", input: "../../../etc/passwd", want: "passwd"},
		{name: "directory stripped", input: "uploads/logos/logo.webp", want: "logo.webp"},
		{name: "absolute path stripped", input: "/var/www/logo.jpg", want: "logo.jpg"},
		{name: "empty", input: "", wantErr: true},
		{name: "dot", input: ".", wantErr: true},
		{name: "dot dot", input: "..", wantErr: true},
		{name: "bare slash", input: "/", wantErr: true},
		{name: "trailing slash", input: "logos/", want: "logos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SanitizeFilename(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizeFilename(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSafeJoinPath(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		elem    []string
		wantErr bool
	}{
		{name: "single element", base: "uploads", elem: []string{"logo.png"}},
		{name: "nested elements", base: "uploads", elem: []string{"logos", "abc123", "logo.png"}},
		{name: "base itself", base: "uploads", elem: nil},
		{name: "traversal in element", base: "uploads", elem: []string{"..", "secrets.txt"}, wantErr: true},
		{name: "deep traversal", base: "uploads", elem: []string{"logos", "..", "..", "..", "etc", "passwd"}, wantErr: true},
		{name: "dotdot collapses inside base", base: "uploads", elem: []string{"logos", "..", "other.png"}},
		{name: "sibling with shared prefix", base: "uploads", elem: []string{"..", "uploads-evil", "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoinPath(tt.base, tt.elem...)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SafeJoinPath(%q, %v) = %q, want error", tt.base, tt.elem, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SafeJoinPath(%q, %v) error: %v", tt.base, tt.elem, err)
			}
			if !strings.HasPrefix(got, tt.base) {
				t.Errorf("SafeJoinPath(%q, %v) = %q, want prefix %q", tt.base, tt.elem, got, tt.base)
			}
		})
	}
}
