// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markdown renders deal descriptions from Markdown to sanitized HTML.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// htmlSanitizer strips dangerous elements like <script> and event
// handlers while keeping the formatting tags descriptions need.
var htmlSanitizer = bluemonday.UGCPolicy()

// Render converts Markdown to sanitized HTML safe for template output.
func Render(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())), nil //nolint:gosec // sanitized above
}

// RenderOrEscape renders Markdown, falling back to escaped plain text if
// conversion fails. Handlers use this so a bad description never breaks
// page rendering.
func RenderOrEscape(src string) template.HTML {
	html, err := Render(src)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(src)) //nolint:gosec // escaped
	}
	return html
}

// Strip converts Markdown to plain text by rendering and sanitizing with
// a policy that removes all tags. Used for meta descriptions and search
// previews.
func Strip(src string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return src
	}
	return bluemonday.StrictPolicy().Sanitize(buf.String())
}
