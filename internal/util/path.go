// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SanitizeFilename reduces an upload's declared filename to its base
// component so names like "../../etc/passwd" cannot escape the target
// directory.
func SanitizeFilename(name string) (string, error) {
	base := filepath.Base(name)
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("invalid filename: %q", name)
	}
	return base, nil
}

// SafeJoinPath joins elem onto base and verifies the result stays
// inside base. The check runs on absolute paths via filepath.Rel, so a
// sibling directory sharing the base's name prefix is rejected too.
func SafeJoinPath(base string, elem ...string) (string, error) {
	joined := filepath.Join(append([]string{base}, elem...)...)

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base %q: %w", base, err)
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", joined, err)
	}

	rel, err := filepath.Rel(absBase, absJoined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %q", joined, base)
	}

	return joined, nil
}
