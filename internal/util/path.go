// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// JoinWithin joins parts onto base and fails if the cleaned result escapes
// base. Configuration values such as locale names end up in index paths,
// so a value like "../x" must not walk out of the search root.
func JoinWithin(base string, parts ...string) (string, error) {
	root := filepath.Clean(base)
	joined := filepath.Join(append([]string{root}, parts...)...)
	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %q", joined, root)
	}
	return joined, nil
}
