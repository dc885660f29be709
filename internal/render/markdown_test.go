// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"strings"
	"testing"
)

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			src:      "Body of *Spring*.",
			contains: []string{"<em>Spring</em>"},
		},
		{
			name:     "heading id",
			src:      "# Release notes",
			contains: []string{`<h1 id="release-notes">`},
		},
		{
			name:     "script removed",
			src:      "hello <script>alert(1)</script>",
			contains: []string{"hello"},
			excludes: []string{"<script", "alert(1)"},
		},
		{
			name:     "javascript link removed",
			src:      "[x](javascript:alert(1))",
			excludes: []string{"javascript:"},
		},
		{
			name:     "gfm table",
			src:      "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "code language class kept",
			src:      "```go\nfmt.Println()\n```",
			contains: []string{`class="language-go"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(Markdown(tt.src))
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Markdown(%q) = %q, missing %q", tt.src, got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("Markdown(%q) = %q, should not contain %q", tt.src, got, bad)
				}
			}
		})
	}
}
