// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package search is the full-text pass-through of the blog: it shapes the
// visitor's query, compiles it for an SQLite FTS5 index stored per site and
// locale, and maps ranked hits back to visible posts.
package search

import (
	"strings"
)

// Boolean operators understood by the query syntax.
const (
	opAnd = "AND"
	opOr  = "OR"
	opNot = "NOT"
)

func isOperator(w string) bool {
	return w == opAnd || w == opOr || w == opNot
}

// Shape rewrites a raw visitor query: "+" becomes AND and "-" becomes NOT.
// With wildcard set, every bare word outside double quotes that is not an
// operator is expanded to ("word" OR *word*); quoted phrases are kept
// verbatim. A quote preceded by a backslash does not open or close a phrase.
func Shape(q string, wildcard bool) string {
	q = strings.ReplaceAll(q, "+", " "+opAnd+" ")
	q = strings.ReplaceAll(q, "-", " "+opNot+" ")
	if !wildcard {
		return q
	}

	parts := splitUnescapedQuotes(q)
	out := make([]string, 0, len(parts))
	for i, part := range parts {
		if i%2 == 1 {
			out = append(out, `"`+part+`"`)
			continue
		}
		for _, w := range strings.Fields(part) {
			if isOperator(w) {
				out = append(out, w)
				continue
			}
			out = append(out, `("`+w+`" OR *`+w+`*)`)
		}
	}
	return strings.Join(out, " ")
}

// splitUnescapedQuotes splits s on double quotes not preceded by a
// backslash. Odd indexes of the result lie inside quotes.
func splitUnescapedQuotes(s string) []string {
	var (
		parts []string
		cur   strings.Builder
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == '"' {
			cur.WriteByte('"')
			i++
			continue
		}
		if c == '"' {
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	return append(parts, cur.String())
}
