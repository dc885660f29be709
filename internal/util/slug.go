// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util holds small helpers shared by the store and the HTTP layer:
// slugs, identifier parsing, filesystem joins and outbound address checks.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	stripMarks   = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify lowercases s, folds accents and collapses every run of other
// characters into a single hyphen. The result never starts or ends with one.
func Slugify(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-"), "-")
}

// SlugOr returns Slugify(s), or fallback when s has no sluggable characters.
func SlugOr(s, fallback string) string {
	if slug := Slugify(s); slug != "" {
		return slug
	}
	return fallback
}

// SplitKeywords splits a comma separated metakeywords value into trimmed,
// non-empty entries.
func SplitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
