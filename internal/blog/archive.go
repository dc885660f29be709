// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
)

// Years outside this range cannot be stored or rendered as four digits.
const (
	minArchiveYear = 1
	maxArchiveYear = 9999
)

// Archive is a date-bounded listing derived from path segments.
type Archive struct {
	Title string
	Range model.DateRange
}

// ParseArchive interprets the segments below the archive root. One segment
// is a year, two are a year and a month. Months outside 1..12 roll over the
// way time.Date normalizes them. Any other shape, a non-numeric segment or a
// start outside the representable years reports false.
func ParseArchive(segments []string) (Archive, bool) {
	switch len(segments) {
	case 1:
		year, ok := parseNumber(segments[0])
		if !ok {
			return Archive{}, false
		}
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		if !inArchiveRange(start) {
			return Archive{}, false
		}
		return Archive{
			Title: fmt.Sprintf("%04d", start.Year()),
			Range: model.DateRange{Start: start, End: start.AddDate(1, 0, 0)},
		}, true

	case 2:
		year, ok := parseNumber(segments[0])
		if !ok {
			return Archive{}, false
		}
		month, ok := parseNumber(segments[1])
		if !ok {
			return Archive{}, false
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		if !inArchiveRange(start) {
			return Archive{}, false
		}
		return Archive{
			Title: fmt.Sprintf("%02d/%04d", int(start.Month()), start.Year()),
			Range: model.DateRange{Start: start, End: start.AddDate(0, 1, 0)},
		}, true
	}
	return Archive{}, false
}

// SplitArchivePath splits the remainder below the archive root into
// segments. A single trailing separator does not produce an empty segment.
func SplitArchivePath(rest string) []string {
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return nil
	}
	segments := strings.Split(rest, "/")
	if segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}
	return segments
}

// maxNumberDigits bounds segment length so that month rollover can never
// overflow the year.
const maxNumberDigits = 9

// parseNumber accepts plain decimal digits only. Signs, spaces and overly
// long values are rejected.
func parseNumber(s string) (int, bool) {
	if s == "" || len(s) > maxNumberDigits {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func inArchiveRange(t time.Time) bool {
	return t.Year() >= minArchiveYear && t.Year() <= maxArchiveYear
}
