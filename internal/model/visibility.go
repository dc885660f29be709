// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Visibility is the access tier that gates post display.
type Visibility string

// Visibility levels, ordered by privilege.
const (
	VisibilityPublic   Visibility = "public"
	VisibilityRegister Visibility = "register"
	VisibilityManager  Visibility = "manager"
)

// IsValid reports whether v is a known visibility level.
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityRegister, VisibilityManager:
		return true
	}
	return false
}

// VisibilityFor returns the effective visibility set of a caller.
// The set always contains public and grows with privilege.
func VisibilityFor(authenticated, manager bool) []Visibility {
	set := []Visibility{VisibilityPublic}
	if authenticated || manager {
		set = append(set, VisibilityRegister)
	}
	if manager {
		set = append(set, VisibilityManager)
	}
	return set
}
