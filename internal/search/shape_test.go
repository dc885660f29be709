// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package search

import (
	"errors"
	"testing"
)

func TestShape(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wildcard bool
		want     string
	}{
		{"operators rewritten", "go+sqlite-mysql", false, "go AND sqlite NOT mysql"},
		{"no wildcard keeps words", "hello world", false, "hello world"},
		{"phrase preserved", `"hello world" foo`, true, `"hello world" ("foo" OR *foo*)`},
		{"operators not expanded", "go+web", true, `("go" OR *go*) AND ("web" OR *web*)`},
		{"explicit OR kept", "go OR rust", true, `("go" OR *go*) OR ("rust" OR *rust*)`},
		{"two phrases", `"a b" x "c d"`, true, `"a b" ("x" OR *x*) "c d"`},
		{"escaped quote is not a delimiter", `say \"hi`, true, `("say" OR *say*) (""hi" OR *"hi*)`},
		{"empty", "", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Shape(tt.in, tt.wildcard); got != tt.want {
				t.Errorf("Shape(%q, %v) = %q, want %q", tt.in, tt.wildcard, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"words", "hello world", `"hello" AND "world"`},
		{"phrase and wildcard group", `"hello world" ("foo" OR *foo*)`, `"hello world" AND ( "foo" OR "foo"* )`},
		{"prefix", "data*", `"data"*`},
		{"binary not", "go  NOT java", `"go" NOT "java"`},
		{"and not collapses", "go AND NOT java", `"go" NOT "java"`},
		{"leading not drops word", " NOT java go", `"go"`},
		{"leading not drops group", ` NOT ("java" OR *java*) go`, `"go"`},
		{"trailing operator", "go AND", `"go"`},
		{"leading operator", "OR go", `"go"`},
		{"doubled operator", "go AND OR rust", `"go" AND "rust"`},
		{"unclosed group", "(go OR rust", `( "go" OR "rust" )`},
		{"stray close", "go) rust", `"go" AND "rust"`},
		{"empty group", "go () rust", `"go" AND "rust"`},
		{"quotes inside words", `it"s`, `"it" AND "s"`},
		{"dangling quote", `say"`, `"say"`},
		{"lowercase operators are words", "and or not", `"and" AND "or" AND "not"`},
		{"unicode", "café", `"café"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got.Expr != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.in, got.Expr, tt.want)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "AND OR", "()", "*", ` NOT java`} {
		if _, err := Parse(in); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Parse(%q) error = %v, want ErrEmptyQuery", in, err)
		}
	}
}

func TestShapeThenParseKeepsPhrase(t *testing.T) {
	q, err := Parse(Shape(`"hello world" foo`, true))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := `"hello world" AND ( "foo" OR "foo"* )`
	if q.Expr != want {
		t.Errorf("Expr = %q, want %q", q.Expr, want)
	}
}
