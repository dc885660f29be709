// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package search

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when a query has no searchable term.
var ErrEmptyQuery = errors.New("search: empty query")

// Query is a compiled FTS5 MATCH expression.
type Query struct {
	Expr string
}

type tokenKind int

const (
	tokTerm tokenKind = iota
	tokPhrase
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind   tokenKind
	text   string
	prefix bool
}

// Parse compiles a shaped query into an FTS5 expression over every indexed
// column. Phrases are quoted, *w* and w* become the prefix term "w"*,
// parentheses and operators pass through and other words are quoted.
//
// FTS5 operators are binary, so dangling or doubled operators are dropped
// (AND NOT collapses to NOT), a leading NOT drops the word or group it negates,
// adjacent operands are joined with an explicit AND and unbalanced
// parentheses are repaired.
func Parse(shaped string) (Query, error) {
	var c compiler
	for _, t := range tokenize(shaped) {
		c.add(t)
	}
	expr := c.finish()
	if expr == "" {
		return Query{}, ErrEmptyQuery
	}
	return Query{Expr: expr}, nil
}

func tokenize(s string) []token {
	var toks []token
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		case c == '"':
			end := strings.IndexByte(s[i+1:], '"')
			var phrase string
			if end < 0 {
				phrase, i = s[i+1:], len(s)
			} else {
				phrase, i = s[i+1:i+1+end], i+2+end
			}
			if strings.TrimSpace(phrase) != "" {
				toks = append(toks, token{kind: tokPhrase, text: phrase})
			}
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t\n\r()\"", rune(s[j])) {
				j++
			}
			if t, ok := wordToken(s[i:j]); ok {
				toks = append(toks, t)
			}
			i = j
		}
	}
	return toks
}

func wordToken(w string) (token, bool) {
	if isOperator(w) {
		return token{kind: tokOp, text: w}, true
	}
	prefix := strings.HasSuffix(w, "*")
	w = strings.Trim(w, "*")
	if w == "" {
		return token{}, false
	}
	return token{kind: tokTerm, text: w, prefix: prefix}, true
}

type lastKind int

const (
	lastNone lastKind = iota
	lastOperand
	lastOp
	lastLParen
)

// group remembers the output state at an opening parenthesis so that an
// empty group can be removed again.
type group struct {
	outLen int
	last   lastKind
}

type compiler struct {
	out    []string
	last   lastKind
	groups []group
	// negate is set by a NOT with no left operand. The operand it applies
	// to cannot be expressed in FTS5 and is dropped.
	negate bool
	// skip counts open parentheses of a negated group being dropped.
	skip int
}

func (c *compiler) add(t token) {
	if c.skip > 0 {
		switch t.kind {
		case tokLParen:
			c.skip++
		case tokRParen:
			c.skip--
		}
		return
	}

	switch t.kind {
	case tokTerm, tokPhrase:
		if c.negate {
			c.negate = false
			return
		}
		if c.last == lastOperand {
			c.out = append(c.out, opAnd)
		}
		c.out = append(c.out, quote(t.text, t.prefix))
		c.last = lastOperand

	case tokOp:
		switch {
		case c.last == lastOperand:
			c.out = append(c.out, t.text)
			c.last = lastOp
		case c.last == lastOp && t.text == opNot && c.out[len(c.out)-1] == opAnd:
			c.out[len(c.out)-1] = opNot
		case c.last != lastOp && t.text == opNot:
			c.negate = true
		}

	case tokLParen:
		if c.negate {
			c.negate = false
			c.skip = 1
			return
		}
		g := group{outLen: len(c.out), last: c.last}
		if c.last == lastOperand {
			c.out = append(c.out, opAnd)
		}
		c.out = append(c.out, "(")
		c.groups = append(c.groups, g)
		c.last = lastLParen

	case tokRParen:
		if len(c.groups) > 0 {
			c.closeGroup()
		}
	}
}

func (c *compiler) closeGroup() {
	g := c.groups[len(c.groups)-1]
	c.groups = c.groups[:len(c.groups)-1]

	if c.last == lastOp {
		c.out = c.out[:len(c.out)-1]
		c.last = lastOperand
	}
	if c.last == lastLParen {
		c.out = c.out[:g.outLen]
		c.last = g.last
		return
	}
	c.out = append(c.out, ")")
	c.last = lastOperand
}

func (c *compiler) finish() string {
	for len(c.groups) > 0 {
		c.closeGroup()
	}
	if c.last == lastOp {
		c.out = c.out[:len(c.out)-1]
	}
	return strings.Join(c.out, " ")
}

// quote renders s as an FTS5 string, doubling embedded quotes.
func quote(s string, prefix bool) string {
	q := `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	if prefix {
		q += "*"
	}
	return q
}
