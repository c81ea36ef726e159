// Copyright 2021 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package wkt

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/lwgeom/pkg/geo/geopb"
)

// LexError is an error that occurs during lexing.
type LexError struct {
	expectedTokType string
	pos             int
	str             string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error: invalid %s at pos %d\n%s\n%s^",
		e.expectedTokType, e.pos, e.str, strings.Repeat(" ", e.pos))
}

// ParseError is an error that occurs during parsing, which happens after lexing.
type ParseError struct {
	problem string
	pos     int
	str     string
	hint    string
}

func (e *ParseError) Error() string {
	err := fmt.Sprintf("%s at pos %d\n%s\n%s^", e.problem, e.pos, e.str, strings.Repeat(" ", e.pos))
	if e.hint != "" {
		err += fmt.Sprintf("\nHINT: %s", e.hint)
	}
	return err
}

type tokenKind int

const (
	eof tokenKind = iota
	lparen
	rparen
	comma
	num
	keyword
	empty
)

func (k tokenKind) String() string {
	switch k {
	case eof:
		return "end of input"
	case lparen:
		return `"("`
	case rparen:
		return `")"`
	case comma:
		return `","`
	case num:
		return "number"
	case keyword:
		return "geometry type"
	case empty:
		return "EMPTY"
	}
	return "token"
}

// dims is the Z/M qualifier written after a type keyword.
type dims struct {
	z, m bool
}

// ndims is 2 when no qualifier was written, which leaves the dimensions to
// the coordinates.
func (d dims) ndims() int {
	return geopb.MakeFlags(d.z, d.m, false).NDims()
}

type token struct {
	kind tokenKind
	pos  int
	num  float64
	typ  geopb.Type
	dims dims
}

// keywords maps each type keyword to its type.
var keywords = func() map[string]geopb.Type {
	m := make(map[string]geopb.Type, geopb.NumTypes)
	for t := geopb.PointType; t < geopb.NumTypes; t++ {
		m[t.String()] = t
	}
	return m
}()

type wktLex struct {
	line    string
	pos     int
	lastPos int
}

func makeWktLex(line string) *wktLex {
	return &wktLex{line: line}
}

// Lex lexes a token from the input.
func (l *wktLex) Lex() (token, error) {
	// Skip leading spaces.
	l.trimLeft()
	l.lastPos = l.pos

	switch c := l.peek(); {
	case c == 0:
		return token{kind: eof, pos: l.pos}, nil
	case c == '(':
		l.next()
		return token{kind: lparen, pos: l.lastPos}, nil
	case c == ')':
		l.next()
		return token{kind: rparen, pos: l.lastPos}, nil
	case c == ',':
		l.next()
		return token{kind: comma, pos: l.lastPos}, nil
	case unicode.IsLetter(c):
		return l.keyword()
	case isNumStart(c):
		return l.num()
	default:
		l.next()
		return token{}, l.lexError("character")
	}
}

func (l *wktLex) word() string {
	var b strings.Builder
	for unicode.IsLetter(l.peek()) {
		b.WriteRune(unicode.ToUpper(l.next()))
	}
	return b.String()
}

// keyword lexes a type keyword with its optional qualifier, which may be
// glued on (POINTZM) or separated by spaces (POINT ZM).
func (l *wktLex) keyword() (token, error) {
	w := l.word()
	if w == "EMPTY" {
		return token{kind: empty, pos: l.lastPos}, nil
	}
	tok := token{kind: keyword, pos: l.lastPos}
	name, suffix := w, ""
	if _, ok := keywords[name]; !ok {
		for _, s := range []string{"ZM", "Z", "M"} {
			if _, ok := keywords[strings.TrimSuffix(w, s)]; ok && strings.HasSuffix(w, s) {
				name, suffix = strings.TrimSuffix(w, s), s
				break
			}
		}
	}
	typ, ok := keywords[name]
	if !ok {
		return token{}, l.lexError("keyword")
	}
	tok.typ = typ
	if suffix == "" {
		suffix = l.qualifier()
	}
	tok.dims = dims{z: strings.Contains(suffix, "Z"), m: strings.Contains(suffix, "M")}
	return tok, nil
}

// qualifier consumes a separate Z, M or ZM word, leaving anything else
// for the next token.
func (l *wktLex) qualifier() string {
	save := l.pos
	l.trimLeft()
	switch w := l.word(); w {
	case "Z", "M", "ZM":
		return w
	}
	l.pos = save
	return ""
}

func isNumStart(r rune) bool {
	switch r {
	case '-', '+', '.':
		return true
	default:
		return unicode.IsDigit(r)
	}
}

// num lexes a number.
func (l *wktLex) num() (token, error) {
	var b strings.Builder
	b.WriteRune(l.next())
	for {
		c := l.peek()
		switch {
		case unicode.IsDigit(c) || c == '.':
		case c == 'e' || c == 'E':
			b.WriteRune(l.next())
			if c := l.peek(); c == '-' || c == '+' {
				b.WriteRune(l.next())
			}
			continue
		default:
			fl, err := strconv.ParseFloat(b.String(), 64)
			if err != nil {
				return token{}, l.lexError("number")
			}
			return token{kind: num, pos: l.lastPos, num: fl}, nil
		}
		b.WriteRune(l.next())
	}
}

func (l *wktLex) peek() rune {
	if l.pos == len(l.line) {
		return 0
	}
	return rune(l.line[l.pos])
}

func (l *wktLex) next() rune {
	c := l.peek()
	if c != 0 {
		l.pos++
	}
	return c
}

func (l *wktLex) trimLeft() {
	for {
		c := l.peek()
		if c == 0 || !unicode.IsSpace(c) {
			break
		}
		l.next()
	}
}

func (l *wktLex) lexError(expectedTokType string) error {
	return &LexError{expectedTokType: expectedTokType, pos: l.lastPos, str: l.line}
}
