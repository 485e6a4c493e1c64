package preprocessor

import (
	"strconv"
	"strings"

	"github.com/z33toolchain/z33/codemap"
	"github.com/z33toolchain/z33/internal/lex"
	"github.com/z33toolchain/z33/internal/uuid"
)

// ValueKind tags the kind of a #define binding.
type ValueKind int

//go:generate go tool stringer -linecomment -type=ValueKind
const (
	VALUE_NONE   = ValueKind(0) // none
	VALUE_NUMBER = ValueKind(1) // number
	VALUE_STRING = ValueKind(2) // string
)

// Value is the binding of one #define symbol, together with the file
// and span the literal came from so substituted text can be traced to
// its origin.
type Value struct {
	Kind   ValueKind
	Number int32
	Str    string

	File uuid.UUID
	Pos  codemap.Range
}

// expand renders the substitution text for the binding.
func (v Value) expand() string {
	switch v.Kind {
	case VALUE_NUMBER:
		return strconv.FormatInt(int64(v.Number), 10)
	case VALUE_STRING:
		return lex.QuoteString(v.Str)
	}
	return ""
}

type tokenKind int

const (
	tokCode tokenKind = iota
	tokInclude
	tokDefine
	tokIf
	tokElseif
	tokElse
	tokEndif
)

// Expression is a conditional directive's test: defined(NAME) or
// notdefined(NAME).
type Expression struct {
	Negated bool
	Name    string
}

// token is one lexed source element: a run of plain code lines, or a
// single directive line. Directive tokens span the whole line
// including its line break.
type token struct {
	kind tokenKind
	pos  codemap.Range

	path    string // include
	pathPos codemap.Range

	name    string // define
	namePos codemap.Range
	value   Value

	expr Expression // if, elseif
}

// trailOK reports whether rest is empty apart from whitespace and an
// optional // comment.
func trailOK(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\r")
	return rest == "" || strings.HasPrefix(rest, "//")
}

// lexDirective parses one #-directive line. `at` is the absolute
// position of the '#', line the text from there to the line end.
func lexDirective(at int, line string) (tok token, err error) {
	linePos := func(from, to int) codemap.Range {
		return codemap.Range{Start: at + from, End: at + to}
	}
	fail := func(rng codemap.Range, ferr error) {
		err = parseErrAt(rng, ferr)
	}

	name, next := scanIdent(line, 1)
	rest := line[next:]

	switch name {
	case "include":
		tok.kind = tokInclude
		trimmed := strings.TrimLeft(rest, " \t")
		open := len(line) - len(trimmed)
		if !strings.HasPrefix(trimmed, "<") {
			fail(linePos(0, len(line)), ErrIncludeSyntax)
			return
		}
		gt := strings.IndexByte(trimmed, '>')
		if gt < 0 {
			fail(linePos(open, len(line)), ErrIncludeSyntax)
			return
		}
		tok.path = trimmed[1:gt]
		tok.pathPos = linePos(open+1, open+gt)
		if !trailOK(trimmed[gt+1:]) {
			fail(linePos(open+gt+1, len(line)), ErrDirectiveTrail)
			return
		}

	case "define":
		tok.kind = tokDefine
		trimmed := strings.TrimLeft(rest, " \t")
		nameAt := len(line) - len(trimmed)
		sym, symEnd := scanIdent(trimmed, 0)
		if sym == "" {
			fail(linePos(0, len(line)), ErrDefineSyntax)
			return
		}
		tok.name = sym
		tok.namePos = linePos(nameAt, nameAt+symEnd)

		valText := strings.TrimLeft(trimmed[symEnd:], " \t")
		valAt := nameAt + len(trimmed[symEnd:]) - len(valText) + symEnd
		switch {
		case trailOK(valText):
			tok.value = Value{Kind: VALUE_NONE, Pos: tok.namePos}
		case strings.HasPrefix(valText, `"`):
			end := stringEnd(valText)
			if end < 0 {
				fail(linePos(valAt, len(line)), ErrDefineLiteral)
				return
			}
			str, uerr := lex.UnquoteString(valText[:end])
			if uerr != nil {
				fail(linePos(valAt, valAt+end), ErrDefineLiteral)
				return
			}
			if !trailOK(valText[end:]) {
				fail(linePos(valAt+end, len(line)), ErrDirectiveTrail)
				return
			}
			tok.value = Value{Kind: VALUE_STRING, Str: str, Pos: linePos(valAt, valAt+end)}
		default:
			word := valText
			if cut := strings.IndexAny(word, " \t\r"); cut >= 0 {
				word = word[:cut]
			}
			number, nerr := lex.ParseNumber(word)
			if nerr != nil {
				fail(linePos(valAt, valAt+len(word)), ErrDefineLiteral)
				return
			}
			if !trailOK(valText[len(word):]) {
				fail(linePos(valAt+len(word), len(line)), ErrDirectiveTrail)
				return
			}
			tok.value = Value{Kind: VALUE_NUMBER, Number: int32(number), Pos: linePos(valAt, valAt+len(word))}
		}

	case "if", "elseif":
		if name == "if" {
			tok.kind = tokIf
		} else {
			tok.kind = tokElseif
		}
		trimmed := strings.TrimLeft(rest, " \t")
		exprAt := len(line) - len(trimmed)
		fn, fnEnd := scanIdent(trimmed, 0)
		negated := false
		switch fn {
		case "defined":
		case "notdefined":
			negated = true
		default:
			fail(linePos(exprAt, len(line)), ErrExprSyntax)
			return
		}
		if fnEnd >= len(trimmed) || trimmed[fnEnd] != '(' {
			fail(linePos(exprAt, len(line)), ErrExprSyntax)
			return
		}
		sym, symEnd := scanIdent(trimmed, fnEnd+1)
		if sym == "" || symEnd >= len(trimmed) || trimmed[symEnd] != ')' {
			fail(linePos(exprAt, len(line)), ErrExprSyntax)
			return
		}
		if !trailOK(trimmed[symEnd+1:]) {
			fail(linePos(exprAt+symEnd+1, len(line)), ErrDirectiveTrail)
			return
		}
		tok.expr = Expression{Negated: negated, Name: sym}

	case "else", "endif":
		if name == "else" {
			tok.kind = tokElse
		} else {
			tok.kind = tokEndif
		}
		if !trailOK(rest) {
			fail(linePos(next, len(line)), ErrDirectiveTrail)
			return
		}

	default:
		fail(linePos(0, len(line)), ErrDirectiveUnknown)
	}
	return
}

// scanIdent scans an identifier in s starting at `at`.
func scanIdent(s string, at int) (ident string, next int) {
	next = at
	if next >= len(s) || !lex.IsIdentStart(s[next]) {
		return
	}
	for next < len(s) && lex.IsIdentPart(s[next]) {
		next++
	}
	ident = s[at:next]
	return
}

// stringEnd returns the length of the "..." literal prefix of s, or -1
// if the literal never closes.
func stringEnd(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return -1
}

// lexTokens splits source into a token stream: directive lines become
// directive tokens, everything between them coalesces into code
// tokens.
func lexTokens(source string) (tokens []token, err error) {
	codeStart := -1
	flush := func(end int) {
		if codeStart >= 0 && end > codeStart {
			tokens = append(tokens, token{kind: tokCode, pos: codemap.Range{Start: codeStart, End: end}})
		}
		codeStart = -1
	}

	at := 0
	for at < len(source) {
		lineEnd := strings.IndexByte(source[at:], '\n')
		var next int
		if lineEnd < 0 {
			lineEnd = len(source)
			next = lineEnd
		} else {
			lineEnd += at
			next = lineEnd + 1
		}

		line := source[at:lineEnd]
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "#") {
			flush(at)
			hash := at + len(line) - len(trimmed)
			var tok token
			tok, err = lexDirective(hash, source[hash:lineEnd])
			if err != nil {
				return
			}
			tok.pos = codemap.Range{Start: at, End: next}
			tokens = append(tokens, tok)
		} else if codeStart < 0 {
			codeStart = at
		}

		at = next
	}
	flush(len(source))
	return
}
