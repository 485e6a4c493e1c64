// Package lex implements the number and string literal lexing shared
// by the preprocessor's #define values and the assembler's immediate
// and string operands.
package lex

import (
	"strconv"
	"strings"

	"github.com/z33toolchain/z33/internal/translate"
)

var f = translate.From

// ErrNumberRange reports a literal that does not fit in 32 bits.
type ErrNumberRange string

func (e ErrNumberRange) Error() string {
	return f("numeric literal %v out of 32-bit range", string(e))
}

// ErrBadString reports a malformed string literal.
type ErrBadString string

func (e ErrBadString) Error() string {
	return f("invalid string literal: %v", string(e))
}

// ParseNumber parses a decimal (optionally signed), 0x-hex, or 0b-binary
// literal into its 32-bit bit pattern. Hex and binary literals are bit
// patterns filled verbatim into the 32-bit operand; decimal literals are
// parsed as a signed value and reinterpreted as its two's-complement bits.
func ParseNumber(word string) (value uint32, err error) {
	switch {
	case strings.HasPrefix(word, "0x") || strings.HasPrefix(word, "0X"):
		v, perr := strconv.ParseUint(word[2:], 16, 32)
		if perr != nil {
			err = ErrNumberRange(word)
			return
		}
		value = uint32(v)
	case strings.HasPrefix(word, "0b") || strings.HasPrefix(word, "0B"):
		v, perr := strconv.ParseUint(word[2:], 2, 32)
		if perr != nil {
			err = ErrNumberRange(word)
			return
		}
		value = uint32(v)
	default:
		v, perr := strconv.ParseInt(word, 10, 64)
		if perr != nil {
			err = ErrNumberRange(word)
			return
		}
		if v > 0x7fffffff || v < -0x80000000 {
			err = ErrNumberRange(word)
			return
		}
		value = uint32(int32(v))
	}
	return
}

// UnquoteString decodes a "..."-delimited string literal, resolving the
// escapes \" \n \r \t \0. The input must include the surrounding quotes.
func UnquoteString(raw string) (s string, err error) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		err = ErrBadString(raw)
		return
	}

	body := raw[1 : len(raw)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			err = ErrBadString(raw)
			return
		}
		switch body[i] {
		case '"':
			b.WriteByte('"')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '0':
			b.WriteByte(0)
		default:
			err = ErrBadString(raw)
			return
		}
	}
	s = b.String()
	return
}

// QuoteString renders s as a "..."-delimited literal using the
// escapes \" \n \r \t \0.
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// IsIdentStart reports whether c may start an identifier.
func IsIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsIdentPart reports whether c may continue an identifier.
func IsIdentPart(c byte) bool {
	return IsIdentStart(c) || (c >= '0' && c <= '9')
}
