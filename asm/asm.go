// Package asm parses Z33 assembly text into statements and assembles
// statement lists into binary memory images.
package asm

import (
	"fmt"
	"log"
	"strings"

	"github.com/z33toolchain/z33/codemap"
	"github.com/z33toolchain/z33/internal/lex"
	"github.com/z33toolchain/z33/isa"
)

// StatementKind is the type of one parsed statement.
type StatementKind int

//go:generate go tool stringer -linecomment -type=StatementKind
const (
	STMT_LABEL       = StatementKind(0) // label
	STMT_DIRECTIVE   = StatementKind(1) // directive
	STMT_COMMENT     = StatementKind(2) // comment
	STMT_INSTRUCTION = StatementKind(3) // instruction
)

// DirectiveKind is the type of an assembler directive.
type DirectiveKind int

//go:generate go tool stringer -linecomment -type=DirectiveKind
const (
	DIR_WORD   = DirectiveKind(0) // .word
	DIR_ADDR   = DirectiveKind(1) // .addr
	DIR_SPACE  = DirectiveKind(2) // .space
	DIR_STRING = DirectiveKind(3) // .string
)

// Statement is one parsed assembly statement. The fields beyond Kind
// and Pos are populated according to the kind.
type Statement struct {
	Kind StatementKind
	Pos  codemap.Range

	Label     string
	Directive DirectiveKind
	Value     isa.Word
	Text      string
	Inst      isa.Instruction

	// Unresolved label references in operand positions, patched in
	// as immediates when the program is assembled.
	LhsSym string
	RhsSym string
}

// Parser recognises assembly statements against a register file.
type Parser struct {
	Verbose   bool // Set to enable verbose logging.
	Registers *isa.RegisterFile
}

// NewParser builds a parser over the standard register set.
func NewParser() *Parser {
	return &Parser{Registers: isa.StandardRegisters}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isNumberStart(c byte) bool {
	return c == '-' || (c >= '0' && c <= '9')
}

func isNumberPart(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') ||
		(c >= 'A' && c <= 'F') || c == 'x' || c == 'X'
}

// skipSpace advances over spaces, tabs, carriage returns and newlines.
func skipSpace(src string, at int) int {
	for at < len(src) {
		c := src[at]
		if !isSpace(c) && c != '\n' && c != '\r' {
			break
		}
		at++
	}
	return at
}

// skipInline advances over spaces and tabs only.
func skipInline(src string, at int) int {
	for at < len(src) && isSpace(src[at]) {
		at++
	}
	return at
}

func scanIdent(src string, at int) (ident string, next int) {
	next = at
	if next >= len(src) || !lex.IsIdentStart(src[next]) {
		return
	}
	for next < len(src) && lex.IsIdentPart(src[next]) {
		next++
	}
	ident = src[at:next]
	return
}

func scanNumber(src string, at int) (word string, next int) {
	next = at
	if next < len(src) && src[next] == '-' {
		next++
	}
	for next < len(src) && isNumberPart(src[next]) {
		next++
	}
	word = src[at:next]
	return
}

// scanString returns the raw "..." literal starting at `at`, honouring
// backslash escapes.
func scanString(src string, at int) (raw string, next int, err error) {
	next = at + 1
	for next < len(src) {
		switch src[next] {
		case '\\':
			next += 2
			continue
		case '"':
			next++
			raw = src[at:next]
			return
		case '\n':
			err = parseErrAt(codemap.Range{Start: at, End: next}, ErrStringUnterminated)
			return
		}
		next++
	}
	err = parseErrAt(codemap.Range{Start: at, End: next}, ErrStringUnterminated)
	return
}

// parseOperand parses one operand at `at` and checks it against the
// allowed addressing modes for its position. A bare identifier is a
// label reference, treated as an immediate and resolved at assembly
// time.
func (p *Parser) parseOperand(src string, at int, allowed isa.ModeSet) (arg isa.Argument, sym string, next int, err error) {
	next = skipInline(src, at)
	start := next

	fail := func(ferr error) {
		err = parseErrAt(codemap.Range{Start: start, End: next}, ferr)
	}

	register := func() (code byte, ok bool) {
		next++ // %
		name, after := scanIdent(src, next)
		next = after
		info, found := p.Registers.ByName(name)
		if !found {
			fail(isa.ErrUnknownRegister(name))
			return
		}
		return info.Code, true
	}

	number := func() (value isa.Word, ok bool) {
		word, after := scanNumber(src, next)
		next = after
		if word == "" {
			fail(ErrOperandSyntax)
			return
		}
		value, nerr := lex.ParseNumber(word)
		if nerr != nil {
			fail(nerr)
			return
		}
		return value, true
	}

	switch {
	case next >= len(src):
		fail(ErrOperandMissing)
		return

	case src[next] == '%':
		code, ok := register()
		if !ok {
			return
		}
		arg = isa.Reg(code)

	case src[next] == '[':
		next++
		next = skipInline(src, next)
		if next < len(src) && src[next] == '%' {
			code, ok := register()
			if !ok {
				return
			}
			next = skipInline(src, next)
			if next < len(src) && (src[next] == '+' || src[next] == '-') {
				negate := src[next] == '-'
				next++
				next = skipInline(src, next)
				offset, ok := number()
				if !ok {
					return
				}
				k := int32(offset)
				if negate {
					k = -k
				}
				arg = isa.Idx(code, k)
			} else {
				arg = isa.Ind(code)
			}
		} else {
			addr, ok := number()
			if !ok {
				return
			}
			arg = isa.Dir(addr)
		}
		next = skipInline(src, next)
		if next >= len(src) || src[next] != ']' {
			fail(ErrBracketMissing)
			return
		}
		next++

	case isNumberStart(src[next]):
		value, ok := number()
		if !ok {
			return
		}
		arg = isa.Imm(value)

	case lex.IsIdentStart(src[next]):
		sym, next = scanIdent(src, next)
		arg = isa.Imm(0)

	default:
		fail(ErrOperandSyntax)
		return
	}

	if !allowed.Contains(arg.Mode) {
		fail(ErrOperandNotAllowed)
	}
	return
}

// parseDirective parses a .word/.addr/.space/.string directive whose
// dot is at `at`.
func (p *Parser) parseDirective(src string, at int) (stmt Statement, next int, err error) {
	name, next := scanIdent(src, at+1)
	stmt = Statement{Kind: STMT_DIRECTIVE, Pos: codemap.Range{Start: at}}

	fail := func(ferr error) {
		err = parseErrAt(codemap.Range{Start: at, End: next}, ferr)
	}

	var kind DirectiveKind
	switch name {
	case "word":
		kind = DIR_WORD
	case "addr":
		kind = DIR_ADDR
	case "space":
		kind = DIR_SPACE
	case "string":
		kind = DIR_STRING
	default:
		fail(ErrDirectiveUnknown)
		return
	}
	stmt.Directive = kind

	next = skipInline(src, next)
	if kind == DIR_STRING {
		if next >= len(src) || src[next] != '"' {
			fail(ErrStringUnterminated)
			return
		}
		var raw string
		raw, next, err = scanString(src, next)
		if err != nil {
			return
		}
		var text string
		text, err = lex.UnquoteString(raw)
		if err != nil {
			fail(err)
			return
		}
		stmt.Text = text
	} else {
		word, after := scanNumber(src, next)
		if word == "" {
			fail(ErrOperandMissing)
			return
		}
		next = after
		var value isa.Word
		value, err = lex.ParseNumber(word)
		if err != nil {
			fail(err)
			return
		}
		stmt.Value = value
	}

	stmt.Pos.End = next
	return
}

// parseInstruction parses a mnemonic plus operands. The mnemonic has
// already been scanned.
func (p *Parser) parseInstruction(src string, at int, mnemonic string, next int) (stmt Statement, after int, err error) {
	info, ok := isa.InfoByName(mnemonic)
	if !ok {
		err = parseErrAt(codemap.Range{Start: at, End: next}, ErrMnemonicUnknown)
		return
	}

	stmt = Statement{
		Kind: STMT_INSTRUCTION,
		Pos:  codemap.Range{Start: at},
		Inst: isa.Instruction{Op: info.Code},
	}

	switch info.Arity {
	case isa.ARITY_NONE:
		stmt.Inst.Args = isa.NoArgs()

	case isa.ARITY_UNARY:
		var lhs isa.Argument
		lhs, stmt.LhsSym, next, err = p.parseOperand(src, next, info.Lhs)
		if err != nil {
			return
		}
		stmt.Inst.Args = isa.Unary(lhs)

	case isa.ARITY_BINARY:
		var lhs, rhs isa.Argument
		lhs, stmt.LhsSym, next, err = p.parseOperand(src, next, info.Lhs)
		if err != nil {
			return
		}
		next = skipInline(src, next)
		if next >= len(src) || src[next] != ',' {
			err = parseErrAt(codemap.Range{Start: next, End: next + 1}, ErrOperandMissing)
			return
		}
		next++
		rhs, stmt.RhsSym, next, err = p.parseOperand(src, next, info.Rhs)
		if err != nil {
			return
		}
		stmt.Inst.Args = isa.Binary(lhs, rhs)
	}

	stmt.Pos.End = next
	after = next
	return
}

// ParseStatement parses one statement: a label, a directive, a
// comment, or an instruction. It returns the statement together with
// the position just past it.
func (p *Parser) ParseStatement(src string, at int) (stmt Statement, next int, err error) {
	next = skipSpace(src, at)
	start := next

	switch {
	case next >= len(src):
		err = parseErrAt(codemap.Range{Start: next, End: next}, ErrStatementMissing)
		return

	case strings.HasPrefix(src[next:], "//"):
		end := strings.IndexByte(src[next:], '\n')
		if end < 0 {
			end = len(src) - next
		}
		stmt = Statement{
			Kind: STMT_COMMENT,
			Pos:  codemap.Range{Start: start, End: next + end},
			Text: strings.TrimRight(src[next+2:next+end], "\r"),
		}
		next += end
		return

	case src[next] == '.':
		return p.parseDirective(src, next)

	case lex.IsIdentStart(src[next]):
		ident, after := scanIdent(src, next)
		if after < len(src) && src[after] == ':' {
			stmt = Statement{
				Kind:  STMT_LABEL,
				Pos:   codemap.Range{Start: start, End: after + 1},
				Label: ident,
			}
			next = after + 1
			return
		}
		return p.parseInstruction(src, start, ident, after)

	default:
		err = parseErrAt(codemap.Range{Start: next, End: next + 1}, ErrStatementSyntax)
		return
	}
}

// Parse parses a whole source text into its statement list. The first
// error stops the parse.
func (p *Parser) Parse(src string) (stmts []Statement, err error) {
	at := 0
	for {
		at = skipSpace(src, at)
		if at >= len(src) {
			return
		}

		var stmt Statement
		stmt, at, err = p.ParseStatement(src, at)
		if err != nil {
			return
		}
		if p.Verbose {
			log.Printf("asm: %v", p.FormatStatement(stmt))
		}
		stmts = append(stmts, stmt)
	}
}

// FormatStatement renders one statement in canonical form.
func (p *Parser) FormatStatement(stmt Statement) string {
	switch stmt.Kind {
	case STMT_LABEL:
		return stmt.Label + ":"
	case STMT_COMMENT:
		return "//" + stmt.Text
	case STMT_DIRECTIVE:
		switch stmt.Directive {
		case DIR_STRING:
			return ".string " + lex.QuoteString(stmt.Text)
		case DIR_WORD:
			return fmt.Sprintf(".word %d", stmt.Value)
		case DIR_ADDR:
			return fmt.Sprintf(".addr %d", stmt.Value)
		case DIR_SPACE:
			return fmt.Sprintf(".space %d", stmt.Value)
		}
	case STMT_INSTRUCTION:
		name := stmt.Inst.Info().Name
		operand := func(arg isa.Argument, sym string) string {
			if sym != "" {
				return sym
			}
			return arg.Format(p.Registers)
		}
		switch stmt.Inst.Args.Arity {
		case isa.ARITY_UNARY:
			return name + " " + operand(stmt.Inst.Args.Lhs, stmt.LhsSym)
		case isa.ARITY_BINARY:
			return name + " " + operand(stmt.Inst.Args.Lhs, stmt.LhsSym) +
				", " + operand(stmt.Inst.Args.Rhs, stmt.RhsSym)
		}
		return name
	}
	return ""
}

// Format renders a statement list, one statement per line.
func (p *Parser) Format(stmts []Statement) string {
	var b strings.Builder
	for _, stmt := range stmts {
		b.WriteString(p.FormatStatement(stmt))
		b.WriteByte('\n')
	}
	return b.String()
}
