package asm

import (
	"iter"

	"github.com/z33toolchain/z33/internal/iterx"
	"github.com/z33toolchain/z33/isa"
)

// Section is a run of consecutive words placed at a base address.
type Section struct {
	At    int
	Words []isa.Word
}

// words iterates the section as address/word pairs.
func (s Section) words() iter.Seq2[int, isa.Word] {
	return func(yield func(int, isa.Word) bool) {
		for n, w := range s.Words {
			if !yield(s.At+n, w) {
				return
			}
		}
	}
}

// Program is an assembled binary image: one section per load address,
// plus the resolved label table.
type Program struct {
	Sections []Section
	Labels   map[string]int
}

// Words iterates every word of the image with its address, across all
// sections in order.
func (prog *Program) Words() iter.Seq2[int, isa.Word] {
	seqs := make([]iter.Seq2[int, isa.Word], len(prog.Sections))
	for n, s := range prog.Sections {
		seqs[n] = s.words()
	}
	return iterx.Concat2(seqs...)
}

// size returns the word count of a statement in the image.
func size(stmt Statement) int {
	switch stmt.Kind {
	case STMT_INSTRUCTION:
		return 2
	case STMT_DIRECTIVE:
		switch stmt.Directive {
		case DIR_WORD:
			return 1
		case DIR_SPACE:
			return int(stmt.Value)
		case DIR_STRING:
			// One word per character plus a terminating zero.
			return len(stmt.Text) + 1
		}
	}
	return 0
}

// Assemble parses src and builds a binary image starting at `at`.
// Labels resolve to the address of the following statement; label
// references in operand positions become immediates. Two passes: the
// first assigns addresses, the second encodes.
func (p *Parser) Assemble(src string, at int) (prog *Program, err error) {
	stmts, err := p.Parse(src)
	if err != nil {
		return
	}

	labels := map[string]int{}
	address := at
	for _, stmt := range stmts {
		switch stmt.Kind {
		case STMT_LABEL:
			if _, dup := labels[stmt.Label]; dup {
				err = parseErrAt(stmt.Pos, ErrLabelDuplicate)
				return
			}
			labels[stmt.Label] = address
		case STMT_DIRECTIVE:
			if stmt.Directive == DIR_ADDR {
				address = int(stmt.Value)
				continue
			}
		}
		address += size(stmt)
	}

	resolve := func(stmt Statement, sym string, arg *isa.Argument) (err error) {
		if sym == "" {
			return
		}
		target, ok := labels[sym]
		if !ok {
			return parseErrAt(stmt.Pos, ErrLabelMissing(sym))
		}
		*arg = isa.Imm(isa.Word(target))
		return
	}

	prog = &Program{Labels: labels}
	section := &Section{At: at}
	flush := func() {
		if len(section.Words) != 0 {
			prog.Sections = append(prog.Sections, *section)
		}
	}

	for _, stmt := range stmts {
		switch stmt.Kind {
		case STMT_DIRECTIVE:
			switch stmt.Directive {
			case DIR_WORD:
				section.Words = append(section.Words, stmt.Value)
			case DIR_SPACE:
				section.Words = append(section.Words, make([]isa.Word, stmt.Value)...)
			case DIR_STRING:
				for _, c := range []byte(stmt.Text) {
					section.Words = append(section.Words, isa.Word(c))
				}
				section.Words = append(section.Words, 0)
			case DIR_ADDR:
				flush()
				section = &Section{At: int(stmt.Value)}
			}

		case STMT_INSTRUCTION:
			inst := stmt.Inst
			if err = resolve(stmt, stmt.LhsSym, &inst.Args.Lhs); err != nil {
				return
			}
			if err = resolve(stmt, stmt.RhsSym, &inst.Args.Rhs); err != nil {
				return
			}
			var hi, lo isa.Word
			hi, lo, err = inst.EncodeWords()
			if err != nil {
				err = parseErrAt(stmt.Pos, err)
				return
			}
			section.Words = append(section.Words, hi, lo)
		}
	}
	flush()
	return
}
