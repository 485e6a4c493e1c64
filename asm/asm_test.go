package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z33toolchain/z33/isa"
)

func TestParse_Operands(t *testing.T) {
	p := NewParser()

	cases := []struct {
		text string
		inst isa.Instruction
	}{
		{"nop", isa.Instruction{Op: isa.OP_NOP, Args: isa.NoArgs()}},
		{"add 3, %a", isa.Instruction{Op: isa.OP_ADD, Args: isa.Binary(isa.Imm(3), isa.Reg(1))}},
		{"add -1, %a", isa.Instruction{Op: isa.OP_ADD, Args: isa.Binary(isa.Imm(0xFFFFFFFF), isa.Reg(1))}},
		{"ld 0xFF, %b", isa.Instruction{Op: isa.OP_LD, Args: isa.Binary(isa.Imm(0xFF), isa.Reg(2))}},
		{"ld 0b101, %b", isa.Instruction{Op: isa.OP_LD, Args: isa.Binary(isa.Imm(5), isa.Reg(2))}},
		{"ld [100], %a", isa.Instruction{Op: isa.OP_LD, Args: isa.Binary(isa.Dir(100), isa.Reg(1))}},
		{"ld [%sp], %a", isa.Instruction{Op: isa.OP_LD, Args: isa.Binary(isa.Ind(4), isa.Reg(1))}},
		{"ld [%sp + 3], %a", isa.Instruction{Op: isa.OP_LD, Args: isa.Binary(isa.Idx(4, 3), isa.Reg(1))}},
		{"ld [%sp - 3], %a", isa.Instruction{Op: isa.OP_LD, Args: isa.Binary(isa.Idx(4, -3), isa.Reg(1))}},
		{"st %a, [%b + 2]", isa.Instruction{Op: isa.OP_ST, Args: isa.Binary(isa.Reg(1), isa.Idx(2, 2))}},
		{"jmp 500", isa.Instruction{Op: isa.OP_JMP, Args: isa.Unary(isa.Imm(500))}},
		{"push %sp", isa.Instruction{Op: isa.OP_PUSH, Args: isa.Unary(isa.Reg(4))}},
		{"reset", isa.Instruction{Op: isa.OP_RESET, Args: isa.NoArgs()}},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert := assert.New(t)

			stmts, err := p.Parse(tc.text)
			require.NoError(t, err)
			require.Len(t, stmts, 1)
			assert.Equal(STMT_INSTRUCTION, stmts[0].Kind)
			assert.Equal(tc.inst, stmts[0].Inst)
		})
	}
}

func TestParse_LabelsDirectivesComments(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()
	stmts, err := p.Parse("main: // entry\n.word 42\n.space 3\n.string \"hi\\n\"\njmp main\n")
	require.NoError(t, err)
	require.Len(t, stmts, 6)

	assert.Equal(STMT_LABEL, stmts[0].Kind)
	assert.Equal("main", stmts[0].Label)

	assert.Equal(STMT_COMMENT, stmts[1].Kind)
	assert.Equal(" entry", stmts[1].Text)

	assert.Equal(STMT_DIRECTIVE, stmts[2].Kind)
	assert.Equal(DIR_WORD, stmts[2].Directive)
	assert.Equal(isa.Word(42), stmts[2].Value)

	assert.Equal(DIR_SPACE, stmts[3].Directive)
	assert.Equal(isa.Word(3), stmts[3].Value)

	assert.Equal(DIR_STRING, stmts[4].Directive)
	assert.Equal("hi\n", stmts[4].Text)

	assert.Equal(STMT_INSTRUCTION, stmts[5].Kind)
	assert.Equal("main", stmts[5].LhsSym)
}

func TestParse_Errors(t *testing.T) {
	p := NewParser()

	cases := []struct {
		text string
		want error
	}{
		{"frobnicate 1, %a", ErrMnemonicUnknown},
		{"not 3", ErrOperandNotAllowed},
		{"push [100]", ErrOperandNotAllowed},
		{"st %a, %b", ErrOperandNotAllowed},
		{"add 1", ErrOperandMissing},
		{".string \"open", ErrStringUnterminated},
		{".bogus 1", ErrDirectiveUnknown},
		{"ld [%a + 1, %b", ErrBracketMissing},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert := assert.New(t)

			_, err := p.Parse(tc.text)
			assert.ErrorIs(err, tc.want)

			var pe *ParseError
			assert.ErrorAs(err, &pe)
		})
	}
}

func TestParse_UnknownRegister(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()
	_, err := p.Parse("ld 1, %q")
	var unknown isa.ErrUnknownRegister
	assert.ErrorAs(err, &unknown)
}

func TestFormat_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()
	text := "main:\n" +
		"ld 5, %a\n" +
		"loop:\n" +
		"cmp 1, %a\n" +
		"jge done\n" +
		"sub 1, %a\n" +
		"jmp loop\n" +
		"done:\n" +
		"st %a, [%sp - 2]\n" +
		".word 42\n" +
		".string \"hi\\n\"\n"

	stmts, err := p.Parse(text)
	require.NoError(t, err)
	assert.Equal(text, p.Format(stmts))

	// Formatting is a fixed point.
	again, err := p.Parse(p.Format(stmts))
	require.NoError(t, err)
	assert.Equal(p.Format(stmts), p.Format(again))
}

func TestAssemble_Labels(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()
	prog, err := p.Assemble("start: jmp start\n", 100)
	require.NoError(t, err)
	assert.Equal(100, prog.Labels["start"])

	words := map[int]isa.Word{}
	for at, w := range prog.Words() {
		words[at] = w
	}
	require.Len(t, words, 2)

	inst, err := isa.DecodeWords(words[100], words[101], isa.StandardRegisters)
	assert.NoError(err)
	assert.Equal(isa.Instruction{Op: isa.OP_JMP, Args: isa.Unary(isa.Imm(100))}, inst)
}

func TestAssemble_AddrSections(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()
	prog, err := p.Assemble(".word 1\n.addr 200\n.word 2\n", 0)
	require.NoError(t, err)
	require.Len(t, prog.Sections, 2)
	assert.Equal(0, prog.Sections[0].At)
	assert.Equal(200, prog.Sections[1].At)
	assert.Equal([]isa.Word{1}, prog.Sections[0].Words)
	assert.Equal([]isa.Word{2}, prog.Sections[1].Words)
}

func TestAssemble_MissingLabel(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()
	_, err := p.Assemble("jmp nowhere\n", 0)
	assert.ErrorIs(err, ErrLabelMissing("nowhere"))
}

func TestAssemble_DuplicateLabel(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()
	_, err := p.Assemble("x:\nnop\nx:\n", 0)
	assert.ErrorIs(err, ErrLabelDuplicate)
}
