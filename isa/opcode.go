package isa

// Opcode is an instruction opcode.
type Opcode byte

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_ADD   = Opcode(0)  // add
	OP_AND   = Opcode(1)  // and
	OP_CALL  = Opcode(2)  // call
	OP_CMP   = Opcode(3)  // cmp
	OP_DIV   = Opcode(4)  // div
	OP_FAS   = Opcode(5)  // fas
	OP_JMP   = Opcode(6)  // jmp
	OP_JEQ   = Opcode(7)  // jeq
	OP_JNE   = Opcode(8)  // jne
	OP_JLE   = Opcode(9)  // jle
	OP_JLT   = Opcode(10) // jlt
	OP_JGE   = Opcode(11) // jge
	OP_JGT   = Opcode(12) // jgt
	OP_LD    = Opcode(13) // ld
	OP_NOP   = Opcode(14) // nop
	OP_NOT   = Opcode(15) // not
	OP_OR    = Opcode(16) // or
	OP_POP   = Opcode(18) // pop
	OP_PUSH  = Opcode(19) // push
	OP_RESET = Opcode(20) // reset
	OP_RTI   = Opcode(21) // rti
	OP_RTN   = Opcode(22) // rtn
	OP_SHL   = Opcode(23) // shl
	OP_SHR   = Opcode(24) // shr
	OP_ST    = Opcode(25) // st
	OP_SUB   = Opcode(26) // sub
	OP_SWAP  = Opcode(27) // swap
	OP_TRAP  = Opcode(28) // trap
	OP_XOR   = Opcode(29) // xor
)

// Opcode 17 is unassigned; it is reserved together with the in/out
// instructions for future work.

// OpcodeInfo is the static description of one opcode: mnemonic, code,
// privilege, encoding flags, and the acceptable addressing modes for
// each operand position.
type OpcodeInfo struct {
	Name         string
	Code         Opcode
	Privileged   bool
	ReversedArgs bool
	Arity        Arity
	Lhs          ModeSet
	Rhs          ModeSet
}

var opcodeTable = []OpcodeInfo{
	{Name: "add", Code: OP_ADD, Arity: ARITY_BINARY, Lhs: MODES_ALL, Rhs: MODES_REG},
	{Name: "and", Code: OP_AND, Arity: ARITY_BINARY, Lhs: MODES_ALL, Rhs: MODES_REG},
	{Name: "call", Code: OP_CALL, Arity: ARITY_UNARY, Lhs: MODES_ALL},
	{Name: "cmp", Code: OP_CMP, Arity: ARITY_BINARY, Lhs: MODES_ALL, Rhs: MODES_REG},
	{Name: "div", Code: OP_DIV, Arity: ARITY_BINARY, Lhs: MODES_ALL, Rhs: MODES_REG},
	{Name: "fas", Code: OP_FAS, Arity: ARITY_BINARY, Lhs: MODES_MEM, Rhs: MODES_REG},
	{Name: "jmp", Code: OP_JMP, Arity: ARITY_UNARY, Lhs: MODES_ALL},
	{Name: "jeq", Code: OP_JEQ, Arity: ARITY_UNARY, Lhs: MODES_ALL},
	{Name: "jne", Code: OP_JNE, Arity: ARITY_UNARY, Lhs: MODES_ALL},
	{Name: "jle", Code: OP_JLE, Arity: ARITY_UNARY, Lhs: MODES_ALL},
	{Name: "jlt", Code: OP_JLT, Arity: ARITY_UNARY, Lhs: MODES_ALL},
	{Name: "jge", Code: OP_JGE, Arity: ARITY_UNARY, Lhs: MODES_ALL},
	{Name: "jgt", Code: OP_JGT, Arity: ARITY_UNARY, Lhs: MODES_ALL},
	{Name: "ld", Code: OP_LD, Arity: ARITY_BINARY, Lhs: MODES_ALL, Rhs: MODES_REG},
	{Name: "nop", Code: OP_NOP, Arity: ARITY_NONE},
	{Name: "not", Code: OP_NOT, Arity: ARITY_UNARY, Lhs: MODES_REG},
	{Name: "or", Code: OP_OR, Arity: ARITY_BINARY, Lhs: MODES_ALL, Rhs: MODES_REG},
	{Name: "pop", Code: OP_POP, Arity: ARITY_UNARY, Lhs: MODES_REG},
	{Name: "push", Code: OP_PUSH, Arity: ARITY_UNARY, Lhs: MODES_IMM_REG},
	{Name: "reset", Code: OP_RESET, Arity: ARITY_NONE},
	{Name: "rti", Code: OP_RTI, Arity: ARITY_NONE, Privileged: true},
	{Name: "rtn", Code: OP_RTN, Arity: ARITY_NONE},
	{Name: "shl", Code: OP_SHL, Arity: ARITY_BINARY, Lhs: MODES_ALL, Rhs: MODES_REG},
	{Name: "shr", Code: OP_SHR, Arity: ARITY_BINARY, Lhs: MODES_ALL, Rhs: MODES_REG},
	{Name: "st", Code: OP_ST, Arity: ARITY_BINARY, Lhs: MODES_REG, Rhs: MODES_MEM},
	{Name: "sub", Code: OP_SUB, Arity: ARITY_BINARY, Lhs: MODES_ALL, Rhs: MODES_REG},
	{Name: "swap", Code: OP_SWAP, Arity: ARITY_BINARY, Lhs: MODES_REG_MEM, Rhs: MODES_REG},
	{Name: "trap", Code: OP_TRAP, Arity: ARITY_NONE},
	{Name: "xor", Code: OP_XOR, Arity: ARITY_BINARY, Lhs: MODES_ALL, Rhs: MODES_REG},
}

var opcodeByCode = func() map[Opcode]OpcodeInfo {
	m := make(map[Opcode]OpcodeInfo, len(opcodeTable))
	for _, info := range opcodeTable {
		if _, dup := m[info.Code]; dup {
			panic(f("duplicate opcode %v", info.Code))
		}
		m[info.Code] = info
	}
	return m
}()

var opcodeByName = func() map[string]OpcodeInfo {
	m := make(map[string]OpcodeInfo, len(opcodeTable))
	for _, info := range opcodeTable {
		if _, dup := m[info.Name]; dup {
			panic(f("duplicate mnemonic %v", info.Name))
		}
		m[info.Name] = info
	}
	return m
}()

// InfoByCode looks up an opcode description by binary opcode.
func InfoByCode(code Opcode) (info OpcodeInfo, ok bool) {
	info, ok = opcodeByCode[code]
	return
}

// InfoByName looks up an opcode description by mnemonic.
func InfoByName(name string) (info OpcodeInfo, ok bool) {
	info, ok = opcodeByName[name]
	return
}

// Opcodes returns the full opcode table in opcode order.
func Opcodes() []OpcodeInfo {
	return opcodeTable
}

// Instruction is one decoded instruction: an opcode plus its operands.
type Instruction struct {
	Op   Opcode
	Args Arguments
}

// Info returns the static description of the instruction's opcode.
// Unknown opcodes are a programmer error.
func (inst Instruction) Info() OpcodeInfo {
	info, ok := InfoByCode(inst.Op)
	if !ok {
		panic(f("unknown opcode %v", inst.Op))
	}
	return info
}

// Validate checks the operands against the opcode's declared arity and
// acceptable addressing modes.
func (inst Instruction) Validate() (err error) {
	info, ok := InfoByCode(inst.Op)
	if !ok {
		err = ErrOpcodeUnknown
		return
	}
	if inst.Args.Arity != info.Arity {
		err = ErrArityMismatch
		return
	}
	switch info.Arity {
	case ARITY_UNARY:
		if !info.Lhs.Contains(inst.Args.Lhs.Mode) {
			err = ErrModeNotAllowed
		}
	case ARITY_BINARY:
		if !info.Lhs.Contains(inst.Args.Lhs.Mode) || !info.Rhs.Contains(inst.Args.Rhs.Mode) {
			err = ErrModeNotAllowed
		}
	}
	return
}

// Format renders the instruction in canonical assembly syntax,
// resolving register codes to names through rf.
func (inst Instruction) Format(rf *RegisterFile) string {
	name := inst.Info().Name
	switch inst.Args.Arity {
	case ARITY_UNARY:
		return name + " " + inst.Args.Lhs.Format(rf)
	case ARITY_BINARY:
		return name + " " + inst.Args.Lhs.Format(rf) + ", " + inst.Args.Rhs.Format(rf)
	}
	return name
}

func (inst Instruction) String() string {
	return inst.Format(StandardRegisters)
}
