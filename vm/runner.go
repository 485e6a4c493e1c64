package vm

import (
	"errors"
	"iter"
	"log"

	"github.com/z33toolchain/z33/isa"
	"github.com/z33toolchain/z33/variation"
)

// StepResult reports what a single step did.
type StepResult int

//go:generate go tool stringer -linecomment -type=StepResult
const (
	STEP_CONTINUE  = StepResult(0) // continue
	STEP_RESET     = StepResult(1) // reset
	STEP_EXCEPTION = StepResult(2) // exception
)

// Runner owns a processor, places program images into its memory, and
// executes them. Before a run the whole memory is decoded once into an
// instruction cache; the cache is read-only during execution.
type Runner struct {
	Verbose bool // Set to enable verbose logging.

	Proc *Processor

	cache []*isa.Instruction
	at    int
}

// NewRunner builds a runner over a fresh processor for the variation.
func NewRunner(v variation.Variation) *Runner {
	return &Runner{
		Proc: NewProcessor(v),
	}
}

// Code encodes each instruction and writes its two machine words at
// consecutive addresses starting at `at`. Each call starts writing at
// its own `at`; the insertion cursor is left after the last word
// written.
func (r *Runner) Code(at int, insts ...isa.Instruction) (err error) {
	r.at = at
	for _, inst := range insts {
		var hi, lo isa.Word
		hi, lo, err = inst.EncodeWords()
		if err != nil {
			err = errors.Join(&EncodeError{At: r.at, Inst: inst}, err)
			return
		}
		if err = r.Proc.Memory.Write(isa.Word(r.at), hi); err != nil {
			return
		}
		if err = r.Proc.Memory.Write(isa.Word(r.at+1), lo); err != nil {
			return
		}
		r.at += 2
	}
	return
}

// Rom places instructions at address 0.
func (r *Runner) Rom(insts ...isa.Instruction) (err error) {
	return r.Code(0, insts...)
}

// InterruptHandler places instructions at the exception vector entry.
func (r *Runner) InterruptHandler(insts ...isa.Instruction) (err error) {
	return r.Code(r.Proc.Variation.VectorAddr, insts...)
}

// Words writes raw data words at consecutive addresses starting at
// `at`.
func (r *Runner) Words(at int, words ...isa.Word) (err error) {
	r.at = at
	for _, w := range words {
		if err = r.Proc.Memory.Write(isa.Word(r.at), w); err != nil {
			return
		}
		r.at++
	}
	return
}

// Load writes an address/word sequence, such as an assembled program
// image, into memory.
func (r *Runner) Load(words iter.Seq2[int, isa.Word]) (err error) {
	for at, w := range words {
		if err = r.Proc.Memory.Write(isa.Word(at), w); err != nil {
			return
		}
	}
	return
}

// buildCache decodes every address once. Slots whose two words do not
// form a valid instruction stay empty and raise an invalid instruction
// exception if executed.
func (r *Runner) buildCache() {
	size := r.Proc.Memory.Size()
	r.cache = make([]*isa.Instruction, size)
	for i := 0; i+1 < size; i++ {
		hi, _ := r.Proc.Memory.Read(isa.Word(i))
		lo, _ := r.Proc.Memory.Read(isa.Word(i + 1))
		inst, err := isa.DecodeWords(hi, lo, r.Proc.Registers)
		if err != nil {
			continue
		}
		r.cache[i] = &inst
	}
}

// Step executes the cached instruction at pc. A raised exception is
// serviced through the processor's exception prologue; only a failure
// of the prologue itself surfaces as an error.
func (r *Runner) Step() (result StepResult, err error) {
	if r.cache == nil {
		r.buildCache()
	}

	var exc error
	pc := int(r.Proc.PC())
	if pc >= len(r.cache) || r.cache[pc] == nil {
		exc = Exception{Event: EVENT_INVALID_INSTRUCTION}
	} else {
		var reset bool
		reset, exc = r.Proc.Execute(*r.cache[pc])
		if reset {
			result = STEP_RESET
			return
		}
	}

	if exc == nil {
		result = STEP_CONTINUE
		return
	}

	var e Exception
	if !errors.As(exc, &e) {
		err = exc
		return
	}

	if err = r.Proc.Service(e); err != nil {
		return
	}
	result = STEP_EXCEPTION
	return
}

// Run builds the instruction cache, starts at address 0, and steps
// until a reset instruction or a fatal error. Serviced exceptions
// continue at the exception vector.
func (r *Runner) Run() (err error) {
	r.Proc.Verbose = r.Verbose

	r.buildCache()
	r.Proc.SetPC(0)

	if r.Verbose {
		log.Printf("vm: run %v words", r.Proc.Memory.Size())
	}

	for {
		var result StepResult
		result, err = r.Step()
		if err != nil {
			return
		}
		if result == STEP_RESET {
			return
		}
	}
}
