package vm

import (
	"github.com/z33toolchain/z33/isa"
)

// Memory is a flat, word-addressed array of 32-bit words. Every access
// is bounds checked; addresses outside [0, Size) raise an invalid
// memory access exception.
type Memory struct {
	words []isa.Word
}

// NewMemory allocates a zeroed memory of n words.
func NewMemory(n int) *Memory {
	return &Memory{words: make([]isa.Word, n)}
}

// Size returns the number of addressable words.
func (m *Memory) Size() int {
	return len(m.words)
}

// Read returns the word at addr.
func (m *Memory) Read(addr isa.Word) (value isa.Word, err error) {
	if int(addr) >= len(m.words) {
		err = Exception{Event: EVENT_INVALID_MEMORY_ACCESS}
		return
	}
	value = m.words[addr]
	return
}

// Write stores value at addr.
func (m *Memory) Write(addr isa.Word, value isa.Word) (err error) {
	if int(addr) >= len(m.words) {
		err = Exception{Event: EVENT_INVALID_MEMORY_ACCESS}
		return
	}
	m.words[addr] = value
	return
}

// Clear zeroes the whole memory.
func (m *Memory) Clear() {
	clear(m.words)
}
