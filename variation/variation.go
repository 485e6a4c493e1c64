// Package variation describes a Z33 machine variation: memory size,
// reserved addresses, and register set. The standard variation is the
// package default; custom variations can be loaded from a small TOML
// document.
package variation

import (
	"github.com/BurntSushi/toml"
)

// Register describes one entry of a variation's register file.
type Register struct {
	Name           string `toml:"name"`
	Code           int    `toml:"code"`
	ReadProtected  bool   `toml:"read_protected"`
	WriteProtected bool   `toml:"write_protected"`
}

// Variation is the set of parameters that distinguish one Z33 machine
// configuration from another.
type Variation struct {
	Name string `toml:"name"`

	// MemoryWords is the number of 32-bit words of addressable memory.
	MemoryWords int `toml:"memory_words"`

	// SavedPC, SavedSR, and EventCode are the reserved exception
	// save-area addresses.
	SavedPC   int `toml:"saved_pc_addr"`
	SavedSR   int `toml:"saved_sr_addr"`
	EventCode int `toml:"event_code_addr"`

	// VectorAddr is the exception vector entry address.
	VectorAddr int `toml:"vector_addr"`

	Registers []Register `toml:"register"`
}

// Standard is the reference Z33 processor: registers {a, b, pc, sp, sr}
// and 10,000-word memory.
var Standard = Variation{
	Name:        "standard",
	MemoryWords: 10_000,
	SavedPC:     100,
	SavedSR:     101,
	EventCode:   102,
	VectorAddr:  200,
	Registers: []Register{
		{Name: "a", Code: 1},
		{Name: "b", Code: 2},
		{Name: "pc", Code: 3},
		{Name: "sp", Code: 4},
		{Name: "sr", Code: 5, WriteProtected: true},
	},
}

// Load reads a Variation from a TOML document's bytes.
func Load(data []byte) (v Variation, err error) {
	_, err = toml.Decode(string(data), &v)
	return
}
