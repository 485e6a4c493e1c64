package vm

import (
	"github.com/z33toolchain/z33/isa"
)

// Memory-mapped peripheral register bit layouts. The devices
// themselves are not simulated; only the register formats guest code
// programs against are defined here.

// Keyboard controller register bits.
const (
	KBD_DATA_MASK  = isa.Word(0x000000FF) // last scancode received
	KBD_STAT_READY = isa.Word(1 << 8)     // a scancode is pending
	KBD_STAT_IRQEN = isa.Word(1 << 9)     // raise a hardware interrupt on input
)

// Disk controller register bits.
const (
	DISK_SECTOR_MASK = isa.Word(0x000000FF) // target sector
	DISK_TRACK_MASK  = isa.Word(0x0000FF00) // target track
	DISK_TRACK_SHIFT = 8
	DISK_STAT_BUSY   = isa.Word(1 << 16) // transfer in progress
	DISK_STAT_ERROR  = isa.Word(1 << 17) // last transfer failed
	DISK_CMD_READ    = isa.Word(1 << 24) // start a read transfer
	DISK_CMD_WRITE   = isa.Word(1 << 25) // start a write transfer
)
