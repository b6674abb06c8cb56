package monitor

import (
	"github.com/cleardata/elsie16/internal/asm"
	"github.com/cleardata/elsie16/internal/vm"
)

// The routines in this file are hand-assembled: their branch and load offsets are written as raw
// OFFSET literals rather than symbols, in the style of the original TrapHalt. Each offset is
// computed relative to the instruction's own address, i.e. offset = targetIndex - (currentIndex +
// 1), matching how the real hardware resolves a PC-relative reference.

// TrapHalt is the system call to stop the machine by clearing the RUN flag in the MCR.
//
//   - Handler: 0x1000
//   - Table: 0x00
//   - Vector: 0x25
var TrapHalt = Routine{
	Name:   "TRAP HALT",
	Vector: vm.TrapTable + vm.TrapHALT,
	Orig:   0x1000,
	Code: []asm.Operation{
		&asm.ST{SR: "R0", OFFSET: 7},               // 0: SAVER0 <- R0
		&asm.ST{SR: "R1", OFFSET: 7},               // 1: SAVER1 <- R1
		&asm.AND{DR: "R0", SR1: "R0"},               // 2: R0 <- 0
		&asm.LD{DR: "R1", OFFSET: 6},                // 3: R1 <- MCRLOC, the MCR address
		&asm.STR{SR1: "R0", SR2: "R1", OFFSET: 0},   // 4: MCR <- 0, stop running
		&asm.LD{DR: "R0", OFFSET: 2},                // 5: R0 <- SAVER0
		&asm.LD{DR: "R1", OFFSET: 2},                // 6: R1 <- SAVER1
		&asm.RTI{},                                  // 7
		&asm.BLKW{ALLOC: 1},                         // 8: SAVER0
		&asm.BLKW{ALLOC: 1},                         // 9: SAVER1
		&asm.FILL{LITERAL: uint16(vm.MCRAddr)},      // 10: MCRLOC
	},
	Symbols: asm.SymbolTable{},
}

// TrapOut is the system call to write the character in R0 to the display, spinning on the display
// status register until the device is ready.
//
//   - Handler: 0x1020
//   - Table: 0x00
//   - Vector: 0x21
var TrapOut = Routine{
	Name:   "TRAP OUT",
	Vector: vm.TrapTable + vm.TrapOUT,
	Orig:   0x1020,
	Code: []asm.Operation{
		&asm.ST{SR: "R0", OFFSET: 11},              // 0: SAVER0 <- R0
		&asm.ST{SR: "R1", OFFSET: 11},              // 1: SAVER1 <- R1
		&asm.ST{SR: "R2", OFFSET: 11},              // 2: SAVER2 <- R2
		&asm.LD{DR: "R1", OFFSET: 11},              // 3: R1 <- DSRLOC, the DSR address
		&asm.LDR{DR: "R2", SR: "R1", OFFSET: 0},    // 4: LOOP: R2 <- DSR
		&asm.BR{NZP: asm.CondZP, OFFSET: 0x1fe},    // 5: not ready, spin
		&asm.LD{DR: "R1", OFFSET: 9},               // 6: R1 <- DDRLOC, the DDR address
		&asm.STR{SR1: "R0", SR2: "R1", OFFSET: 0},  // 7: DDR <- R0
		&asm.LD{DR: "R0", OFFSET: 3},                // 8: R0 <- SAVER0
		&asm.LD{DR: "R1", OFFSET: 3},                // 9: R1 <- SAVER1
		&asm.LD{DR: "R2", OFFSET: 3},                // 10: R2 <- SAVER2
		&asm.RTI{},                                  // 11
		&asm.BLKW{ALLOC: 1},                         // 12: SAVER0
		&asm.BLKW{ALLOC: 1},                         // 13: SAVER1
		&asm.BLKW{ALLOC: 1},                         // 14: SAVER2
		&asm.FILL{LITERAL: uint16(vm.DSRAddr)},      // 15: DSRLOC
		&asm.FILL{LITERAL: uint16(vm.DDRAddr)},      // 16: DDRLOC
	},
	Symbols: asm.SymbolTable{},
}

// TrapPuts is the system call to write the null-terminated string at the address in R0, one word
// per character. It calls TrapOut for each character, so it must be loaded alongside it.
//
//   - Handler: 0x1040
//   - Table: 0x00
//   - Vector: 0x22
var TrapPuts = Routine{
	Name:   "TRAP PUTS",
	Vector: vm.TrapTable + vm.TrapPUTS,
	Orig:   0x1040,
	Code: []asm.Operation{
		&asm.ST{SR: "R0", OFFSET: 11},               // 0: SAVER0 <- R0
		&asm.ST{SR: "R2", OFFSET: 11},               // 1: SAVER2 <- R2
		&asm.AND{DR: "R2", SR1: "R0", SR2: "R0"},    // 2: R2 <- R0, string cursor
		&asm.LDR{DR: "R1", SR: "R2", OFFSET: 0},     // 3: LOOP: R1 <- *R2
		&asm.BR{NZP: asm.CondZero, OFFSET: 4},       // 4: terminator, DONE
		&asm.AND{DR: "R0", SR1: "R1", SR2: "R1"},    // 5: R0 <- R1
		&asm.TRAP{LITERAL: uint16(vm.TrapOUT)},      // 6: OUT
		&asm.ADD{DR: "R2", SR1: "R2", LITERAL: 1},   // 7: R2++
		&asm.BR{NZP: asm.CondNZP, OFFSET: 0x1fa},    // 8: LOOP
		&asm.LD{DR: "R0", OFFSET: 2},                // 9: DONE: R0 <- SAVER0
		&asm.LD{DR: "R2", OFFSET: 2},                // 10: R2 <- SAVER2
		&asm.RTI{},                                  // 11
		&asm.BLKW{ALLOC: 1},                         // 12: SAVER0
		&asm.BLKW{ALLOC: 1},                         // 13: SAVER2
	},
	Symbols: asm.SymbolTable{},
}

// TrapGetc is the system call to read a single character from the keyboard into R0 without
// echoing it, spinning on the keyboard status register until a key is pressed.
//
//   - Handler: 0x1060
//   - Table: 0x00
//   - Vector: 0x20
var TrapGetc = Routine{
	Name:   "TRAP GETC",
	Vector: vm.TrapTable + vm.TrapGETC,
	Orig:   0x1060,
	Code: []asm.Operation{
		&asm.ST{SR: "R1", OFFSET: 7},                // 0: SAVER1 <- R1
		&asm.LD{DR: "R1", OFFSET: 7},                 // 1: R1 <- KBSRLOC, the KBSR address
		&asm.LDR{DR: "R0", SR: "R1", OFFSET: 0},      // 2: LOOP: R0 <- KBSR
		&asm.BR{NZP: asm.CondZP, OFFSET: 0x1fe},      // 3: not ready, spin
		&asm.LD{DR: "R1", OFFSET: 5},                 // 4: R1 <- KBDRLOC, the KBDR address
		&asm.LDR{DR: "R0", SR: "R1", OFFSET: 0},      // 5: R0 <- KBDR, clears ready flag
		&asm.LD{DR: "R1", OFFSET: 1},                 // 6: R1 <- SAVER1
		&asm.RTI{},                                   // 7
		&asm.BLKW{ALLOC: 1},                          // 8: SAVER1
		&asm.FILL{LITERAL: uint16(vm.KBSRAddr)},      // 9: KBSRLOC
		&asm.FILL{LITERAL: uint16(vm.KBDRAddr)},      // 10: KBDRLOC
	},
	Symbols: asm.SymbolTable{},
}

// TrapIn is the system call to read and echo a single character from the keyboard into R0. It
// calls TrapOut to echo the character, so it must be loaded alongside it.
//
//   - Handler: 0x1080
//   - Table: 0x00
//   - Vector: 0x23
var TrapIn = Routine{
	Name:   "TRAP IN",
	Vector: vm.TrapTable + vm.TrapIN,
	Orig:   0x1080,
	Code: []asm.Operation{
		&asm.ST{SR: "R1", OFFSET: 8},                 // 0: SAVER1 <- R1
		&asm.LD{DR: "R1", OFFSET: 8},                  // 1: R1 <- KBSRLOC, the KBSR address
		&asm.LDR{DR: "R0", SR: "R1", OFFSET: 0},       // 2: LOOP: R0 <- KBSR
		&asm.BR{NZP: asm.CondZP, OFFSET: 0x1fe},       // 3: not ready, spin
		&asm.LD{DR: "R1", OFFSET: 6},                  // 4: R1 <- KBDRLOC, the KBDR address
		&asm.LDR{DR: "R0", SR: "R1", OFFSET: 0},       // 5: R0 <- KBDR
		&asm.TRAP{LITERAL: uint16(vm.TrapOUT)},        // 6: echo
		&asm.LD{DR: "R1", OFFSET: 1},                  // 7: R1 <- SAVER1
		&asm.RTI{},                                    // 8
		&asm.BLKW{ALLOC: 1},                           // 9: SAVER1
		&asm.FILL{LITERAL: uint16(vm.KBSRAddr)},       // 10: KBSRLOC
		&asm.FILL{LITERAL: uint16(vm.KBDRAddr)},       // 11: KBDRLOC
	},
	Symbols: asm.SymbolTable{},
}

// TrapPutsp is the system call to write the string at the address in R0. Unlike the shortcut-mode
// implementation, this routine treats each word as one character rather than unpacking two
// characters per word; it calls TrapOut for each one.
//
//   - Handler: 0x10a0
//   - Table: 0x00
//   - Vector: 0x24
var TrapPutsp = Routine{
	Name:   "TRAP PUTSP",
	Vector: vm.TrapTable + vm.TrapPUTSP,
	Orig:   0x10a0,
	Code: []asm.Operation{
		&asm.ST{SR: "R0", OFFSET: 13},                // 0: SAVER0 <- R0
		&asm.ST{SR: "R1", OFFSET: 13},                // 1: SAVER1 <- R1
		&asm.ST{SR: "R2", OFFSET: 13},                // 2: SAVER2 <- R2
		&asm.AND{DR: "R2", SR1: "R0", SR2: "R0"},     // 3: R2 <- R0, cursor
		&asm.LDR{DR: "R1", SR: "R2", OFFSET: 0},      // 4: LOOP: R1 <- *R2
		&asm.BR{NZP: asm.CondZero, OFFSET: 4},        // 5: terminator, DONE
		&asm.AND{DR: "R0", SR1: "R1", SR2: "R1"},     // 6: R0 <- R1
		&asm.TRAP{LITERAL: uint16(vm.TrapOUT)},       // 7: OUT
		&asm.ADD{DR: "R2", SR1: "R2", LITERAL: 1},    // 8: R2++
		&asm.BR{NZP: asm.CondNZP, OFFSET: 0x1fa},     // 9: LOOP
		&asm.LD{DR: "R0", OFFSET: 3},                 // 10: DONE: R0 <- SAVER0
		&asm.LD{DR: "R1", OFFSET: 3},                 // 11: R1 <- SAVER1
		&asm.LD{DR: "R2", OFFSET: 3},                 // 12: R2 <- SAVER2
		&asm.RTI{},                                   // 13
		&asm.BLKW{ALLOC: 1},                          // 14: SAVER0
		&asm.BLKW{ALLOC: 1},                          // 15: SAVER1
		&asm.BLKW{ALLOC: 1},                          // 16: SAVER2
	},
	Symbols: asm.SymbolTable{},
}
