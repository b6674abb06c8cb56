// Package disasm turns a slice of machine words back into mnemonic source lines. It inverts the
// encoding tables from package asm using the decode accessors on vm.Instruction, the same way the
// CPU's fetch-decode step reads operands out of IR.
package disasm

import (
	"fmt"
	"strings"

	"github.com/cleardata/elsie16/internal/vm"
)

// Labels maps an address to the symbolic name that should be printed in its place, for both branch
// targets and PC-relative memory operands.
type Labels map[vm.Word]string

// Line is one disassembled word.
type Line struct {
	Addr vm.Word
	Word vm.Word
	Text string
}

// Disassemble decodes a contiguous memory slice starting at base, rendering PC-relative and branch
// targets as labels when labels resolves them and as hex addresses otherwise.
func Disassemble(base vm.Word, words []vm.Word, labels Labels) []Line {
	lines := make([]Line, len(words))

	for i, w := range words {
		addr := base + vm.Word(i)
		lines[i] = Line{
			Addr: addr,
			Word: w,
			Text: disassembleOne(addr, w, labels),
		}
	}

	return lines
}

// target resolves a PC-relative offset to either its label (if known) or a hex address.
func target(addr vm.Word, offset vm.Word, labels Labels) string {
	dest := addr + 1 + offset

	if labels != nil {
		if name, ok := labels[dest]; ok {
			return name
		}
	}

	return dest.String()
}

func disassembleOne(addr vm.Word, w vm.Word, labels Labels) string {
	ir := vm.Instruction(w)

	switch ir.Opcode() {
	case vm.BR:
		nzp := ir.Cond()
		suffix := condSuffix(nzp)

		return fmt.Sprintf("BR%s %s", suffix, target(addr, ir.Offset(vm.OFFSET9), labels))

	case vm.ADD:
		if ir.Imm() {
			return fmt.Sprintf("ADD R%d,R%d,#%d", ir.DR(), ir.SR1(), int16(ir.Literal(vm.IMM5)))
		}

		return fmt.Sprintf("ADD R%d,R%d,R%d", ir.DR(), ir.SR1(), ir.SR2())

	case vm.AND:
		if ir.Imm() {
			return fmt.Sprintf("AND R%d,R%d,#%d", ir.DR(), ir.SR1(), int16(ir.Literal(vm.IMM5)))
		}

		return fmt.Sprintf("AND R%d,R%d,R%d", ir.DR(), ir.SR1(), ir.SR2())

	case vm.NOT:
		return fmt.Sprintf("NOT R%d,R%d", ir.DR(), ir.SR1())

	case vm.LD:
		return fmt.Sprintf("LD R%d,%s", ir.DR(), target(addr, ir.Offset(vm.OFFSET9), labels))
	case vm.LDI:
		return fmt.Sprintf("LDI R%d,%s", ir.DR(), target(addr, ir.Offset(vm.OFFSET9), labels))
	case vm.LEA:
		return fmt.Sprintf("LEA R%d,%s", ir.DR(), target(addr, ir.Offset(vm.OFFSET9), labels))
	case vm.ST:
		return fmt.Sprintf("ST R%d,%s", ir.DR(), target(addr, ir.Offset(vm.OFFSET9), labels))
	case vm.STI:
		return fmt.Sprintf("STI R%d,%s", ir.DR(), target(addr, ir.Offset(vm.OFFSET9), labels))

	case vm.LDR:
		return fmt.Sprintf("LDR R%d,R%d,#%d", ir.DR(), ir.SR1(), int16(ir.Offset(vm.OFFSET6)))
	case vm.STR:
		return fmt.Sprintf("STR R%d,R%d,#%d", ir.DR(), ir.SR1(), int16(ir.Offset(vm.OFFSET6)))

	case vm.JMP:
		if ir.SR1() == vm.R7 {
			return "RET"
		}

		return fmt.Sprintf("JMP R%d", ir.SR1())

	case vm.JSR:
		if ir.Relative() {
			return fmt.Sprintf("JSR %s", target(addr, ir.Offset(vm.OFFSET11), labels))
		}

		return fmt.Sprintf("JSRR R%d", ir.SR1())

	case vm.TRAP:
		vec := ir.Vector(vm.VECTOR8)
		if name, ok := trapMnemonic[vec]; ok {
			return name
		}

		return fmt.Sprintf("TRAP %s", vec.String())

	case vm.RTI:
		return "RTI"

	default:
		return fmt.Sprintf(".FILL %s", w.String())
	}
}

// trapMnemonic names the pseudo-op for each built-in trap vector.
var trapMnemonic = map[vm.Word]string{
	vm.TrapGETC:  "GETC",
	vm.TrapOUT:   "OUT",
	vm.TrapPUTS:  "PUTS",
	vm.TrapIN:    "IN",
	vm.TrapPUTSP: "PUTSP",
	vm.TrapHALT:  "HALT",
}

func condSuffix(c vm.Condition) string {
	var b strings.Builder

	if c.Negative() {
		b.WriteByte('n')
	}

	if c.Zero() {
		b.WriteByte('z')
	}

	if c.Positive() {
		b.WriteByte('p')
	}

	return b.String()
}
