package disasm

import (
	"testing"

	"github.com/cleardata/elsie16/internal/vm"
)

func TestDisassemble(t *testing.T) {
	tests := []struct {
		name string
		addr vm.Word
		word vm.Word
		want string
	}{
		{"add register", 0x3000, 0x1042, "ADD R0,R1,R2"},
		{"add immediate", 0x3000, 0x1062, "ADD R0,R1,#2"},
		{"and immediate negative", 0x3000, 0x513f, "AND R0,R4,#-1"},
		{"not", 0x3000, 0x903f, "NOT R0,R0"},
		{"ld", 0x3000, 0x2001, "LD R0,0x3002"},
		{"lea", 0x3000, 0xe001, "LEA R0,0x3002"},
		{"ldr", 0x3000, 0x6042, "LDR R0,R1,#2"},
		{"str", 0x3000, 0x7042, "STR R0,R1,#2"},
		{"jmp", 0x3000, 0xc0c0, "JMP R3"},
		{"ret", 0x3000, 0xc1c0, "RET"},
		{"jsr", 0x3000, 0x4800, "JSR 0x3001"},
		{"jsrr", 0x3000, 0x40c0, "JSRR R3"},
		{"trap halt", 0x3000, 0xf025, "HALT"},
		{"trap unknown", 0x3000, 0xf0aa, "TRAP 0x00aa"},
		{"rti", 0x3000, 0x8000, "RTI"},
		{"brnzp", 0x3000, 0x0e01, "BRnzp 0x3002"},
		{"reserved word", 0x3000, 0xd000, ".FILL 0xd000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Disassemble(tt.addr, []vm.Word{tt.word}, nil)

			if len(lines) != 1 {
				t.Fatalf("want 1 line, got %d", len(lines))
			}

			if got := lines[0].Text; got != tt.want {
				t.Errorf("want: %q, got: %q", tt.want, got)
			}
		})
	}
}

func TestDisassemble_Labels(t *testing.T) {
	labels := Labels{0x3005: "LOOP"}

	lines := Disassemble(0x3000, []vm.Word{0x0e04}, labels)

	if got := lines[0].Text; got != "BRnzp LOOP" {
		t.Errorf("want: %q, got: %q", "BRnzp LOOP", got)
	}
}
