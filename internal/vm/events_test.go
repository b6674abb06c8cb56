package vm

import (
	"errors"
	"testing"
)

// makeShortcut builds a machine with shortcut traps enabled and the given program loaded at its
// origin, ready to run from 0x3000.
func makeShortcut(t *testHarness, origin Word, code ...Word) *LC3 {
	t.Helper()

	machine := New(
		WithLogger(t.log),
		WithShortcutTraps(),
	)

	loader := NewLoader(machine)
	if _, err := loader.Load(ObjectCode{Orig: origin, Code: code}); err != nil {
		t.Fatalf("load: %s", err)
	}

	return machine
}

func TestEvents_HelloWorld(tt *testing.T) {
	t := NewTestHarness(tt)

	// LEA R0,HELLO ; PUTS ; HALT ; HELLO: "Hi",0
	machine := makeShortcut(t, 0x3000,
		0xe002, // LEA R0,#2
		0xf022, // PUTS
		0xf025, // HALT
		0x0048, // 'H'
		0x0069, // 'i'
		0x0000,
	)

	ev := machine.RunEvent()
	if ev.Kind != EventOutputString || ev.Text != "Hi" {
		t.Errorf("want OutputString(\"Hi\"), got: %s", ev)
	}

	ev = machine.RunEvent()
	if ev.Kind != EventHalt {
		t.Errorf("want Halt, got: %s", ev)
	}

	// PC rests one past the HALT instruction.
	if machine.PC != 0x3003 {
		t.Errorf("PC: want: %s, got: %s", Word(0x3003), machine.PC)
	}
}

func TestEvents_Fibonacci(tt *testing.T) {
	t := NewTestHarness(tt)

	// R0,R1 seed the sequence; R3 counts ten iterations of R2=R0+R1; R0=R1; R1=R2.
	machine := makeShortcut(t, 0x3000,
		0x5020, // AND R0,R0,#0
		0x1221, // ADD R1,R0,#1
		0x56e0, // AND R3,R3,#0
		0x16ea, // ADD R3,R3,#10
		0x1401, // LOOP: ADD R2,R0,R1
		0x1060, // ADD R0,R1,#0
		0x12a0, // ADD R1,R2,#0
		0x16ff, // ADD R3,R3,#-1
		0x03fb, // BRp LOOP
		0xf025, // HALT
	)

	if ev := machine.RunEvent(); ev.Kind != EventHalt {
		t.Fatalf("want Halt, got: %s", ev)
	}

	if machine.REG[R1] != 0x0059 {
		t.Errorf("R1: want: %s, got: %s", Register(0x0059), machine.REG[R1])
	}
}

func TestEvents_GetcEcho(tt *testing.T) {
	t := NewTestHarness(tt)

	machine := makeShortcut(t, 0x3000,
		0xf020, // GETC
		0xf021, // OUT
		0xf025, // HALT
	)

	ev := machine.RunEvent()
	if ev.Kind != EventReadChar {
		t.Fatalf("want ReadChar, got: %s", ev)
	}

	machine.SetInput('A')

	ev = machine.RunEvent()
	if ev.Kind != EventOutput || ev.Char != 'A' {
		t.Errorf("want Output('A'), got: %s", ev)
	}

	if machine.REG[R0] != Register('A') {
		t.Errorf("R0: want: %s, got: %s", Register('A'), machine.REG[R0])
	}

	if cond := machine.CondString(); cond != "P" {
		t.Errorf("cond: want: P, got: %s", cond)
	}

	if ev := machine.RunEvent(); ev.Kind != EventHalt {
		t.Errorf("want Halt, got: %s", ev)
	}
}

func TestEvents_InPromptsBeforeReading(tt *testing.T) {
	t := NewTestHarness(tt)

	machine := makeShortcut(t, 0x3000,
		0xf023, // IN
		0xf025, // HALT
	)

	ev := machine.RunEvent()
	if ev.Kind != EventOutputString || ev.Text != inputPrompt {
		t.Fatalf("want OutputString(prompt), got: %s", ev)
	}

	ev = machine.RunEvent()
	if ev.Kind != EventReadChar {
		t.Fatalf("want ReadChar, got: %s", ev)
	}

	machine.SetInput('x')

	ev = machine.RunEvent()
	if ev.Kind != EventOutput || ev.Char != 'x' {
		t.Errorf("want Output('x'), got: %s", ev)
	}

	if ev := machine.RunEvent(); ev.Kind != EventHalt {
		t.Errorf("want Halt, got: %s", ev)
	}
}

func TestEvents_Putsp(tt *testing.T) {
	tt.Run("packs two characters per word", func(tt *testing.T) {
		t := NewTestHarness(tt)

		machine := makeShortcut(t, 0x3000,
			0xe002, // LEA R0,#2
			0xf024, // PUTSP
			0xf025, // HALT
			0x6261, // 'a' low, 'b' high
			0x0063, // 'c' low, zero high terminates
			0x0000,
		)

		ev := machine.RunEvent()
		if ev.Kind != EventOutputString || ev.Text != "abc" {
			t.Errorf("want OutputString(\"abc\"), got: %s", ev)
		}

		if ev := machine.RunEvent(); ev.Kind != EventHalt {
			t.Errorf("want Halt, got: %s", ev)
		}
	})

	tt.Run("zero low byte terminates without emitting the high byte", func(tt *testing.T) {
		t := NewTestHarness(tt)

		machine := makeShortcut(t, 0x3000,
			0xe002, // LEA R0,#2
			0xf024, // PUTSP
			0xf025, // HALT
			0x4100, // low byte zero, 'A' high: never emitted
			0x0000,
		)

		ev := machine.RunEvent()
		if ev.Kind != EventOutputString || ev.Text != "" {
			t.Errorf("want empty OutputString, got: %s", ev)
		}
	})
}

func TestEvents_UnknownTrap(tt *testing.T) {
	t := NewTestHarness(tt)

	machine := makeShortcut(t, 0x3000,
		0xf07f, // TRAP x7F: not a system call
	)

	ev := machine.RunEvent()
	if ev.Kind != EventError {
		t.Fatalf("want Error, got: %s", ev)
	}

	if !errors.Is(ev.Err, ErrUnknownTrap) {
		t.Errorf("want ErrUnknownTrap, got: %s", ev.Err)
	}
}

func TestEvents_StepReportsHalt(tt *testing.T) {
	t := NewTestHarness(tt)

	machine := makeShortcut(t, 0x3000,
		0xf025, // HALT
	)

	ev := machine.StepEvent()
	if ev.Kind != EventHalt {
		t.Errorf("want Halt, got: %s", ev)
	}

	// Stepping a halted machine reports Halt again rather than executing.
	ev = machine.StepEvent()
	if ev.Kind != EventHalt {
		t.Errorf("want Halt after halt, got: %s", ev)
	}
}

func TestSurface_MemoryRoundTrip(tt *testing.T) {
	t := NewTestHarness(tt)
	machine := t.Make()

	if err := machine.WriteMem(0x1234, 0xbeef); err != nil {
		t.Fatal(err)
	}

	got, err := machine.ReadMem(0x1234)
	if err != nil {
		t.Fatal(err)
	}

	if got != 0xbeef {
		t.Errorf("mem[0x1234]: want: %s, got: %s", Word(0xbeef), got)
	}

	for _, w := range []Word{0x4000, 0x4001, 0x4002} {
		if err := machine.WriteMem(w, w); err != nil {
			t.Fatal(err)
		}
	}

	slice := machine.MemSlice(0x4000, 3)
	if len(slice) != 3 || slice[0] != 0x4000 || slice[1] != 0x4001 || slice[2] != 0x4002 {
		t.Errorf("slice: got: %v", slice)
	}
}

func TestSurface_OSMode(tt *testing.T) {
	t := NewTestHarness(tt)

	machine := New(
		WithLogger(t.log),
		WithShortcutTraps(),
	)

	if !machine.shortcut {
		t.Error("want shortcut traps enabled")
	}

	machine.SetOSMode(true)

	if machine.shortcut {
		t.Error("want shortcut traps disabled in OS mode")
	}

	machine.SetOSMode(false)

	if !machine.shortcut {
		t.Error("want shortcut traps re-enabled")
	}
}

func TestSurface_LoadOSBytes(tt *testing.T) {
	t := NewTestHarness(tt)

	machine := New(
		WithLogger(t.log),
		WithShortcutTraps(),
	)

	// A two-word image at 0x0200: origin word then one code word, big-endian.
	count, err := machine.LoadOSBytes([]byte{0x02, 0x00, 0xf0, 0x25})
	if err != nil {
		t.Fatal(err)
	}

	if count != 1 {
		t.Errorf("loaded: want: 1, got: %d", count)
	}

	if machine.shortcut {
		t.Error("loading an OS image should select OS mode")
	}

	got, err := machine.ReadMem(0x0200)
	if err != nil {
		t.Fatal(err)
	}

	if got != 0xf025 {
		t.Errorf("mem[0x0200]: want: %s, got: %s", Word(0xf025), got)
	}
}
