package vm

// traps.go implements shortcut-mode system calls. In shortcut mode, the virtual machine satisfies
// the conventional LC-3 trap vectors (GETC, OUT, PUTS, IN, PUTSP, HALT) itself instead of jumping
// to handler code loaded from an operating system image. This lets small programs run immediately
// after assembly without first loading a monitor.
//
// In OS mode (the default), TRAP raises a trapErr as usual and the CPU transfers control to
// whatever code the loaded system image placed at the trap's vector; see internal/monitor.

// Conventional trap vectors, named the way LC-3 assembly programmers know them.
const (
	TrapGETC  = Word(0x20)
	TrapPUTS  = Word(0x22)
	TrapIN    = Word(0x23)
	TrapPUTSP = Word(0x24)
)

// shortcutTrap performs the built-in semantics of a trap vector directly, bypassing any handler
// code in memory. It records the outcome as the machine's lastEvent so StepEvent can report it.
func (vm *LC3) shortcutTrap(vec Word) error {
	switch vec {
	case TrapGETC:
		return vm.shortcutGetc(false)
	case TrapOUT:
		return vm.shortcutOut()
	case TrapPUTS:
		return vm.shortcutPuts()
	case TrapIN:
		return vm.shortcutGetc(true)
	case TrapPUTSP:
		return vm.shortcutPutsp()
	case TrapHALT:
		vm.MCR &^= ControlRunning
		vm.lastEvent = Event{Kind: EventHalt}

		return ErrHalted
	default:
		vm.lastEvent = Event{Kind: EventError, Err: ErrUnknownTrap}
		return ErrUnknownTrap
	}
}

// shortcutOut writes the character in R0 to the display and reports it as an Output event.
func (vm *LC3) shortcutOut() error {
	ch := rune(vm.REG[R0])

	if driver, ok := vm.Mem.Devices.Get(DDRAddr).(*DisplayDriver); ok {
		_ = driver.Write(DDRAddr, Register(ch))
	}

	vm.lastEvent = Event{Kind: EventOutput, Char: ch}

	return nil
}

// shortcutPuts writes the null-terminated string starting at the address in R0.
func (vm *LC3) shortcutPuts() error {
	var s []rune

	addr := Word(vm.REG[R0])

	for {
		var reg Register
		if err := vm.Mem.load(addr, &reg); err != nil {
			return err
		}

		if reg == 0 {
			break
		}

		s = append(s, rune(reg))
		addr++
	}

	vm.echo(s)
	vm.lastEvent = Event{Kind: EventOutputString, Text: string(s)}

	return nil
}

// shortcutPutsp writes a null-terminated string packed two characters per word, low byte first. A
// word whose low byte is zero always terminates the string, even if its high byte is non-zero --
// that high byte is never emitted. A word whose low byte is non-zero but whose high byte is zero
// contributes its one character and also terminates the string.
func (vm *LC3) shortcutPutsp() error {
	var s []rune

	addr := Word(vm.REG[R0])

loop:
	for {
		var reg Register
		if err := vm.Mem.load(addr, &reg); err != nil {
			return err
		}

		lo := byte(reg & 0x00ff)
		hi := byte(reg >> 8)

		switch {
		case lo == 0:
			break loop
		case hi == 0:
			s = append(s, rune(lo))
			break loop
		default:
			s = append(s, rune(lo), rune(hi))
		}

		addr++
	}

	vm.echo(s)
	vm.lastEvent = Event{Kind: EventOutputString, Text: string(s)}

	return nil
}

// inputPrompt is what the IN trap displays before reading a character.
const inputPrompt = "Input a character> "

// shortcutGetc reads a character queued by SetInput into R0 and sets condition codes from it. If
// prompt is true (the IN trap), a prompt is displayed first and the character is echoed after it
// is read. When no character is available, R0 is left unchanged, PC is rewound to the trap
// instruction, and a ReadChar event is reported; the caller supplies a character with SetInput and
// steps again, re-executing the trap.
func (vm *LC3) shortcutGetc(prompt bool) error {
	if prompt && !vm.prompted {
		vm.prompted = true
		vm.PC--
		vm.echo([]rune(inputPrompt))
		vm.lastEvent = Event{Kind: EventOutputString, Text: inputPrompt}

		return nil
	}

	if len(vm.input) == 0 {
		vm.PC--
		vm.lastEvent = Event{Kind: EventReadChar}

		return nil
	}

	ch := vm.input[0]
	vm.input = vm.input[1:]
	vm.prompted = false

	vm.REG[R0] = Register(ch)
	vm.PSR.Set(vm.REG[R0])

	if prompt {
		vm.echo([]rune{ch})
		vm.lastEvent = Event{Kind: EventOutput, Char: ch}
	}

	return nil
}

// echo writes characters directly to the display driver, bypassing the data path's privilege
// check, the way the real trap handlers do when running with system privileges.
func (vm *LC3) echo(s []rune) {
	driver, ok := vm.Mem.Devices.Get(DDRAddr).(*DisplayDriver)
	if !ok {
		return
	}

	for _, ch := range s {
		_ = driver.Write(DDRAddr, Register(ch))
	}
}
