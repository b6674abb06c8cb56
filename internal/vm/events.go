package vm

// events.go implements the tagged-event Step/Run API used by interactive front ends (and tests)
// that want to observe and drive a machine's I/O one event at a time instead of wiring up display
// listeners and a Loader's worth of boilerplate.

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownTrap is returned from a shortcut trap when the vector does not name a recognized
// system call.
var ErrUnknownTrap = errors.New("trap: unknown vector")

// EventKind tags the outcome of a single Step.
type EventKind uint8

const (
	// EventNone means the instruction completed with no observable side effect.
	EventNone EventKind = iota

	// EventOutput means a single character was written to the display.
	EventOutput

	// EventOutputString means a string (PUTS or PUTSP) was written to the display.
	EventOutputString

	// EventReadChar means the machine is waiting on character input; supply one with SetInput
	// and step again.
	EventReadChar

	// EventHalt means the machine executed HALT and stopped.
	EventHalt

	// EventError means the instruction cycle failed; Err holds the cause.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "NONE"
	case EventOutput:
		return "OUTPUT"
	case EventOutputString:
		return "OUTPUT_STRING"
	case EventReadChar:
		return "READ_CHAR"
	case EventHalt:
		return "HALT"
	case EventError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event reports what happened during a Step.
type Event struct {
	Kind EventKind
	Char rune   // Valid when Kind is EventOutput or EventReadChar.
	Text string // Valid when Kind is EventOutputString.
	Err  error  // Valid when Kind is EventError.
}

func (e Event) String() string {
	switch e.Kind {
	case EventOutput:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Char)
	case EventOutputString:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Text)
	case EventError:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

// WithShortcutTraps configures the machine to satisfy GETC, OUT, PUTS, IN, PUTSP and HALT directly
// rather than requiring an operating system image to be loaded at the trap vectors. It is the mode
// used by the "exec" command unless its -os flag is given.
func WithShortcutTraps() OptionFn {
	return func(vm *LC3, late bool) error {
		vm.shortcut = true
		return nil
	}
}

// SetInput queues a character to satisfy a pending GETC or IN trap. Characters are consumed in the
// order they are queued.
func (vm *LC3) SetInput(r rune) {
	vm.input = append(vm.input, r)
}

// StepEvent executes a single instruction and reports the outcome as an Event. It is built on top
// of Step and so shares its semantics; the event merely classifies what Step already did.
func (vm *LC3) StepEvent() Event {
	vm.lastEvent = Event{}

	err := vm.Step()

	ev := vm.lastEvent
	if ev.Kind == EventNone && err != nil {
		if errors.Is(err, ErrHalted) {
			ev = Event{Kind: EventHalt}
		} else {
			ev = Event{Kind: EventError, Err: err}
		}
	}

	return ev
}

// RunEvent executes instructions back to back until something observable happens and returns that
// event: an output character or string, a request for input, a halt, or an error. It never
// returns an EventNone.
func (vm *LC3) RunEvent() Event {
	for {
		ev := vm.StepEvent()
		if ev.Kind != EventNone {
			return ev
		}
	}
}

// RunEvents steps the machine until it halts, errors, needs input, or the context is cancelled,
// calling emit for every event observed along the way (including, as the final call, the Halt,
// Error, or ReadChar event that ended the run). Quiet steps produce no call. Emit may return
// false to stop the run early.
func (vm *LC3) RunEvents(ctx context.Context, emit func(Event) bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ev := vm.StepEvent()
		if ev.Kind == EventNone {
			continue
		}

		if !emit(ev) {
			return nil
		}

		switch ev.Kind {
		case EventHalt, EventError, EventReadChar:
			return nil
		}
	}
}

// SetOSMode selects how TRAP instructions are satisfied: in OS mode (true) a trap transfers
// control through the vector table to handler code in memory, so a system image must be loaded;
// otherwise traps are satisfied directly by the machine. See WithShortcutTraps for selecting the
// regime at construction.
func (vm *LC3) SetOSMode(osMode bool) {
	vm.shortcut = !osMode
}

// LoadOSBytes loads an object-file image holding an operating system and switches the machine to
// OS mode, so subsequent traps dispatch through the image's vector table.
func (vm *LC3) LoadOSBytes(data []byte) (uint16, error) {
	count, err := NewLoader(vm).LoadBytes(data)
	if err != nil {
		return count, err
	}

	vm.SetOSMode(true)

	return count, nil
}

// ReadMem returns the word at addr. Device registers in the I/O page are read through the memory
// controller's device table, so reading KBDR here consumes input just as a running program would.
func (vm *LC3) ReadMem(addr Word) (Word, error) {
	var reg Register

	err := vm.Mem.load(addr, &reg)

	return Word(reg), err
}

// WriteMem stores v at addr, routing I/O page addresses to their devices.
func (vm *LC3) WriteMem(addr Word, v Word) error {
	return vm.Mem.store(addr, v)
}

// MemSlice copies n consecutive words of memory starting at addr. The copy stops early at the end
// of the address space or at the first device error.
func (vm *LC3) MemSlice(addr Word, n int) []Word {
	out := make([]Word, 0, n)

	for i := 0; i < n; i++ {
		a := addr + Word(i)
		if i > 0 && a == 0 { // wrapped past the top of the address space
			break
		}

		w, err := vm.ReadMem(a)
		if err != nil {
			break
		}

		out = append(out, w)
	}

	return out
}

// CondString names the currently set condition code: "N", "Z" or "P".
func (vm *LC3) CondString() string {
	switch {
	case vm.PSR.Negative():
		return "N"
	case vm.PSR.Positive():
		return "P"
	default:
		return "Z"
	}
}
