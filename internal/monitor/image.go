// Package monitor implements a system monitor or BIOS for the machine: the trap, exception, and
// interrupt handlers that give user programs system calls when the virtual machine runs in OS
// mode instead of shortcut-trap mode.
package monitor

import (
	"fmt"

	"github.com/cleardata/elsie16/internal/asm"
	"github.com/cleardata/elsie16/internal/log"
	"github.com/cleardata/elsie16/internal/vm"
)

// WithSystemImage initializes the machine with a given image.
func WithSystemImage(image *SystemImage) vm.OptionFn {
	return func(machine *vm.LC3, late bool) error {
		if late {
			loader := vm.NewLoader(machine)
			return loadImage(loader, image)
		}

		return nil
	}
}

// WithDefaultSystemImage initializes the machine with the default system image. You should probably
// use this.
func WithDefaultSystemImage() vm.OptionFn {
	return WithSystemImage(NewSystemImage(log.DefaultLogger()))
}

// SystemImage holds the initial state of memory for the machine. After construction, the image is
// loaded into the machine using loadImage.
type SystemImage struct {
	Symbols    asm.SymbolTable // System or monitor symbol table.
	Data       vm.ObjectCode   // System data, globally shared among all routines.
	Traps      []Routine       // System calls are called from user context to do basic I/O.
	ISRs       []Routine       // Interrupt service routines are called from interrupt context.
	Exceptions []Routine       // Exception handlers are called in response to program faults.

	logger *log.Logger
}

// Routine represents a system-defined handler. Each routine's code is stored at an origin offset.
// The machine dispatches to the routine using an entry in a vector table.
type Routine struct {
	Name    string          // Debug friend.
	Vector  vm.Word         // Vector table-entry.
	Orig    vm.Word         // Origin-offset address.
	Code    []asm.Operation // Code and data.
	Symbols asm.SymbolTable // Routine symbols.
}

// NewSystemImage creates a default system image including basic I/O system calls and exception
// handlers.
func NewSystemImage(logger *log.Logger) *SystemImage {
	data := vm.ObjectCode{
		Orig: 0x0500,
		Code: []vm.Word{},
	}

	return &SystemImage{
		Symbols: asm.SymbolTable{},
		Data:    data,
		Traps: []Routine{
			TrapHalt,
			TrapOut,
			TrapPuts,
			TrapGetc,
			TrapIn,
			TrapPutsp,
		},
		ISRs:       []Routine{},
		Exceptions: []Routine{},
		logger:     logger,
	}
}

// LoadTo uses a loader to initialize the machine with the system image's traps, ISRs, and
// exception handlers.
func (img *SystemImage) LoadTo(loader *vm.Loader) (uint16, error) {
	count := uint16(0)

	for _, routines := range [][]Routine{img.Traps, img.ISRs, img.Exceptions} {
		for _, routine := range routines {
			c, err := img.loadRoutine(loader, routine)
			count += c

			if err != nil {
				return count, err
			}
		}
	}

	return count, nil
}

func (img *SystemImage) loadRoutine(loader *vm.Loader, routine Routine) (uint16, error) {
	img.logger.Debug("Generating code",
		"routine", routine.Name,
		"orig", routine.Orig,
		"symbols", len(routine.Symbols),
		"size", len(routine.Code),
	)

	sym := asm.SymbolTable{}

	for label, addr := range img.Symbols {
		sym[label] = addr
	}

	for label, addr := range routine.Symbols {
		sym[label] = addr
	}

	obj, err := generateRoutine(routine, sym)
	if err != nil {
		return 0, err
	}

	img.logger.Debug("Loading vector",
		"routine", routine.Name,
		"orig", routine.Orig,
		"vector", routine.Vector,
		"size", len(obj.Code),
	)

	return loader.LoadVector(routine.Vector, obj)
}

// loadImage loads every routine in a system image using the given loader.
func loadImage(loader *vm.Loader, image *SystemImage) error {
	_, err := image.LoadTo(loader)
	return err
}

// GenerateRoutine takes a BIOS routine, i.e. a trap, ISR, or exception handler, and generates the
// object code for it using the routine's own symbol table.
func GenerateRoutine(routine Routine) (vm.ObjectCode, error) {
	return generateRoutine(routine, routine.Symbols)
}

func generateRoutine(routine Routine, symbols asm.SymbolTable) (vm.ObjectCode, error) {
	pc := routine.Orig

	obj := vm.ObjectCode{
		Orig: routine.Orig,
		Code: make([]vm.Word, 0, len(routine.Code)),
	}

	for _, oper := range routine.Code {
		if oper == nil {
			continue
		}

		encoded, err := oper.Generate(symbols, uint16(pc))
		if err != nil {
			return obj, fmt.Errorf("generate: %s: %w", oper, err)
		}

		for i := range encoded {
			obj.Code = append(obj.Code, vm.Word(encoded[i]))
		}

		pc += Word(len(encoded))
	}

	return obj, nil
}

type Word = vm.Word
