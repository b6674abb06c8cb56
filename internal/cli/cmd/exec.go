package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cleardata/elsie16/internal/cli"
	"github.com/cleardata/elsie16/internal/encoding"
	"github.com/cleardata/elsie16/internal/log"
	"github.com/cleardata/elsie16/internal/monitor"
	"github.com/cleardata/elsie16/internal/vm"
)

func Executor() cli.Command {
	exec := &executor{log: log.DefaultLogger()}
	return exec
}

type executor struct {
	logLevel slog.Level
	log      *log.Logger
	format   string
	osMode   bool
}

func (executor) Description() string {
	return "run a program"
}

func (executor) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `exec program.bin

Runs an executable in the emulator. By default the machine satisfies traps itself, writing output
characters to standard output and reading input characters from standard input; with -os, a system
image is loaded and traps run as code in the machine.`)

	return err
}

func (ex *executor) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("exec", flag.ExitOnError)
	fs.Func("loglevel", "set log `level`", func(s string) error {
		return ex.logLevel.UnmarshalText([]byte(s))
	})
	fs.StringVar(&ex.format, "format", "raw", "object file `format`: raw or hex")
	fs.BoolVar(&ex.osMode, "os", false, "dispatch traps through a loaded system image")

	return fs
}

// Run executes the program.
func (ex *executor) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger,
) int {
	log.LogLevel.Set(ex.logLevel)

	code, err := ex.loadCode(args[0])
	if err != nil {
		logger.Error("Error loading code", "err", err)
		return -1
	}

	if ex.osMode {
		return ex.runOS(ctx, code, stdout, logger)
	}

	return ex.runShortcut(ctx, code, stdout, logger)
}

// runShortcut executes the program with the machine satisfying traps directly, pumping the
// machine's event stream to the terminal: output events are written to stdout and ReadChar events
// are satisfied from stdin.
func (ex *executor) runShortcut(ctx context.Context, code []vm.ObjectCode, stdout io.Writer,
	logger *log.Logger,
) int {
	machine := vm.New(
		vm.WithLogger(logger),
		vm.WithShortcutTraps(),
	)

	loader := vm.NewLoader(machine)

	count, err := loader.LoadAll(code)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}

	logger.Debug("Loaded program", "loaded", count)

	stdin := bufio.NewReader(os.Stdin)

	for {
		if ctx.Err() != nil {
			logger.Warn("Cancelled")
			return 2
		}

		switch ev := machine.RunEvent(); ev.Kind {
		case vm.EventOutput:
			fmt.Fprintf(stdout, "%c", ev.Char)
		case vm.EventOutputString:
			fmt.Fprint(stdout, ev.Text)
		case vm.EventReadChar:
			ch, _, err := stdin.ReadRune()
			if err != nil {
				logger.Error("Input unavailable", "ERR", err)
				return 2
			}

			machine.SetInput(ch)
		case vm.EventHalt:
			logger.Info("Program completed")
			return 0
		case vm.EventError:
			logger.Error("Program error", "ERR", ev.Err)
			return 2
		}
	}
}

// runOS executes the program with a system image loaded, running the machine's own trap handlers
// and echoing display writes to stdout.
func (ex *executor) runOS(ctx context.Context, code []vm.ObjectCode, stdout io.Writer,
	logger *log.Logger,
) int {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(context.Canceled)

	ctx, cancelTimeout := context.WithTimeout(ctx, 10*time.Second)
	defer cancelTimeout()

	logger.Debug("Initializing machine")

	dispCh := make(chan rune, 1)

	machine := vm.New(
		vm.WithLogger(logger),
		monitor.WithDefaultSystemImage(),
		vm.WithDisplayListener(func(displayed uint16) {
			dispCh <- rune(displayed)
		}),
	)

	loader := vm.NewLoader(machine)

	count, err := loader.LoadAll(code)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}

	go func() {
		logger.Debug("Starting display")

		for {
			select {
			case disp := <-dispCh:
				fmt.Fprintf(stdout, "%c", disp)
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Debug("Loaded program", "loaded", count)

	go func(cancel context.CancelCauseFunc) {
		logger.Info("Starting machine")

		err := machine.Run(ctx)

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			logger.Warn("Demo timeout")
			return
		case err != nil:
			logger.Error(err.Error())
			cancel(err)

			return
		default:
			cancel(context.Canceled)
		}
	}(cancel)

	<-ctx.Done()

	close(dispCh)

	if err := ctx.Err(); errors.Is(err, context.DeadlineExceeded) {
		logger.Error("Exec timeout!")
		return 2
	} else if errors.Is(err, context.Canceled) {
		logger.Info("Program completed")
		return 0
	} else if err != nil {
		logger.Error("Program error", "ERR", err)
		return 2
	} else {
		logger.Info("Terminated")
		return 0
	}
}

func (ex executor) loadCode(fn string) ([]vm.ObjectCode, error) {
	ex.log.Debug("Loading executable", "file", fn)

	file, err := os.Open(fn)
	if err != nil {
		return nil, err
	}

	code, err := io.ReadAll(file)
	if err != nil {
		ex.log.Error(err.Error())
		return nil, err
	}

	ex.log.Debug("Loaded file", "bytes", len(code))

	if ex.format == "hex" {
		hex := encoding.HexEncoding{}

		if err = hex.UnmarshalText(code); err != nil {
			ex.log.Error(err.Error())
			return nil, err
		}

		return hex.Code(), nil
	}

	obj, err := vm.DecodeObject(code)
	if err != nil {
		ex.log.Error(err.Error())
		return nil, err
	}

	return []vm.ObjectCode{obj}, nil
}
