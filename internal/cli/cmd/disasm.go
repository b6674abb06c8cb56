package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cleardata/elsie16/internal/cli"
	"github.com/cleardata/elsie16/internal/disasm"
	"github.com/cleardata/elsie16/internal/encoding"
	"github.com/cleardata/elsie16/internal/log"
	"github.com/cleardata/elsie16/internal/vm"
)

// Disassembler is the command that renders object code back into mnemonic source.
//
//	elsie disasm program.bin
func Disassembler() cli.Command {
	return &disassembler{format: "raw"}
}

type disassembler struct {
	format string
}

func (disassembler) Description() string {
	return "disassemble object code into mnemonic source"
}

func (disassembler) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `disasm program.bin

Disassembles an object file into mnemonic source, one line per word.

  -format string
    	object code format: raw or hex (default "raw")`)

	return err
}

func (d *disassembler) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	fs.StringVar(&d.format, "format", "raw", "object code format: raw or hex")

	return fs
}

// Run decodes each block of object code and writes mnemonic lines to stdout.
func (d *disassembler) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if len(args) == 0 {
		logger.Error("disasm: missing object file")
		return 1
	}

	file, err := os.Open(args[0])
	if err != nil {
		logger.Error("disasm: open failed", "err", err)
		return 1
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		logger.Error("disasm: read failed", "err", err)
		return 1
	}

	var blocks []vm.ObjectCode

	switch d.format {
	case "raw":
		obj, err := vm.DecodeObject(raw)
		if err != nil {
			logger.Error("disasm: decode failed", "err", err)
			return 1
		}

		blocks = []vm.ObjectCode{obj}
	case "hex":
		hex := encoding.HexEncoding{}

		if err := hex.UnmarshalText(raw); err != nil {
			logger.Error("disasm: decode failed", "err", err)
			return 1
		}

		blocks = hex.Code()
	default:
		logger.Error("disasm: unknown format", "format", d.format)
		return 1
	}

	for _, block := range blocks {
		fmt.Fprintf(stdout, "; .ORIG %s\n", block.Orig)

		for _, line := range disasm.Disassemble(block.Orig, block.Code, nil) {
			fmt.Fprintf(stdout, "%s  %s  %s\n", line.Addr, line.Word, line.Text)
		}
	}

	return 0
}
