package asm

// gen.go contains a code generation pass for our two-pass assembler.

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cleardata/elsie16/internal/encoding"
	"github.com/cleardata/elsie16/internal/log"
	"github.com/cleardata/elsie16/internal/vm"
)

// Generator controls the code generation pass of the assembler. The generator starts at the
// beginning of the parsed-syntax table, generates code for each operation, and then writes the
// bytes to the output (usually, a file).
//
// During the generation pass, any syntax or semantic errors that prevent generating machine code
// are immediately returned from WriteTo. The errors are wrapped SyntaxErrors and may be tested and
// retrieved using the errors package.
type Generator struct {
	pc       uint16
	symbols  SymbolTable
	syntax   SyntaxTable
	encoding encoding.HexEncoding
	log      *log.Logger
}

// NewGenerator creates a code generator using the given symbol and syntax tables.
func NewGenerator(symbols SymbolTable, syntax SyntaxTable) *Generator {
	return &Generator{
		pc:       0x0000,
		symbols:  symbols,
		syntax:   syntax,
		encoding: encoding.HexEncoding{},
		log:      log.DefaultLogger(),
	}
}

// segments splits the syntax table into one object-code segment per .ORIG directive. A source
// file with a single .ORIG produces one segment; a source file with several -- each starting a
// new region of memory -- produces one per directive, in order. The first operation must be a
// .ORIG; any other leading operation is a generation error.
func (gen *Generator) segments() ([]vm.ObjectCode, error) {
	if len(gen.syntax) == 0 {
		return nil, nil
	}

	if _, ok := origin(gen.syntax[0]); !ok {
		return nil, fmt.Errorf(".ORIG should be first operation; was: %T", gen.syntax[0])
	}

	var (
		segs []vm.ObjectCode
		cur  *vm.ObjectCode
		pc   uint16
	)

	for _, op := range gen.syntax {
		if op == nil {
			continue
		}

		if orig, ok := origin(op); ok {
			if cur != nil {
				segs = append(segs, *cur)
			}

			pc = orig.LITERAL
			cur = &vm.ObjectCode{Orig: vm.Word(orig.LITERAL)}
			gen.log.Debug("object segment", "ORIG", fmt.Sprintf("%0#4x", orig.LITERAL))

			continue
		}

		if _, ok := unwrap(op).(*END); ok {
			continue
		}

		genWords, err := op.Generate(gen.symbols, pc)
		if err != nil {
			return nil, gen.annotate(op, err)
		}

		for i := range genWords {
			cur.Code = append(cur.Code, vm.Word(genWords[i]))
		}

		pc += uint16(len(genWords))
	}

	if cur != nil {
		segs = append(segs, *cur)
	}

	return segs, nil
}

// Segments generates code and returns the object segments without encoding them to any wire
// format, one per .ORIG directive in source order.
func (gen *Generator) Segments() ([]vm.ObjectCode, error) {
	return gen.segments()
}

// WriteTo writes generated machine code to an output stream in the raw object-file format: each
// segment is its origin address followed by its words, big-endian, with segments concatenated in
// source order.
func (gen *Generator) WriteTo(out io.Writer) (int64, error) {
	segs, err := gen.segments()
	if err != nil {
		return 0, fmt.Errorf("gen: %w", err)
	}

	var count int64

	for _, seg := range segs {
		if err := binary.Write(out, binary.BigEndian, uint16(seg.Orig)); err != nil {
			return count, fmt.Errorf("gen: %w", err)
		}

		count += 2

		words := make([]uint16, len(seg.Code))
		for i, w := range seg.Code {
			words[i] = uint16(w)
		}

		if err := binary.Write(out, binary.BigEndian, words); err != nil {
			return count, fmt.Errorf("gen: %w", err)
		}

		count += int64(len(words) * 2)
	}

	return count, nil
}

// Encode generates object code and encodes it as an object code file, one record per segment.
func (gen *Generator) Encode() ([]byte, error) {
	gen.log.Debug("encoding", "count", len(gen.syntax), "symbols", len(gen.symbols))

	segs, err := gen.segments()
	if err != nil {
		return nil, fmt.Errorf("gen: %w", err)
	}

	if len(segs) == 0 {
		return nil, nil
	}

	gen.encoding = encoding.NewHexEncoding(append(gen.encoding.Code(), segs...))

	b, err := gen.encoding.MarshalText()
	if err != nil {
		return nil, fmt.Errorf("gen: %w", err)
	}

	return b, nil
}

// annotate wraps errors with source code information.
func (gen *Generator) annotate(code Operation, err error) error {
	if err == nil {
		return nil
	} else if src, ok := code.(*SourceInfo); ok {
		err := &SyntaxError{
			File: src.Filename,
			Loc:  vm.Word(gen.pc),
			Pos:  src.Pos,
			Line: src.Line,
			Err:  err,
		}
		return err
	} else {
		return err
	}
}

// unwrap returns the base operation from possibly wrapped operation.
func unwrap(oper Operation) Operation {
	for {
		if wrap, ok := oper.(interface{ Unwrap() Operation }); ok && wrap.Unwrap() != nil {
			oper = wrap.Unwrap()
		} else {
			return oper
		}
	}
}

// origin unwraps and returns an .ORIG directive.
func origin(oper Operation) (orig *ORIG, ok bool) {
	orig, ok = unwrap(oper).(*ORIG)
	return
}
