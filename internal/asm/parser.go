package asm

// parser.go implements the first pass of the assembler: it scans source lines, builds the symbol
// table by tracking the location counter, and records each operation (instruction or directive)
// parsed from the line in the syntax table. The second pass, code generation, is in gen.go.

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode/utf16"

	"github.com/cleardata/elsie16/internal/log"
	"github.com/cleardata/elsie16/internal/vm"
)

// opcodeFactory returns a fresh, zero-valued Operation for a given mnemonic.
type opcodeFactory func() Operation

// Parser performs the first pass of assembly: lexing and parsing source lines into a syntax table
// and a symbol table. Parse may be called more than once, with the state -- symbols, syntax, and
// location counter -- carried across calls so that multiple files may be assembled as a single
// compilation unit.
type Parser struct {
	symbols SymbolTable
	syntax  SyntaxTable
	loc     vm.Word
	file    string
	line    int

	opcodes map[string]opcodeFactory

	log  *log.Logger
	errs []error
}

// NewParser creates a parser with the built-in instruction and directive set.
func NewParser(logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.DefaultLogger()
	}

	p := &Parser{
		symbols: SymbolTable{},
		syntax:  SyntaxTable{},
		opcodes: map[string]opcodeFactory{},
		log:     logger,
	}

	for mnemonic, factory := range builtinOpcodes {
		p.opcodes[mnemonic] = factory
	}

	return p
}

// Probe registers an additional, or overriding, opcode. It is primarily useful for testing the
// parser without depending on the full instruction set.
func (p *Parser) Probe(opcode string, proto Operation) {
	typ := reflect.TypeOf(proto)

	p.opcodes[strings.ToUpper(opcode)] = func() Operation {
		return reflect.New(typ.Elem()).Interface().(Operation)
	}
}

// Err returns the accumulated parse errors, if any, joined into a single error.
func (p *Parser) Err() error {
	return errors.Join(p.errs...)
}

// Errors returns the accumulated parse errors individually, in the order encountered.
func (p *Parser) Errors() []error {
	return append([]error(nil), p.errs...)
}

// Symbols returns the symbol table built up across all calls to Parse.
func (p *Parser) Symbols() SymbolTable {
	return p.symbols
}

// Syntax returns the syntax table built up across all calls to Parse.
func (p *Parser) Syntax() SyntaxTable {
	return p.syntax
}

// Parse scans source code from in, a line at a time, adding symbols and operations to the
// parser's tables. Errors are accumulated and returned from a subsequent call to Err; Parse itself
// does not return an error so that a caller may parse several files in sequence.
func (p *Parser) Parse(in io.Reader) {
	if rc, ok := in.(interface{ Name() string }); ok {
		p.file = rc.Name()
	}

	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		p.line++

		if err := p.parseLine(scanner.Text()); err != nil {
			p.errs = append(p.errs, err)
		}
	}

	if err := scanner.Err(); err != nil {
		p.errs = append(p.errs, err)
	}
}

// parseLine parses a single line of source, updating the symbol and syntax tables.
func (p *Parser) parseLine(raw string) error {
	line := raw

	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	fields := strings.Fields(line)

	var label string

	switch {
	case strings.HasSuffix(fields[0], ":"):
		label = strings.TrimSuffix(fields[0], ":")
		fields = fields[1:]
	case strings.HasPrefix(fields[0], "."):
		// Directive, no label.
	case p.isOpcode(fields[0]):
		// Instruction, no label.
	default:
		label = fields[0]
		fields = fields[1:]
	}

	var dup error

	if label != "" {
		if err := p.symbols.Add(label, p.loc); err != nil {
			dup = &SyntaxError{File: p.file, Loc: p.loc, Pos: vm.Word(p.line), Line: raw, Err: err}
		}
	}

	if len(fields) == 0 {
		return dup
	}

	opcode := strings.TrimPrefix(fields[0], ".")
	mnemonic := strings.ToUpper(opcode)

	var operands []string

	if mnemonic == "STRINGZ" {
		// The string literal may itself contain commas or other punctuation, so it is taken as
		// the whole remainder of the line rather than split into comma-separated operands.
		if idx := strings.Index(line, fields[0]); idx >= 0 {
			operands = []string{strings.TrimSpace(line[idx+len(fields[0]):])}
		}
	} else if len(fields) > 1 {
		rest := strings.Join(fields[1:], " ")
		for _, operand := range strings.Split(rest, ",") {
			operands = append(operands, strings.TrimSpace(operand))
		}
	}

	oper, err := p.build(mnemonic, operands)
	if err != nil {
		return &SyntaxError{
			File: p.file,
			Loc:  p.loc,
			Pos:  vm.Word(p.line),
			Line: raw,
			Err:  err,
		}
	}

	// .ORIG moves the location counter rather than consuming space at it.
	if orig, ok := oper.(*ORIG); ok {
		p.loc = vm.Word(orig.LITERAL)
	}

	source := &SourceInfo{
		Filename:  p.file,
		Pos:       vm.Word(p.line),
		Line:      raw,
		Addr:      p.loc,
		Label:     label,
		Operation: oper,
	}

	p.syntax.Add(source)

	if dup != nil {
		p.errs = append(p.errs, dup)
	}

	prev := p.loc
	p.loc += operationWidth(oper)

	if p.loc < prev && p.loc != 0 {
		return &SyntaxError{
			File: p.file,
			Loc:  prev,
			Pos:  vm.Word(p.line),
			Line: raw,
			Err:  fmt.Errorf("%w: address overflows the 16-bit space", ErrLiteral),
		}
	}

	return nil
}

// operationWidth returns the number of words an operation occupies in object code. Symbols may
// still be unresolved at this point in the first pass, so width is determined structurally rather
// than by calling Generate.
func operationWidth(oper Operation) vm.Word {
	switch op := oper.(type) {
	case *BLKW:
		return vm.Word(op.ALLOC)
	case *STRINGZ:
		return vm.Word(len(utf16.Encode([]rune(op.LITERAL))) + 1)
	case *ORIG, *END, *EXTERNAL, *GLOBAL:
		return 0
	default:
		return 1
	}
}

// isOpcode reports whether a token names a known instruction, directive, or trap alias.
func (p *Parser) isOpcode(token string) bool {
	mnemonic := strings.ToUpper(strings.TrimPrefix(token, "."))
	if _, ok := p.opcodes[mnemonic]; ok {
		return true
	}

	_, ok := trapAlias[mnemonic]

	return ok
}

// build constructs and parses an Operation for the given mnemonic and operands.
func (p *Parser) build(mnemonic string, operands []string) (Operation, error) {
	if vec, ok := trapAlias[mnemonic]; ok {
		return &TRAP{LITERAL: vec}, nil
	}

	factory, ok := p.opcodes[mnemonic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOpcode, mnemonic)
	}

	oper := factory()

	if err := oper.Parse(mnemonic, operands); err != nil {
		if errors.Is(err, ErrOperand) || strings.Contains(err.Error(), "operand") {
			return nil, fmt.Errorf("%w: %s", ErrOperand, err)
		} else if strings.Contains(err.Error(), "literal") || strings.Contains(err.Error(), "range") {
			return nil, fmt.Errorf("%w: %s", ErrLiteral, err)
		}

		return nil, err
	}

	return oper, nil
}

// builtinOpcodes is the default mnemonic-to-constructor table used by a new Parser.
var builtinOpcodes = map[string]opcodeFactory{
	"ORIG":    func() Operation { return &ORIG{} },
	"END":     func() Operation { return &END{} },
	"FILL":    func() Operation { return &FILL{} },
	"DW":      func() Operation { return &FILL{} },
	"BLKW":    func() Operation { return &BLKW{} },
	"STRINGZ": func() Operation { return &STRINGZ{} },
	"EXTERNAL": func() Operation { return &EXTERNAL{} },
	"GLOBAL":  func() Operation { return &GLOBAL{} },

	"ADD": func() Operation { return &ADD{} },
	"AND": func() Operation { return &AND{} },
	"NOT": func() Operation { return &NOT{} },

	"LD":   func() Operation { return &LD{} },
	"LDR":  func() Operation { return &LDR{} },
	"LDI":  func() Operation { return &LDI{} },
	"LEA":  func() Operation { return &LEA{} },
	"ST":   func() Operation { return &ST{} },
	"STR":  func() Operation { return &STR{} },
	"STI":  func() Operation { return &STI{} },

	"JMP":  func() Operation { return &JMP{} },
	"RET":  func() Operation { return &JMP{} },
	"JSR":  func() Operation { return &JSR{} },
	"JSRR": func() Operation { return &JSRR{} },

	"TRAP": func() Operation { return &TRAP{} },
	"RTI":  func() Operation { return &RTI{} },

	"BR":     func() Operation { return &BR{} },
	"BRNZP":  func() Operation { return &BR{} },
	"BRN":    func() Operation { return &BR{} },
	"BRZ":    func() Operation { return &BR{} },
	"BRP":    func() Operation { return &BR{} },
	"BRNZ":   func() Operation { return &BR{} },
	"BRNP":   func() Operation { return &BR{} },
	"BRZP":   func() Operation { return &BR{} },
}
