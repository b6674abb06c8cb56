package asm

// ops.go implements parsing and code generation for all opcodes and instructions.

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/cleardata/elsie16/internal/vm"
)

// BR: Conditional branch.
//
//	BR    [ IDENT | LITERAL ]
//	BRn   [ IDENT | LITERAL ]
//	BRnz  [ IDENT | LITERAL ]
//	BRz   [ IDENT | LITERAL ]
//	BRzp  [ IDENT | LITERAL ]
//	BRp   [ IDENT | LITERAL ]
//	BRnzp [ IDENT | LITERAL ]
//
//	| 0000 | NZP | OFFSET9 |
//	|------+-----+---------|
//	|15  12|11  9|8       0|
type BR struct {
	SourceInfo
	NZP    uint8
	SYMBOL string
	OFFSET uint16
}

func (br BR) String() string { return fmt.Sprintf("BR(%#v)", br) }

// Parse parses all variations of the BR* instruction based on the opcode.
func (br *BR) Parse(opcode string, opers []string) error {
	var nzp uint16

	if len(opers) != 1 {
		return errors.New("br: invalid operands")
	}

	switch strings.ToUpper(opcode) {
	case "BR", "BRNZP":
		nzp = uint16(vm.ConditionNegative | vm.ConditionZero | vm.ConditionPositive)
	case "BRP":
		nzp = uint16(vm.ConditionPositive)
	case "BRZ":
		nzp = uint16(vm.ConditionZero)
	case "BRZP":
		nzp = uint16(vm.ConditionZero | vm.ConditionPositive)
	case "BRN":
		nzp = uint16(vm.ConditionNegative)
	case "BRNP":
		nzp = uint16(vm.ConditionNegative | vm.ConditionPositive)
	case "BRNZ":
		nzp = uint16(vm.ConditionNegative | vm.ConditionZero)
	default:
		return fmt.Errorf("unknown opcode: %s", opcode)
	}

	off, sym, err := parseImmediate(opers[0], 9)
	if err != nil {
		return fmt.Errorf("br: operand error: %w", err)
	}

	*br = BR{
		SourceInfo: br.SourceInfo,
		NZP:        uint8(nzp),
		SYMBOL:     sym,
		OFFSET:     off,
	}

	return nil
}

func (br *BR) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	code := vm.NewInstruction(vm.BR, uint16(br.NZP)<<9)

	if br.SYMBOL != "" {
		offset, err := symbols.Offset(br.SYMBOL, vm.Word(pc), 9)
		if err != nil {
			return nil, fmt.Errorf("br: %w", err)
		}

		code.Operand(offset)
	} else {
		code.Operand(br.OFFSET & 0x01ff)
	}

	return []uint16{uint16(code.Encode())}, nil
}

// AND: Bitwise AND binary operator.
//
//	AND DR,SR1,SR2                    ; (register mode)
//
//	| 0101 | DR | SR1 | 0 | 00 | SR2 |
//	|------+----+-----+---+----+-----|
//	|15  12|11 9|8   6| 5 |4  3|2   0|
//
//	AND DR,SR1,#LITERAL               ; (immediate mode)
//	AND DR,SR1,LABEL                  ;
//
//	| 0101 | DR | SR1 | 1 | IMM5 |
//	|------+----+-----+---+------|
//	|15  12|11 9|8   6| 5 |4    0|
type AND struct {
	SourceInfo
	DR     string
	SR1    string
	SR2    string // Register mode.
	SYMBOL string // Symbolic reference.
	OFFSET uint16 // Otherwise.
}

func (and AND) String() string { return fmt.Sprintf("AND(%#v)", and) }

// Parse parses an AND instruction from its opcode and operands.
func (and *AND) Parse(oper string, opers []string) error {
	if len(opers) != 3 {
		return errors.New("and: operands")
	}

	*and = AND{
		SourceInfo: and.SourceInfo,
		DR:         parseRegister(opers[0]),
		SR1:        parseRegister(opers[1]),
	}

	if sr2 := parseRegister(opers[2]); sr2 != "" {
		and.SR2 = sr2

		return nil
	}

	off, sym, err := parseImmediate(opers[2], 5)
	if err != nil {
		return fmt.Errorf("and: operand error: %w", err)
	}

	and.OFFSET = off
	and.SYMBOL = sym

	return nil
}

// Generate returns the machine code for an AND instruction.
func (and *AND) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	dr := registerVal(and.DR)
	sr1 := registerVal(and.SR1)

	if dr == badGPR {
		return nil, &RegisterError{"and", and.DR}
	} else if sr1 == badGPR {
		return nil, &RegisterError{"and", and.SR1}
	}

	code := vm.NewInstruction(vm.AND, dr<<9|sr1<<6)

	switch {
	case and.SR2 != "":
		sr2 := registerVal(and.SR2)
		if sr2 == badGPR {
			return nil, &RegisterError{"and", and.SR2}
		}

		code.Operand(sr2)
	case and.SYMBOL != "":
		code.Operand(1 << 5)

		offset, err := symbols.Offset(and.SYMBOL, vm.Word(pc), 5)
		if err != nil {
			return nil, fmt.Errorf("and: %w", err)
		}

		code.Operand(offset)
	default:
		code.Operand(1 << 5)
		code.Operand(and.OFFSET & 0x001f)
	}

	return []uint16{uint16(code.Encode())}, nil
}

// LD: Load from memory, PC-relative..
//
//	LD DR,LABEL
//	LD DR,#LITERAL
//
//	| 0010 | DR | OFFSET9 |
//	|------+----+---------|
//	|15  12|11 9|8       0|
type LD struct {
	SourceInfo
	DR     string
	OFFSET uint16
	SYMBOL string
}

func (ld LD) String() string { return fmt.Sprintf("LD(%#v)", ld) }

func (ld *LD) Parse(opcode string, operands []string) error {
	var err error

	if strings.ToUpper(opcode) != "LD" {
		return errors.New("ld: opcode error")
	} else if len(operands) != 2 {
		return errors.New("ld: operand error")
	}

	*ld = LD{
		SourceInfo: ld.SourceInfo,
		DR:         operands[0],
	}

	ld.OFFSET, ld.SYMBOL, err = parseImmediate(operands[1], 9)
	if err != nil {
		return fmt.Errorf("ld: operand error: %w", err)
	}

	return nil
}

func (ld LD) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	dr := registerVal(ld.DR)
	if dr == badGPR {
		return nil, &RegisterError{op: "ld", Reg: ld.DR}
	}

	code := vm.NewInstruction(vm.LD, dr<<9)

	switch {
	case ld.SYMBOL != "":
		offset, err := symbols.Offset(ld.SYMBOL, vm.Word(pc), 9)
		if err != nil {
			return nil, fmt.Errorf("ld: %w", err)
		}

		code.Operand(offset)
	default:
		code.Operand(ld.OFFSET & 0x1ff)
	}

	return []uint16{uint16(code.Encode())}, nil
}

// LDR: Load from memory, register-relative.
//
//	LDR DR,SR,LABEL
//	LDR DR,SR,#LITERAL
//
//	| 0110 | DR | SR | OFFSET6 |
//	|------+----+----+---------|
//	|15  12|11 9|8  6|5       0|
//
// .
type LDR struct {
	SourceInfo
	DR     string
	SR     string
	OFFSET uint16
	SYMBOL string
}

func (ldr LDR) String() string { return fmt.Sprintf("LDR(%#v)", ldr) }

func (ldr *LDR) Parse(opcode string, operands []string) error {
	var err error

	if opcode != "LDR" {
		return errors.New("ldr: opcode error")
	} else if len(operands) != 3 {
		return errors.New("ldr: operand error")
	}

	*ldr = LDR{
		SourceInfo: ldr.SourceInfo,
		DR:         operands[0],
		SR:         operands[1],
	}

	ldr.OFFSET, ldr.SYMBOL, err = parseImmediate(operands[2], 6)
	if err != nil {
		return fmt.Errorf("ldr: operand error: %w", err)
	}

	return nil
}

func (ldr LDR) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	dr := registerVal(ldr.DR)
	sr := registerVal(ldr.SR)

	if dr == badGPR {
		return nil, &RegisterError{"ldr", ldr.DR}
	} else if sr == badGPR {
		return nil, &RegisterError{"ldr", ldr.SR}
	}

	code := vm.NewInstruction(vm.LDR, dr<<9|sr<<6)

	switch {
	case ldr.SYMBOL != "":
		offset, err := symbols.Offset(ldr.SYMBOL, vm.Word(pc), 6)
		if err != nil {
			return nil, fmt.Errorf("ldr: %w", err)
		}

		code.Operand(offset)
	default:
		code.Operand(ldr.OFFSET & 0x003f)
	}

	return []uint16{uint16(code.Encode())}, nil
}

// LEA: Load effective address.
//
//	LEA DR,LABEL
//	LEA DR,#LITERAL
//
//	| 1110 | DR | OFFSET9 |
//	|------+----+---------|
//	|15  12|11 9|8       0|
//
// .
type LEA struct {
	SourceInfo
	DR     string
	SYMBOL string
	OFFSET uint16
}

func (lea LEA) String() string { return fmt.Sprintf("%#v", lea) }

func (lea *LEA) Parse(opcode string, operands []string) error {
	var err error

	if opcode != "LEA" {
		return errors.New("lea: opcode error")
	} else if len(operands) != 2 {
		return errors.New("lea: operand error")
	}

	*lea = LEA{
		SourceInfo: lea.SourceInfo,
		DR:         operands[0],
	}

	lea.OFFSET, lea.SYMBOL, err = parseImmediate(operands[1], 9)
	if err != nil {
		return fmt.Errorf("lea: operand error: %w", err)
	}

	return nil
}

func (lea LEA) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	dr := registerVal(lea.DR)

	if dr == badGPR {
		return nil, &RegisterError{"lea", lea.DR}
	}

	code := vm.NewInstruction(vm.LEA, dr<<9)

	switch {
	case lea.SYMBOL != "":
		offset, err := symbols.Offset(lea.SYMBOL, vm.Word(pc), 9)
		if err != nil {
			return nil, fmt.Errorf("lea: %w", err)
		}

		code.Operand(offset)
	default:
		code.Operand(lea.OFFSET & 0x01ff)
	}

	return []uint16{uint16(code.Encode())}, nil
}

// ADD: Arithmetic addition operator.
//
//	ADD DR,SR1,SR2
//	ADD DR,SR1,#LITERAL
//
//	| 0001 | DR | SR1 | 0 | 00 | SR2 | (register mode)
//	|------+----+-----+---+----+-----|
//	|15  12|11 9|8   6| 5 |4  3|2   0|
//
//	| 0001 | DR | SR1 | 1 |   IMM5   | (immediate mode)
//	|------+----+-----+---+----------|
//	|15  12|11 9|8  6 | 5 |4        0|
//
// .
type ADD struct {
	SourceInfo
	DR      string
	SR1     string
	SR2     string // Not empty when register mode.
	LITERAL uint16 // Literal value otherwise, immediate mode.
}

func (add ADD) String() string { return fmt.Sprintf("%#v", add) }

func (add *ADD) Parse(opcode string, operands []string) error {
	if opcode != "ADD" {
		return errors.New("add: opcode error")
	} else if len(operands) != 3 {
		return errors.New("add: operand error")
	}

	dr := parseRegister(operands[0])
	sr1 := parseRegister(operands[1])

	*add = ADD{
		SourceInfo: add.SourceInfo,
		DR:         dr,
		SR1:        sr1,
	}

	if sr2 := parseRegister(operands[2]); sr2 != "" {
		add.SR2 = sr2
	} else {
		off, _, err := parseImmediate(operands[2], 5)
		if err != nil {
			return fmt.Errorf("add: operand error: %w", err)
		}

		add.LITERAL = off & 0x1f
	}

	return nil
}

func (add ADD) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	dr := registerVal(add.DR)
	sr1 := registerVal(add.SR1)

	if dr == badGPR {
		return nil, &RegisterError{"add", add.DR}
	} else if sr1 == badGPR {
		return nil, &RegisterError{"add", add.SR1}
	}

	code := vm.NewInstruction(vm.ADD, dr<<9|sr1<<6)

	if add.SR2 != "" {
		sr2 := registerVal(add.SR2)
		if sr2 == badGPR {
			return nil, &RegisterError{"add", add.SR2}
		}

		code.Operand(sr2)
	} else {
		code.Operand(1 << 5)
		code.Operand(add.LITERAL & 0x001f)
	}

	return []uint16{uint16(code.Encode())}, nil
}

// TRAP: System call or software interrupt.
//
//	TRAP x25
//
//	| 1111 | 0000 | VECTOR8 |
//	|------+------+---------|
//	|15  12|11   8|7       0|
//
// .
type TRAP struct {
	SourceInfo
	LITERAL uint16
}

func (trap TRAP) String() string { return fmt.Sprintf("%#v", trap) }

func (trap *TRAP) Parse(opcode string, operands []string) error {
	if opcode != "TRAP" {
		return errors.New("trap: operator error")
	} else if len(operands) != 1 {
		return errors.New("trap: operand error")
	}

	lit, err := parseLiteral(operands[0], 8)
	if err != nil {
		return fmt.Errorf("trap: operand error: %w", err)
	}

	*trap = TRAP{
		SourceInfo: trap.SourceInfo,
		LITERAL:    lit,
	}

	return nil
}

func (trap TRAP) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	code := uint16(vm.TRAP) | trap.LITERAL&0x00ff
	return []uint16{code}, nil
}

// NOT: Bitwise complement.
//
//	NOT DR,SR ;; DR <- ^(SR)
//
//	| 1001 | DR | SR | 1 1111 |
//	|------+----+----+--------|
//	|15  12|11 9|8  6| 5     0|
//
// .
type NOT struct {
	SourceInfo
	DR string
	SR string
}

func (not NOT) String() string { return fmt.Sprintf("%#v", not) }

func (not *NOT) Parse(opcode string, operands []string) error {
	if opcode != "NOT" {
		return errors.New("not: opcode error")
	} else if len(operands) != 2 {
		return errors.New("not: operand error")
	}

	dr := parseRegister(operands[0])
	sr := parseRegister(operands[1])

	*not = NOT{
		SourceInfo: not.SourceInfo,
		DR:         dr,
		SR:         sr,
	}

	return nil
}

func (not *NOT) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	if not.DR == "" || not.SR == "" {
		return nil, fmt.Errorf("gen: not: bad operand")
	}

	dr := registerVal(not.DR)
	sr := registerVal(not.SR)

	if dr == badGPR {
		return nil, &RegisterError{"not", not.DR}
	} else if sr == badGPR {
		return nil, &RegisterError{"not", not.SR}
	}

	code := vm.NewInstruction(vm.NOT, dr<<9|sr<<6|0x003f)

	return []uint16{uint16(code.Encode())}, nil
}

// .FILL: Allocate and initialize one word of data.
//
//	.FILL x1234
//	.FILL 0
type FILL struct {
	SourceInfo
	LITERAL uint16 // Literal constant.
}

func (fill FILL) String() string { return fmt.Sprintf("%#v", fill) }

func (fill *FILL) Parse(opcode string, operands []string) error {
	if len(operands) != 1 {
		return errors.New("fill: operand error")
	}

	val, err := parseLiteral(operands[0], 16)
	fill.LITERAL = val

	return err
}

func (fill *FILL) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	return []uint16{fill.LITERAL}, nil
}

// .BLKW: Data allocation directive.
//
//	.BLKW 1
type BLKW struct {
	SourceInfo
	ALLOC uint16 // Number of words allocated.
}

func (blkw BLKW) String() string { return fmt.Sprintf("%#v", blkw) }

func (blkw *BLKW) Parse(opcode string, operands []string) error {
	if len(operands) != 1 {
		return errors.New("blkw: operand error")
	}

	val, err := parseLiteral(operands[0], 16)
	blkw.ALLOC = val

	return err
}

func (blkw *BLKW) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	words := make([]uint16, blkw.ALLOC)
	return words, nil
}

// .ORIG: Origin directive. Sets the location counter to the value.
//
//	.ORIG x1234
//	.ORIG 0
type ORIG struct {
	SourceInfo
	LITERAL uint16 // Literal constant.
}

func (orig ORIG) String() string { return fmt.Sprintf("%#v", orig) }

func (orig *ORIG) Parse(opcode string, operands []string) error {
	if len(operands) != 1 {
		return errors.New("argument error")
	}

	arg := operands[0]

	switch arg[0] {
	case 'x', 'b', 'o':
		arg = "0" + arg
	case 'X', 'B', 'O':
		arg = "0" + strings.ToLower(arg[:1]) + arg[1:]
	}

	val, err := strconv.ParseUint(arg, 0, 16)

	if numError := (&strconv.NumError{}); errors.As(err, &numError) {
		return fmt.Errorf("parse error: %s (%s)", numError.Num, numError.Err.Error())
	} else if val > math.MaxUint16 {
		return errors.New("argument error")
	}

	orig.LITERAL = uint16(val)

	return nil
}

// Generate encodes the origin as the entry point in machine code. It should only be called as the
// first operation when generating code.
func (orig *ORIG) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	return []uint16{orig.LITERAL}, nil
}

// .STRINGZ: A directive to allocate a UTF-16-encoded, zero-terminated string.
//
//	HELLO .STRINGZ "Hello, world!"
type STRINGZ struct {
	SourceInfo
	LITERAL string // Literal constant.
}

func (s STRINGZ) String() string { return fmt.Sprintf("%#v", s) }

func (s *STRINGZ) Parse(opcode string, val []string) error {
	if len(val) != 1 {
		return errors.New("stringz: operand error")
	}

	return s.ParseString(opcode, val[0])
}

func (s *STRINGZ) ParseString(opcode string, val string) error {
	unescaped, err := unescapeString(strings.Trim(val, `"`))
	if err != nil {
		return fmt.Errorf("stringz: %w", err)
	}

	s.LITERAL = unescaped

	return nil
}

// unescapeString decodes the backslash escapes recognized inside a string literal: \n, \t, \\, \"
// and \0. A backslash followed by anything else is an error rather than being passed through
// verbatim, so a typo doesn't silently survive into the assembled string.
func unescapeString(s string) (string, error) {
	var b strings.Builder

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}

		i++
		if i >= len(s) {
			return "", errors.New("stringz: trailing backslash")
		}

		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case '0':
			b.WriteByte(0)
		default:
			return "", fmt.Errorf("stringz: invalid escape: \\%c", s[i])
		}
	}

	return b.String(), nil
}

func (s *STRINGZ) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	code := append(utf16.Encode([]rune(s.LITERAL)), 0) // null terminate value.
	return code, nil
}

// badGPR is returned when a value is invalid because it is more noticeable than a zero value.
const badGPR = uint16(vm.BadGPR)

// registerVal returns the registerVal encoded as an integer or badGPR if the register does not
// exist.
func registerVal(reg string) uint16 {
	switch reg {
	case "R0":
		return 0
	case "R1":
		return 1
	case "R2":
		return 2
	case "R3":
		return 3
	case "R4":
		return 4
	case "R5":
		return 5
	case "R6":
		return 6
	case "R7":
		return 7
	default:
		return uint16(vm.BadGPR)
	}
}

// parseRegister returns the canonical name of a register operand, e.g. "r3" becomes "R3", or the
// empty string if the operand does not name a register.
func parseRegister(operand string) string {
	operand = strings.ToUpper(strings.TrimSpace(operand))

	if len(operand) != 2 || operand[0] != 'R' {
		return ""
	}

	if operand[1] < '0' || operand[1] > '7' {
		return ""
	}

	return operand
}

// parseLiteral parses a numeric operand in immediate (#123), hex (x1F), octal (o17) or binary
// (b1010) notation and sign-extends it to verify it fits in n bits. Hex, octal and binary digits may
// be grouped with underscores, e.g. b0000_0111.
func parseLiteral(operand string, n uint8) (uint16, error) {
	operand = strings.TrimSpace(operand)
	if operand == "" {
		return 0, &LiteralRangeError{Literal: operand, Range: n}
	}

	// A leading # marks an immediate; the base prefix, if any, follows it. A minus sign is
	// accepted on either side of the base prefix.
	digits := strings.TrimPrefix(operand, "#")

	neg := false
	if strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	}

	base := 10

	switch {
	case strings.HasPrefix(digits, "x"), strings.HasPrefix(digits, "X"):
		base, digits = 16, digits[1:]
	case strings.HasPrefix(digits, "o"), strings.HasPrefix(digits, "O"):
		base, digits = 8, digits[1:]
	case strings.HasPrefix(digits, "b"), strings.HasPrefix(digits, "B"):
		base, digits = 2, digits[1:]
	}

	if !neg && strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	}

	digits = strings.TrimPrefix(digits, "+")

	if base != 10 {
		digits = strings.ReplaceAll(digits, "_", "")
	}

	val, err := strconv.ParseInt(digits, base, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrLiteral, operand, err)
	}

	if neg {
		val = -val
	}

	lo := -(int64(1) << (n - 1))
	hi := (int64(1) << (n - 1)) - 1

	if base != 10 && !neg {
		// Hex, octal and binary literals name a bit pattern, so they may use the field's full
		// unsigned width: .FILL xdada and AND R0,R0,x1f are both fine.
		hi = (int64(1) << n) - 1
	}

	if val < lo || val > hi {
		return 0, &LiteralRangeError{Literal: operand, Range: n}
	}

	return uint16(val) & uint16(1<<n-1), nil
}

// parseImmediate parses an operand that is either a numeric literal or a symbolic label reference.
// It returns the literal value and an empty symbol, or a zero value and the (uppercased) symbol
// name.
func parseImmediate(operand string, n uint8) (uint16, string, error) {
	operand = strings.TrimSpace(operand)

	if operand == "" {
		return 0, "", ErrOperand
	}

	first := operand[0]
	if first == '#' || first == '-' || (first >= '0' && first <= '9') {
		val, err := parseLiteral(operand, n)
		return val, "", err
	}

	// A base-prefixed form like x10 is ambiguous with a label that happens to start with the
	// prefix letter: take it as a number when it parses as one, and as a symbol otherwise. An
	// out-of-range number stays an error; BACK is a label, x10000 is not.
	if first == 'x' || first == 'X' || first == 'o' || first == 'O' || first == 'b' || first == 'B' {
		val, err := parseLiteral(operand, n)
		if err == nil {
			return val, "", nil
		}

		rangeErr := &LiteralRangeError{}
		if errors.As(err, &rangeErr) {
			return 0, "", err
		}
	}

	return 0, strings.ToUpper(operand), nil
}

// LDI: Load indirect from memory, PC-relative.
//
//	LDI DR,LABEL
//	LDI DR,#LITERAL
//
//	| 1010 | DR | OFFSET9 |
//	|------+----+---------|
//	|15  12|11 9|8       0|
type LDI struct {
	SourceInfo
	DR     string
	OFFSET uint16
	SYMBOL string
}

func (ldi LDI) String() string { return fmt.Sprintf("%#v", ldi) }

func (ldi *LDI) Parse(opcode string, operands []string) error {
	var err error

	if opcode != "LDI" {
		return errors.New("ldi: opcode error")
	} else if len(operands) != 2 {
		return errors.New("ldi: operand error")
	}

	*ldi = LDI{SourceInfo: ldi.SourceInfo, DR: parseRegister(operands[0])}

	ldi.OFFSET, ldi.SYMBOL, err = parseImmediate(operands[1], 9)
	if err != nil {
		return fmt.Errorf("ldi: operand error: %w", err)
	}

	return nil
}

func (ldi LDI) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	dr := registerVal(ldi.DR)
	if dr == badGPR {
		return nil, &RegisterError{"ldi", ldi.DR}
	}

	code := vm.NewInstruction(vm.LDI, dr<<9)

	if ldi.SYMBOL != "" {
		offset, err := symbols.Offset(ldi.SYMBOL, vm.Word(pc), 9)
		if err != nil {
			return nil, fmt.Errorf("ldi: %w", err)
		}

		code.Operand(offset)
	} else {
		code.Operand(ldi.OFFSET & 0x01ff)
	}

	return []uint16{uint16(code.Encode())}, nil
}

// ST: Store to memory, PC-relative.
//
//	ST SR,LABEL
//	ST SR,#LITERAL
//
//	| 0011 | SR | OFFSET9 |
//	|------+----+---------|
//	|15  12|11 9|8       0|
type ST struct {
	SourceInfo
	SR     string
	OFFSET uint16
	SYMBOL string
}

func (st ST) String() string { return fmt.Sprintf("%#v", st) }

func (st *ST) Parse(opcode string, operands []string) error {
	var err error

	if opcode != "ST" {
		return errors.New("st: opcode error")
	} else if len(operands) != 2 {
		return errors.New("st: operand error")
	}

	*st = ST{SourceInfo: st.SourceInfo, SR: parseRegister(operands[0])}

	st.OFFSET, st.SYMBOL, err = parseImmediate(operands[1], 9)
	if err != nil {
		return fmt.Errorf("st: operand error: %w", err)
	}

	return nil
}

func (st ST) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	sr := registerVal(st.SR)
	if sr == badGPR {
		return nil, &RegisterError{"st", st.SR}
	}

	code := vm.NewInstruction(vm.ST, sr<<9)

	if st.SYMBOL != "" {
		offset, err := symbols.Offset(st.SYMBOL, vm.Word(pc), 9)
		if err != nil {
			return nil, fmt.Errorf("st: %w", err)
		}

		code.Operand(offset)
	} else {
		code.Operand(st.OFFSET & 0x01ff)
	}

	return []uint16{uint16(code.Encode())}, nil
}

// STI: Store indirect to memory, PC-relative.
//
//	STI SR,LABEL
//	STI SR,#LITERAL
//
//	| 1011 | SR | OFFSET9 |
//	|------+----+---------|
//	|15  12|11 9|8       0|
type STI struct {
	SourceInfo
	SR     string
	OFFSET uint16
	SYMBOL string
}

func (sti STI) String() string { return fmt.Sprintf("%#v", sti) }

func (sti *STI) Parse(opcode string, operands []string) error {
	var err error

	if opcode != "STI" {
		return errors.New("sti: opcode error")
	} else if len(operands) != 2 {
		return errors.New("sti: operand error")
	}

	*sti = STI{SourceInfo: sti.SourceInfo, SR: parseRegister(operands[0])}

	sti.OFFSET, sti.SYMBOL, err = parseImmediate(operands[1], 9)
	if err != nil {
		return fmt.Errorf("sti: operand error: %w", err)
	}

	return nil
}

func (sti STI) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	sr := registerVal(sti.SR)
	if sr == badGPR {
		return nil, &RegisterError{"sti", sti.SR}
	}

	code := vm.NewInstruction(vm.STI, sr<<9)

	if sti.SYMBOL != "" {
		offset, err := symbols.Offset(sti.SYMBOL, vm.Word(pc), 9)
		if err != nil {
			return nil, fmt.Errorf("sti: %w", err)
		}

		code.Operand(offset)
	} else {
		code.Operand(sti.OFFSET & 0x01ff)
	}

	return []uint16{uint16(code.Encode())}, nil
}

// STR: Store to memory, register-relative.
//
//	STR SR1,SR2,LABEL
//	STR SR1,SR2,#LITERAL
//
//	| 0111 | SR1 | SR2 | OFFSET6 |
//	|------+-----+-----+---------|
//	|15  12|11  9|8   6|5       0|
type STR struct {
	SourceInfo
	SR1    string
	SR2    string
	OFFSET uint16
	SYMBOL string
}

func (str STR) String() string { return fmt.Sprintf("%#v", str) }

func (str *STR) Parse(opcode string, operands []string) error {
	var err error

	if opcode != "STR" {
		return errors.New("str: opcode error")
	} else if len(operands) != 3 {
		return errors.New("str: operand error")
	}

	*str = STR{
		SourceInfo: str.SourceInfo,
		SR1:        parseRegister(operands[0]),
		SR2:        parseRegister(operands[1]),
	}

	str.OFFSET, str.SYMBOL, err = parseImmediate(operands[2], 6)
	if err != nil {
		return fmt.Errorf("str: operand error: %w", err)
	}

	return nil
}

func (str STR) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	sr1 := registerVal(str.SR1)
	sr2 := registerVal(str.SR2)

	if sr1 == badGPR {
		return nil, &RegisterError{"str", str.SR1}
	} else if sr2 == badGPR {
		return nil, &RegisterError{"str", str.SR2}
	}

	code := vm.NewInstruction(vm.STR, sr1<<9|sr2<<6)

	if str.SYMBOL != "" {
		offset, err := symbols.Offset(str.SYMBOL, vm.Word(pc), 6)
		if err != nil {
			return nil, fmt.Errorf("str: %w", err)
		}

		code.Operand(offset)
	} else {
		code.Operand(str.OFFSET & 0x003f)
	}

	return []uint16{uint16(code.Encode())}, nil
}

// JMP: Unconditional jump to the address in a register. RET is an alias for JMP R7.
//
//	JMP SR
//	RET
//
//	| 1100 | 000 | SR | 00 0000 |
//	|------+-----+----+---------|
//	|15  12|11  9|8  6|5       0|
type JMP struct {
	SourceInfo
	SR string
}

func (jmp JMP) String() string { return fmt.Sprintf("%#v", jmp) }

func (jmp *JMP) Parse(opcode string, operands []string) error {
	switch strings.ToUpper(opcode) {
	case "RET":
		*jmp = JMP{SourceInfo: jmp.SourceInfo, SR: "R7"}
		return nil
	case "JMP":
		if len(operands) != 1 {
			return errors.New("jmp: operand error")
		}

		*jmp = JMP{SourceInfo: jmp.SourceInfo, SR: parseRegister(operands[0])}

		return nil
	default:
		return fmt.Errorf("unknown opcode: %s", opcode)
	}
}

func (jmp JMP) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	sr := registerVal(jmp.SR)
	if sr == badGPR {
		return nil, &RegisterError{"jmp", jmp.SR}
	}

	code := vm.NewInstruction(vm.JMP, sr<<6)

	return []uint16{uint16(code.Encode())}, nil
}

// JSR: Jump to subroutine, PC-relative. JSRR jumps to the address held in a register.
//
//	JSR LABEL
//	JSR #LITERAL
//
//	| 0100 | 1 | OFFSET11 |
//	|------+---+----------|
//	|15  12|11 |10       0|
type JSR struct {
	SourceInfo
	OFFSET uint16
	SYMBOL string
}

func (jsr JSR) String() string { return fmt.Sprintf("%#v", jsr) }

func (jsr *JSR) Parse(opcode string, operands []string) error {
	var err error

	if opcode != "JSR" {
		return errors.New("jsr: opcode error")
	} else if len(operands) != 1 {
		return errors.New("jsr: operand error")
	}

	jsr.OFFSET, jsr.SYMBOL, err = parseImmediate(operands[0], 11)
	if err != nil {
		return fmt.Errorf("jsr: operand error: %w", err)
	}

	return nil
}

func (jsr JSR) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	code := vm.NewInstruction(vm.JSR, 1<<11)

	if jsr.SYMBOL != "" {
		offset, err := symbols.Offset(jsr.SYMBOL, vm.Word(pc), 11)
		if err != nil {
			return nil, fmt.Errorf("jsr: %w", err)
		}

		code.Operand(offset)
	} else {
		code.Operand(jsr.OFFSET & 0x07ff)
	}

	return []uint16{uint16(code.Encode())}, nil
}

// JSRR: Jump to subroutine, register-relative.
//
//	JSRR SR
//
//	| 0100 | 0 | 00 | SR | 00 0000 |
//	|------+---+----+----+---------|
//	|15  12|11 |10 9|8  6|5       0|
type JSRR struct {
	SourceInfo
	SR string
}

func (jsrr JSRR) String() string { return fmt.Sprintf("%#v", jsrr) }

func (jsrr *JSRR) Parse(opcode string, operands []string) error {
	if opcode != "JSRR" {
		return errors.New("jsrr: opcode error")
	} else if len(operands) != 1 {
		return errors.New("jsrr: operand error")
	}

	jsrr.SR = parseRegister(operands[0])

	return nil
}

func (jsrr JSRR) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	sr := registerVal(jsrr.SR)
	if sr == badGPR {
		return nil, &RegisterError{"jsrr", jsrr.SR}
	}

	code := vm.NewInstruction(vm.JSRR, sr<<6)

	return []uint16{uint16(code.Encode())}, nil
}

// RTI: Return from trap or interrupt. Privileged.
//
//	RTI
//
//	| 1000 | 0000 0000 0000 |
//	|------+----------------|
//	|15  12|11             0|
type RTI struct {
	SourceInfo
}

func (rti RTI) String() string { return "RTI" }

func (rti *RTI) Parse(opcode string, operands []string) error {
	if opcode != "RTI" {
		return errors.New("rti: opcode error")
	} else if len(operands) != 0 {
		return errors.New("rti: operand error")
	}

	return nil
}

func (rti RTI) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	return []uint16{uint16(vm.NewInstruction(vm.RTI, 0).Encode())}, nil
}

// trapAlias maps mnemonic trap pseudo-ops to their fixed TRAP vector.
var trapAlias = map[string]uint16{
	"GETC":  0x20,
	"OUT":   0x21,
	"PUTS":  0x22,
	"IN":    0x23,
	"PUTSP": 0x24,
	"HALT":  0x25,
}

// EXTERNAL declares a symbol that is defined in another compilation unit. It reserves no storage
// and generates no code; it exists so the symbol table does not reject unresolved references
// during linking-free, single-file assembly.
type EXTERNAL struct {
	SourceInfo
	SYMBOL string
}

func (ext EXTERNAL) String() string { return fmt.Sprintf("%#v", ext) }

func (ext *EXTERNAL) Parse(opcode string, operands []string) error {
	if len(operands) != 1 {
		return errors.New("external: operand error")
	}

	ext.SYMBOL = strings.ToUpper(operands[0])

	return nil
}

func (ext *EXTERNAL) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	return nil, nil
}

// GLOBAL exports a symbol defined in this compilation unit so other units may reference it. Like
// EXTERNAL, it is a linker annotation and generates no code.
type GLOBAL struct {
	SourceInfo
	SYMBOL string
}

func (glob GLOBAL) String() string { return fmt.Sprintf("%#v", glob) }

func (glob *GLOBAL) Parse(opcode string, operands []string) error {
	if len(operands) != 1 {
		return errors.New("global: operand error")
	}

	glob.SYMBOL = strings.ToUpper(operands[0])

	return nil
}

func (glob *GLOBAL) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	return nil, nil
}

// END marks the end of a compilation unit. It reserves no storage and generates no code.
type END struct {
	SourceInfo
}

func (end END) String() string { return "END" }

func (end *END) Parse(opcode string, operands []string) error {
	return nil
}

func (end *END) Generate(symbols SymbolTable, pc uint16) ([]uint16, error) {
	return nil, nil
}
