package analyzer

import (
	"sort"
	"strings"

	"github.com/cleardata/elsie16/internal/asm"
	"github.com/cleardata/elsie16/internal/log"
	"github.com/cleardata/elsie16/internal/vm"
)

// Position is a 1-based line/column location in source text.
type Position struct {
	Line   int
	Column int
}

// Span is a half-open range of positions, start inclusive, end exclusive.
type Span struct {
	Start Position
	End   Position
}

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Diagnostic reports a problem found in the source, with the span it applies to.
type Diagnostic struct {
	Message  string
	Severity Severity
	Span     Span
}

// SymbolKind classifies a defined label.
type SymbolKind int

const (
	SymbolLabel SymbolKind = iota
	SymbolSubroutine
	SymbolData
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolSubroutine:
		return "subroutine"
	case SymbolData:
		return "data"
	default:
		return "label"
	}
}

// Symbol describes one label defined in the source.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Address string // hex, or "" if unresolved
	Span    Span
}

// CompletionItem is a single completion candidate.
type CompletionItem struct {
	Label  string
	Kind   string
	Detail string
}

// entry pairs a parsed statement with the address the first pass assigned to it.
type entry struct {
	info *asm.SourceInfo
	addr vm.Word
}

// Analyzer answers read-only queries about one parse of LCASM source. It is built once per source
// string and never mutated afterward, so it is safe to query concurrently.
type Analyzer struct {
	source string
	lines  []string

	symbols asm.SymbolTable
	entries []entry

	diagnostics []Diagnostic
	defs        map[string]Span   // symbol name (uppercased) -> defining span
	uses        map[string][]Span // symbol name (uppercased) -> every referencing span, def included
	kinds       map[string]SymbolKind
}

// New parses source and builds an analyzer over it. Parse and encode failures are captured as
// diagnostics rather than returned as an error -- the analyzer always produces a usable, if
// partial, result.
func New(source string) *Analyzer {
	a := &Analyzer{
		source: source,
		lines:  strings.Split(source, "\n"),
		defs:   map[string]Span{},
		uses:   map[string][]Span{},
		kinds:  map[string]SymbolKind{},
	}

	parser := asm.NewParser(log.DefaultLogger())
	parser.Parse(strings.NewReader(source))

	a.symbols = parser.Symbols()

	for _, oper := range parser.Syntax() {
		info, ok := oper.(*asm.SourceInfo)
		if !ok {
			continue
		}

		a.entries = append(a.entries, entry{info: info, addr: info.Addr})
	}

	a.indexSymbols()
	a.collectDiagnostics(parser)

	return a
}

// indexSymbols records the defining span and reference spans of every label mentioned anywhere in
// the source, and classifies each defined label as a subroutine, data, or plain label.
func (a *Analyzer) indexSymbols() {
	for _, e := range a.entries {
		if e.info.Label == "" {
			continue
		}

		name := strings.ToUpper(e.info.Label)
		span := a.labelSpan(e.info.Pos, e.info.Label)

		if _, ok := a.defs[name]; !ok {
			a.defs[name] = span
			a.kinds[name] = a.classify(e)
		}

		a.uses[name] = append(a.uses[name], span)
	}

	for _, e := range a.entries {
		ref, ok := operandSymbol(unwrapOperation(e.info))
		if !ok || ref == "" {
			continue
		}

		name := strings.ToUpper(ref)
		span := a.operandSpan(e.info.Pos, ref)
		a.uses[name] = append(a.uses[name], span)
	}
}

func (a *Analyzer) classify(e entry) SymbolKind {
	switch unwrapOperation(e.info).(type) {
	case *asm.BLKW, *asm.STRINGZ, *asm.FILL:
		return SymbolData
	}

	name := strings.ToUpper(e.info.Label)

	for _, other := range a.entries {
		if jsr, ok := unwrapOperation(other.info).(*asm.JSR); ok {
			if strings.EqualFold(jsr.SYMBOL, name) {
				return SymbolSubroutine
			}
		}
	}

	return SymbolLabel
}

// collectDiagnostics gathers parse errors from the first pass and encode errors from a second
// pass run purely for diagnostic purposes -- unlike the object-file path, every statement is
// encoded so every error in the file is reported, not just the first.
func (a *Analyzer) collectDiagnostics(parser *asm.Parser) {
	for _, err := range parser.Errors() {
		a.diagnostics = append(a.diagnostics, a.diagnosticFor(err))
	}

	for _, e := range a.entries {
		if _, err := e.info.Generate(a.symbols, uint16(e.addr)); err != nil {
			a.diagnostics = append(a.diagnostics, Diagnostic{
				Message:  err.Error(),
				Severity: SeverityError,
				Span:     a.lineSpan(int(e.info.Pos)),
			})
		}
	}

	sort.SliceStable(a.diagnostics, func(i, j int) bool {
		return a.diagnostics[i].Span.Start.Line < a.diagnostics[j].Span.Start.Line
	})
}

func (a *Analyzer) diagnosticFor(err error) Diagnostic {
	if se, ok := err.(*asm.SyntaxError); ok {
		msg := err.Error()
		if se.Err != nil {
			msg = se.Err.Error()
		}

		return Diagnostic{
			Message:  msg,
			Severity: SeverityError,
			Span:     a.lineSpan(int(se.Pos)),
		}
	}

	return Diagnostic{
		Message:  err.Error(),
		Severity: SeverityError,
	}
}

// Diagnostics returns every problem found while parsing and encoding the source.
func (a *Analyzer) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), a.diagnostics...)
}

// Symbols returns every label defined in the source, in order of first definition.
func (a *Analyzer) Symbols() []Symbol {
	syms := make([]Symbol, 0, len(a.defs))
	seen := map[string]bool{}

	for _, e := range a.entries {
		if e.info.Label == "" {
			continue
		}

		name := strings.ToUpper(e.info.Label)
		if seen[name] {
			continue
		}

		seen[name] = true

		addr := ""
		if loc, ok := a.symbols[name]; ok {
			addr = loc.String()
		}

		syms = append(syms, Symbol{
			Name:    e.info.Label,
			Kind:    a.kinds[name],
			Address: addr,
			Span:    a.defs[name],
		})
	}

	return syms
}

func (a *Analyzer) lineSpan(line int) Span {
	length := 0
	if line >= 1 && line <= len(a.lines) {
		length = len(a.lines[line-1])
	}

	return Span{
		Start: Position{Line: line, Column: 1},
		End:   Position{Line: line, Column: length + 1},
	}
}

func (a *Analyzer) labelSpan(line vm.Word, label string) Span {
	return a.findSpan(int(line), label)
}

func (a *Analyzer) operandSpan(line vm.Word, label string) Span {
	return a.findSpan(int(line), label)
}

// findSpan locates the first occurrence of word as a whole token on the given line and returns
// its span; falling back to the whole line when the text can't be found verbatim (e.g. the token
// was normalized during parsing).
func (a *Analyzer) findSpan(line int, word string) Span {
	if line < 1 || line > len(a.lines) {
		return Span{}
	}

	text := a.lines[line-1]
	idx := findToken(text, word)

	if idx < 0 {
		return a.lineSpan(line)
	}

	return Span{
		Start: Position{Line: line, Column: idx + 1},
		End:   Position{Line: line, Column: idx + 1 + len(word)},
	}
}

// findToken finds word as a case-insensitive whole-token match within text: the characters
// immediately surrounding the match, if any, must not themselves be identifier characters.
func findToken(text, word string) int {
	upper := strings.ToUpper(text)
	target := strings.ToUpper(word)

	start := 0

	for {
		idx := strings.Index(upper[start:], target)
		if idx < 0 {
			return -1
		}

		pos := start + idx
		before := pos - 1
		after := pos + len(target)

		beforeOK := before < 0 || !isIdentChar(rune(text[before]))
		afterOK := after >= len(text) || !isIdentChar(rune(text[after]))

		if beforeOK && afterOK {
			return pos
		}

		start = pos + 1
		if start >= len(upper) {
			return -1
		}
	}
}

func isIdentChar(r rune) bool {
	return r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// unwrapOperation strips the parser's SourceInfo wrapper and returns the concrete operation.
func unwrapOperation(info *asm.SourceInfo) asm.Operation {
	if info == nil {
		return nil
	}

	return info.Unwrap()
}

// operandSymbol extracts the label operand from operations that reference one, if any.
func operandSymbol(op asm.Operation) (string, bool) {
	switch v := op.(type) {
	case *asm.BR:
		return v.SYMBOL, v.SYMBOL != ""
	case *asm.LD:
		return v.SYMBOL, v.SYMBOL != ""
	case *asm.LDI:
		return v.SYMBOL, v.SYMBOL != ""
	case *asm.LEA:
		return v.SYMBOL, v.SYMBOL != ""
	case *asm.ST:
		return v.SYMBOL, v.SYMBOL != ""
	case *asm.STI:
		return v.SYMBOL, v.SYMBOL != ""
	case *asm.JSR:
		return v.SYMBOL, v.SYMBOL != ""
	case *asm.EXTERNAL:
		return v.SYMBOL, v.SYMBOL != ""
	default:
		return "", false
	}
}
