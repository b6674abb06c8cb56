package analyzer

// queries.go implements the position-addressed analyzer operations: hover text, go-to-definition,
// find-references, and completions. All of them key off the same def/use index that Diagnostics
// and Symbols are built from.

import (
	"fmt"
	"sort"
	"strings"
)

// mnemonicDoc is a one-line operand shape plus a short summary, shown in hover text and
// completion detail.
type mnemonicDoc struct {
	shape   string
	summary string
}

var mnemonicDocs = map[string]mnemonicDoc{
	"ADD":   {"ADD DR, SR1, SR2|imm5", "add two registers, or a register and a sign-extended 5-bit immediate"},
	"AND":   {"AND DR, SR1, SR2|imm5", "bitwise AND, register or immediate form"},
	"NOT":   {"NOT DR, SR", "bitwise complement"},
	"BR":    {"BR[nzp] LABEL", "branch to LABEL if any of the tested condition codes is set"},
	"BRN":   {"BRn LABEL", "branch if N is set"},
	"BRZ":   {"BRz LABEL", "branch if Z is set"},
	"BRP":   {"BRp LABEL", "branch if P is set"},
	"BRNZ":  {"BRnz LABEL", "branch if N or Z is set"},
	"BRNP":  {"BRnp LABEL", "branch if N or P is set"},
	"BRZP":  {"BRzp LABEL", "branch if Z or P is set"},
	"BRNZP": {"BRnzp LABEL", "branch unconditionally"},
	"JMP":   {"JMP BaseR", "set PC to the register's value"},
	"RET":   {"RET", "return from subroutine; alias for JMP R7"},
	"JSR":   {"JSR LABEL", "save PC in R7 and jump to LABEL"},
	"JSRR":  {"JSRR BaseR", "save PC in R7 and jump to the register's value"},
	"LD":    {"LD DR, LABEL", "load DR from the word at LABEL, sets condition codes"},
	"LDI":   {"LDI DR, LABEL", "load DR indirectly through the word at LABEL, sets condition codes"},
	"LDR":   {"LDR DR, BaseR, #offset6", "load DR from BaseR+offset, sets condition codes"},
	"LEA":   {"LEA DR, LABEL", "load DR with LABEL's address"},
	"ST":    {"ST SR, LABEL", "store SR to the word at LABEL"},
	"STI":   {"STI SR, LABEL", "store SR indirectly through the word at LABEL"},
	"STR":   {"STR SR, BaseR, #offset6", "store SR to BaseR+offset"},
	"TRAP":  {"TRAP #vector8", "save PC in R7 and jump to the system call at the trap vector"},
	"RTI":   {"RTI", "return from trap or interrupt; privileged"},
	"GETC":  {"GETC", "read one character into R0 without echo"},
	"OUT":   {"OUT", "write the character in R0 to the display"},
	"PUTS":  {"PUTS", "write the null-terminated string at R0"},
	"IN":    {"IN", "prompt, then read one character into R0 with echo"},
	"PUTSP": {"PUTSP", "write the null-terminated, byte-packed string at R0"},
	"HALT":  {"HALT", "stop the machine"},
}

var directiveDocs = map[string]mnemonicDoc{
	"ORIG":     {".ORIG address", "set the origin address of the segment that follows"},
	"END":      {".END", "end the current segment"},
	"FILL":     {".FILL value", "emit one word holding a literal value; labels are not accepted"},
	"BLKW":     {".BLKW count", "reserve count words of uninitialized storage"},
	"STRINGZ":  {".STRINGZ \"text\"", "emit the string's characters followed by a null word"},
	"EXTERNAL": {".EXTERNAL LABEL", "declare LABEL defined in another compilation unit"},
	"GLOBAL":   {".GLOBAL LABEL", "export LABEL to other compilation units"},
	"DW":       {".DW value", "alias for .FILL"},
}

// contains reports whether pos lies within span, start inclusive, end exclusive.
func (s Span) contains(pos Position) bool {
	if pos.Line < s.Start.Line || pos.Line > s.End.Line {
		return false
	}

	if pos.Line == s.Start.Line && pos.Column < s.Start.Column {
		return false
	}

	if pos.Line == s.End.Line && pos.Column >= s.End.Column {
		return false
	}

	return true
}

// symbolAt returns the name of the label whose definition or use span covers pos.
func (a *Analyzer) symbolAt(pos Position) (string, bool) {
	for name, spans := range a.uses {
		for _, span := range spans {
			if span.contains(pos) {
				return name, true
			}
		}
	}

	return "", false
}

// wordAt returns the raw token text at pos, if any, along with its classified type.
func (a *Analyzer) wordAt(pos Position) (string, TokenType, bool) {
	if pos.Line < 1 || pos.Line > len(a.lines) {
		return "", 0, false
	}

	for _, tok := range tokenizeLine(pos.Line, a.lines[pos.Line-1]) {
		span := Span{
			Start: Position{Line: tok.Line, Column: tok.Column},
			End:   Position{Line: tok.Line, Column: tok.Column + tok.Length},
		}

		if span.contains(pos) {
			text := a.lines[pos.Line-1][tok.Column-1 : tok.Column-1+tok.Length]
			return text, tok.Type, true
		}
	}

	return "", 0, false
}

// Definition returns the span of the label defining the symbol referenced at pos, or false if pos
// is not on a symbol or the symbol is never defined.
func (a *Analyzer) Definition(line, col int) (Span, bool) {
	name, ok := a.symbolAt(Position{Line: line, Column: col})
	if !ok {
		return Span{}, false
	}

	span, ok := a.defs[name]

	return span, ok
}

// References returns every span -- definition and uses alike -- of the symbol at pos, in source
// order. It returns false if pos is not on a symbol.
func (a *Analyzer) References(line, col int) ([]Span, bool) {
	name, ok := a.symbolAt(Position{Line: line, Column: col})
	if !ok {
		return nil, false
	}

	spans := append([]Span(nil), a.uses[name]...)

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start.Line != spans[j].Start.Line {
			return spans[i].Start.Line < spans[j].Start.Line
		}

		return spans[i].Start.Column < spans[j].Start.Column
	})

	return spans, true
}

// Hover returns markdown text describing whatever is at pos -- an instruction, a register, a
// directive, or a label -- or false if there's nothing to say.
func (a *Analyzer) Hover(line, col int) (string, bool) {
	pos := Position{Line: line, Column: col}

	if name, ok := a.symbolAt(pos); ok {
		return a.hoverSymbol(name), true
	}

	word, typ, ok := a.wordAt(pos)
	if !ok {
		return "", false
	}

	upper := strings.ToUpper(word)

	switch typ {
	case TokenRegister:
		return fmt.Sprintf("**%s** general-purpose register", upper), true
	case TokenKeyword:
		if doc, ok := mnemonicDocs[upper]; ok {
			return fmt.Sprintf("**%s**\n\n`%s`\n\n%s", upper, doc.shape, doc.summary), true
		}
	case TokenDirective:
		if doc, ok := directiveDocs[upper]; ok {
			return fmt.Sprintf("**.%s**\n\n`%s`\n\n%s", upper, doc.shape, doc.summary), true
		}
	}

	return "", false
}

// hoverSymbol renders the hover text for a label: its resolved address, if any, and its kind.
func (a *Analyzer) hoverSymbol(name string) string {
	addr := "undefined"
	kind := SymbolLabel

	for _, sym := range a.Symbols() {
		if strings.EqualFold(sym.Name, name) {
			kind = sym.Kind

			if sym.Address != "" {
				addr = sym.Address
			}

			return fmt.Sprintf("**%s** (%s)\n\naddress: `%s`", sym.Name, kind, addr)
		}
	}

	return fmt.Sprintf("**%s**\n\naddress: `%s`", name, addr)
}

// Completions returns the keyword, directive, and register sets along with every label defined in
// the source. The position is accepted for interface symmetry with the other queries but every
// query over the same source returns the same candidate list.
func (a *Analyzer) Completions(line, col int) []CompletionItem {
	var items []CompletionItem

	mnemonics := make([]string, 0, len(mnemonicDocs))
	for m := range mnemonicDocs {
		mnemonics = append(mnemonics, m)
	}

	sort.Strings(mnemonics)

	for _, m := range mnemonics {
		items = append(items, CompletionItem{Label: m, Kind: "keyword", Detail: mnemonicDocs[m].shape})
	}

	directives := make([]string, 0, len(directiveDocs))
	for d := range directiveDocs {
		directives = append(directives, d)
	}

	sort.Strings(directives)

	for _, d := range directives {
		items = append(items, CompletionItem{Label: "." + d, Kind: "directive", Detail: directiveDocs[d].shape})
	}

	for i := 0; i < 8; i++ {
		items = append(items, CompletionItem{Label: fmt.Sprintf("R%d", i), Kind: "register"})
	}

	for _, sym := range a.Symbols() {
		detail := sym.Address
		if detail == "" {
			detail = "undefined"
		}

		items = append(items, CompletionItem{Label: sym.Name, Kind: sym.Kind.String(), Detail: detail})
	}

	return items
}
