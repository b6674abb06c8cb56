// Package asm implements the two-pass assembler for LC-3 machine code.
//
// Source is LCASM: one statement per line, an optional label, an opcode or dot-directive, and its
// operands.
//
//	LABEL   AND R3,R3,R2
//	        AND R1,R1,#-1
//	        BRp LABEL
//
//	       .ORIG x3010 ; comment
//	IDENT  .FILL xff00
//	       .END
//
// Pass one (Parser.Parse) tokenizes and builds the ordered statement list and symbol table; pass
// two (each Operation's Generate) encodes each statement to a word once every label is resolved.
// See |Grammar| for the full surface -- every mnemonic and directive Parser.build recognizes.
package asm

// Grammar declares the syntax of LCASM in EBNF (with some liberties), matching exactly the
// mnemonics and directives Parser.build and the trapAlias table accept.
var Grammar = (`
program        = { line } ;

line           = ';' comment
               | label ':' [ ';' comment ]
               | label [ ':' ] instruction [ ';' comment ]
               | '.' directive [ ';' comment ]
               | instruction   [ ';' comment ] ;

comment        = ';' { char } ;

directive      = "ORIG" literal
               | "END"
               | "FILL" literal
               | "DW" literal
               | "BLKW" literal
               | "STRINGZ" string
               | "EXTERNAL" label
               | "GLOBAL" label ;

ident          = \p{Letter} { identchar } ;

label          = ident ;

instruction    = opcode [ operands ] ;

opcode         = "ADD" | "AND" | "NOT"
               | "LD" | "LDI" | "LDR" | "LEA" | "ST" | "STI" | "STR"
               | "BR" brcond | "JMP" | "JSR" | "JSRR" | "RET" | "RTI"
               | "TRAP" | "GETC" | "OUT" | "PUTS" | "IN" | "PUTSP" | "HALT" ;

brcond         = [ 'n' ] [ 'z' ] [ 'p' ] ;  (* bare BR is equivalent to BRnzp *)

operands       = operand { ',' operand } ;

operand        = immediate
               | register
               | label ;

immediate      = '#' integer
               | 'x' hex { hex }
               | integer ;

register       = 'R' octal ;

string         = '"' { char | escape } '"' ;

escape         = '\' ( 'n' | 't' | '\' | '"' | '0' ) ;

octal          = '0' | '1' | '2' | '3' | '4' | '5' | '6' | '7' ;

decimal        = '0' | '1' | '2' | '3' | '4' | '5' | '6' | '7' | '8' | '9' ;

hex            = decimal
               | 'a' | 'b' | 'c' | 'd' | 'e' | 'f' | 'A' | 'B' | 'C' | 'D' | 'E' | 'F' ;

integer        = [ '-' ] decimal { decimal } ;

identchar      = \p{Letter}
               | \p{Decimal Digits}
               | '_' ;
`)
