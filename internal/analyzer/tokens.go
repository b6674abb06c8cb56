package analyzer

import "strings"

// TokenType classifies one lexical token for semantic highlighting.
type TokenType int

const (
	TokenKeyword TokenType = iota
	TokenDirective
	TokenRegister
	TokenNumber
	TokenString
	TokenComment
	TokenLabelDef
	TokenLabelRef
	TokenOperator
)

func (t TokenType) String() string {
	switch t {
	case TokenKeyword:
		return "keyword"
	case TokenDirective:
		return "directive"
	case TokenRegister:
		return "register"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenComment:
		return "comment"
	case TokenLabelDef:
		return "labelDef"
	case TokenLabelRef:
		return "labelRef"
	case TokenOperator:
		return "operator"
	default:
		return "unknown"
	}
}

// Token is one classified span of source text, addressed by line and 1-based column.
type Token struct {
	Line   int
	Column int
	Length int
	Type   TokenType
}

var keywords = map[string]bool{
	"ADD": true, "AND": true, "NOT": true,
	"BR": true, "BRN": true, "BRZ": true, "BRP": true,
	"BRNZ": true, "BRNP": true, "BRZP": true, "BRNZP": true,
	"JMP": true, "RET": true, "JSR": true, "JSRR": true,
	"LD": true, "LDI": true, "LDR": true, "LEA": true,
	"ST": true, "STI": true, "STR": true,
	"TRAP": true, "RTI": true,
	"GETC": true, "OUT": true, "PUTS": true, "IN": true, "PUTSP": true, "HALT": true,
}

var directives = map[string]bool{
	"ORIG": true, "END": true, "FILL": true, "DW": true,
	"BLKW": true, "STRINGZ": true, "EXTERNAL": true, "GLOBAL": true,
}

// Tokens returns semantic tokens for every line of the source, independent of whether the line
// parses successfully -- a malformed line is still tokenized lexically.
func (a *Analyzer) Tokens() []Token {
	var tokens []Token

	for lineNo, text := range a.lines {
		tokens = append(tokens, tokenizeLine(lineNo+1, text)...)
	}

	return tokens
}

func tokenizeLine(line int, text string) []Token {
	var tokens []Token

	i := 0
	first := true // first identifier on the line may be a label definition

	for i < len(text) {
		c := text[i]

		switch {
		case c == ' ' || c == '\t':
			i++

		case c == ';':
			tokens = append(tokens, Token{Line: line, Column: i + 1, Length: len(text) - i, Type: TokenComment})
			i = len(text)

		case c == ',':
			tokens = append(tokens, Token{Line: line, Column: i + 1, Length: 1, Type: TokenOperator})
			i++

		case c == '"':
			j := i + 1
			for j < len(text) && text[j] != '"' {
				if text[j] == '\\' && j+1 < len(text) {
					j++
				}
				j++
			}
			if j < len(text) {
				j++
			}
			tokens = append(tokens, Token{Line: line, Column: i + 1, Length: j - i, Type: TokenString})
			i = j

		case c == '.':
			j := i + 1
			for j < len(text) && isIdentChar(rune(text[j])) {
				j++
			}
			word := strings.ToUpper(text[i+1 : j])
			typ := TokenDirective
			if !directives[word] {
				typ = TokenOperator
			}
			tokens = append(tokens, Token{Line: line, Column: i + 1, Length: j - i, Type: typ})
			i = j
			first = false

		case c == '#' || c == '-' || isDigit(c):
			j := i + 1
			for j < len(text) && (isIdentChar(rune(text[j])) || text[j] == '-') {
				j++
			}
			tokens = append(tokens, Token{Line: line, Column: i + 1, Length: j - i, Type: TokenNumber})
			i = j
			first = false

		case isIdentChar(rune(c)):
			j := i
			for j < len(text) && isIdentChar(rune(text[j])) {
				j++
			}
			word := text[i:j]
			upper := strings.ToUpper(word)

			tokens = append(tokens, Token{Line: line, Column: i + 1, Length: j - i, Type: classifyWord(upper, first)})
			i = j
			first = false

		default:
			i++
		}
	}

	return tokens
}

func classifyWord(upper string, first bool) TokenType {
	switch {
	case isRegister(upper):
		return TokenRegister
	case keywords[upper]:
		return TokenKeyword
	case isHexLiteral(upper):
		return TokenNumber
	case first:
		return TokenLabelDef
	default:
		return TokenLabelRef
	}
}

// isHexLiteral reports whether the word is an x-prefixed hex number like X3000, which lexes as an
// identifier but means a number.
func isHexLiteral(s string) bool {
	if len(s) < 2 || s[0] != 'X' {
		return false
	}

	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'F', c == '-', c == '+':
		default:
			return false
		}
	}

	return true
}

func isRegister(s string) bool {
	if len(s) != 2 || s[0] != 'R' {
		return false
	}

	return s[1] >= '0' && s[1] <= '7'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
