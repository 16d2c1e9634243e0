package token

import (
	"strconv"
	"strings"
)

type Type int

const (
	Ident       Type = iota // keywords and primitive types
	LocalIdent              // %name
	GlobalIdent             // @name
	MetaIdent               // !name or !0
	AttrRef                 // #0
	LabelDef                // name:
	String                  // "..."
	CString                 // c"..."
	MetaString              // !"..."
	Int
	Float
	Punct
)

func (t Type) String() string {
	switch t {
	case Ident:
		return "identifier"
	case LocalIdent:
		return "local identifier"
	case GlobalIdent:
		return "global identifier"
	case MetaIdent:
		return "metadata identifier"
	case AttrRef:
		return "attribute group"
	case LabelDef:
		return "label"
	case String:
		return "string"
	case CString:
		return "byte string"
	case MetaString:
		return "metadata string"
	case Int:
		return "integer"
	case Float:
		return "float"
	case Punct:
		return "punctuation"
	}
	return "unknown"
}

type Token struct {
	Value string
	Type  Type
	Line  int
}

func (t Token) Is(typ Type, value string) bool {
	return t.Type == typ && t.Value == value
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '.' || c == '$' || c == '-'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// Tokenize splits LLVM assembly into tokens. Names and strings are returned
// unquoted and unescaped.
func Tokenize(input string) ([]Token, error) {
	var tokens []Token
	line := 1
	n := len(input)

	for i := 0; i < n; i++ {
		c := input[i]

		if c == '\n' {
			line++
			continue
		}
		if c == ' ' || c == '\t' || c == '\r' {
			continue
		}

		if c == ';' {
			for i < n && input[i] != '\n' {
				i++
			}
			i--
			continue
		}

		switch c {
		case '(', ')', '{', '}', '[', ']', '<', '>', ',', '=', '*', ':':
			tokens = append(tokens, Token{string(c), Punct, line})
			continue
		case '.':
			if strings.HasPrefix(input[i:], "...") {
				tokens = append(tokens, Token{"...", Punct, line})
				i += 2
				continue
			}
		case '"':
			s, end, err := readString(input, i)
			if err != nil {
				return nil, lineErr(line, err)
			}
			i = end
			if i+1 < n && input[i+1] == ':' {
				tokens = append(tokens, Token{s, LabelDef, line})
				i++
				continue
			}
			tokens = append(tokens, Token{s, String, line})
			continue
		case '%', '@', '!', '#':
			tok, end, err := readSigil(input, i)
			if err != nil {
				return nil, lineErr(line, err)
			}
			tok.Line = line
			tokens = append(tokens, tok)
			i = end
			continue
		}

		if c == 'c' && i+1 < n && input[i+1] == '"' {
			s, end, err := readString(input, i+1)
			if err != nil {
				return nil, lineErr(line, err)
			}
			tokens = append(tokens, Token{s, CString, line})
			i = end
			continue
		}

		if isDigit(c) || (c == '-' || c == '+') && i+1 < n && isDigit(input[i+1]) {
			start := i
			typ := Int
			if c == '0' && i+1 < n && (input[i+1] == 'x' || input[i+1] == 'X') {
				i += 2
				for i < n && isHex(input[i]) {
					i++
				}
				tokens = append(tokens, Token{input[start:i], Float, line})
				i--
				continue
			}
			i++
			for i < n {
				d := input[i]
				if isDigit(d) {
					i++
				} else if d == '.' || d == 'e' || d == 'E' {
					typ = Float
					i++
				} else if (d == '-' || d == '+') && (input[i-1] == 'e' || input[i-1] == 'E') {
					i++
				} else {
					break
				}
			}
			if typ == Int && i < n && input[i] == ':' {
				tokens = append(tokens, Token{input[start:i], LabelDef, line})
				continue
			}
			tokens = append(tokens, Token{input[start:i], typ, line})
			i--
			continue
		}

		if isIdentStart(c) {
			start := i
			for i < n && isIdentChar(input[i]) {
				i++
			}
			if i < n && input[i] == ':' {
				tokens = append(tokens, Token{input[start:i], LabelDef, line})
				continue
			}
			tokens = append(tokens, Token{input[start:i], Ident, line})
			i--
			continue
		}

		return nil, lineErr(line, errUnexpected(c))
	}

	return tokens, nil
}

// readSigil reads %x, @x, !x, !"x", !{ and #N forms starting at input[i].
func readSigil(input string, i int) (Token, int, error) {
	sigil := input[i]
	n := len(input)
	j := i + 1

	if j < n && input[j] == '"' {
		s, end, err := readString(input, j)
		if err != nil {
			return Token{}, 0, err
		}
		switch sigil {
		case '%':
			return Token{Value: s, Type: LocalIdent}, end, nil
		case '@':
			return Token{Value: s, Type: GlobalIdent}, end, nil
		case '!':
			return Token{Value: s, Type: MetaString}, end, nil
		}
		return Token{}, 0, errUnexpected(sigil)
	}

	if sigil == '!' && j < n && input[j] == '{' {
		return Token{Value: "!{", Type: Punct}, j, nil
	}

	start := j
	if sigil == '#' {
		for j < n && isDigit(input[j]) {
			j++
		}
	} else {
		for j < n && (isIdentChar(input[j]) || sigil == '!' && input[j] == '\\') {
			j++
		}
	}
	if j == start {
		return Token{}, 0, errUnexpected(sigil)
	}

	name := input[start:j]
	var typ Type
	switch sigil {
	case '%':
		typ = LocalIdent
	case '@':
		typ = GlobalIdent
	case '!':
		typ = MetaIdent
	case '#':
		typ = AttrRef
	}
	return Token{Value: name, Type: typ}, j - 1, nil
}

// readString reads a quoted string starting at the opening quote and returns
// the decoded contents and the index of the closing quote. LLVM escapes are
// backslash followed by two hex digits, or a doubled backslash.
func readString(input string, i int) (string, int, error) {
	var b strings.Builder
	n := len(input)
	for j := i + 1; j < n; j++ {
		c := input[j]
		switch {
		case c == '"':
			return b.String(), j, nil
		case c == '\n':
			return "", 0, errUnterminated
		case c == '\\' && j+1 < n && input[j+1] == '\\':
			b.WriteByte('\\')
			j++
		case c == '\\' && j+2 < n && isHex(input[j+1]) && isHex(input[j+2]):
			v, _ := strconv.ParseUint(input[j+1:j+3], 16, 8)
			b.WriteByte(byte(v))
			j += 2
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, errUnterminated
}
