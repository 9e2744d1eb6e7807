// Package lexer splits assembly source into typed tokens.
package lexer

import (
	"fmt"
	"math"
	"strings"

	"github.com/Urethramancer/rv32asm/cpu"
)

// Error is a fatal lexical error.
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

var directives = map[string]Kind{
	".text":   KindText,
	".data":   KindData,
	".byte":   KindByte,
	".half":   KindHalf,
	".word":   KindWord,
	".string": KindString,
}

var punctuation = map[byte]Kind{
	':': KindColon,
	',': KindComma,
	'(': KindLParen,
	')': KindRParen,
}

// Lex tokenises src. The file name is only used for positions.
func Lex(file, src string) ([]Token, error) {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	var tokens []Token
	for i, line := range lines {
		l := lineLexer{file: file, line: i + 1, src: line}
		var err error
		tokens, err = l.run(tokens)
		if err != nil {
			return nil, err
		}
	}
	return tokens, nil
}

type lineLexer struct {
	file string
	line int
	src  string
	pos  int
}

func (l *lineLexer) run(out []Token) ([]Token, error) {
	for {
		l.skipBlank()
		if l.pos >= len(l.src) {
			return out, nil
		}

		start := l.pos
		tok, ok, err := l.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, l.errorf(start, start, "unknown token %q", l.word(start))
		}
		tok.Pos = l.span(start, l.pos-1)
		out = append(out, tok)
	}
}

// next tries each token class in turn. It returns false if none
// consumed any input.
func (l *lineLexer) next() (Token, bool, error) {
	c := l.src[l.pos]
	if k, ok := punctuation[c]; ok {
		l.pos++
		return Token{Kind: k}, true, nil
	}
	if isIdentStart(c) {
		return l.ident(), true, nil
	}
	if c == '"' {
		return l.str()
	}
	return l.number()
}

func (l *lineLexer) skipBlank() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '#':
			l.pos = len(l.src)
		default:
			return
		}
	}
}

func (l *lineLexer) ident() Token {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
		l.pos++
	}
	name := l.src[start:l.pos]
	if k, ok := directives[name]; ok {
		return Token{Kind: k}
	}
	if r, ok := cpu.LookupRegister(name); ok {
		return Token{Kind: KindRegister, reg: r}
	}
	if op, ok := cpu.LookupOp(name); ok {
		return Token{Kind: KindInstruction, op: op}
	}
	return Token{Kind: KindSymbol, text: name}
}

// str scans a double-quoted literal. Backslash escapes the next
// character; decoding is left to the consumer.
func (l *lineLexer) str() (Token, bool, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case '"':
			l.pos++
			return Token{Kind: KindLitString, text: l.src[start:l.pos]}, true, nil
		}
		l.pos++
	}
	return Token{}, false, l.errorf(start, len(l.src)-1, "unterminated string")
}

func (l *lineLexer) number() (Token, bool, error) {
	start := l.pos
	neg := false
	if c := l.src[l.pos]; c == '+' || c == '-' {
		neg = c == '-'
		l.pos++
	}

	base := uint64(10)
	if l.pos+1 < len(l.src) && l.src[l.pos] == '0' {
		switch l.src[l.pos+1] {
		case 'x', 'X':
			base = 16
			l.pos += 2
		case 'b', 'B':
			base = 2
			l.pos += 2
		}
	}

	digits := l.pos
	var v uint64
	for l.pos < len(l.src) {
		d, ok := digitValue(l.src[l.pos], base)
		if !ok {
			break
		}
		v = v*base + d
		if v > math.MaxUint32 {
			return Token{}, false, l.errorf(start, l.pos, "number %q overflows 32 bits", l.word(start))
		}
		l.pos++
	}
	if l.pos == digits {
		l.pos = start
		return Token{}, false, nil
	}
	if l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
		return Token{}, false, l.errorf(start, l.pos, "malformed number %q", l.word(start))
	}

	n := int32(uint32(v))
	if neg {
		n = -n
	}
	return Token{Kind: KindLitNumber, num: n}, true, nil
}

// word returns the run of non-blank characters at start, for messages.
func (l *lineLexer) word(start int) string {
	end := start
	for end < len(l.src) && !isSpace(l.src[end]) {
		end++
	}
	if end == start {
		end = start + 1
	}
	return l.src[start:end]
}

func (l *lineLexer) span(start, end int) Pos {
	return Pos{File: l.file, Line: l.line, Start: start + 1, End: end + 1}
}

func (l *lineLexer) errorf(start, end int, format string, args ...any) error {
	return &Error{Pos: l.span(start, end), Msg: fmt.Sprintf(format, args...)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentStart(c byte) bool {
	return isLetter(c) || c == '_' || c == '.'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || c >= '0' && c <= '9' || c == '_'
}

func digitValue(c byte, base uint64) (uint64, bool) {
	var d uint64
	switch {
	case c >= '0' && c <= '9':
		d = uint64(c - '0')
	case c >= 'a' && c <= 'f':
		d = uint64(c-'a') + 10
	case c >= 'A' && c <= 'F':
		d = uint64(c-'A') + 10
	default:
		return 0, false
	}
	return d, d < base
}
