package parser

import (
	"strconv"
	"strings"

	"github.com/Urethramancer/rv32asm/lexer"
)

// Check validates operand roles, immediate ranges, symbol definitions
// and data literals. Every problem is recorded and sets a.Err; nothing
// stops the walk early.
func Check(a *AST) {
	defined := map[string]bool{}
	define := func(i int) {
		name := a.Name(i)
		if defined[name] {
			a.errorf(a.Tokens[i].Pos, "symbol %s redefined", name)
			return
		}
		defined[name] = true
	}
	for _, d := range a.Data {
		define(d.Symbol)
	}
	for _, n := range a.Text {
		if n.Label {
			define(n.Inst)
		}
	}

	for _, n := range a.Text {
		if !n.Label {
			a.checkInstruction(n, defined)
		}
	}
	for _, d := range a.Data {
		a.checkData(d)
	}
}

func (a *AST) checkInstruction(n Text, defined map[string]bool) {
	op := a.Op(n)
	desc := op.Desc()
	pos := a.Tokens[n.Inst].Pos
	if _, ok := desc.Match(a.Args(n)); !ok {
		a.errorf(pos, "invalid operands for %s: %s; expected %s", op, a.argList(n), desc.Usage())
		return
	}
	for _, o := range n.Operands {
		t := a.Tokens[o]
		if v, ok := t.Number(); ok && !desc.Imm.Fits(v) {
			a.errorf(t.Pos, "%s: immediate %d out of range", op, v)
		}
		if t.Kind == lexer.KindSymbol && !defined[a.Name(o)] {
			a.errorf(t.Pos, "%s: undefined symbol %s", op, a.Name(o))
		}
	}
}

func (a *AST) argList(n Text) string {
	if len(n.Operands) == 0 {
		return "none"
	}
	var s []string
	for _, arg := range a.Args(n) {
		s = append(s, arg.String())
	}
	return strings.Join(s, ", ")
}

func (a *AST) checkData(d Data) {
	typ := a.Type(d)
	for _, v := range d.Values {
		t := a.Tokens[v]
		if typ == lexer.KindString {
			if _, err := a.StringValue(v); err != nil {
				a.errorf(t.Pos, "bad string literal %s", t)
			}
			continue
		}
		n, _ := t.Number()
		if !fitsElement(n, typ.ElementSize()) {
			a.errorf(t.Pos, "value %d does not fit %s", n, typ)
		}
	}
}

// fitsElement accepts both the signed and unsigned reading of a
// size-byte element.
func fitsElement(v int32, size int) bool {
	switch size {
	case 1:
		return v >= -0x80 && v <= 0xFF
	case 2:
		return v >= -0x8000 && v <= 0xFFFF
	}
	return true
}

// StringValue decodes the string literal at token index i. Escapes
// follow Go, plus the short form \0 for NUL.
func (a *AST) StringValue(i int) (string, error) {
	s, _ := a.Tokens[i].Text()
	return strconv.Unquote(expandNUL(s))
}

// expandNUL rewrites a \0 that does not start a three-digit octal
// escape as \x00.
func expandNUL(s string) string {
	if !strings.Contains(s, `\0`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		if s[i+1] == '0' && !(i+2 < len(s) && isOctal(s[i+2])) {
			b.WriteString(`\x00`)
		} else {
			b.WriteString(s[i : i+2])
		}
		i++
	}
	return b.String()
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}
