// Package parser builds and checks the syntax tree of an assembly unit.
package parser

import (
	"github.com/Urethramancer/rv32asm/cpu"
	"github.com/Urethramancer/rv32asm/lexer"
)

// Parse builds an AST from tokens. Malformed statements are recorded
// as diagnostics and skipped up to the next source line. Only a
// broken section layout is returned as an error.
func Parse(tokens []lexer.Token) (*AST, error) {
	a := &AST{Tokens: tokens}
	if len(tokens) == 0 {
		return nil, &Diagnostic{Msg: "empty source: expected .text or .data"}
	}
	if !tokens[0].Kind.IsSection() {
		return nil, &Diagnostic{Pos: tokens[0].Pos, Msg: "expected .text or .data, got " + tokens[0].String()}
	}

	p := &parser{ast: a, toks: tokens}
	seen := map[lexer.Kind]bool{}
	for !p.done() {
		t := p.peek()
		if seen[t.Kind] {
			return nil, &Diagnostic{Pos: t.Pos, Msg: "duplicate " + t.Kind.String() + " section"}
		}
		seen[t.Kind] = true
		p.i++
		if t.Kind == lexer.KindText {
			p.text()
		} else {
			p.data()
		}
	}
	return a, nil
}

type parser struct {
	ast  *AST
	toks []lexer.Token
	i    int
}

func (p *parser) done() bool {
	return p.i >= len(p.toks)
}

func (p *parser) peek() lexer.Token {
	return p.toks[p.i]
}

// sectionEnd reports whether the cursor is at the end of the current section.
func (p *parser) sectionEnd() bool {
	return p.done() || p.peek().Kind.IsSection()
}

// at reports whether the next token has kind k and is on line.
func (p *parser) at(k lexer.Kind, line int) bool {
	return !p.done() && p.peek().Kind == k && p.peek().Pos.Line == line
}

// fail records a diagnostic and resynchronises at the next line. The
// diagnostic points at the current token, or at the last one consumed
// when the statement ran off its line.
func (p *parser) fail(line int, format string, args ...any) {
	pos := p.toks[p.i-1].Pos
	if !p.done() && p.peek().Pos.Line == line {
		pos = p.peek().Pos
	}
	p.ast.errorf(pos, format, args...)
	p.skipLine(line)
}

// skipLine advances past every token on line, stopping early at a section directive.
func (p *parser) skipLine(line int) {
	for !p.sectionEnd() && p.peek().Pos.Line == line {
		p.i++
	}
}

func (p *parser) describe() string {
	if p.done() {
		return "end of input"
	}
	return p.peek().String()
}

func (p *parser) text() {
	for !p.sectionEnd() {
		t := p.peek()
		switch {
		case t.Kind == lexer.KindSymbol && p.i+1 < len(p.toks) && p.toks[p.i+1].Kind == lexer.KindColon:
			p.ast.Text = append(p.ast.Text, Text{Inst: p.i, Label: true})
			p.i += 2
		case t.Kind == lexer.KindSymbol:
			p.i++
			p.fail(t.Pos.Line, "expected ':' after label %s", t)
		case t.Kind == lexer.KindInstruction:
			p.instruction()
		default:
			p.fail(t.Pos.Line, "unexpected %s in .text", t)
		}
	}
}

func (p *parser) instruction() {
	inst := p.i
	t := p.peek()
	line := t.Pos.Line
	op, _ := t.Op()
	p.i++

	var ops []int
	ok := true
	switch op.Desc().Grammar {
	case cpu.GrammarBare:
	case cpu.GrammarTarget:
		ops, ok = p.operands(op, line, 1, 1)
	case cpu.GrammarJump:
		ops, ok = p.operands(op, line, 1, 3)
	case cpu.GrammarPair:
		ops, ok = p.operands(op, line, 2, 2)
	case cpu.GrammarTriple:
		ops, ok = p.operands(op, line, 3, 3)
	case cpu.GrammarMemory:
		ops, ok = p.memory(op, line)
	}
	if !ok {
		return
	}
	if !p.sectionEnd() && p.peek().Pos.Line == line {
		p.fail(line, "unexpected %s after %s operands", p.peek(), op)
		return
	}
	p.ast.Text = append(p.ast.Text, Text{Inst: inst, Operands: ops})
}

// operand consumes one register, number or symbol on line.
func (p *parser) operand(op cpu.Op, line int) (int, bool) {
	if p.sectionEnd() || p.peek().Pos.Line != line || !p.peek().IsOperand() {
		p.fail(line, "%s: expected operand, got %s", op, p.describe())
		return 0, false
	}
	p.i++
	return p.i - 1, true
}

// operands reads between least and most comma separated operands.
func (p *parser) operands(op cpu.Op, line, least, most int) ([]int, bool) {
	var ops []int
	for {
		o, ok := p.operand(op, line)
		if !ok {
			return nil, false
		}
		ops = append(ops, o)
		if len(ops) == most || !p.at(lexer.KindComma, line) {
			break
		}
		p.i++
	}
	if len(ops) < least {
		p.fail(line, "%s: expected %d operands, got %d", op, least, len(ops))
		return nil, false
	}
	return ops, true
}

// memory reads <reg>, <imm>(<reg>) or <reg>, <operand>[, <operand>].
// A symbol is never accepted as the offset of a base register.
func (p *parser) memory(op cpu.Op, line int) ([]int, bool) {
	rd, ok := p.operand(op, line)
	if !ok {
		return nil, false
	}
	if !p.at(lexer.KindComma, line) {
		p.fail(line, "%s: expected ',', got %s", op, p.describe())
		return nil, false
	}
	p.i++
	addr, ok := p.operand(op, line)
	if !ok {
		return nil, false
	}
	ops := []int{rd, addr}

	switch {
	case p.at(lexer.KindLParen, line):
		if p.toks[addr].Kind != lexer.KindLitNumber {
			p.fail(line, "%s: offset before '(' must be a number, got %s; a symbol takes <reg>, <symbol>, <reg>", op, p.toks[addr])
			return nil, false
		}
		p.i++
		base, ok := p.operand(op, line)
		if !ok {
			return nil, false
		}
		if !p.at(lexer.KindRParen, line) {
			p.fail(line, "%s: expected ')', got %s", op, p.describe())
			return nil, false
		}
		p.i++
		ops = append(ops, base)
	case p.at(lexer.KindComma, line):
		p.i++
		tmp, ok := p.operand(op, line)
		if !ok {
			return nil, false
		}
		ops = append(ops, tmp)
	}
	return ops, true
}

func (p *parser) data() {
	for !p.sectionEnd() {
		sym := p.peek()
		line := sym.Pos.Line
		if sym.Kind != lexer.KindSymbol {
			p.fail(line, "expected data symbol, got %s", sym)
			continue
		}
		d := Data{Symbol: p.i}
		p.i++
		if !p.at(lexer.KindColon, line) {
			p.fail(line, "expected ':' after %s, got %s", sym, p.describe())
			continue
		}
		p.i++
		if p.sectionEnd() || !p.peek().Kind.IsDataType() {
			p.fail(line, "%s: expected .byte, .half, .word or .string, got %s", sym, p.describe())
			continue
		}
		d.Type = p.i
		typ := p.peek().Kind
		p.i++

		want := lexer.KindLitNumber
		if typ == lexer.KindString {
			want = lexer.KindLitString
		}
		ok := true
		for ok {
			if p.sectionEnd() || p.peek().Kind != want {
				p.fail(line, "%s: expected %s for %s, got %s", sym, want, typ, p.describe())
				ok = false
				break
			}
			d.Values = append(d.Values, p.i)
			line = p.peek().Pos.Line
			p.i++
			if p.done() || p.peek().Kind != lexer.KindComma {
				break
			}
			p.i++
		}
		if !ok {
			continue
		}
		if !p.sectionEnd() && (p.peek().Kind == lexer.KindLitNumber || p.peek().Kind == lexer.KindLitString) {
			p.fail(p.peek().Pos.Line, "%s: expected ',' between values", sym)
			continue
		}
		p.ast.Data = append(p.ast.Data, d)
	}
}
