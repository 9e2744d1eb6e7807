package parser

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/rv32asm/cpu"
	"github.com/Urethramancer/rv32asm/lexer"
)

// Text is one statement of the .text section: either a label
// definition or an instruction with its operands. All fields are
// indices into AST.Tokens.
type Text struct {
	// Inst is the mnemonic token, or the symbol token of a label.
	Inst     int
	Label    bool
	Operands []int
}

// Data is one .data declaration.
type Data struct {
	Symbol int
	Type   int
	Values []int
}

// Diagnostic is a located grammar or semantic complaint.
type Diagnostic struct {
	Pos lexer.Pos
	Msg string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Pos, d.Msg)
}

// Error lets a fatal diagnostic travel as an error.
func (d *Diagnostic) Error() string {
	return d.String()
}

// AST is the checked program. Nodes reference tokens by index, so the
// token slice is owned here and never copied.
type AST struct {
	Tokens      []lexer.Token
	Err         bool
	Diagnostics []Diagnostic
	Text        []Text
	Data        []Data
}

func (a *AST) errorf(pos lexer.Pos, format string, args ...any) {
	a.Err = true
	a.Diagnostics = append(a.Diagnostics, Diagnostic{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// Op returns the mnemonic of an instruction node.
func (a *AST) Op(n Text) cpu.Op {
	op, _ := a.Tokens[n.Inst].Op()
	return op
}

// Name returns the symbol text of a label node or data declaration.
func (a *AST) Name(i int) string {
	s, _ := a.Tokens[i].Text()
	return s
}

// Args returns the operand roles of an instruction node.
func (a *AST) Args(n Text) []cpu.Arg {
	args := make([]cpu.Arg, len(n.Operands))
	for i, o := range n.Operands {
		args[i] = a.Tokens[o].Arg()
	}
	return args
}

// Form returns the accepted form matching the node's operands.
func (a *AST) Form(n Text) (cpu.Form, bool) {
	return a.Op(n).Desc().Match(a.Args(n))
}

// Imm returns the first literal operand of n, or 0.
func (a *AST) Imm(n Text) int32 {
	for _, o := range n.Operands {
		if v, ok := a.Tokens[o].Number(); ok {
			return v
		}
	}
	return 0
}

// Size returns the number of words an instruction node emits.
// Labels and unmatched nodes have size 0.
func (a *AST) Size(n Text) int {
	if n.Label {
		return 0
	}
	f, ok := a.Form(n)
	if !ok {
		return 0
	}
	return f.Size(a.Imm(n))
}

// Type returns the element type of a data declaration.
func (a *AST) Type(d Data) lexer.Kind {
	return a.Tokens[d.Type].Kind
}

// Format renders a node back to assembly text, e.g. "lw a0, 4(sp)".
func (a *AST) Format(n Text) string {
	if n.Label {
		return a.Name(n.Inst) + ":"
	}
	op := a.Op(n)
	var b strings.Builder
	b.WriteString(op.String())
	ops := make([]string, len(n.Operands))
	for i, o := range n.Operands {
		ops[i] = a.Tokens[o].String()
	}
	if op.Desc().Grammar == cpu.GrammarMemory && len(ops) == 3 && a.Tokens[n.Operands[1]].Kind == lexer.KindLitNumber {
		ops = []string{ops[0], ops[1] + "(" + ops[2] + ")"}
	}
	if len(ops) > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Join(ops, ", "))
	}
	return b.String()
}
