package lexer

import (
	"fmt"

	"github.com/Urethramancer/rv32asm/cpu"
)

// Kind classifies a token.
type Kind uint8

const (
	KindNone Kind = iota

	// Section directives.
	KindText
	KindData

	// Data type directives.
	KindByte
	KindHalf
	KindWord
	KindString

	KindSymbol
	KindLitString
	KindLitNumber

	KindColon
	KindComma
	KindLParen
	KindRParen

	// KindRegister tokens carry a cpu.Register.
	KindRegister
	// KindInstruction tokens carry a cpu.Op.
	KindInstruction
)

var kindNames = [...]string{
	KindNone:        "none",
	KindText:        ".text",
	KindData:        ".data",
	KindByte:        ".byte",
	KindHalf:        ".half",
	KindWord:        ".word",
	KindString:      ".string",
	KindSymbol:      "symbol",
	KindLitString:   "string literal",
	KindLitNumber:   "number",
	KindColon:       "':'",
	KindComma:       "','",
	KindLParen:      "'('",
	KindRParen:      "')'",
	KindRegister:    "register",
	KindInstruction: "instruction",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsSection reports whether k is .text or .data.
func (k Kind) IsSection() bool {
	return k == KindText || k == KindData
}

// IsDataType reports whether k is one of the .data element types.
func (k Kind) IsDataType() bool {
	return k >= KindByte && k <= KindString
}

// ElementSize returns the byte width of a fixed-size data type, or 0.
func (k Kind) ElementSize() int {
	switch k {
	case KindByte:
		return 1
	case KindHalf:
		return 2
	case KindWord:
		return 4
	}
	return 0
}

// Pos is a source location. Columns are 1-based and End is inclusive.
type Pos struct {
	File  string
	Line  int
	Start int
	End   int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Start)
}

// Token is one lexeme. Which payload is set follows from Kind; use the
// accessors rather than reading fields directly.
type Token struct {
	Kind Kind
	Pos  Pos
	reg  cpu.Register
	op   cpu.Op
	num  int32
	text string
}

// Register returns the register of a KindRegister token.
func (t Token) Register() (cpu.Register, bool) {
	return t.reg, t.Kind == KindRegister
}

// Op returns the mnemonic of a KindInstruction token.
func (t Token) Op() (cpu.Op, bool) {
	return t.op, t.Kind == KindInstruction
}

// Number returns the value of a KindLitNumber token.
func (t Token) Number() (int32, bool) {
	return t.num, t.Kind == KindLitNumber
}

// Text returns the name of a symbol, or a string literal verbatim
// including its quotes.
func (t Token) Text() (string, bool) {
	return t.text, t.Kind == KindSymbol || t.Kind == KindLitString
}

// Arg returns the operand role of the token, or cpu.ArgNone if it
// cannot be an instruction operand.
func (t Token) Arg() cpu.Arg {
	switch t.Kind {
	case KindRegister:
		return cpu.ArgReg
	case KindLitNumber:
		return cpu.ArgNum
	case KindSymbol:
		return cpu.ArgSym
	}
	return cpu.ArgNone
}

// IsOperand reports whether the token is a register, number or symbol.
func (t Token) IsOperand() bool {
	return t.Arg() != cpu.ArgNone
}

func (t Token) String() string {
	switch t.Kind {
	case KindRegister:
		return t.reg.String()
	case KindInstruction:
		return t.op.String()
	case KindLitNumber:
		return fmt.Sprintf("%d", t.num)
	case KindSymbol, KindLitString:
		return t.text
	}
	return t.Kind.String()
}
