// Package mapper resolves symbols and encodes a checked AST into
// instruction and data words.
package mapper

import (
	"errors"
	"fmt"

	"github.com/Urethramancer/rv32asm/cpu"
	"github.com/Urethramancer/rv32asm/lexer"
	"github.com/Urethramancer/rv32asm/parser"
)

var (
	// ErrInvalidAST is returned when the AST carries grammar errors.
	ErrInvalidAST = errors.New("ast has grammar errors")
	// ErrRange is wrapped by offset and address overflow errors.
	ErrRange = errors.New("out of range")
)

// Layout places the segments in memory.
type Layout struct {
	TextBase   uint32
	DataBase   uint32
	StackBase  uint32
	StackWords uint32
}

// Entry is one listing line: a statement and the words it produced.
type Entry struct {
	PC     uint32
	Words  []uint32
	Pos    lexer.Pos
	Source string
}

func (e Entry) String() string {
	s := fmt.Sprintf("%08x:", e.PC)
	for i := 0; i < 2; i++ {
		if i < len(e.Words) {
			s += fmt.Sprintf(" %08x", e.Words[i])
		} else {
			s += "         "
		}
	}
	return fmt.Sprintf("%s  %4d  %s", s, e.Pos.Line, e.Source)
}

// Image is an encoded program ready to be written out.
type Image struct {
	Data       []uint32
	Text       []uint32
	TextBase   uint32
	DataBase   uint32
	StackBase  uint32
	StackWords uint32
	Listing    []Entry
}

// Encode runs both passes over a and returns the finished image.
func Encode(a *parser.AST, l Layout) (*Image, error) {
	if a.Err {
		return nil, ErrInvalidAST
	}
	syms, err := Symbols(a, l)
	if err != nil {
		return nil, err
	}
	data, err := EncodeData(a)
	if err != nil {
		return nil, err
	}
	text, listing, err := EncodeText(a, syms, l)
	if err != nil {
		return nil, err
	}
	return &Image{
		Data:       data,
		Text:       text,
		TextBase:   l.TextBase,
		DataBase:   l.DataBase,
		StackBase:  l.StackBase,
		StackWords: l.StackWords,
		Listing:    listing,
	}, nil
}

// Symbols assigns an address to every data symbol and text label.
// Statement sizes come from the same descriptors emission uses.
func Symbols(a *parser.AST, l Layout) (map[string]uint32, error) {
	syms := map[string]uint32{}
	define := func(i int, addr uint32) error {
		name := a.Name(i)
		if _, ok := syms[name]; ok {
			return fmt.Errorf("%s: symbol %s redefined", a.Tokens[i].Pos, name)
		}
		syms[name] = addr
		return nil
	}

	off := uint32(0)
	for _, d := range a.Data {
		if err := define(d.Symbol, l.DataBase+off); err != nil {
			return nil, err
		}
		n, err := dataSize(a, d)
		if err != nil {
			return nil, err
		}
		off += uint32(n)
	}

	pc := l.TextBase
	for _, n := range a.Text {
		if n.Label {
			if err := define(n.Inst, pc); err != nil {
				return nil, err
			}
			continue
		}
		pc += uint32(a.Size(n) * cpu.WordSize)
	}
	return syms, nil
}

// EncodeText emits the instruction words of a, one statement at a time.
func EncodeText(a *parser.AST, syms map[string]uint32, l Layout) ([]uint32, []Entry, error) {
	if a.Err {
		return nil, nil, ErrInvalidAST
	}
	e := &emitter{ast: a, syms: syms, pc: l.TextBase}
	var text []uint32
	var listing []Entry
	for _, n := range a.Text {
		pos := a.Tokens[n.Inst].Pos
		if n.Label {
			listing = append(listing, Entry{PC: e.pc, Pos: pos, Source: a.Format(n)})
			continue
		}
		words, err := e.emit(n)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %s: %w", pos, a.Format(n), err)
		}
		if want := a.Size(n); len(words) != want {
			return nil, nil, fmt.Errorf("%s: %s: emitted %d words, sized as %d", pos, a.Format(n), len(words), want)
		}
		listing = append(listing, Entry{PC: e.pc, Words: words, Pos: pos, Source: a.Format(n)})
		text = append(text, words...)
		e.pc += uint32(len(words) * cpu.WordSize)
	}
	return text, listing, nil
}

// emitter holds the state of the emission pass.
type emitter struct {
	ast  *parser.AST
	syms map[string]uint32
	pc   uint32
}

func (e *emitter) emit(n parser.Text) ([]uint32, error) {
	op := e.ast.Op(n)
	desc := op.Desc()
	switch op {
	case cpu.OpNOP, cpu.OpLI, cpu.OpMV, cpu.OpNEG, cpu.OpNOT,
		cpu.OpSEQZ, cpu.OpSNEZ, cpu.OpSLTZ, cpu.OpSGTZ:
		return e.assemblePseudo(op, n)
	case cpu.OpLUI, cpu.OpAUIPC:
		return e.assembleUpper(desc, n)
	case cpu.OpLA, cpu.OpLB, cpu.OpLH, cpu.OpLW, cpu.OpLBU, cpu.OpLHU, cpu.OpSB, cpu.OpSH, cpu.OpSW:
		return e.assembleMemory(op, n)
	case cpu.OpJ, cpu.OpJAL, cpu.OpJR, cpu.OpJALR, cpu.OpCALL, cpu.OpRET:
		return e.assembleJump(op, n)
	case cpu.OpECALL, cpu.OpEBREAK, cpu.OpSRET:
		return []uint32{EncodeI(desc.Opcode, 0, desc.Funct3, 0, int32(desc.Funct7))}, nil
	}
	switch {
	case desc.Opcode == cpu.OpcodeBranch:
		return e.assembleBranch(op, n)
	case desc.Format == cpu.FormatR:
		return e.assembleR(desc, n)
	case desc.Format == cpu.FormatI:
		return e.assembleImm(desc, n)
	}
	return nil, fmt.Errorf("no encoding for %s", op)
}

// reg returns the index of the register operand at slot i.
func (e *emitter) reg(n parser.Text, i int) uint32 {
	r, _ := e.ast.Tokens[n.Operands[i]].Register()
	return r.Index()
}

func (e *emitter) num(n parser.Text, i int) int32 {
	v, _ := e.ast.Tokens[n.Operands[i]].Number()
	return v
}

// address resolves the symbol operand at slot i.
func (e *emitter) address(n parser.Text, i int) (uint32, error) {
	name := e.ast.Name(n.Operands[i])
	addr, ok := e.syms[name]
	if !ok {
		return 0, fmt.Errorf("undefined symbol %s", name)
	}
	return addr, nil
}

// offset returns the operand at slot i as a pc-relative distance. A
// literal is taken to be the distance already.
func (e *emitter) offset(n parser.Text, i int) (int32, error) {
	t := e.ast.Tokens[n.Operands[i]]
	if v, ok := t.Number(); ok {
		return v, nil
	}
	addr, err := e.address(n, i)
	if err != nil {
		return 0, err
	}
	return int32(addr - e.pc), nil
}
