package mapper

import (
	"fmt"

	"github.com/Urethramancer/rv32asm/cpu"
	"github.com/Urethramancer/rv32asm/lexer"
	"github.com/Urethramancer/rv32asm/parser"
)

// assembleMemory handles la and the loads and stores. Symbol operands
// become an auipc against a temporary register followed by the access
// with the low part of the pc-relative offset.
func (e *emitter) assembleMemory(op cpu.Op, n parser.Text) ([]uint32, error) {
	d := op.Desc()
	r := e.reg(n, 0)

	if e.ast.Tokens[n.Operands[1]].Kind == lexer.KindLitNumber {
		imm, base := e.num(n, 1), e.reg(n, 2)
		if !cpu.FitsImm12(imm) {
			return nil, fmt.Errorf("offset %d: %w", imm, ErrRange)
		}
		if d.Format == cpu.FormatS {
			return []uint32{EncodeS(d.Opcode, d.Funct3, base, r, imm)}, nil
		}
		return []uint32{EncodeI(d.Opcode, r, d.Funct3, base, imm)}, nil
	}

	addr, err := e.address(n, 1)
	if err != nil {
		return nil, err
	}
	hi, lo := SplitOffset(int32(addr - e.pc))

	tmp := r
	if len(n.Operands) == 3 {
		tmp = e.reg(n, 2)
	}
	var access uint32
	switch {
	case op == cpu.OpLA:
		access = EncodeI(cpu.OpcodeOpImm, r, cpu.F3AddSub, r, lo)
	case d.Format == cpu.FormatS:
		access = EncodeS(d.Opcode, d.Funct3, tmp, r, lo)
	default:
		access = EncodeI(d.Opcode, r, d.Funct3, tmp, lo)
	}
	return []uint32{EncodeU(cpu.OpcodeAUIPC, tmp, hi), access}, nil
}
