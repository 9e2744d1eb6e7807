package mapper

import (
	"fmt"

	"github.com/Urethramancer/rv32asm/cpu"
	"github.com/Urethramancer/rv32asm/parser"
)

const ra = uint32(cpu.RA)

// assembleBranch handles the conditional branches, including the
// swapped-operand and compare-with-zero pseudo forms.
func (e *emitter) assembleBranch(op cpu.Op, n parser.Text) ([]uint32, error) {
	d := op.Desc()
	var rs1, rs2 uint32
	last := len(n.Operands) - 1
	switch op {
	case cpu.OpBGT, cpu.OpBLE, cpu.OpBGTU, cpu.OpBLEU:
		rs1, rs2 = e.reg(n, 1), e.reg(n, 0)
	case cpu.OpBEQZ, cpu.OpBNEZ, cpu.OpBGEZ, cpu.OpBLTZ:
		rs1, rs2 = e.reg(n, 0), x0
	case cpu.OpBLEZ, cpu.OpBGTZ:
		rs1, rs2 = x0, e.reg(n, 0)
	default:
		rs1, rs2 = e.reg(n, 0), e.reg(n, 1)
	}

	off, err := e.offset(n, last)
	if err != nil {
		return nil, err
	}
	if !cpu.ImmBranch.Fits(off) {
		return nil, fmt.Errorf("branch offset %d: %w", off, ErrRange)
	}
	return []uint32{EncodeB(cpu.OpcodeBranch, d.Funct3, rs1, rs2, off)}, nil
}

// assembleJump handles j, jal, jr, jalr, call and ret.
func (e *emitter) assembleJump(op cpu.Op, n parser.Text) ([]uint32, error) {
	switch op {
	case cpu.OpJ:
		return e.jal(x0, n, 0)
	case cpu.OpJAL:
		if len(n.Operands) == 1 {
			return e.jal(ra, n, 0)
		}
		return e.jal(e.reg(n, 0), n, 1)
	case cpu.OpJR:
		return []uint32{EncodeI(cpu.OpcodeJALR, x0, cpu.F3JALR, e.reg(n, 0), 0)}, nil
	case cpu.OpRET:
		return []uint32{EncodeI(cpu.OpcodeJALR, x0, cpu.F3JALR, ra, 0)}, nil
	case cpu.OpJALR:
		return e.jalr(n)
	case cpu.OpCALL:
		addr, err := e.address(n, 0)
		if err != nil {
			return nil, err
		}
		hi, lo := SplitOffset(int32(addr - e.pc))
		return []uint32{
			EncodeU(cpu.OpcodeAUIPC, ra, hi),
			EncodeI(cpu.OpcodeJALR, ra, cpu.F3JALR, ra, lo),
		}, nil
	}
	return nil, fmt.Errorf("no jump encoding for %s", op)
}

func (e *emitter) jal(rd uint32, n parser.Text, slot int) ([]uint32, error) {
	off, err := e.offset(n, slot)
	if err != nil {
		return nil, err
	}
	if !cpu.ImmJump.Fits(off) {
		return nil, fmt.Errorf("jump offset %d: %w", off, ErrRange)
	}
	return []uint32{EncodeJ(cpu.OpcodeJAL, rd, off)}, nil
}

// jalr accepts "jalr rs", "jalr rs, imm" (both linking ra) and the
// full "jalr rd, rs, imm".
func (e *emitter) jalr(n parser.Text) ([]uint32, error) {
	rd, rs, imm := ra, e.reg(n, 0), int32(0)
	switch len(n.Operands) {
	case 2:
		imm = e.num(n, 1)
	case 3:
		rd, rs, imm = e.reg(n, 0), e.reg(n, 1), e.num(n, 2)
	}
	if !cpu.FitsImm12(imm) {
		return nil, fmt.Errorf("jalr offset %d: %w", imm, ErrRange)
	}
	return []uint32{EncodeI(cpu.OpcodeJALR, rd, cpu.F3JALR, rs, imm)}, nil
}
