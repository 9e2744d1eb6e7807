package mapper

import (
	"fmt"

	"github.com/Urethramancer/rv32asm/cpu"
	"github.com/Urethramancer/rv32asm/parser"
)

const x0 = uint32(cpu.Zero)

// assembleR handles register-register arithmetic. Two-operand forms
// such as lsqrt leave rs2 as x0.
func (e *emitter) assembleR(d *cpu.Desc, n parser.Text) ([]uint32, error) {
	rd, rs1 := e.reg(n, 0), e.reg(n, 1)
	rs2 := x0
	if len(n.Operands) == 3 {
		rs2 = e.reg(n, 2)
	}
	return []uint32{EncodeR(d.Opcode, rd, d.Funct3, rs1, rs2, d.Funct7)}, nil
}

// assembleImm handles register-immediate arithmetic. Shifts carry
// funct7 in the top of the immediate field.
func (e *emitter) assembleImm(d *cpu.Desc, n parser.Text) ([]uint32, error) {
	rd, rs1, imm := e.reg(n, 0), e.reg(n, 1), e.num(n, 2)
	if !d.Imm.Fits(imm) {
		return nil, fmt.Errorf("immediate %d: %w", imm, ErrRange)
	}
	if d.Imm == cpu.ImmShift {
		imm |= int32(d.Funct7 << 5)
	}
	return []uint32{EncodeI(d.Opcode, rd, d.Funct3, rs1, imm)}, nil
}

// assembleUpper handles lui and auipc, whose operand is the 20-bit
// value for the upper field.
func (e *emitter) assembleUpper(d *cpu.Desc, n parser.Text) ([]uint32, error) {
	rd, imm := e.reg(n, 0), e.num(n, 1)
	if !d.Imm.Fits(imm) {
		return nil, fmt.Errorf("upper immediate %d: %w", imm, ErrRange)
	}
	return []uint32{EncodeU(d.Opcode, rd, uint32(imm)<<12)}, nil
}

func (e *emitter) assemblePseudo(op cpu.Op, n parser.Text) ([]uint32, error) {
	switch op {
	case cpu.OpNOP:
		return []uint32{EncodeI(cpu.OpcodeOpImm, x0, cpu.F3AddSub, x0, 0)}, nil
	case cpu.OpLI:
		return loadImmediate(e.reg(n, 0), e.num(n, 1)), nil
	}

	rd, rs := e.reg(n, 0), e.reg(n, 1)
	var w uint32
	switch op {
	case cpu.OpMV:
		w = EncodeI(cpu.OpcodeOpImm, rd, cpu.F3AddSub, rs, 0)
	case cpu.OpNEG:
		w = EncodeR(cpu.OpcodeOp, rd, cpu.F3AddSub, x0, rs, cpu.F7Alt)
	case cpu.OpNOT:
		w = EncodeI(cpu.OpcodeOpImm, rd, cpu.F3XOR, rs, -1)
	case cpu.OpSEQZ:
		w = EncodeI(cpu.OpcodeOpImm, rd, cpu.F3SLTU, rs, 1)
	case cpu.OpSNEZ:
		w = EncodeR(cpu.OpcodeOp, rd, cpu.F3SLTU, x0, rs, cpu.F7Base)
	case cpu.OpSLTZ:
		w = EncodeR(cpu.OpcodeOp, rd, cpu.F3SLT, rs, x0, cpu.F7Base)
	case cpu.OpSGTZ:
		w = EncodeR(cpu.OpcodeOp, rd, cpu.F3SLT, x0, rs, cpu.F7Base)
	default:
		return nil, fmt.Errorf("no expansion for %s", op)
	}
	return []uint32{w}, nil
}

// loadImmediate expands li. Values that fit a 12-bit field become one
// addi; raw patterns 0x800-0xFFF are sign-extended by the hardware.
// Anything larger becomes lui followed by addi.
func loadImmediate(rd uint32, imm int32) []uint32 {
	if cpu.FitsShortLI(imm) {
		return []uint32{EncodeI(cpu.OpcodeOpImm, rd, cpu.F3AddSub, x0, imm)}
	}
	hi, lo := SplitOffset(imm)
	return []uint32{
		EncodeU(cpu.OpcodeLUI, rd, hi),
		EncodeI(cpu.OpcodeOpImm, rd, cpu.F3AddSub, rd, lo),
	}
}
