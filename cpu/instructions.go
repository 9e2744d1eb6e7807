package cpu

// Major opcodes (bits 6:0).
const (
	OpcodeLoad   = 0b0000011
	OpcodeOpImm  = 0b0010011
	OpcodeAUIPC  = 0b0010111
	OpcodeStore  = 0b0100011
	OpcodeOp     = 0b0110011
	OpcodeLUI    = 0b0110111
	OpcodeBranch = 0b1100011
	OpcodeJALR   = 0b1100111
	OpcodeJAL    = 0b1101111
	OpcodeSystem = 0b1110011
	// OpcodeLNS is the custom logarithmic number system extension.
	OpcodeLNS = 0b0000000
)

// funct3 values.
const (
	F3AddSub = 0x0
	F3SLL    = 0x1
	F3SLT    = 0x2
	F3SLTU   = 0x3
	F3XOR    = 0x4
	F3SR     = 0x5
	F3OR     = 0x6
	F3AND    = 0x7

	F3MUL    = 0x0
	F3MULH   = 0x1
	F3MULHSU = 0x2
	F3MULHU  = 0x3
	F3DIV    = 0x4
	F3DIVU   = 0x5
	F3REM    = 0x6
	F3REMU   = 0x7

	F3LB  = 0x0
	F3LH  = 0x1
	F3LW  = 0x2
	F3LBU = 0x4
	F3LHU = 0x5

	F3SB = 0x0
	F3SH = 0x1
	F3SW = 0x2

	F3BEQ  = 0x0
	F3BNE  = 0x1
	F3BLT  = 0x4
	F3BGE  = 0x5
	F3BLTU = 0x6
	F3BGEU = 0x7

	F3JALR = 0x0

	F3LNSAdd = 0x0
	F3LNSSub = 0x1
	F3LNSMul = 0x2
	F3LNSDiv = 0x3
	F3LNSSqt = 0x4
)

// funct7 values.
const (
	F7Base   = 0x00
	F7Alt    = 0x20 // SUB, SRA, SRAI
	F7MulDiv = 0x01
)

// SYSTEM immediates.
const (
	ImmECALL  = 0x000
	ImmEBREAK = 0x001
	ImmSRET   = 0x102
)
