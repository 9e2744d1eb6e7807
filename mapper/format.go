package mapper

// EncodeR packs funct7|rs2|rs1|funct3|rd|opcode.
func EncodeR(opcode, rd, f3, rs1, rs2, f7 uint32) uint32 {
	return (f7&0x7F)<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | (f3&7)<<12 | (rd&0x1F)<<7 | opcode&0x7F
}

// EncodeI packs imm[11:0]|rs1|funct3|rd|opcode.
func EncodeI(opcode, rd, f3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | (rs1&0x1F)<<15 | (f3&7)<<12 | (rd&0x1F)<<7 | opcode&0x7F
}

// EncodeS splits imm into bits [11:5] at 25 and [4:0] at 7.
func EncodeS(opcode, f3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7F)<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | (f3&7)<<12 | (u&0x1F)<<7 | opcode&0x7F
}

// EncodeB scatters an even offset as imm[12|10:5] and imm[4:1|11].
func EncodeB(opcode, f3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>12&1)<<31 | (u>>5&0x3F)<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 |
		(f3&7)<<12 | (u>>1&0xF)<<8 | (u>>11&1)<<7 | opcode&0x7F
}

// EncodeU merges the upper 20 bits of imm with rd and opcode. The low
// 12 bits of imm are discarded.
func EncodeU(opcode, rd, imm uint32) uint32 {
	return imm&0xFFFFF000 | (rd&0x1F)<<7 | opcode&0x7F
}

// EncodeJ scatters an even offset as imm[20|10:1|11|19:12].
func EncodeJ(opcode, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>20&1)<<31 | (u>>1&0x3FF)<<21 | (u>>11&1)<<20 | (u>>12&0xFF)<<12 | (rd&0x1F)<<7 | opcode&0x7F
}

// SplitOffset divides v into an upper part for lui or auipc and a
// signed 12-bit remainder for the instruction that follows, so that
// hi + lo == v. The upper part is rounded up by 0x1000 whenever lo is
// negative.
func SplitOffset(v int32) (hi uint32, lo int32) {
	hi = (uint32(v) + 0x800) & 0xFFFFF000
	lo = int32(uint32(v) - hi)
	return hi, lo
}
