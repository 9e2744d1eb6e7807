package cpu

import "fmt"

// Register is one of the 32 integer registers, x0 through x31.
type Register uint8

// Integer registers by ABI name.
const (
	Zero Register = iota
	RA
	SP
	GP
	TP
	T0
	T1
	T2
	S0
	S1
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	T3
	T4
	T5
	T6
)

// RegisterCount is the size of the integer register file.
const RegisterCount = 32

var abiNames = [RegisterCount]string{
	"zero", "ra", "sp", "gp", "tp",
	"t0", "t1", "t2",
	"s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

// registers maps every accepted spelling to its register.
var registers = make(map[string]Register, 2*RegisterCount+1)

func init() {
	for i, name := range abiNames {
		registers[name] = Register(i)
		registers[fmt.Sprintf("x%d", i)] = Register(i)
	}
	registers["fp"] = S0
}

// LookupRegister returns the register spelled name, in either numeric
// (x0-x31) or ABI form. The match is case-sensitive.
func LookupRegister(name string) (Register, bool) {
	r, ok := registers[name]
	return r, ok
}

// Index returns the 5-bit register number.
func (r Register) Index() uint32 {
	return uint32(r) & 0x1F
}

// String returns the ABI name.
func (r Register) String() string {
	if int(r) < RegisterCount {
		return abiNames[r]
	}
	return fmt.Sprintf("x?%d", uint8(r))
}
