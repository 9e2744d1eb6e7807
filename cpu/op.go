package cpu

// Op identifies a mnemonic, real or pseudo.
type Op uint8

// Supported mnemonics.
const (
	OpInvalid Op = iota

	OpNOP
	OpLI
	OpLA
	OpLUI
	OpAUIPC
	OpMV

	OpNEG
	OpADD
	OpADDI
	OpSUB
	OpNOT
	OpAND
	OpANDI
	OpOR
	OpORI
	OpXOR
	OpXORI
	OpSLL
	OpSLLI
	OpSRL
	OpSRLI
	OpSRA
	OpSRAI

	OpMUL
	OpMULH
	OpMULSU
	OpMULU
	OpDIV
	OpDIVU
	OpREM
	OpREMU

	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW

	OpSLT
	OpSLTI
	OpSLTU
	OpSLTIU
	OpSEQZ
	OpSNEZ
	OpSLTZ
	OpSGTZ

	OpBEQ
	OpBNE
	OpBGT
	OpBGE
	OpBLE
	OpBLT
	OpBGTU
	OpBGEU
	OpBLTU
	OpBLEU
	OpBEQZ
	OpBNEZ
	OpBLEZ
	OpBGEZ
	OpBLTZ
	OpBGTZ
	OpJ
	OpJAL
	OpJR
	OpJALR
	OpCALL
	OpRET

	OpECALL
	OpEBREAK
	OpSRET

	OpLADD
	OpLSUB
	OpLMUL
	OpLDIV
	OpLSQRT

	opCount
)

var mnemonics = map[string]Op{}

func init() {
	for op := OpNOP; op < opCount; op++ {
		mnemonics[descs[op].Name] = op
	}
	mnemonics["mulhsu"] = OpMULSU
	mnemonics["mulhu"] = OpMULU
}

// LookupOp returns the mnemonic spelled name. The match is case-sensitive.
func LookupOp(name string) (Op, bool) {
	op, ok := mnemonics[name]
	return op, ok
}

// Desc returns the operand and encoding descriptor for op.
func (op Op) Desc() *Desc {
	if op == OpInvalid || op >= opCount {
		return &descs[OpInvalid]
	}
	return &descs[op]
}

// String returns the canonical mnemonic.
func (op Op) String() string {
	return op.Desc().Name
}
