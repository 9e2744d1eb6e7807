package cpu

import "strings"

// Arg is the role an operand token plays in a grammar form.
type Arg uint8

const (
	ArgNone Arg = iota
	ArgReg
	ArgNum
	ArgSym
)

func (a Arg) String() string {
	switch a {
	case ArgReg:
		return "<reg>"
	case ArgNum:
		return "<imm>"
	case ArgSym:
		return "<symbol>"
	}
	return "<none>"
}

// Grammar is the statement shape the parser expects after a mnemonic.
type Grammar uint8

const (
	// GrammarBare takes no operands.
	GrammarBare Grammar = iota
	// GrammarTarget takes exactly one operand.
	GrammarTarget
	// GrammarJump takes one operand optionally followed by more, comma separated.
	GrammarJump
	// GrammarPair takes two comma separated operands.
	GrammarPair
	// GrammarTriple takes three comma separated operands.
	GrammarTriple
	// GrammarMemory takes <reg>, <imm>(<reg>) or <reg>, <symbol>[, <reg>].
	GrammarMemory
)

// Format is the 32-bit field layout of a real instruction.
type Format uint8

const (
	FormatPseudo Format = iota
	FormatR
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
)

// Imm is the range rule applied to a literal immediate operand.
type Imm uint8

const (
	ImmNone Imm = iota
	// ImmAny accepts any 32-bit value.
	ImmAny
	// Imm12 accepts signed 12-bit values, -2048 to 2047.
	Imm12
	// ImmShift accepts shift amounts 0-31.
	ImmShift
	// Imm20 accepts values that fit the 20-bit upper immediate field.
	Imm20
	// ImmBranch accepts even offsets within +/-4 KiB.
	ImmBranch
	// ImmJump accepts even offsets within +/-1 MiB.
	ImmJump
)

// Fits reports whether v satisfies the range rule.
func (r Imm) Fits(v int32) bool {
	switch r {
	case Imm12:
		return FitsImm12(v)
	case ImmShift:
		return v >= 0 && v <= 31
	case Imm20:
		return v >= -(1<<19) && v <= 0xFFFFF
	case ImmBranch:
		return v&1 == 0 && v >= -4096 && v <= 4094
	case ImmJump:
		return v&1 == 0 && v >= -(1<<20) && v <= 1<<20-2
	}
	return true
}

// FitsImm12 reports whether v survives the sign extension of a 12-bit
// immediate field.
func FitsImm12(v int32) bool {
	return v >= -2048 && v <= 2047
}

// FitsShortLI reports whether li emits v as a single addi. Raw patterns
// 0x800-0xFFF are accepted and come out sign-extended.
func FitsShortLI(v int32) bool {
	return v >= -2048 && v <= 0xFFF
}

// Form is one accepted operand pattern together with the number of
// words it expands to. Address resolution and emission both size
// statements from this value.
type Form struct {
	Args  []Arg
	Words int
	// Wide forms take one extra word when their immediate is not a
	// short li value.
	Wide bool
}

// Size returns the emitted word count for the form given its immediate.
func (f Form) Size(imm int32) int {
	if f.Wide && !FitsShortLI(imm) {
		return f.Words + 1
	}
	return f.Words
}

// Desc describes one mnemonic: its grammar, accepted operand forms and
// encoding constants.
type Desc struct {
	Name    string
	Grammar Grammar
	Format  Format
	Opcode  uint32
	Funct3  uint32
	Funct7  uint32
	Imm     Imm
	Forms   []Form
}

// Match returns the form whose operand roles equal args.
func (d *Desc) Match(args []Arg) (Form, bool) {
	for _, f := range d.Forms {
		if len(f.Args) != len(args) {
			continue
		}
		ok := true
		for i := range args {
			if f.Args[i] != args[i] {
				ok = false
				break
			}
		}
		if ok {
			return f, true
		}
	}
	return Form{}, false
}

// Usage renders the accepted forms, e.g. "lw <reg>, <imm>(<reg>) | lw <reg>, <symbol>".
func (d *Desc) Usage() string {
	var alts []string
	for _, f := range d.Forms {
		var b strings.Builder
		b.WriteString(d.Name)
		if d.Grammar == GrammarMemory && len(f.Args) == 3 && f.Args[1] == ArgNum {
			b.WriteString(" <reg>, <imm>(<reg>)")
			alts = append(alts, b.String())
			continue
		}
		for i, a := range f.Args {
			if i == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		alts = append(alts, b.String())
	}
	return strings.Join(alts, " | ")
}

var (
	argsNone   = []Arg{}
	argsR      = []Arg{ArgReg}
	argsS      = []Arg{ArgSym}
	argsN      = []Arg{ArgNum}
	argsRR     = []Arg{ArgReg, ArgReg}
	argsRN     = []Arg{ArgReg, ArgNum}
	argsRS     = []Arg{ArgReg, ArgSym}
	argsRRR    = []Arg{ArgReg, ArgReg, ArgReg}
	argsRRN    = []Arg{ArgReg, ArgReg, ArgNum}
	argsRRS    = []Arg{ArgReg, ArgReg, ArgSym}
	argsRNR    = []Arg{ArgReg, ArgNum, ArgReg}
	argsRSR    = []Arg{ArgReg, ArgSym, ArgReg}
	formsBare  = []Form{{Args: argsNone, Words: 1}}
	formsRR    = []Form{{Args: argsRR, Words: 1}}
	formsRRR   = []Form{{Args: argsRRR, Words: 1}}
	formsRRN   = []Form{{Args: argsRRN, Words: 1}}
	formsRN    = []Form{{Args: argsRN, Words: 1}}
	formsB     = []Form{{Args: argsRRS, Words: 1}, {Args: argsRRN, Words: 1}}
	formsBZ    = []Form{{Args: argsRS, Words: 1}, {Args: argsRN, Words: 1}}
	formsLoad  = []Form{{Args: argsRNR, Words: 1}, {Args: argsRS, Words: 2}, {Args: argsRSR, Words: 2}}
	formsStore = []Form{{Args: argsRNR, Words: 1}, {Args: argsRSR, Words: 2}}
)

func rtype(name string, opcode, f3, f7 uint32) Desc {
	return Desc{Name: name, Grammar: GrammarTriple, Format: FormatR, Opcode: opcode, Funct3: f3, Funct7: f7, Forms: formsRRR}
}

func itype(name string, f3 uint32) Desc {
	return Desc{Name: name, Grammar: GrammarTriple, Format: FormatI, Opcode: OpcodeOpImm, Funct3: f3, Imm: Imm12, Forms: formsRRN}
}

func shift(name string, f3, f7 uint32) Desc {
	return Desc{Name: name, Grammar: GrammarTriple, Format: FormatI, Opcode: OpcodeOpImm, Funct3: f3, Funct7: f7, Imm: ImmShift, Forms: formsRRN}
}

func load(name string, f3 uint32) Desc {
	return Desc{Name: name, Grammar: GrammarMemory, Format: FormatI, Opcode: OpcodeLoad, Funct3: f3, Imm: Imm12, Forms: formsLoad}
}

func store(name string, f3 uint32) Desc {
	return Desc{Name: name, Grammar: GrammarMemory, Format: FormatS, Opcode: OpcodeStore, Funct3: f3, Imm: Imm12, Forms: formsStore}
}

func branch(name string, f3 uint32) Desc {
	return Desc{Name: name, Grammar: GrammarTriple, Format: FormatB, Opcode: OpcodeBranch, Funct3: f3, Imm: ImmBranch, Forms: formsB}
}

// pseudoBranch is a branch with reordered or implicit x0 operands; the
// encoding constants are those of the real branch it becomes.
func pseudoBranch(name string, g Grammar, f3 uint32) Desc {
	forms := formsB
	if g == GrammarPair {
		forms = formsBZ
	}
	return Desc{Name: name, Grammar: g, Format: FormatPseudo, Opcode: OpcodeBranch, Funct3: f3, Imm: ImmBranch, Forms: forms}
}

func system(name string, imm uint32) Desc {
	return Desc{Name: name, Grammar: GrammarBare, Format: FormatI, Opcode: OpcodeSystem, Funct7: imm, Forms: formsBare}
}

// descs is indexed by Op. For SYSTEM instructions Funct7 carries the
// 12-bit immediate selecting the call.
var descs = [opCount]Desc{
	OpInvalid: {Name: "<invalid>"},

	OpNOP:   {Name: "nop", Grammar: GrammarBare, Forms: formsBare},
	OpLI:    {Name: "li", Grammar: GrammarPair, Imm: ImmAny, Forms: []Form{{Args: argsRN, Words: 1, Wide: true}}},
	OpLA:    {Name: "la", Grammar: GrammarPair, Forms: []Form{{Args: argsRS, Words: 2}}},
	OpLUI:   {Name: "lui", Grammar: GrammarPair, Format: FormatU, Opcode: OpcodeLUI, Imm: Imm20, Forms: formsRN},
	OpAUIPC: {Name: "auipc", Grammar: GrammarPair, Format: FormatU, Opcode: OpcodeAUIPC, Imm: Imm20, Forms: formsRN},
	OpMV:    {Name: "mv", Grammar: GrammarPair, Forms: formsRR},

	OpNEG:  {Name: "neg", Grammar: GrammarPair, Forms: formsRR},
	OpADD:  rtype("add", OpcodeOp, F3AddSub, F7Base),
	OpADDI: itype("addi", F3AddSub),
	OpSUB:  rtype("sub", OpcodeOp, F3AddSub, F7Alt),
	OpNOT:  {Name: "not", Grammar: GrammarPair, Forms: formsRR},
	OpAND:  rtype("and", OpcodeOp, F3AND, F7Base),
	OpANDI: itype("andi", F3AND),
	OpOR:   rtype("or", OpcodeOp, F3OR, F7Base),
	OpORI:  itype("ori", F3OR),
	OpXOR:  rtype("xor", OpcodeOp, F3XOR, F7Base),
	OpXORI: itype("xori", F3XOR),
	OpSLL:  rtype("sll", OpcodeOp, F3SLL, F7Base),
	OpSLLI: shift("slli", F3SLL, F7Base),
	OpSRL:  rtype("srl", OpcodeOp, F3SR, F7Base),
	OpSRLI: shift("srli", F3SR, F7Base),
	OpSRA:  rtype("sra", OpcodeOp, F3SR, F7Alt),
	OpSRAI: shift("srai", F3SR, F7Alt),

	OpMUL:   rtype("mul", OpcodeOp, F3MUL, F7MulDiv),
	OpMULH:  rtype("mulh", OpcodeOp, F3MULH, F7MulDiv),
	OpMULSU: rtype("mulsu", OpcodeOp, F3MULHSU, F7MulDiv),
	OpMULU:  rtype("mulu", OpcodeOp, F3MULHU, F7MulDiv),
	OpDIV:   rtype("div", OpcodeOp, F3DIV, F7MulDiv),
	OpDIVU:  rtype("divu", OpcodeOp, F3DIVU, F7MulDiv),
	OpREM:   rtype("rem", OpcodeOp, F3REM, F7MulDiv),
	OpREMU:  rtype("remu", OpcodeOp, F3REMU, F7MulDiv),

	OpLB:  load("lb", F3LB),
	OpLH:  load("lh", F3LH),
	OpLW:  load("lw", F3LW),
	OpLBU: load("lbu", F3LBU),
	OpLHU: load("lhu", F3LHU),
	OpSB:  store("sb", F3SB),
	OpSH:  store("sh", F3SH),
	OpSW:  store("sw", F3SW),

	OpSLT:   rtype("slt", OpcodeOp, F3SLT, F7Base),
	OpSLTI:  itype("slti", F3SLT),
	OpSLTU:  rtype("sltu", OpcodeOp, F3SLTU, F7Base),
	OpSLTIU: itype("sltiu", F3SLTU),
	OpSEQZ:  {Name: "seqz", Grammar: GrammarPair, Forms: formsRR},
	OpSNEZ:  {Name: "snez", Grammar: GrammarPair, Forms: formsRR},
	OpSLTZ:  {Name: "sltz", Grammar: GrammarPair, Forms: formsRR},
	OpSGTZ:  {Name: "sgtz", Grammar: GrammarPair, Forms: formsRR},

	OpBEQ:  branch("beq", F3BEQ),
	OpBNE:  branch("bne", F3BNE),
	OpBGT:  pseudoBranch("bgt", GrammarTriple, F3BLT),
	OpBGE:  branch("bge", F3BGE),
	OpBLE:  pseudoBranch("ble", GrammarTriple, F3BGE),
	OpBLT:  branch("blt", F3BLT),
	OpBGTU: pseudoBranch("bgtu", GrammarTriple, F3BLTU),
	OpBGEU: branch("bgeu", F3BGEU),
	OpBLTU: branch("bltu", F3BLTU),
	OpBLEU: pseudoBranch("bleu", GrammarTriple, F3BGEU),
	OpBEQZ: pseudoBranch("beqz", GrammarPair, F3BEQ),
	OpBNEZ: pseudoBranch("bnez", GrammarPair, F3BNE),
	OpBLEZ: pseudoBranch("blez", GrammarPair, F3BGE),
	OpBGEZ: pseudoBranch("bgez", GrammarPair, F3BGE),
	OpBLTZ: pseudoBranch("bltz", GrammarPair, F3BLT),
	OpBGTZ: pseudoBranch("bgtz", GrammarPair, F3BLT),
	OpJ:    {Name: "j", Grammar: GrammarTarget, Imm: ImmJump, Forms: []Form{{Args: argsS, Words: 1}, {Args: argsN, Words: 1}}},
	OpJAL: {Name: "jal", Grammar: GrammarJump, Format: FormatJ, Opcode: OpcodeJAL, Imm: ImmJump, Forms: []Form{
		{Args: argsS, Words: 1}, {Args: argsN, Words: 1}, {Args: argsRN, Words: 1}, {Args: argsRS, Words: 1},
	}},
	OpJR: {Name: "jr", Grammar: GrammarTarget, Forms: []Form{{Args: argsR, Words: 1}}},
	OpJALR: {Name: "jalr", Grammar: GrammarJump, Format: FormatI, Opcode: OpcodeJALR, Funct3: F3JALR, Imm: Imm12, Forms: []Form{
		{Args: argsR, Words: 1}, {Args: argsRN, Words: 1}, {Args: argsRRN, Words: 1},
	}},
	OpCALL: {Name: "call", Grammar: GrammarTarget, Forms: []Form{{Args: argsS, Words: 2}}},
	OpRET:  {Name: "ret", Grammar: GrammarBare, Forms: formsBare},

	OpECALL:  system("ecall", ImmECALL),
	OpEBREAK: system("ebreak", ImmEBREAK),
	OpSRET:   system("sret", ImmSRET),

	OpLADD:  rtype("ladd", OpcodeLNS, F3LNSAdd, F7Base),
	OpLSUB:  rtype("lsub", OpcodeLNS, F3LNSSub, F7Base),
	OpLMUL:  rtype("lmul", OpcodeLNS, F3LNSMul, F7Base),
	OpLDIV:  rtype("ldiv", OpcodeLNS, F3LNSDiv, F7Base),
	OpLSQRT: {Name: "lsqrt", Grammar: GrammarPair, Format: FormatR, Opcode: OpcodeLNS, Funct3: F3LNSSqt, Funct7: F7Base, Forms: formsRR},
}
