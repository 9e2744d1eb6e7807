package mapper_test

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/Urethramancer/rv32asm/cpu"
	"github.com/Urethramancer/rv32asm/lexer"
	"github.com/Urethramancer/rv32asm/mapper"
	"github.com/Urethramancer/rv32asm/parser"
)

var layout = mapper.Layout{
	TextBase:   0x80000000,
	DataBase:   0x80001000,
	StackBase:  0x80002000,
	StackWords: 1 << 10,
}

func check(t *testing.T, src string) *parser.AST {
	t.Helper()
	toks, err := lexer.Lex("test.s", src)
	if err != nil {
		t.Fatalf("lex:\n%s\nerror: %v", src, err)
	}
	a, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse:\n%s\nerror: %v", src, err)
	}
	parser.Check(a)
	if a.Err {
		for _, d := range a.Diagnostics {
			t.Log(d)
		}
		t.Fatalf("check failed:\n%s", src)
	}
	return a
}

func assemble(t *testing.T, src string) *mapper.Image {
	t.Helper()
	img, err := mapper.Encode(check(t, src), layout)
	if err != nil {
		t.Fatalf("encode:\n%s\nerror: %v", src, err)
	}
	return img
}

func parseWords(t *testing.T, s string) []uint32 {
	t.Helper()
	var out []uint32
	for _, f := range strings.Fields(s) {
		v, err := strconv.ParseUint(f, 16, 32)
		if err != nil {
			t.Fatalf("invalid expected word %q: %v", f, err)
		}
		out = append(out, uint32(v))
	}
	return out
}

// assembleAndMatch assembles src under .text and compares the text
// segment against whitespace separated hex words.
func assembleAndMatch(t *testing.T, name, src, want string) {
	t.Helper()
	expected := parseWords(t, want)
	img := assemble(t, ".text\n"+src)
	if len(img.Text) != len(expected) {
		t.Fatalf("[%s] expected %d words, got %d\nexpected: %08x\ngot:      %08x",
			name, len(expected), len(img.Text), expected, img.Text)
	}
	for i := range expected {
		if img.Text[i] != expected[i] {
			t.Errorf("[%s] mismatch at word %d\nexpected: %08x\ngot:      %08x", name, i, expected, img.Text)
			break
		}
	}
}

func TestBasicEncodings(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"NOP", "nop", "00000013"},
		{"ADD", "add x1, x2, x3", "003100b3"},
		{"SUB", "sub x1, x2, x3", "403100b3"},
		{"ADDI_Neg", "addi x1, x2, -1", "fff10093"},
		{"SLLI", "slli x1, x2, 3", "00311093"},
		{"SRLI", "srli x1, x2, 3", "00315093"},
		{"SRAI", "srai x1, x2, 3", "40315093"},
		{"LUI", "lui x1, 0x12345", "123450b7"},
		{"AUIPC", "auipc x1, 1", "00001097"},
		{"LW", "lw a0, 4(sp)", "00412503"},
		{"SW", "sw a0, 8(sp)", "00a12423"},
		{"MUL", "mul x1, x2, x3", "023100b3"},
		{"ECALL", "ecall", "00000073"},
		{"EBREAK", "ebreak", "00100073"},
		{"SRET", "sret", "10200073"},
		{"JALR_Full", "jalr ra, t0, 4", "004280e7"},
		{"LADD", "ladd a0, a1, a2", "00c58500"},
		{"LSQRT", "lsqrt a0, a1", "0005c500"},
	}
	for _, tc := range tests {
		assembleAndMatch(t, tc.name, tc.src, tc.hex)
	}
}

func TestPseudoEncodings(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"RET", "ret", "00008067"},
		{"JR", "jr t0", "00028067"},
		{"MV", "mv a0, a1", "00058513"},
		{"NOT", "not a0, a1", "fff5c513"},
		{"NEG", "neg a0, a1", "40b00533"},
		{"SEQZ", "seqz a0, a1", "0015b513"},
		{"SNEZ", "snez a0, a1", "00b03533"},
		{"SLTZ", "sltz a0, a1", "0005a533"},
		{"SGTZ", "sgtz a0, a1", "00b02533"},
		{"LI_Small", "li a0, 5", "00500513"},
		{"LI_Neg", "li a0, -1", "fff00513"},
		{"LI_RawPattern", "li a0, 0x800", "80000513"},
		{"LI_Large", "li a0, 100000", "00018537 6a050513"},
		{"LI_Boundary", "li a0, 0x1000", "00001537 00050513"},
		{"CALL", "call f\nf: ret", "00000097 008080e7 00008067"},
	}
	for _, tc := range tests {
		assembleAndMatch(t, tc.name, tc.src, tc.hex)
	}
}

func TestLoadAddress(t *testing.T) {
	img := assemble(t, ".data\nmsg: .string \"hi\"\n.text\nla a0, msg\nlw a1, msg\nsw a1, msg, t0")
	want := []uint32{
		0x00001517, 0x00050513, // la: offset 0x1000 from 0x80000000
		0x00001597, 0xff85a583, // lw: offset 0xff8 from 0x80000008, rounds up
		0x00001297, 0xfeb2a823, // sw: offset 0xff0 from 0x80000010
	}
	if len(img.Text) != len(want) {
		t.Fatalf("got %08x", img.Text)
	}
	for i := range want {
		if img.Text[i] != want[i] {
			t.Errorf("word %d: got %08x, want %08x", i, img.Text[i], want[i])
		}
	}
}

func TestWordCounts(t *testing.T) {
	tests := []struct {
		src   string
		words int
	}{
		{"li x5, 5", 1},
		{"li x5, 100000", 2},
		{"li x5, 0xFFF", 1},
		{"li x5, 0x1000", 2},
		{"li x5, -2048", 1},
		{"li x5, -2049", 2},
		{"la x5, label\nlabel:", 2},
		{"call label\nlabel:", 2},
	}
	for _, tc := range tests {
		img := assemble(t, ".text\n"+tc.src)
		if len(img.Text) != tc.words {
			t.Errorf("%q: got %d words, want %d", tc.src, len(img.Text), tc.words)
		}
	}
}

func immI(w uint32) int32 { return int32(w) >> 20 }

func immS(w uint32) int32 { return int32(w&0xFE000000)>>20 | int32(w>>7&0x1F) }

func immB(w uint32) int32 {
	v := (w>>31&1)<<12 | (w>>7&1)<<11 | (w>>25&0x3F)<<5 | (w>>8&0xF)<<1
	return int32(v<<19) >> 19
}

func immJ(w uint32) int32 {
	v := (w>>31&1)<<20 | (w>>12&0xFF)<<12 | (w>>20&1)<<11 | (w>>21&0x3FF)<<1
	return int32(v<<11) >> 11
}

type fields struct {
	opcode, rd, f3, rs1, rs2, f7 uint32
}

func decode(w uint32) fields {
	return fields{
		opcode: w & 0x7F,
		rd:     w >> 7 & 0x1F,
		f3:     w >> 12 & 7,
		rs1:    w >> 15 & 0x1F,
		rs2:    w >> 20 & 0x1F,
		f7:     w >> 25,
	}
}

func single(t *testing.T, src string) uint32 {
	t.Helper()
	img := assemble(t, ".text\n"+src)
	if len(img.Text) != 1 {
		t.Fatalf("%q: got %d words", src, len(img.Text))
	}
	return img.Text[0]
}

func TestRoundTripR(t *testing.T) {
	names := []string{
		"add", "sub", "and", "or", "xor", "sll", "srl", "sra", "slt", "sltu",
		"mul", "mulh", "mulsu", "mulu", "div", "divu", "rem", "remu",
		"ladd", "lsub", "lmul", "ldiv",
	}
	for _, name := range names {
		op, _ := cpu.LookupOp(name)
		d := op.Desc()
		f := decode(single(t, name+" x5, x6, x7"))
		if f != (fields{d.Opcode, 5, d.Funct3, 6, 7, d.Funct7}) {
			t.Errorf("%s: decoded %+v", name, f)
		}
	}
}

func TestRoundTripI(t *testing.T) {
	names := []string{"addi", "andi", "ori", "xori", "slti", "sltiu"}
	imms := []int32{0, 1, -1, 2047, -2048}
	for _, name := range names {
		op, _ := cpu.LookupOp(name)
		d := op.Desc()
		for _, imm := range imms {
			w := single(t, fmt.Sprintf("%s x8, x9, %d", name, imm))
			f := decode(w)
			if f.opcode != d.Opcode || f.f3 != d.Funct3 || f.rd != 8 || f.rs1 != 9 || immI(w) != imm {
				t.Errorf("%s %d: decoded %+v imm %d", name, imm, f, immI(w))
			}
		}
	}
	for _, name := range []string{"slli", "srli", "srai"} {
		op, _ := cpu.LookupOp(name)
		d := op.Desc()
		for _, sh := range []int32{0, 1, 31} {
			f := decode(single(t, fmt.Sprintf("%s x8, x9, %d", name, sh)))
			if f.rs2 != uint32(sh) || f.f7 != d.Funct7 || f.f3 != d.Funct3 {
				t.Errorf("%s %d: decoded %+v", name, sh, f)
			}
		}
	}
}

func TestRoundTripMemory(t *testing.T) {
	for _, name := range []string{"lb", "lh", "lw", "lbu", "lhu"} {
		op, _ := cpu.LookupOp(name)
		for _, off := range []int32{-2048, -4, 0, 2047} {
			w := single(t, fmt.Sprintf("%s x10, %d(x11)", name, off))
			f := decode(w)
			if f.opcode != cpu.OpcodeLoad || f.f3 != op.Desc().Funct3 || f.rd != 10 || f.rs1 != 11 || immI(w) != off {
				t.Errorf("%s %d: decoded %+v imm %d", name, off, f, immI(w))
			}
		}
	}
	for _, name := range []string{"sb", "sh", "sw"} {
		op, _ := cpu.LookupOp(name)
		for _, off := range []int32{-2048, -4, 0, 31, 32, 2047} {
			w := single(t, fmt.Sprintf("%s x10, %d(x11)", name, off))
			f := decode(w)
			if f.opcode != cpu.OpcodeStore || f.f3 != op.Desc().Funct3 || f.rs2 != 10 || f.rs1 != 11 || immS(w) != off {
				t.Errorf("%s %d: decoded %+v imm %d", name, off, f, immS(w))
			}
		}
	}
}

func TestRoundTripBranch(t *testing.T) {
	for _, name := range []string{"beq", "bne", "blt", "bge", "bltu", "bgeu"} {
		op, _ := cpu.LookupOp(name)
		for _, off := range []int32{-4096, -8, 2, 2048, 4094} {
			w := single(t, fmt.Sprintf("%s x12, x13, %d", name, off))
			f := decode(w)
			if f.opcode != cpu.OpcodeBranch || f.f3 != op.Desc().Funct3 || f.rs1 != 12 || f.rs2 != 13 || immB(w) != off {
				t.Errorf("%s %d: decoded %+v imm %d", name, off, f, immB(w))
			}
		}
	}
	for _, off := range []int32{-(1 << 20), -2, 2048, 1<<20 - 2} {
		w := single(t, fmt.Sprintf("jal x1, %d", off))
		if f := decode(w); f.opcode != cpu.OpcodeJAL || f.rd != 1 || immJ(w) != off {
			t.Errorf("jal %d: decoded %+v imm %d", off, f, immJ(w))
		}
	}
}

func TestPseudoBranches(t *testing.T) {
	tests := []struct {
		src      string
		f3       uint32
		rs1, rs2 uint32
	}{
		{"bgt x5, x6, L", cpu.F3BLT, 6, 5},
		{"ble x5, x6, L", cpu.F3BGE, 6, 5},
		{"bgtu x5, x6, L", cpu.F3BLTU, 6, 5},
		{"bleu x5, x6, L", cpu.F3BGEU, 6, 5},
		{"beqz x5, L", cpu.F3BEQ, 5, 0},
		{"bnez x5, L", cpu.F3BNE, 5, 0},
		{"blez x5, L", cpu.F3BGE, 0, 5},
		{"bgez x5, L", cpu.F3BGE, 5, 0},
		{"bltz x5, L", cpu.F3BLT, 5, 0},
		{"bgtz x5, L", cpu.F3BLT, 0, 5},
	}
	for _, tc := range tests {
		img := assemble(t, ".text\nL:\n"+tc.src)
		f := decode(img.Text[0])
		if f.f3 != tc.f3 || f.rs1 != tc.rs1 || f.rs2 != tc.rs2 || immB(img.Text[0]) != 0 {
			t.Errorf("%q: decoded %+v", tc.src, f)
		}
	}
}

func TestPCRelative(t *testing.T) {
	// beqz at A = base+4, L at B = base+16.
	img := assemble(t, ".text\nnop\nbeqz x1, L\nli a0, 100000\nL: nop\nj L\nbnez x1, L")
	if got := immB(img.Text[1]); got != 12 {
		t.Errorf("forward beqz: got %d, want 12", got)
	}
	if got := immJ(img.Text[5]); got != -4 {
		t.Errorf("backward j: got %d, want -4", got)
	}
	if got := immB(img.Text[6]); got != -8 {
		t.Errorf("backward bnez: got %d, want -8", got)
	}
	if f := decode(img.Text[5]); f.rd != 0 {
		t.Errorf("j links x%d", f.rd)
	}
}

func TestSymbols(t *testing.T) {
	a := check(t, ".data\nb: .byte 1, 2, 3\nh: .half 0x1234\ns: .string \"ab\"\nw: .word 7\n.text\nstart: li a0, 100000\nla a1, w\nend: nop")
	syms, err := mapper.Symbols(a, layout)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]uint32{
		"b":     0x80001000,
		"h":     0x80001003,
		"s":     0x80001005,
		"w":     0x80001008,
		"start": 0x80000000,
		"end":   0x80000010,
	}
	for name, addr := range want {
		if syms[name] != addr {
			t.Errorf("%s: got %08x, want %08x", name, syms[name], addr)
		}
	}
}

func TestDataPacking(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"string", "s: .string \"hi\"", "00006968"},
		{"string exact word", "s: .string \"abc\"", "00636261"},
		{"string spills", "s: .string \"abcd\"", "64636261 00000000"},
		{"two strings", "s: .string \"a\", \"b\"", "00620061"},
		{"escape", "s: .string \"\\n\"", "0000000a"},
		{"short nul", "s: .string \"a\\0b\"", "00620061"},
		{"bytes then half", "b: .byte 1, 2, 3\nh: .half 0x1234", "34030201 00000012"},
		{"negative", "b: .byte -1\nw: .word -2", "fffffeff 000000ff"},
		{"words", "w: .word 0x11223344, 5", "11223344 00000005"},
	}
	for _, tc := range tests {
		img := assemble(t, ".data\n"+tc.src+"\n.text\nnop")
		want := parseWords(t, tc.hex)
		if len(img.Data) != len(want) {
			t.Errorf("[%s] got %08x, want %08x", tc.name, img.Data, want)
			continue
		}
		for i := range want {
			if img.Data[i] != want[i] {
				t.Errorf("[%s] got %08x, want %08x", tc.name, img.Data, want)
				break
			}
		}
	}
}

// Every accepted form of every mnemonic must emit exactly as many
// words as address resolution reserved for it.
func TestEveryFormEmitsItsSize(t *testing.T) {
	for op := cpu.OpNOP; ; op++ {
		d := op.Desc()
		if d.Name == "<invalid>" {
			break
		}
		for _, f := range d.Forms {
			src := ".text\ntarget:\n" + formSource(d, f) + "\nnop"
			a := check(t, src)
			img, err := mapper.Encode(a, layout)
			if err != nil {
				t.Errorf("%s: %v", src, err)
				continue
			}
			stmt := img.Listing[1]
			if len(stmt.Words) != a.Size(a.Text[1]) {
				t.Errorf("%s: emitted %d words", src, len(stmt.Words))
			}
		}
	}
}

func formSource(d *cpu.Desc, f cpu.Form) string {
	regs := []string{"t0", "t1", "t2"}
	var ops []string
	for i, arg := range f.Args {
		switch arg {
		case cpu.ArgReg:
			ops = append(ops, regs[i])
		case cpu.ArgNum:
			ops = append(ops, "4")
		case cpu.ArgSym:
			ops = append(ops, "target")
		}
	}
	if d.Grammar == cpu.GrammarMemory && len(f.Args) == 3 && f.Args[1] == cpu.ArgNum {
		return fmt.Sprintf("%s %s, %s(%s)", d.Name, ops[0], ops[1], ops[2])
	}
	return strings.TrimSpace(d.Name + " " + strings.Join(ops, ", "))
}

func TestRangeErrors(t *testing.T) {
	src := ".text\nbeq a0, a1, far\n" + strings.Repeat("nop\n", 1100) + "far: nop"
	_, err := mapper.Encode(check(t, src), layout)
	if !errors.Is(err, mapper.ErrRange) {
		t.Errorf("got %v, want ErrRange", err)
	}
}

// Statements that skipped Check still must not encode an immediate
// whose sign would flip.
func TestEmitterRangeChecks(t *testing.T) {
	for _, src := range []string{
		"addi x1, x2, 2048",
		"addi x1, x2, 4095",
		"lw x1, 2048(x2)",
		"sw x1, 4095(x2)",
		"jalr ra, t0, 2048",
	} {
		toks, err := lexer.Lex("test.s", ".text\n"+src)
		if err != nil {
			t.Fatal(err)
		}
		a, err := parser.Parse(toks)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := mapper.Encode(a, layout); !errors.Is(err, mapper.ErrRange) {
			t.Errorf("%q: got %v, want ErrRange", src, err)
		}
	}
}

func TestRefusesInvalidAST(t *testing.T) {
	toks, _ := lexer.Lex("bad.s", ".text\naddi x1, x2")
	a, err := parser.Parse(toks)
	if err != nil {
		t.Fatal(err)
	}
	parser.Check(a)
	if !a.Err {
		t.Fatal("expected error flag")
	}
	if _, err := mapper.Encode(a, layout); !errors.Is(err, mapper.ErrInvalidAST) {
		t.Errorf("got %v, want ErrInvalidAST", err)
	}
}

func TestSplitOffset(t *testing.T) {
	tests := []struct {
		v  int32
		hi uint32
		lo int32
	}{
		{0, 0, 0},
		{0x7FF, 0, 0x7FF},
		{0x800, 0x1000, -0x800},
		{0x1800, 0x2000, -0x800},
		{-1, 0, -1},
		{-0x801, 0xFFFFF000, -0x801 + 0x1000},
		{0x12345678, 0x12345000, 0x678},
	}
	for _, tc := range tests {
		hi, lo := mapper.SplitOffset(tc.v)
		if hi != tc.hi || lo != tc.lo {
			t.Errorf("%#x: got %#x, %d", tc.v, hi, lo)
		}
		if int32(hi)+lo != tc.v {
			t.Errorf("%#x: parts do not sum", tc.v)
		}
	}
}

func TestListing(t *testing.T) {
	img := assemble(t, ".text\nstart: lw a0, 4(sp)\ncall start")
	if len(img.Listing) != 3 {
		t.Fatalf("got %d entries", len(img.Listing))
	}
	if s := img.Listing[1].Source; s != "lw a0, 4(sp)" {
		t.Errorf("got %q", s)
	}
	if e := img.Listing[2]; e.PC != 0x80000004 || len(e.Words) != 2 {
		t.Errorf("got %+v", e)
	}
	if !strings.HasPrefix(img.Listing[1].String(), "80000000: 00412503") {
		t.Errorf("got %q", img.Listing[1].String())
	}
}
