// Package assembler wires lexer, parser, mapper into one call.
package assembler

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/Urethramancer/rv32asm/config"
	"github.com/Urethramancer/rv32asm/lexer"
	"github.com/Urethramancer/rv32asm/mapper"
	"github.com/Urethramancer/rv32asm/parser"
)

// ErrGrammar is returned when checking found at least one problem.
// The diagnostics are in Unit.AST.
var ErrGrammar = errors.New("source has grammar errors")

// Unit is one assembled source and every intermediate product.
type Unit struct {
	File   string
	Tokens []lexer.Token
	AST    *parser.AST
	Image  *mapper.Image
}

// Assembler holds the settings for the assembly process.
type Assembler struct {
	cfg config.Config
}

// New creates an Assembler using cfg.
func New(cfg config.Config) *Assembler {
	return &Assembler{cfg: cfg}
}

// Assemble runs the full pipeline on src. On ErrGrammar the returned
// unit still carries the tokens and the AST.
func (asm *Assembler) Assemble(file, src string) (*Unit, error) {
	u := &Unit{File: file}
	var err error

	u.Tokens, err = lexer.Lex(file, src)
	if err != nil {
		return nil, fmt.Errorf("lexing error: %w", err)
	}
	asm.tracef("%s: %d tokens", file, len(u.Tokens))

	u.AST, err = parser.Parse(u.Tokens)
	if err != nil {
		return nil, fmt.Errorf("parsing error: %w", err)
	}
	parser.Check(u.AST)
	asm.tracef("%s: %d text nodes, %d data nodes", file, len(u.AST.Text), len(u.AST.Data))
	if u.AST.Err {
		for _, d := range u.AST.Diagnostics {
			glog.Errorf("%s", d)
		}
		return u, fmt.Errorf("%s: %d problems: %w", file, len(u.AST.Diagnostics), ErrGrammar)
	}

	u.Image, err = mapper.Encode(u.AST, asm.cfg.Layout())
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}
	asm.tracef("%s: %d data words, %d instruction words", file, len(u.Image.Data), len(u.Image.Text))
	return u, nil
}

// AssembleFile reads and assembles the file at path.
func (asm *Assembler) AssembleFile(path string) (*Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return asm.Assemble(path, string(src))
}

func (asm *Assembler) tracef(format string, args ...any) {
	if asm.cfg.Trace {
		glog.Infof(format, args...)
	}
}
