package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/Urethramancer/rv32asm/assembler"
	"github.com/Urethramancer/rv32asm/config"
	"github.com/Urethramancer/rv32asm/objfile"
)

type options struct {
	output     string
	header     string
	dumpTokens bool
	dumpAST    bool
	listing    bool
}

// errGrammar signals exit status 1 after diagnostics were logged.
var errGrammar = errors.New("grammar errors")

func newRootCmd(cfg *config.Config) *cobra.Command {
	var opt options
	cmd := &cobra.Command{
		Use:   "rvasm source.s",
		Short: "Assembler for RV32IM with the LNS extension",
		Long: `Rvasm assembles one source file with a .text and an optional .data
section into a flat binary: a header with the segment sizes, then the
data words, then the instruction words.

The output goes next to the source with .s replaced by .bin unless -o
is given. Memory layout and header shape can also be set with the
RVASM_TEXT_BASE, RVASM_DATA_BASE, RVASM_STACK_BASE, RVASM_STACK_WORDS,
RVASM_HEADER and RVASM_TRACE environment variables; flags win.
`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return assemble(cmd, *cfg, opt, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opt.output, "output", "o", "", "output file (default: input with .s replaced by .bin)")
	f.StringVar(&opt.header, "header", cfg.Header.String(), "header shape: compact or extended")
	f.Uint32Var(&cfg.TextBase, "text-base", cfg.TextBase, "address of the first instruction")
	f.Uint32Var(&cfg.DataBase, "data-base", cfg.DataBase, "address of the data segment")
	f.Uint32Var(&cfg.StackBase, "stack-base", cfg.StackBase, "initial stack address")
	f.Uint32Var(&cfg.StackWords, "stack-words", cfg.StackWords, "stack size in words")
	f.BoolVar(&cfg.Trace, "trace", cfg.Trace, "log each pipeline stage")
	f.BoolVar(&opt.dumpTokens, "dump-tokens", false, "print the token stream to stderr")
	f.BoolVar(&opt.dumpAST, "dump-ast", false, "print the syntax tree to stderr")
	f.BoolVar(&opt.listing, "listing", false, "print an address listing to stdout")
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	return cmd
}

func assemble(cmd *cobra.Command, cfg config.Config, opt options, input string) error {
	h, err := objfile.ParseHeader(opt.header)
	if err != nil {
		return err
	}
	cfg.Header = h
	if err := cfg.Validate(); err != nil {
		return err
	}

	u, err := assembler.New(cfg).AssembleFile(input)
	if u != nil && opt.dumpTokens {
		pp.Fprintln(os.Stderr, u.Tokens)
	}
	if u != nil && opt.dumpAST {
		pp.Fprintln(os.Stderr, u.AST)
	}
	if errors.Is(err, assembler.ErrGrammar) {
		glog.Errorf("%s", err)
		return errGrammar
	}
	if err != nil {
		glog.Exitf("%s", err)
	}

	if opt.listing {
		for _, e := range u.Image.Listing {
			fmt.Fprintln(cmd.OutOrStdout(), e)
		}
	}

	out := opt.output
	if out == "" {
		out = objfile.OutputName(input)
	}
	if err := objfile.WriteFile(out, u.Image, cfg.Header); err != nil {
		glog.Exitf("%s", err)
	}
	if cfg.Trace {
		glog.Infof("wrote %s (%s header)", out, cfg.Header)
	}
	return nil
}

// run executes cmd and maps its outcome to an exit status.
func run(cmd *cobra.Command) int {
	err := cmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errGrammar):
		return 1
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
	return 1
}
