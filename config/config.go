// Package config holds assembler settings and reads overrides from the
// environment.
package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/xyproto/env/v2"

	"github.com/Urethramancer/rv32asm/mapper"
	"github.com/Urethramancer/rv32asm/objfile"
)

// Environment variables read by FromEnv.
const (
	EnvTextBase   = "RVASM_TEXT_BASE"
	EnvDataBase   = "RVASM_DATA_BASE"
	EnvStackBase  = "RVASM_STACK_BASE"
	EnvStackWords = "RVASM_STACK_WORDS"
	EnvHeader     = "RVASM_HEADER"
	EnvTrace      = "RVASM_TRACE"
)

// Config is everything the pipeline needs besides the source.
type Config struct {
	TextBase   uint32
	DataBase   uint32
	StackBase  uint32
	StackWords uint32
	Header     objfile.Header
	// Trace logs every pipeline stage.
	Trace bool
}

// Default returns the stock memory map.
func Default() Config {
	return Config{
		TextBase:   0x80000000,
		DataBase:   0x80001000,
		StackBase:  0x80002000,
		StackWords: 1 << 10,
		Header:     objfile.Compact,
	}
}

// FromEnv starts from Default and applies any RVASM_* variables set
// at the time of the call.
func FromEnv() (Config, error) {
	env.Load()
	c := Default()
	for _, v := range []struct {
		name string
		dst  *uint32
	}{
		{EnvTextBase, &c.TextBase},
		{EnvDataBase, &c.DataBase},
		{EnvStackBase, &c.StackBase},
		{EnvStackWords, &c.StackWords},
	} {
		s := env.Str(v.name)
		if s == "" {
			continue
		}
		n, err := ParseUint32(s)
		if err != nil {
			return c, fmt.Errorf("%s: %w", v.name, err)
		}
		*v.dst = n
	}

	h, err := objfile.ParseHeader(env.Str(EnvHeader, c.Header.String()))
	if err != nil {
		return c, fmt.Errorf("%s: %w", EnvHeader, err)
	}
	c.Header = h
	c.Trace = env.Bool(EnvTrace)
	return c, nil
}

// ParseUint32 reads a decimal, 0x hex or 0b binary value.
func ParseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// Validate checks that the segments are word aligned and do not overlap.
func (c Config) Validate() error {
	var errs []error
	for _, b := range []struct {
		name string
		addr uint32
	}{
		{"text base", c.TextBase},
		{"data base", c.DataBase},
		{"stack base", c.StackBase},
	} {
		if b.addr%4 != 0 {
			errs = append(errs, fmt.Errorf("%s %#x is not word aligned", b.name, b.addr))
		}
	}
	if c.TextBase == c.DataBase || c.TextBase == c.StackBase || c.DataBase == c.StackBase {
		errs = append(errs, errors.New("segment bases must be distinct"))
	}
	if c.StackWords == 0 {
		errs = append(errs, errors.New("stack size must be at least one word"))
	}
	return errors.Join(errs...)
}

// Layout returns the memory map used by the mapper.
func (c Config) Layout() mapper.Layout {
	return mapper.Layout{
		TextBase:   c.TextBase,
		DataBase:   c.DataBase,
		StackBase:  c.StackBase,
		StackWords: c.StackWords,
	}
}
