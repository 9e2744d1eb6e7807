package mapper

import (
	"fmt"

	"github.com/Urethramancer/rv32asm/cpu"
	"github.com/Urethramancer/rv32asm/lexer"
	"github.com/Urethramancer/rv32asm/parser"
)

// dataSize returns the byte length of a declaration. Strings take one
// extra byte for the terminating NUL.
func dataSize(a *parser.AST, d parser.Data) (int, error) {
	typ := a.Type(d)
	if typ != lexer.KindString {
		return typ.ElementSize() * len(d.Values), nil
	}
	n := 0
	for _, v := range d.Values {
		s, err := a.StringValue(v)
		if err != nil {
			return 0, fmt.Errorf("%s: bad string literal: %w", a.Tokens[v].Pos, err)
		}
		n += len(s) + 1
	}
	return n, nil
}

// EncodeData packs every declaration little-endian into one byte
// stream, in order and without padding, then reads it back as words.
// The final word is zero padded.
func EncodeData(a *parser.AST) ([]uint32, error) {
	var buf []byte
	for _, d := range a.Data {
		typ := a.Type(d)
		for _, v := range d.Values {
			if typ == lexer.KindString {
				s, err := a.StringValue(v)
				if err != nil {
					return nil, fmt.Errorf("%s: bad string literal: %w", a.Tokens[v].Pos, err)
				}
				buf = append(buf, s...)
				buf = append(buf, 0)
				continue
			}
			n, _ := a.Tokens[v].Number()
			for i := 0; i < typ.ElementSize(); i++ {
				buf = append(buf, byte(uint32(n)>>(8*i)))
			}
		}
	}
	return cpu.BytesToWords(buf), nil
}
