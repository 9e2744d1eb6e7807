// Package objfile writes encoded images as flat binaries.
//
// A compact file holds two little-endian uint64 counts, data words
// then instruction words, followed by the data words and then the
// instruction words, all little-endian uint32. An extended file
// prefixes the counts with four uint32 values: text base, data base,
// stack base and stack size in words.
package objfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Urethramancer/rv32asm/mapper"
)

// Header selects the file header shape.
type Header uint8

const (
	Compact Header = iota
	Extended
)

func (h Header) String() string {
	if h == Extended {
		return "extended"
	}
	return "compact"
}

// ParseHeader accepts "compact" or "extended".
func ParseHeader(s string) (Header, error) {
	switch strings.ToLower(s) {
	case "compact", "":
		return Compact, nil
	case "extended":
		return Extended, nil
	}
	return Compact, fmt.Errorf("unknown header %q: want compact or extended", s)
}

// Write serialises img to w.
func Write(w io.Writer, img *mapper.Image, h Header) error {
	bw := bufio.NewWriter(w)
	if h == Extended {
		layout := []uint32{img.TextBase, img.DataBase, img.StackBase, img.StackWords}
		if err := binary.Write(bw, binary.LittleEndian, layout); err != nil {
			return err
		}
	}
	counts := []uint64{uint64(len(img.Data)), uint64(len(img.Text))}
	if err := binary.Write(bw, binary.LittleEndian, counts); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, img.Data); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, img.Text); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteFile writes img to path, replacing any existing file.
func WriteFile(path string, img *mapper.Image, h Header) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, img, h); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Read parses a file produced by Write with the same header shape.
// Listing and, for compact files, the layout are not recovered.
func Read(r io.Reader, h Header) (*mapper.Image, error) {
	img := &mapper.Image{}
	if h == Extended {
		var layout [4]uint32
		if err := binary.Read(r, binary.LittleEndian, &layout); err != nil {
			return nil, fmt.Errorf("reading layout: %w", err)
		}
		img.TextBase, img.DataBase, img.StackBase, img.StackWords = layout[0], layout[1], layout[2], layout[3]
	}
	var counts [2]uint64
	if err := binary.Read(r, binary.LittleEndian, &counts); err != nil {
		return nil, fmt.Errorf("reading counts: %w", err)
	}
	const limit = 1 << 28
	if counts[0] > limit || counts[1] > limit {
		return nil, fmt.Errorf("segment counts %d/%d too large", counts[0], counts[1])
	}
	img.Data = make([]uint32, counts[0])
	img.Text = make([]uint32, counts[1])
	if err := binary.Read(r, binary.LittleEndian, img.Data); err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, img.Text); err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}
	return img, nil
}

// OutputName derives the binary name from a source name: a trailing
// ".s" is replaced by ".bin"; anything else gets ".bin" appended.
func OutputName(input string) string {
	if strings.HasSuffix(input, ".s") {
		return strings.TrimSuffix(input, ".s") + ".bin"
	}
	return input + ".bin"
}
