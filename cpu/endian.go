package cpu

import (
	"encoding/binary"
)

// WordSize is the width of an instruction or data word in bytes.
const WordSize = 4

// WordsToBytes converts a slice of 32-bit words to a little-endian byte slice.
func WordsToBytes(words []uint32) []byte {
	out := make([]byte, len(words)*WordSize)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*WordSize:], w)
	}
	return out
}

// BytesToWords packs bytes little-endian into 32-bit words.
// A trailing partial word is zero padded.
func BytesToWords(b []byte) []uint32 {
	out := make([]uint32, (len(b)+WordSize-1)/WordSize)
	for i, c := range b {
		out[i/WordSize] |= uint32(c) << (8 * (i % WordSize))
	}
	return out
}
