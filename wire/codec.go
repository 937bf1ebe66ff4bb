package wire

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/replicated/sequence"
)

// Uint64Codec carries uint64 elements as 8 big-endian bytes.
type Uint64Codec struct{}

func (Uint64Codec) Marshal(e sequence.Element) ([]byte, error) {
	v, ok := e.(uint64)
	if !ok {
		return nil, fmt.Errorf("element %v is not a uint64", e)
	}

	p := make([]byte, 8)
	binary.BigEndian.PutUint64(p, v)
	return p, nil
}

func (Uint64Codec) Unmarshal(p []byte) (sequence.Element, error) {
	if len(p) != 8 {
		return nil, fmt.Errorf("uint64 element must be 8 bytes, got %d", len(p))
	}
	return binary.BigEndian.Uint64(p), nil
}

// RuneCodec carries rune elements in their UTF-8 encoding.
type RuneCodec struct{}

func (RuneCodec) Marshal(e sequence.Element) ([]byte, error) {
	v, ok := e.(rune)
	if !ok {
		return nil, fmt.Errorf("element %v is not a rune", e)
	}
	return []byte(string(v)), nil
}

func (RuneCodec) Unmarshal(p []byte) (sequence.Element, error) {
	v, size := utf8.DecodeRune(p)
	if v == utf8.RuneError && size <= 1 || size != len(p) {
		return nil, fmt.Errorf("element is not a single utf-8 rune")
	}
	return v, nil
}
