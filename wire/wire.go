// Package wire serializes update records to the interoperable tagged byte
// layout. All integer fields are big-endian. Elements are opaque at this
// layer and pass through a Codec supplied by the container's owner.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/replicated/sequence"
	"github.com/replicated/sequence/identifier"
)

// Record tags.
const (
	TagInsert = 0x01
	TagDelete = 0x02
)

var (
	// ErrShortRecord returned when a record ends before its fixed fields.
	ErrShortRecord = fmt.Errorf("short update record")

	// ErrUnknownTag returned when the leading tag byte is not a known
	// record kind.
	ErrUnknownTag = fmt.Errorf("unknown update record tag")
)

// Codec marshals container elements for the wire. Implementations decide
// the element layout; the record framing carries whatever bytes they
// produce as the record tail.
type Codec interface {
	Marshal(e sequence.Element) ([]byte, error)
	Unmarshal(p []byte) (sequence.Element, error)
}

const (
	insertHeaderLen = 1 + 2 + 4 + 2 + 4
	deleteLen       = 1 + 2 + 4
)

// MarshalUpdate encodes u. The codec is only consulted for inserts.
func MarshalUpdate(u sequence.Update, codec Codec) ([]byte, error) {
	switch u.Action {
	case sequence.ActionInsert:
		element, err := codec.Marshal(u.Element)
		if err != nil {
			return nil, fmt.Errorf("marshaling element of %s: %v", u.ID, err)
		}

		p := make([]byte, insertHeaderLen, insertHeaderLen+len(element))
		p[0] = TagInsert
		binary.BigEndian.PutUint16(p[1:], uint16(u.Previous.Author))
		binary.BigEndian.PutUint32(p[3:], u.Previous.ID)
		binary.BigEndian.PutUint16(p[7:], uint16(u.ID.Author))
		binary.BigEndian.PutUint32(p[9:], u.ID.ID)
		return append(p, element...), nil
	case sequence.ActionDelete:
		p := make([]byte, deleteLen)
		p[0] = TagDelete
		binary.BigEndian.PutUint16(p[1:], uint16(u.ID.Author))
		binary.BigEndian.PutUint32(p[3:], u.ID.ID)
		return p, nil
	}
	return nil, fmt.Errorf("unknown update action %q", string(u.Action))
}

// UnmarshalUpdate decodes a single record. The codec is only consulted for
// inserts.
func UnmarshalUpdate(p []byte, codec Codec) (sequence.Update, error) {
	if len(p) < 1 {
		return sequence.Update{}, ErrShortRecord
	}

	switch p[0] {
	case TagInsert:
		if len(p) < insertHeaderLen {
			return sequence.Update{}, ErrShortRecord
		}

		element, err := codec.Unmarshal(p[insertHeaderLen:])
		if err != nil {
			return sequence.Update{}, fmt.Errorf("unmarshaling element: %v", err)
		}

		return sequence.Update{
			Action: sequence.ActionInsert,
			Previous: identifier.StableID{
				Author: identifier.Author(binary.BigEndian.Uint16(p[1:])),
				ID:     binary.BigEndian.Uint32(p[3:]),
			},
			ID: identifier.StableID{
				Author: identifier.Author(binary.BigEndian.Uint16(p[7:])),
				ID:     binary.BigEndian.Uint32(p[9:]),
			},
			Element: element,
		}, nil
	case TagDelete:
		if len(p) < deleteLen {
			return sequence.Update{}, ErrShortRecord
		}

		return sequence.Update{
			Action: sequence.ActionDelete,
			ID: identifier.StableID{
				Author: identifier.Author(binary.BigEndian.Uint16(p[1:])),
				ID:     binary.BigEndian.Uint32(p[3:]),
			},
		}, nil
	}
	return sequence.Update{}, ErrUnknownTag
}
