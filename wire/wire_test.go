package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replicated/sequence"
	"github.com/replicated/sequence/identifier"
)

func TestInsertRoundTrip(t *testing.T) {
	u := sequence.Update{
		Action:   sequence.ActionInsert,
		Previous: identifier.StableID{Author: 1, ID: 41},
		ID:       identifier.StableID{Author: 2, ID: 7},
		Element:  uint64(1234),
	}

	p, err := MarshalUpdate(u, Uint64Codec{})
	require.NoError(t, err)

	assert.Equal(t, byte(TagInsert), p[0])
	assert.Len(t, p, insertHeaderLen+8)

	decoded, err := UnmarshalUpdate(p, Uint64Codec{})
	require.NoError(t, err)
	assert.Equal(t, u, decoded)
}

func TestDeleteRoundTrip(t *testing.T) {
	u := sequence.Update{
		Action: sequence.ActionDelete,
		ID:     identifier.StableID{Author: 9, ID: 100000},
	}

	p, err := MarshalUpdate(u, nil)
	require.NoError(t, err)

	assert.Equal(t, byte(TagDelete), p[0])
	assert.Len(t, p, deleteLen)

	decoded, err := UnmarshalUpdate(p, nil)
	require.NoError(t, err)
	assert.Equal(t, u, decoded)
}

func TestRuneElements(t *testing.T) {
	u := sequence.Update{
		Action:   sequence.ActionInsert,
		Previous: identifier.StableID{Author: 0, ID: 0},
		ID:       identifier.StableID{Author: 3, ID: 0},
		Element:  'ß',
	}

	p, err := MarshalUpdate(u, RuneCodec{})
	require.NoError(t, err)

	decoded, err := UnmarshalUpdate(p, RuneCodec{})
	require.NoError(t, err)
	assert.Equal(t, 'ß', decoded.Element)
}

func TestUnmarshalErrors(t *testing.T) {
	_, err := UnmarshalUpdate(nil, Uint64Codec{})
	assert.Equal(t, ErrShortRecord, err)

	_, err = UnmarshalUpdate([]byte{TagInsert, 0, 1}, Uint64Codec{})
	assert.Equal(t, ErrShortRecord, err)

	_, err = UnmarshalUpdate([]byte{TagDelete, 0, 1}, nil)
	assert.Equal(t, ErrShortRecord, err)

	_, err = UnmarshalUpdate([]byte{0x7f, 0, 0, 0, 0, 0, 0}, Uint64Codec{})
	assert.Equal(t, ErrUnknownTag, err)
}

func TestCodecMismatch(t *testing.T) {
	u := sequence.Update{
		Action: sequence.ActionInsert,
		ID:     identifier.StableID{Author: 1, ID: 0},
		// a rune where the codec expects uint64
		Element: 'x',
	}

	_, err := MarshalUpdate(u, Uint64Codec{})
	assert.Error(t, err)
}
