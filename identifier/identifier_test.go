package identifier

import (
	"testing"
)

func TestStableIDString(t *testing.T) {
	sid := StableID{Author: 3, ID: 42}
	if sid.String() != "3:42" {
		t.Fatalf("unexpected string form %q", sid.String())
	}
}

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected StableID
		err      error
	}{
		{input: "1:0", expected: StableID{Author: 1}},
		{input: "65535:4294967295", expected: StableID{Author: 65535, ID: 4294967295}},
		{input: "0:7", expected: StableID{Author: Origin, ID: 7}},
		{input: "", err: ErrInvalidFormat},
		{input: "12", err: ErrInvalidFormat},
		{input: "12:", err: ErrInvalidFormat},
		{input: ":12", err: ErrInvalidFormat},
		{input: "65536:0", err: ErrInvalidFormat},
		{input: "1:4294967296", err: ErrInvalidFormat},
		{input: "a:b", err: ErrInvalidFormat},
		{input: "-1:2", err: ErrInvalidFormat},
	} {
		sid, err := Parse(tc.input)
		if err != tc.err {
			t.Fatalf("parsing %q: expected err %v, got %v", tc.input, tc.err, err)
		}
		if err == nil && sid != tc.expected {
			t.Fatalf("parsing %q: expected %v, got %v", tc.input, tc.expected, sid)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, sid := range []StableID{
		{Author: 1, ID: 0},
		{Author: 512, ID: 77},
		{Author: 65535, ID: 4294967295},
	} {
		parsed, err := Parse(sid.String())
		if err != nil {
			t.Fatalf("round tripping %v: %v", sid, err)
		}
		if parsed != sid {
			t.Fatalf("round trip of %v returned %v", sid, parsed)
		}
	}
}
