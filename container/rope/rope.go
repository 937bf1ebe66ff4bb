// Package rope provides a chunked text container. Runes are stored in
// bounded leaves so that point edits near any position touch one small
// chunk instead of shifting the whole text.
package rope

import (
	"strings"

	"github.com/replicated/sequence"
)

const (
	// maxChunk bounds the runes held by one leaf. A full leaf splits in
	// two on insertion.
	maxChunk = 64

	// minChunk is the occupancy below which a leaf is folded into its
	// left neighbor on removal.
	minChunk = maxChunk / 4
)

// Rope is a sequence.Container over rune elements.
type Rope struct {
	chunks [][]rune
	length int
}

var _ sequence.Container = &Rope{}

// New constructs an empty Rope.
func New() *Rope {
	return &Rope{}
}

// NewFromString constructs a Rope holding the runes of s.
func NewFromString(s string) *Rope {
	r := New()
	for _, c := range s {
		r.Insert(r.length, c)
	}
	return r
}

func (r *Rope) Len() int {
	return r.length
}

// locate returns the chunk holding the 0-based rune index i and the offset
// inside it. For i == Len it returns the last chunk and its length, the
// append position.
func (r *Rope) locate(i int) (int, int) {
	for ci, chunk := range r.chunks {
		if i < len(chunk) {
			return ci, i
		}
		i -= len(chunk)
	}
	last := len(r.chunks) - 1
	return last, i + len(r.chunks[last])
}

func (r *Rope) Get(i int) sequence.Element {
	ci, off := r.locate(i)
	return r.chunks[ci][off]
}

func (r *Rope) Insert(i int, e sequence.Element) {
	c := e.(rune)

	if len(r.chunks) == 0 {
		r.chunks = append(r.chunks, []rune{c})
		r.length++
		return
	}

	ci, off := r.locate(i)
	chunk := r.chunks[ci]

	if len(chunk) >= maxChunk {
		// Split the full leaf and retarget the insertion.
		mid := len(chunk) / 2
		left := append([]rune(nil), chunk[:mid]...)
		right := append([]rune(nil), chunk[mid:]...)

		r.chunks[ci] = left
		r.chunks = append(r.chunks, nil)
		copy(r.chunks[ci+2:], r.chunks[ci+1:])
		r.chunks[ci+1] = right

		if off > mid {
			ci, off = ci+1, off-mid
		}
		chunk = r.chunks[ci]
	}

	chunk = append(chunk, 0)
	copy(chunk[off+1:], chunk[off:])
	chunk[off] = c
	r.chunks[ci] = chunk
	r.length++
}

func (r *Rope) Remove(i int) {
	ci, off := r.locate(i)
	chunk := r.chunks[ci]
	r.chunks[ci] = append(chunk[:off], chunk[off+1:]...)
	r.length--

	if len(r.chunks[ci]) == 0 {
		r.chunks = append(r.chunks[:ci], r.chunks[ci+1:]...)
		return
	}

	if len(r.chunks[ci]) < minChunk && ci > 0 &&
		len(r.chunks[ci-1])+len(r.chunks[ci]) <= maxChunk {
		r.chunks[ci-1] = append(r.chunks[ci-1], r.chunks[ci]...)
		r.chunks = append(r.chunks[:ci], r.chunks[ci+1:]...)
	}
}

// String materializes the full text.
func (r *Rope) String() string {
	var b strings.Builder
	for _, chunk := range r.chunks {
		b.WriteString(string(chunk))
	}
	return b.String()
}
