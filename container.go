package sequence

// Element is the opaque value stored at each position of a document. The
// replica never inspects elements; it only moves them in and out of the
// container.
type Element interface{}

// Container is the capability a replica requires of its element store: an
// ordered collection with point insertion and removal. The replica owns the
// container exclusively and is the only writer.
//
// Implementations must shift the tail right on Insert and left on Remove.
// No iteration, slicing or bulk operations are required.
type Container interface {
	// Len returns the number of elements currently stored.
	Len() int

	// Get returns the element at the 0-based index i.
	Get(i int) Element

	// Insert places e at the 0-based index i.
	Insert(i int, e Element)

	// Remove discards the element at the 0-based index i.
	Remove(i int)
}
