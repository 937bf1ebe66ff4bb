// Package inmemory provides a slice-backed container for arbitrary
// elements. It is the default store for value sequences and for tests.
package inmemory

import (
	"github.com/replicated/sequence"
)

// Container is a sequence.Container implementation backed by a slice.
type Container struct {
	elements []sequence.Element
}

var _ sequence.Container = &Container{}

// New constructs an empty Container.
func New() *Container {
	return &Container{}
}

// NewWithElements constructs a Container seeded with the given elements.
func NewWithElements(elements ...sequence.Element) *Container {
	c := &Container{elements: make([]sequence.Element, len(elements))}
	copy(c.elements, elements)
	return c
}

func (c *Container) Len() int {
	return len(c.elements)
}

func (c *Container) Get(i int) sequence.Element {
	return c.elements[i]
}

func (c *Container) Insert(i int, e sequence.Element) {
	c.elements = append(c.elements, nil)
	copy(c.elements[i+1:], c.elements[i:])
	c.elements[i] = e
}

func (c *Container) Remove(i int) {
	c.elements = append(c.elements[:i], c.elements[i+1:]...)
}

// Elements returns a copy of the stored elements in order.
func (c *Container) Elements() []sequence.Element {
	out := make([]sequence.Element, len(c.elements))
	copy(out, c.elements)
	return out
}
