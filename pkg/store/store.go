// Package store holds the committed annotations of the current image.
package store

import "github.com/menta2k/image-annotator/pkg/types"

// Store is an append-only, ordered collection of boxes.
// Insertion order is both render order and export order.
type Store struct {
	boxes []types.Box
}

// New creates an empty store
func New() *Store {
	return &Store{}
}

// Append adds a box at the end
func (s *Store) Append(box types.Box) {
	s.boxes = append(s.boxes, box)
}

// Clear drops every box; called when a new image replaces the current one
func (s *Store) Clear() {
	s.boxes = nil
}

// Len returns the number of stored boxes
func (s *Store) Len() int {
	return len(s.boxes)
}

// At returns the box at index i in insertion order
func (s *Store) At(i int) (types.Box, bool) {
	if i < 0 || i >= len(s.boxes) {
		return types.Box{}, false
	}
	return s.boxes[i], true
}

// Boxes returns a copy of the stored boxes
func (s *Store) Boxes() []types.Box {
	out := make([]types.Box, len(s.boxes))
	copy(out, s.boxes)
	return out
}
