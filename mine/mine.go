// Package mine models the graph traversed by a run: rooms with names and
// expected answers, connected by an adjacency matrix.
package mine

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when names, answers and the adjacency
	// matrix do not describe the same number of rooms
	ErrShapeMismatch = errors.New("mine shape mismatch")

	// ErrUnknownRoom is returned for room IDs outside the mine
	ErrUnknownRoom = errors.New("unknown room")
)

// Mine is the static input of a run. It is never mutated after New;
// coordinators work on private copies of the adjacency.
type Mine struct {
	names     []string
	answers   []string
	adjacency [][]bool
}

// New creates a mine. The slices are copied.
func New(names, answers []string, adjacency [][]bool) (*Mine, error) {
	n := len(names)
	if len(answers) != n {
		return nil, fmt.Errorf("%w: %d names, %d answers", ErrShapeMismatch, n, len(answers))
	}
	if len(adjacency) != n {
		return nil, fmt.Errorf("%w: %d names, %d adjacency rows", ErrShapeMismatch, n, len(adjacency))
	}
	for i, row := range adjacency {
		if len(row) != n {
			return nil, fmt.Errorf("%w: adjacency row %d has %d columns, want %d", ErrShapeMismatch, i, len(row), n)
		}
	}

	m := &Mine{
		names:   append([]string(nil), names...),
		answers: append([]string(nil), answers...),
	}
	m.adjacency = copyMatrix(adjacency)
	return m, nil
}

// Rooms returns the number of rooms.
func (m *Mine) Rooms() int {
	return len(m.names)
}

// Has reports whether room is a valid room ID.
func (m *Mine) Has(room int) bool {
	return room >= 0 && room < len(m.names)
}

// Name returns the name of a room, the puzzle input handed to workers.
func (m *Mine) Name(room int) string {
	return m.names[room]
}

// Answer returns the expected solution of a room.
func (m *Mine) Answer(room int) string {
	return m.answers[room]
}

// Adjacent reports whether the input has an edge from u to v.
func (m *Mine) Adjacent(u, v int) bool {
	if !m.Has(u) || !m.Has(v) {
		return false
	}
	return m.adjacency[u][v]
}

// Snapshot returns a private copy of the adjacency matrix.
func (m *Mine) Snapshot() [][]bool {
	return copyMatrix(m.adjacency)
}

func copyMatrix(src [][]bool) [][]bool {
	dst := make([][]bool, len(src))
	for i, row := range src {
		dst[i] = append([]bool(nil), row...)
	}
	return dst
}
