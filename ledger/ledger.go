// Package ledger holds the state shared by every actor of a run to decide
// when the run is complete.
package ledger

import (
	"sync"
	"sync/atomic"
)

// Ledger counts distinct solved rooms.
//
// Rooms are keyed by the value of their solution, not by room ID: the same
// room can be announced by several coordinators and come back more than
// once, and only the first result may count.
type Ledger struct {
	// mu guards the check-insert-increment sequence in TryClaim
	mu     sync.Mutex
	claims map[string]struct{}

	// solved is written under mu and read without it
	solved atomic.Int64

	total int
}

// New creates a ledger for a mine with total rooms.
func New(total int) *Ledger {
	return &Ledger{
		claims: make(map[string]struct{}, total),
		total:  total,
	}
}

// TryClaim counts solution as solved. It returns true only for the first
// call with a given solution.
func (l *Ledger) TryClaim(solution string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.claims[solution]; exists {
		return false
	}

	l.claims[solution] = struct{}{}
	l.solved.Add(1)
	return true
}

// Solved returns the number of distinct solved rooms.
func (l *Ledger) Solved() int {
	return int(l.solved.Load())
}

// Total returns the number of rooms in the mine.
func (l *Ledger) Total() int {
	return l.total
}

// Complete reports whether every room has been solved.
func (l *Ledger) Complete() bool {
	return l.Solved() == l.total
}
