package ledger

import "sync"

// RoomSet records which rooms the worker pool has already solved, so a room
// reached again over another edge is not solved twice.
type RoomSet struct {
	mu    sync.Mutex
	rooms map[int]struct{}
}

// NewRoomSet creates an empty set
func NewRoomSet() *RoomSet {
	return &RoomSet{
		rooms: make(map[int]struct{}),
	}
}

// Mark adds room to the set and reports whether it was absent
func (s *RoomSet) Mark(room int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[room]; exists {
		return false
	}
	s.rooms[room] = struct{}{}
	return true
}

// Len returns the number of marked rooms
func (s *RoomSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
