package core

import (
	"sync/atomic"
	"time"
)

// BaseActor holds the identity and statistics every Actor carries.
// Coordinators and workers embed it and implement Run themselves.
type BaseActor struct {
	id   ActorID
	name string
	role Role

	// Atomic counters for statistics
	state             int32 // ActorState
	messagesProcessed uint64
	messagesSent      uint64
	createdAt         time.Time
	lastMessageAt     int64 // Unix nanoseconds
}

// NewBaseActor creates the shared part of an Actor.
func NewBaseActor(id ActorID, name string, role Role) *BaseActor {
	a := &BaseActor{
		id:        id,
		name:      name,
		role:      role,
		createdAt: time.Now(),
	}

	// Set initial state
	atomic.StoreInt32(&a.state, int32(ActorStateIdle))

	return a
}

// ID returns the unique identifier of this Actor.
func (a *BaseActor) ID() ActorID {
	return a.id
}

// Name returns the human-readable name of this Actor.
func (a *BaseActor) Name() string {
	return a.name
}

// Role returns the role of this Actor.
func (a *BaseActor) Role() Role {
	return a.role
}

// State returns the current lifecycle state.
func (a *BaseActor) State() ActorState {
	return ActorState(atomic.LoadInt32(&a.state))
}

// SetState moves the Actor to a new lifecycle state.
func (a *BaseActor) SetState(state ActorState) {
	atomic.StoreInt32(&a.state, int32(state))
}

// MarkProcessed records that a message was taken off the channel.
func (a *BaseActor) MarkProcessed() {
	atomic.AddUint64(&a.messagesProcessed, 1)
	atomic.StoreInt64(&a.lastMessageAt, time.Now().UnixNano())
}

// MarkSent records that n messages were put on the channel.
func (a *BaseActor) MarkSent(n int) {
	atomic.AddUint64(&a.messagesSent, uint64(n))
}

// Stats returns current runtime statistics for this Actor.
func (a *BaseActor) Stats() ActorStats {
	lastMsg := atomic.LoadInt64(&a.lastMessageAt)
	var lastMessageAt time.Time
	if lastMsg > 0 {
		lastMessageAt = time.Unix(0, lastMsg)
	}

	return ActorStats{
		ID:                a.id,
		Name:              a.name,
		Role:              a.role,
		State:             a.State(),
		MessagesProcessed: atomic.LoadUint64(&a.messagesProcessed),
		MessagesSent:      atomic.LoadUint64(&a.messagesSent),
		CreatedAt:         a.createdAt,
		LastMessageAt:     lastMessageAt,
	}
}
