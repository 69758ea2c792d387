package core

import (
	"sync"

	"github.com/najoast/hashmine/protocol"
)

// Queue is an unbounded FIFO of protocol messages.
// Poll never blocks; an empty queue is reported through its second result.
type Queue struct {
	mu    sync.Mutex
	items []protocol.Message

	// signal holds at most one pending wake-up for a waiting consumer
	signal chan struct{}
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{
		signal: make(chan struct{}, 1),
	}
}

// Put appends messages to the tail. All messages of one call are appended
// under the same lock, so they stay contiguous.
func (q *Queue) Put(msgs ...protocol.Message) {
	if len(msgs) == 0 {
		return
	}

	q.mu.Lock()
	q.items = append(q.items, msgs...)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Poll removes and returns the head message, or false if the queue is empty.
func (q *Queue) Poll() (protocol.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return protocol.Message{}, false
	}

	msg := q.items[0]
	q.items[0] = protocol.Message{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return msg, true
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Signal returns a channel that receives a value after a Put. Consumers may
// wait on it between polls; a wake-up does not guarantee a message is left.
func (q *Queue) Signal() <-chan struct{} {
	return q.signal
}
