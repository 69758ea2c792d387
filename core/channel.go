package core

import (
	"github.com/najoast/hashmine/protocol"
)

// Channel connects the coordinator pool and the worker pool.
// It has exactly two directions. Messages are not addressed: any actor of
// the receiving role may take any message.
type Channel struct {
	// tasks flows from coordinators to workers
	tasks *Queue

	// results flows from workers to coordinators
	results *Queue
}

// NewChannel creates a Channel with two empty queues.
func NewChannel() *Channel {
	return &Channel{
		tasks:   NewQueue(),
		results: NewQueue(),
	}
}

// PutTask puts a message on the coordinator to worker queue.
func (c *Channel) PutTask(msg protocol.Message) {
	c.tasks.Put(msg)
}

// PutTasks puts one batch on the coordinator to worker queue. The batch is
// contiguous on the queue; batches of different coordinators never
// interleave message by message, only batch by batch.
func (c *Channel) PutTasks(batch ...protocol.Message) {
	c.tasks.Put(batch...)
}

// PollTask takes the next message from the coordinator to worker queue.
func (c *Channel) PollTask() (protocol.Message, bool) {
	return c.tasks.Poll()
}

// PutResult puts a message on the worker to coordinator queue.
func (c *Channel) PutResult(msg protocol.Message) {
	c.results.Put(msg)
}

// PollResult takes the next message from the worker to coordinator queue.
func (c *Channel) PollResult() (protocol.Message, bool) {
	return c.results.Poll()
}

// TaskSignal wakes a waiting worker after tasks were put.
func (c *Channel) TaskSignal() <-chan struct{} {
	return c.tasks.Signal()
}

// PendingTasks returns the number of queued coordinator to worker messages.
func (c *Channel) PendingTasks() int {
	return c.tasks.Len()
}

// PendingResults returns the number of queued worker to coordinator messages.
func (c *Channel) PendingResults() int {
	return c.results.Len()
}
