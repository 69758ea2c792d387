// Package protocol defines the envelope exchanged between coordinators and workers
package protocol

import "fmt"

// NoRoom is the sentinel room ID used when a message has no logical parent
// or no room at all (control messages).
const NoRoom = -1

// Reserved Data values that act as control markers on the channel.
const (
	// MarkerNoParent precedes a root announcement
	MarkerNoParent = "NO_PARENT"

	// MarkerEnd closes a batch of messages
	MarkerEnd = "END"

	// MarkerExit tells exactly one worker to stop
	MarkerExit = "EXIT"
)

// Message is the protocol envelope. Depending on direction, Data holds a
// room name (task), a solution (result) or a control marker.
type Message struct {
	// ParentRoom is the room this one was reached from, NoRoom for roots
	ParentRoom int `json:"parent_room"`

	// CurrentRoom is the room the message is about
	CurrentRoom int `json:"current_room"`

	// Data carries the name, solution or marker
	Data string `json:"data"`
}

// NewMessage creates a message
func NewMessage(parent, current int, data string) Message {
	return Message{
		ParentRoom:  parent,
		CurrentRoom: current,
		Data:        data,
	}
}

// NoParent creates the control message announcing that the next task is a root
func NoParent() Message {
	return NewMessage(NoRoom, NoRoom, MarkerNoParent)
}

// End creates the batch terminator
func End() Message {
	return NewMessage(NoRoom, NoRoom, MarkerEnd)
}

// Exit creates a worker termination message
func Exit() Message {
	return NewMessage(NoRoom, NoRoom, MarkerExit)
}

// Task creates a coordinator to worker message asking for room to be solved
func Task(parent, room int, name string) Message {
	return NewMessage(parent, room, name)
}

// Result creates a worker to coordinator message carrying a solution
func Result(parent, room int, solution string) Message {
	return NewMessage(parent, room, solution)
}

// IsControl reports whether the message is one of the reserved markers
// rather than a task or a result.
func (m Message) IsControl() bool {
	if m.CurrentRoom != NoRoom {
		return false
	}
	switch m.Data {
	case MarkerNoParent, MarkerEnd, MarkerExit:
		return true
	default:
		return false
	}
}

// IsEnd reports whether the message closes a batch
func (m Message) IsEnd() bool {
	return m.IsControl() && m.Data == MarkerEnd
}

// IsExit reports whether the message tells a worker to stop
func (m Message) IsExit() bool {
	return m.IsControl() && m.Data == MarkerExit
}

// IsNoParent reports whether the message precedes a root announcement
func (m Message) IsNoParent() bool {
	return m.IsControl() && m.Data == MarkerNoParent
}

// IsContext reports whether the message re-announces an already solved room.
// Frontier expansion sends one before every new neighbor; it carries no work.
func (m Message) IsContext() bool {
	return !m.IsControl() && m.ParentRoom == m.CurrentRoom
}

// IsTask reports whether a worker has to solve the message
func (m Message) IsTask() bool {
	return !m.IsControl() && !m.IsContext()
}

// String returns a compact representation for logs
func (m Message) String() string {
	return fmt.Sprintf("(%d, %d, %q)", m.ParentRoom, m.CurrentRoom, m.Data)
}
