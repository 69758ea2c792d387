package core

import (
	"fmt"
	"time"
)

// ActorID represents a unique identifier for an Actor.
type ActorID uint32

// Role is one of the two fixed actor roles of a run.
type Role uint8

const (
	// RoleCoordinator builds the forest, issues tasks and validates results
	RoleCoordinator Role = iota

	// RoleWorker solves tasks and reports results
	RoleWorker
)

// String returns the string representation of Role.
func (r Role) String() string {
	switch r {
	case RoleCoordinator:
		return "coordinator"
	case RoleWorker:
		return "worker"
	default:
		return "unknown"
	}
}

// ActorState represents the current state of an Actor.
type ActorState uint8

const (
	// ActorStateIdle means the Actor has not been started yet
	ActorStateIdle ActorState = iota

	// ActorStateRunning means the Actor loop is active
	ActorStateRunning

	// ActorStateStopping means the Actor is leaving its loop
	ActorStateStopping

	// ActorStateStopped means the Actor has returned
	ActorStateStopped
)

// String returns the string representation of ActorState.
func (s ActorState) String() string {
	switch s {
	case ActorStateIdle:
		return "idle"
	case ActorStateRunning:
		return "running"
	case ActorStateStopping:
		return "stopping"
	case ActorStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ActorStats contains runtime statistics for an Actor.
type ActorStats struct {
	// ID of the Actor
	ID ActorID

	// Name of the Actor
	Name string

	// Role of the Actor
	Role Role

	// Current state
	State ActorState

	// Total messages taken off the channel
	MessagesProcessed uint64

	// Total messages put on the channel
	MessagesSent uint64

	// Time when Actor was created
	CreatedAt time.Time

	// Last message processing time
	LastMessageAt time.Time
}

// OutcomeKind classifies how a run ended.
type OutcomeKind uint8

const (
	// OutcomeCancelled means the run context ended before any actor halted it
	OutcomeCancelled OutcomeKind = iota

	// OutcomeCompleted means an actor observed global completion
	OutcomeCompleted

	// OutcomeFailed means an actor returned an error
	OutcomeFailed
)

// String returns the string representation of OutcomeKind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome describes the end of a run. The first halt wins.
type Outcome struct {
	// Kind of ending
	Kind OutcomeKind

	// By is the name of the actor that halted the run, if any
	By string

	// Err is set for failed runs
	Err error
}

// ExitCode maps the outcome to a process exit status.
func (o Outcome) ExitCode() int {
	if o.Kind == OutcomeCompleted {
		return 0
	}
	return 1
}

// String returns a one-line description of the outcome.
func (o Outcome) String() string {
	switch {
	case o.Err != nil:
		return fmt.Sprintf("%s by %s: %v", o.Kind, o.By, o.Err)
	case o.By != "":
		return fmt.Sprintf("%s by %s", o.Kind, o.By)
	default:
		return o.Kind.String()
	}
}
