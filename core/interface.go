package core

import (
	"context"
)

// Actor represents a long-running participant of a run.
// Each Actor runs in its own goroutine and communicates only through the
// Channel.
type Actor interface {
	// ID returns the unique identifier of this Actor.
	ID() ActorID

	// Name returns a human-readable name, used in logs and outcomes.
	Name() string

	// Role returns whether the Actor is a coordinator or a worker.
	Role() Role

	// Run executes the Actor loop until ctx is cancelled or the Actor
	// decides to stop. Returning an error fails the whole run.
	Run(ctx context.Context) error

	// Stats returns current runtime statistics for this Actor.
	Stats() ActorStats
}

// Halter ends a run. Implemented by System and handed to actors that are
// allowed to declare the run over.
type Halter interface {
	// Halt records the outcome and signals every actor to stop.
	// It returns false if the run had already been halted.
	Halt(outcome Outcome) bool
}

// Router manages the set of Actors that take part in a run.
type Router interface {
	// Register adds an Actor to the routing table.
	Register(actor Actor) error

	// List returns all registered Actors ordered by ID.
	List() []Actor

	// ListByRole returns all registered Actors of one role ordered by ID.
	ListByRole(role Role) []Actor
}
