package core

import (
	"cmp"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/slices"
)

// router implements the Router interface.
type router struct {
	// Map of Actor ID to Actor instance
	actors sync.Map // map[ActorID]Actor

	// Counter for generating unique Actor IDs
	idCounter uint32
}

// NewRouter creates a new Router instance.
func NewRouter() Router {
	return &router{}
}

// Register adds an Actor to the routing table.
func (r *router) Register(actor Actor) error {
	if actor == nil {
		return fmt.Errorf("cannot register nil actor")
	}

	id := actor.ID()
	if _, exists := r.actors.LoadOrStore(id, actor); exists {
		return fmt.Errorf("actor with ID %d already registered", id)
	}

	return nil
}

// List returns all registered Actors ordered by ID.
func (r *router) List() []Actor {
	var actors []Actor

	r.actors.Range(func(key, value interface{}) bool {
		actors = append(actors, value.(Actor))
		return true
	})

	slices.SortFunc(actors, func(a, b Actor) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return actors
}

// ListByRole returns all registered Actors of one role ordered by ID.
func (r *router) ListByRole(role Role) []Actor {
	all := r.List()
	return slices.DeleteFunc(all, func(a Actor) bool {
		return a.Role() != role
	})
}

// NextID generates the next available Actor ID.
func (r *router) NextID() ActorID {
	return ActorID(atomic.AddUint32(&r.idCounter, 1))
}
