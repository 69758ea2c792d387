// Package coordinator implements the coordinator actor: it turns the mine
// into a spanning forest, announces tasks to workers, validates their
// results and ends the run once every room is solved.
package coordinator

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/najoast/hashmine/core"
	"github.com/najoast/hashmine/ledger"
	"github.com/najoast/hashmine/mine"
	"github.com/najoast/hashmine/protocol"
)

// State is the coordinator protocol state.
type State uint32

const (
	// StateAnnouncing is the initial state, roots are being announced
	StateAnnouncing State = iota

	// StateRunning polls, validates and expands results
	StateRunning

	// StateDraining broadcasts termination to workers
	StateDraining

	// StateHalted is terminal
	StateHalted
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateAnnouncing:
		return "announcing"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// Options configures a Coordinator.
type Options struct {
	// Name used in logs and outcomes, defaults to coordinator-<id>
	Name string

	// Workers is the number of EXIT messages sent on completion
	Workers int

	// Backoff between polls, may be shared between coordinators
	Backoff *Backoff

	// Logger, defaults to a no-op logger
	Logger *zap.Logger
}

// Coordinator is one coordinator actor. It owns a private spanning forest;
// the ledger and the channel are shared with every other actor of the run.
type Coordinator struct {
	*core.BaseActor

	mine    *mine.Mine
	forest  *mine.Forest
	channel *core.Channel
	ledger  *ledger.Ledger
	halter  core.Halter

	workers int
	backoff *Backoff
	logger  *zap.Logger

	state atomic.Uint32
}

// New creates a coordinator and computes its spanning forest.
func New(id core.ActorID, m *mine.Mine, channel *core.Channel, l *ledger.Ledger, halter core.Halter, opts Options) *Coordinator {
	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("coordinator-%d", id)
	}
	backoff := opts.Backoff
	if backoff == nil {
		backoff = NewBackoff(DefaultMaxBackoff)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Coordinator{
		BaseActor: core.NewBaseActor(id, name, core.RoleCoordinator),
		mine:      m,
		forest:    mine.BuildForest(m),
		channel:   channel,
		ledger:    l,
		halter:    halter,
		workers:   opts.Workers,
		backoff:   backoff,
		logger:    logger.Named(name),
	}
	c.state.Store(uint32(StateAnnouncing))
	return c
}

// ProtocolState returns the current protocol state.
func (c *Coordinator) ProtocolState() State {
	return State(c.state.Load())
}

func (c *Coordinator) setProtocolState(s State) {
	prev := State(c.state.Swap(uint32(s)))
	if prev != s {
		c.logger.Debug("state change", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

// Forest returns the coordinator's private spanning forest.
func (c *Coordinator) Forest() *mine.Forest {
	return c.forest
}

// Run announces the roots, then polls results until the ledger is complete,
// a result fails validation, or ctx ends because another actor halted the
// run.
func (c *Coordinator) Run(ctx context.Context) error {
	c.SetState(core.ActorStateRunning)
	defer c.SetState(core.ActorStateStopped)

	c.Announce()
	c.setProtocolState(StateRunning)

	for {
		if ctx.Err() != nil {
			c.logger.Debug("run halted elsewhere")
			c.setProtocolState(StateHalted)
			return nil
		}

		if c.ledger.Complete() {
			c.Drain()
			return nil
		}

		if !c.backoff.Wait(ctx) {
			c.logger.Debug("backoff interrupted")
			continue
		}

		msg, ok := c.channel.PollResult()
		if !ok {
			continue
		}
		c.MarkProcessed()

		if err := c.Handle(msg); err != nil {
			c.logger.Error("Received incorrect parent/node or hash! Magic barrier exploded.",
				zap.Stringer("result", msg),
				zap.Error(err),
			)
			c.setProtocolState(StateHalted)
			return err
		}
	}
}

// Announce pushes one NO_PARENT/root pair per entrance, closed by END.
func (c *Coordinator) Announce() {
	c.setProtocolState(StateAnnouncing)

	roots := c.forest.Roots()
	batch := make([]protocol.Message, 0, 2*len(roots)+1)
	for _, root := range roots {
		batch = append(batch,
			protocol.NoParent(),
			protocol.Task(protocol.NoRoom, root, c.mine.Name(root)),
		)
	}
	batch = append(batch, protocol.End())

	c.send(batch)
	c.logger.Info("entrances announced", zap.Ints("roots", roots))
}

// Handle validates one result, then expands the frontier and counts the
// room. An invalid result returns a *ViolationError and changes nothing.
func (c *Coordinator) Handle(msg protocol.Message) error {
	if err := c.Validate(msg); err != nil {
		return err
	}

	c.Expand(msg.CurrentRoom)

	if c.ledger.TryClaim(msg.Data) {
		c.logger.Debug("room solved",
			zap.Int("room", msg.CurrentRoom),
			zap.Int("solved", c.ledger.Solved()),
			zap.Int("total", c.ledger.Total()),
		)
	}
	return nil
}

// Validate checks a result against the forest and the expected answers.
// Entrances skip the parent check; every result must carry the answer.
func (c *Coordinator) Validate(msg protocol.Message) error {
	room := msg.CurrentRoom

	if !c.mine.Has(room) {
		return c.violation(msg, ErrUnknownRoom)
	}
	if !c.forest.IsRoot(room) && !c.forest.Linked(msg.ParentRoom, room) {
		return c.violation(msg, ErrBadParent)
	}
	if msg.Data != c.mine.Answer(room) {
		return c.violation(msg, ErrBadAnswer)
	}
	return nil
}

func (c *Coordinator) violation(msg protocol.Message, err error) *ViolationError {
	return &ViolationError{Coordinator: c.Name(), Message: msg, Err: err}
}

// Expand announces every room unlocked by a solved room. Each new room is
// preceded by a re-announcement of the solved room; the batch ends with END.
func (c *Coordinator) Expand(room int) {
	neighbors := c.forest.Neighbors(room)
	name := c.mine.Name(room)

	batch := make([]protocol.Message, 0, 2*len(neighbors)+1)
	for _, neighbor := range neighbors {
		batch = append(batch,
			protocol.Task(room, room, name),
			protocol.Task(room, neighbor, c.mine.Name(neighbor)),
		)
	}
	batch = append(batch, protocol.End())

	c.send(batch)
}

// Drain tells every worker to exit and halts the run as completed.
func (c *Coordinator) Drain() {
	c.setProtocolState(StateDraining)

	batch := make([]protocol.Message, 0, c.workers+1)
	for i := 0; i < c.workers; i++ {
		batch = append(batch, protocol.Exit())
	}
	batch = append(batch, protocol.End())
	c.send(batch)

	c.logger.Info("All rooms have been solved! Wizard quitting.",
		zap.Int("rooms", c.ledger.Total()),
		zap.Int("workers", c.workers),
	)

	c.setProtocolState(StateHalted)
	if c.halter != nil {
		c.halter.Halt(core.Outcome{Kind: core.OutcomeCompleted, By: c.Name()})
	}
}

func (c *Coordinator) send(batch []protocol.Message) {
	c.channel.PutTasks(batch...)
	c.MarkSent(len(batch))
}
