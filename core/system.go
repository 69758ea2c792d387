package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSystemRunning is returned when actors are spawned into, or Run is
// called on, a system that has already started.
var ErrSystemRunning = errors.New("actor system already running")

// System runs a fixed set of actors that share one Channel.
// The run ends when any actor halts it or returns an error; every other
// actor observes the same cancelled context and returns without cleanup.
type System struct {
	router  *router
	channel *Channel
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	outcome *Outcome

	// ctx is cancelled by the first Halt
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSystem creates a System around a Channel.
func NewSystem(channel *Channel, logger *zap.Logger) *System {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &System{
		router:  NewRouter().(*router),
		channel: channel,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Channel returns the channel shared by all actors of the system.
func (s *System) Channel() *Channel {
	return s.channel
}

// NextID returns a fresh actor ID.
func (s *System) NextID() ActorID {
	return s.router.NextID()
}

// Spawn registers an actor. Actors can only be added before Run.
func (s *System) Spawn(actor Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSystemRunning
	}

	if err := s.router.Register(actor); err != nil {
		return fmt.Errorf("failed to register actor: %w", err)
	}

	s.logger.Debug("actor spawned",
		zap.String("actor", actor.Name()),
		zap.Stringer("role", actor.Role()),
	)
	return nil
}

// Actors returns the registered actors of one role.
func (s *System) Actors(role Role) []Actor {
	return s.router.ListByRole(role)
}

// Run starts every registered actor and waits until all of them returned.
// It reports how the run ended.
func (s *System) Run(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Outcome{}, ErrSystemRunning
	}
	s.running = true
	actors := s.router.List()
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	s.logger.Info("run starting",
		zap.Int("coordinators", len(s.router.ListByRole(RoleCoordinator))),
		zap.Int("workers", len(s.router.ListByRole(RoleWorker))),
	)

	g, gctx := errgroup.WithContext(runCtx)
	for _, actor := range actors {
		g.Go(func() error {
			if err := actor.Run(gctx); err != nil {
				s.Halt(Outcome{Kind: OutcomeFailed, By: actor.Name(), Err: err})
				return err
			}
			return nil
		})
	}

	// Errors are already recorded in the outcome.
	_ = g.Wait()

	// Nobody halted: the caller's context ended first.
	s.Halt(Outcome{Kind: OutcomeCancelled})

	outcome := s.Outcome()
	s.logger.Info("run finished", zap.Stringer("outcome", outcome))
	return outcome, nil
}

// Halt records the outcome and signals every actor to stop. Only the first
// call has an effect.
func (s *System) Halt(outcome Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outcome != nil {
		return false
	}

	s.outcome = &outcome
	s.cancel()
	return true
}

// Done is closed once the run has been halted.
func (s *System) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Outcome returns the recorded outcome, or a cancelled outcome if the run
// has not been halted yet.
func (s *System) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outcome == nil {
		return Outcome{Kind: OutcomeCancelled}
	}
	return *s.outcome
}

// Stats returns statistics for all Actors.
func (s *System) Stats() []ActorStats {
	var stats []ActorStats

	for _, actor := range s.router.List() {
		stats = append(stats, actor.Stats())
	}

	return stats
}
