// Package worker implements the worker side of the protocol: take tasks off
// the channel, solve them and report results.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/najoast/hashmine/core"
	"github.com/najoast/hashmine/ledger"
	"github.com/najoast/hashmine/protocol"
)

// DefaultIdleWait bounds how long an idle worker waits for a wake-up
// before polling again
const DefaultIdleWait = 10 * time.Millisecond

// Solver turns a room name into its solution.
type Solver interface {
	Solve(name string) string
}

// SolverFunc adapts a function to Solver.
type SolverFunc func(name string) string

// Solve calls f(name).
func (f SolverFunc) Solve(name string) string {
	return f(name)
}

// Options configures a Worker.
type Options struct {
	// Name used in logs, defaults to worker-<id>
	Name string

	// Solved is shared by all workers of a run; rooms already in it are
	// skipped. Nil disables the check.
	Solved *ledger.RoomSet

	// IdleWait between polls of an empty queue
	IdleWait time.Duration

	// Logger, defaults to a no-op logger
	Logger *zap.Logger
}

// Worker is one worker actor.
type Worker struct {
	*core.BaseActor

	channel  *core.Channel
	solver   Solver
	solved   *ledger.RoomSet
	idleWait time.Duration
	logger   *zap.Logger
}

// New creates a worker.
func New(id core.ActorID, channel *core.Channel, solver Solver, opts Options) *Worker {
	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("worker-%d", id)
	}
	idleWait := opts.IdleWait
	if idleWait <= 0 {
		idleWait = DefaultIdleWait
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Worker{
		BaseActor: core.NewBaseActor(id, name, core.RoleWorker),
		channel:   channel,
		solver:    solver,
		solved:    opts.Solved,
		idleWait:  idleWait,
		logger:    logger.Named(name),
	}
}

// Run processes batches until an EXIT message arrives or ctx ends.
func (w *Worker) Run(ctx context.Context) error {
	w.SetState(core.ActorStateRunning)
	defer w.SetState(core.ActorStateStopped)

	for ctx.Err() == nil {
		exit, taken := w.Batch()
		if exit {
			w.logger.Debug("exit received")
			return nil
		}
		if taken == 0 {
			w.idle(ctx)
		}
	}
	return nil
}

// Batch drains the task queue up to and including the next END, or until
// it is empty. Parent linkage is read from each task itself, so batches of
// several coordinators may interleave freely. It stops right after an EXIT
// and reports it; everything taken before the EXIT has been handled.
func (w *Worker) Batch() (exit bool, taken int) {
	for {
		msg, ok := w.channel.PollTask()
		if !ok {
			return false, taken
		}
		taken++
		w.MarkProcessed()

		switch {
		case msg.IsExit():
			return true, taken
		case msg.IsEnd():
			return false, taken
		case msg.IsTask():
			w.solve(msg)
		default:
			// NO_PARENT and re-announcements of solved rooms carry no work.
		}
	}
}

func (w *Worker) solve(task protocol.Message) {
	if w.solved != nil && !w.solved.Mark(task.CurrentRoom) {
		w.logger.Debug("room already solved", zap.Int("room", task.CurrentRoom))
		return
	}

	solution := w.solver.Solve(task.Data)
	w.channel.PutResult(protocol.Result(task.ParentRoom, task.CurrentRoom, solution))
	w.MarkSent(1)
}

func (w *Worker) idle(ctx context.Context) {
	timer := time.NewTimer(w.idleWait)
	defer timer.Stop()

	select {
	case <-w.channel.TaskSignal():
	case <-timer.C:
	case <-ctx.Done():
	}
}
