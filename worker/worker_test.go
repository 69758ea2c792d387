package worker

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najoast/hashmine/core"
	"github.com/najoast/hashmine/ledger"
	"github.com/najoast/hashmine/protocol"
)

func drainResults(ch *core.Channel) []protocol.Message {
	var msgs []protocol.Message
	for {
		msg, ok := ch.PollResult()
		if !ok {
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func newTestWorker(ch *core.Channel, solved *ledger.RoomSet) *Worker {
	return New(1, ch, SolverFunc(strings.ToLower), Options{
		Solved:   solved,
		IdleWait: time.Millisecond,
	})
}

func TestBatchSolvesTasks(t *testing.T) {
	ch := core.NewChannel()
	w := newTestWorker(ch, nil)

	ch.PutTasks(
		protocol.NoParent(),
		protocol.Task(protocol.NoRoom, 0, "A"),
		protocol.End(),
	)

	exit, taken := w.Batch()
	assert.False(t, exit)
	assert.Equal(t, 3, taken)
	assert.Equal(t, []protocol.Message{protocol.Result(protocol.NoRoom, 0, "a")}, drainResults(ch))
}

func TestBatchUsesParentFromEachTask(t *testing.T) {
	ch := core.NewChannel()
	w := newTestWorker(ch, nil)

	ch.PutTasks(
		protocol.Task(0, 0, "A"),
		protocol.Task(0, 1, "B"),
		protocol.Task(0, 0, "A"),
		protocol.Task(0, 3, "D"),
		protocol.End(),
	)

	_, taken := w.Batch()
	assert.Equal(t, 5, taken)
	assert.Equal(t, []protocol.Message{
		protocol.Result(0, 1, "b"),
		protocol.Result(0, 3, "d"),
	}, drainResults(ch), "re-announcements of the solved room carry no work")
}

func TestBatchStopsAtEnd(t *testing.T) {
	ch := core.NewChannel()
	w := newTestWorker(ch, nil)

	ch.PutTasks(protocol.Task(0, 1, "B"), protocol.End())
	ch.PutTasks(protocol.Task(1, 2, "C"), protocol.End())

	_, taken := w.Batch()
	assert.Equal(t, 2, taken)
	assert.Equal(t, 2, ch.PendingTasks(), "the second batch stays queued")
}

func TestBatchOnEmptyQueue(t *testing.T) {
	w := newTestWorker(core.NewChannel(), nil)

	exit, taken := w.Batch()
	assert.False(t, exit)
	assert.Zero(t, taken)
}

func TestBatchSkipsSolvedRooms(t *testing.T) {
	ch := core.NewChannel()
	solved := ledger.NewRoomSet()
	first := newTestWorker(ch, solved)
	second := newTestWorker(ch, solved)

	ch.PutTasks(protocol.Task(0, 1, "B"), protocol.End())
	ch.PutTasks(protocol.Task(2, 1, "B"), protocol.End())

	first.Batch()
	second.Batch()

	assert.Equal(t, []protocol.Message{protocol.Result(0, 1, "b")}, drainResults(ch))
	assert.Equal(t, 1, solved.Len())
	assert.False(t, solved.Mark(1), "room 1 is already marked")
}

func TestExitLeavesOtherExitsQueued(t *testing.T) {
	ch := core.NewChannel()
	w := newTestWorker(ch, nil)

	ch.PutTasks(protocol.Exit(), protocol.Exit(), protocol.End())

	exit, taken := w.Batch()
	assert.True(t, exit)
	assert.Equal(t, 1, taken)
	assert.Equal(t, 2, ch.PendingTasks(), "each worker takes a single EXIT")
}

func TestRunReturnsOnExit(t *testing.T) {
	ch := core.NewChannel()
	w := newTestWorker(ch, nil)

	ch.PutTasks(protocol.Task(0, 1, "B"), protocol.End())
	ch.PutTasks(protocol.Exit(), protocol.End())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, w.Run(ctx))
	assert.NoError(t, ctx.Err(), "worker must exit on EXIT, not on timeout")
	assert.Equal(t, []protocol.Message{protocol.Result(0, 1, "b")}, drainResults(ch))
	assert.Equal(t, core.ActorStateStopped, w.State())
}

func TestRunWakesUpOnNewTasks(t *testing.T) {
	ch := core.NewChannel()
	w := New(1, ch, SolverFunc(strings.ToLower), Options{IdleWait: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	ch.PutTasks(protocol.Task(0, 1, "B"), protocol.End())
	ch.PutTasks(protocol.Exit(), protocol.End())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("worker did not wake up on new tasks")
	}
	assert.Len(t, drainResults(ch), 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	w := newTestWorker(core.NewChannel(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	assert.NoError(t, w.Run(ctx))
}

func TestDefaults(t *testing.T) {
	var calls atomic.Int32
	w := New(4, core.NewChannel(), SolverFunc(func(name string) string {
		calls.Add(1)
		return name
	}), Options{})

	assert.Equal(t, "worker-4", w.Name())
	assert.Equal(t, core.RoleWorker, w.Role())
	assert.Equal(t, DefaultIdleWait, w.idleWait)

	w.solve(protocol.Task(0, 1, "B"))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), w.Stats().MessagesSent)
}
