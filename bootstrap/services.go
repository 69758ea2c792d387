package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/najoast/hashmine/config"
	"github.com/najoast/hashmine/coordinator"
	"github.com/najoast/hashmine/core"
	"github.com/najoast/hashmine/ledger"
	"github.com/najoast/hashmine/logging"
	"github.com/najoast/hashmine/mine"
	"github.com/najoast/hashmine/worker"
)

// Service names
const (
	ConfigServiceName = "config"
	RunServiceName    = "run"
)

// ErrRunNotStarted is returned when waiting on a run that never started
var ErrRunNotStarted = errors.New("run not started")

// ConfigService applies hot-reloaded settings to a live run: the log level
// and the coordinator backoff. Everything else in a reloaded file is ignored
// until the next run.
type ConfigService struct {
	watcher *config.Watcher
	logger  *logging.Logger
	backoff *coordinator.Backoff
}

// NewConfigService creates the service. A nil watcher makes it a no-op.
func NewConfigService(watcher *config.Watcher, logger *logging.Logger, backoff *coordinator.Backoff) *ConfigService {
	return &ConfigService{watcher: watcher, logger: logger, backoff: backoff}
}

// Name returns the service name
func (s *ConfigService) Name() string {
	return ConfigServiceName
}

// Start watches the config file and applies every reload
func (s *ConfigService) Start(ctx context.Context) error {
	if s.watcher == nil {
		return nil
	}
	s.watcher.OnConfigChange(s.Apply)
	return s.watcher.Start()
}

// Stop stops the watcher
func (s *ConfigService) Stop(ctx context.Context) error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Stop()
}

// Health reports whether a config file is watched
func (s *ConfigService) Health(ctx context.Context) (HealthStatus, error) {
	if s.watcher == nil {
		return HealthStatus{State: HealthUnknown, Message: "no config file watched"}, nil
	}
	return HealthStatus{State: HealthHealthy, Message: "watching config file"}, nil
}

// Apply moves the reloadable settings of newConfig onto the run.
func (s *ConfigService) Apply(oldConfig, newConfig *config.Config) {
	if oldConfig.Log.Level != newConfig.Log.Level {
		if err := s.logger.SetLevel(newConfig.Log.Level); err != nil {
			s.logger.Warn("log level not applied", zap.Error(err))
		} else {
			s.logger.Info("log level changed", zap.Stringer("level", newConfig.Log.Level))
		}
	}

	if oldConfig.Actors.MaxBackoff != newConfig.Actors.MaxBackoff {
		s.backoff.SetMax(newConfig.Actors.MaxBackoff.Std())
		s.logger.Info("coordinator backoff changed", zap.Duration("max_backoff", newConfig.Actors.MaxBackoff.Std()))
	}
}

// RunService loads the mine and runs coordinators and workers on it.
// Start returns once every actor is running; Done is closed when the run
// has ended.
type RunService struct {
	cfg     *config.Config
	solver  worker.Solver
	backoff *coordinator.Backoff
	logger  *logging.Logger

	mu      sync.Mutex
	system  *core.System
	channel *core.Channel
	ledger  *ledger.Ledger
	solved  *ledger.RoomSet
	outcome core.Outcome
	done    chan struct{}
}

// NewRunService creates the service.
func NewRunService(cfg *config.Config, solver worker.Solver, backoff *coordinator.Backoff, logger *logging.Logger) *RunService {
	return &RunService{
		cfg:     cfg,
		solver:  solver,
		backoff: backoff,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Name returns the service name
func (s *RunService) Name() string {
	return RunServiceName
}

// Start loads the mine, spawns the actors and starts the run in the background.
func (s *RunService) Start(ctx context.Context) error {
	m, err := mine.Load(s.cfg.Mine.Input)
	if err != nil {
		return err
	}

	channel := core.NewChannel()
	system := core.NewSystem(channel, s.logger.Named("system"))
	l := ledger.New(m.Rooms())
	solved := ledger.NewRoomSet()

	for i := 0; i < s.cfg.Actors.Coordinators; i++ {
		c := coordinator.New(system.NextID(), m, channel, l, system, coordinator.Options{
			Workers: s.cfg.Actors.Workers,
			Backoff: s.backoff,
			Logger:  s.logger.Logger,
		})
		if err := system.Spawn(c); err != nil {
			return err
		}
	}

	for i := 0; i < s.cfg.Actors.Workers; i++ {
		w := worker.New(system.NextID(), channel, s.solver, worker.Options{
			Solved:   solved,
			IdleWait: s.cfg.Actors.IdleWait.Std(),
			Logger:   s.logger.Logger,
		})
		if err := system.Spawn(w); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.system = system
	s.channel = channel
	s.ledger = l
	s.solved = solved
	s.mu.Unlock()

	s.logger.Info("mine loaded",
		zap.String("input", s.cfg.Mine.Input),
		zap.Int("rooms", m.Rooms()),
		zap.Int("hashes", s.cfg.Mine.Hashes),
	)

	// The run outlives ctx, which only bounds startup.
	go func() {
		outcome, err := system.Run(context.Background())
		if err != nil {
			outcome = core.Outcome{Kind: core.OutcomeFailed, By: RunServiceName, Err: err}
		}

		s.mu.Lock()
		s.outcome = outcome
		s.mu.Unlock()
		close(s.done)
	}()

	return nil
}

// Stop halts the run if it is still going and waits for every actor.
func (s *RunService) Stop(ctx context.Context) error {
	s.mu.Lock()
	system := s.system
	s.mu.Unlock()

	if system == nil {
		return nil
	}

	system.Halt(core.Outcome{Kind: core.OutcomeCancelled, By: RunServiceName})

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("actors did not stop: %w", ctx.Err())
	}
}

// Health reports run progress: rooms solved, solutions produced by the
// workers, and the messages still queued in each direction.
func (s *RunService) Health(ctx context.Context) (HealthStatus, error) {
	s.mu.Lock()
	l, channel, solved := s.ledger, s.channel, s.solved
	s.mu.Unlock()

	if l == nil {
		return HealthStatus{State: HealthUnknown, Message: "mine not loaded"}, nil
	}

	data := map[string]interface{}{
		"solved":          l.Solved(),
		"total":           l.Total(),
		"worker_solved":   solved.Len(),
		"pending_tasks":   channel.PendingTasks(),
		"pending_results": channel.PendingResults(),
	}

	select {
	case <-s.done:
		return HealthStatus{State: HealthStopped, Message: s.Outcome().String(), Data: data}, nil
	default:
		return HealthStatus{State: HealthHealthy, Message: "run in progress", Data: data}, nil
	}
}

// Done is closed once the run has ended.
func (s *RunService) Done() <-chan struct{} {
	return s.done
}

// Outcome returns how the run ended. It is only meaningful after Done.
func (s *RunService) Outcome() core.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Stats returns per-actor statistics of the run.
func (s *RunService) Stats() ([]core.ActorStats, error) {
	s.mu.Lock()
	system := s.system
	s.mu.Unlock()

	if system == nil {
		return nil, ErrRunNotStarted
	}
	return system.Stats(), nil
}
