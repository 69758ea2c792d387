package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/najoast/hashmine/config"
	"github.com/najoast/hashmine/coordinator"
	"github.com/najoast/hashmine/core"
	"github.com/najoast/hashmine/crypt"
	"github.com/najoast/hashmine/logging"
	"github.com/najoast/hashmine/worker"
)

// recorder collects start and stop calls across services.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type testService struct {
	name     string
	rec      *recorder
	startErr error
}

func (s *testService) Name() string { return s.name }

func (s *testService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.rec.add("start " + s.name)
	return nil
}

func (s *testService) Stop(ctx context.Context) error {
	s.rec.add("stop " + s.name)
	return nil
}

func (s *testService) Health(ctx context.Context) (HealthStatus, error) {
	return HealthStatus{State: HealthHealthy}, nil
}

func TestLifecycleOrder(t *testing.T) {
	rec := &recorder{}
	lm := NewLifecycleManager()

	require.NoError(t, lm.Register(&testService{name: "run", rec: rec}, "config", "logging"))
	require.NoError(t, lm.Register(&testService{name: "config", rec: rec}, "logging"))
	require.NoError(t, lm.Register(&testService{name: "logging", rec: rec}))

	assert.Equal(t, []string{"config", "logging", "run"}, lm.Services())

	ctx := context.Background()
	require.NoError(t, lm.Start(ctx))
	assert.True(t, lm.IsStarted())
	require.NoError(t, lm.Stop(ctx))
	assert.False(t, lm.IsStarted())

	assert.Equal(t, []string{
		"start logging", "start config", "start run",
		"stop run", "stop config", "stop logging",
	}, rec.Calls())
}

func TestLifecycleRegisterErrors(t *testing.T) {
	lm := NewLifecycleManager()
	rec := &recorder{}

	assert.Error(t, lm.Register(nil))
	assert.Error(t, lm.Register(&testService{name: "", rec: rec}))
	require.NoError(t, lm.Register(&testService{name: "a", rec: rec}))
	assert.Error(t, lm.Register(&testService{name: "a", rec: rec}), "duplicate name")

	require.NoError(t, lm.Start(context.Background()))
	assert.Error(t, lm.Register(&testService{name: "late", rec: rec}))
	assert.Error(t, lm.Start(context.Background()), "already started")
}

func TestLifecycleDependencyErrors(t *testing.T) {
	rec := &recorder{}

	missing := NewLifecycleManager()
	require.NoError(t, missing.Register(&testService{name: "run", rec: rec}, "config"))
	assert.ErrorContains(t, missing.Start(context.Background()), "not registered")

	circular := NewLifecycleManager()
	require.NoError(t, circular.Register(&testService{name: "a", rec: rec}, "b"))
	require.NoError(t, circular.Register(&testService{name: "b", rec: rec}, "a"))
	assert.ErrorContains(t, circular.Start(context.Background()), "circular")

	assert.Empty(t, rec.Calls())
}

func TestLifecycleStartFailureStopsStartedServices(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	lm := NewLifecycleManager()

	var events []LifecycleEvent
	lm.AddListener(func(event LifecycleEvent) { events = append(events, event) })

	require.NoError(t, lm.Register(&testService{name: "config", rec: rec}))
	require.NoError(t, lm.Register(&testService{name: "run", rec: rec, startErr: boom}, "config"))

	err := lm.Start(context.Background())
	require.ErrorIs(t, err, boom)

	var appErr *ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "run", appErr.Service)
	assert.Equal(t, "start", appErr.Operation)

	assert.Equal(t, []string{"start config", "stop config"}, rec.Calls())
	assert.False(t, lm.IsStarted())

	var types []string
	for _, event := range events {
		types = append(types, event.Type)
	}
	assert.Contains(t, types, EventServiceStartFailed)
	assert.Contains(t, types, EventServiceStopped)
}

func TestLifecycleHealth(t *testing.T) {
	lm := NewLifecycleManager()
	require.NoError(t, lm.Register(&testService{name: "a", rec: &recorder{}}))

	health, err := lm.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthHealthy, health["a"].State)
}

// writeMine writes the three room path entrance-hall-vault with answers
// matching the hash solver.
func writeMine(t *testing.T, hashes int) string {
	t.Helper()
	prefix := filepath.Join(t.TempDir(), "cave")
	names := []string{"entrance", "hall", "vault"}

	answers := make([]string, len(names))
	for i, name := range names {
		answers[i] = crypt.HashTimes(name, hashes)
	}

	write := func(suffix, content string) {
		require.NoError(t, os.WriteFile(prefix+suffix, []byte(content), 0o644))
	}
	write("_data.txt", strings.Join(names, "\n")+"\n")
	write("_answer.txt", strings.Join(answers, "\n")+"\n")
	write("_graph.txt", "0, 1, 0\n1, 0, 1\n0, 1, 0\n")
	return prefix
}

func runConfig(input string, hashes int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Mine.Input = input
	cfg.Mine.Hashes = hashes
	cfg.Actors.Coordinators = 2
	cfg.Actors.Workers = 3
	cfg.Actors.MaxBackoff = config.Duration(time.Millisecond)
	cfg.Actors.IdleWait = config.Duration(time.Millisecond)
	return cfg
}

func runApp(t *testing.T, opts Options) (core.Outcome, error) {
	t.Helper()
	app, err := NewApplication(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Run(ctx)
}

func TestApplicationCompletesRun(t *testing.T) {
	cfg := runConfig(writeMine(t, 3), 3)

	configFile := filepath.Join(t.TempDir(), "hashmine.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("log:\n  level: info\n"), 0o644))

	outcome, err := runApp(t, Options{Config: cfg, ConfigFile: configFile})
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeCompleted, outcome.Kind, outcome.String())
	assert.Equal(t, 0, outcome.ExitCode())
}

func TestApplicationReportsViolation(t *testing.T) {
	cfg := runConfig(writeMine(t, 1), 1)

	outcome, err := runApp(t, Options{
		Config: cfg,
		Solver: worker.SolverFunc(func(name string) string { return name }),
	})
	require.NoError(t, err)

	assert.Equal(t, core.OutcomeFailed, outcome.Kind)
	assert.Equal(t, 1, outcome.ExitCode())

	var violation *coordinator.ViolationError
	require.True(t, errors.As(outcome.Err, &violation))
	assert.ErrorIs(t, violation, coordinator.ErrBadAnswer)
}

func TestApplicationMissingInput(t *testing.T) {
	cfg := runConfig(filepath.Join(t.TempDir(), "nowhere"), 1)

	outcome, err := runApp(t, Options{Config: cfg})
	require.ErrorIs(t, err, os.ErrNotExist)

	var appErr *ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, RunServiceName, appErr.Service)
	assert.Equal(t, 1, outcome.ExitCode())
}

func TestApplicationCancelled(t *testing.T) {
	cfg := runConfig(writeMine(t, 1), 1)
	cfg.Actors.Workers = 1

	slow := worker.SolverFunc(func(name string) string {
		time.Sleep(50 * time.Millisecond)
		return crypt.Hash(name)
	})

	app, err := NewApplication(Options{Config: cfg, Solver: slow})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	outcome, err := app.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeCancelled, outcome.Kind)
	assert.Equal(t, 1, outcome.ExitCode())

	health, err := app.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthStopped, health[RunServiceName].State)
}

func TestRunServiceHealthReportsProgress(t *testing.T) {
	cfg := runConfig(writeMine(t, 2), 2)
	service := NewRunService(cfg, crypt.NewHashSolver(2), coordinator.NewBackoff(time.Millisecond), logging.Nop())

	status, err := service.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthUnknown, status.State)
	_, err = service.Stats()
	assert.ErrorIs(t, err, ErrRunNotStarted)

	require.NoError(t, service.Start(context.Background()))
	select {
	case <-service.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish")
	}

	status, err = service.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthStopped, status.State)
	assert.Equal(t, 3, status.Data["solved"])
	assert.Equal(t, 3, status.Data["total"])
	assert.Equal(t, 3, status.Data["worker_solved"])
	assert.GreaterOrEqual(t, status.Data["pending_tasks"], 0)
	assert.GreaterOrEqual(t, status.Data["pending_results"], 0)
	assert.Equal(t, core.OutcomeCompleted, service.Outcome().Kind)

	require.NoError(t, service.Stop(context.Background()))
}

func TestNewApplicationRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Actors.Workers = 0

	_, err := NewApplication(Options{Config: cfg})
	assert.ErrorIs(t, err, config.ErrInvalidWorkers)
}

func TestConfigServiceApply(t *testing.T) {
	logger := logging.Nop()
	backoff := coordinator.NewBackoff(100 * time.Millisecond)
	service := NewConfigService(nil, logger, backoff)

	oldConfig := config.DefaultConfig()
	newConfig := config.DefaultConfig()
	newConfig.Log.Level = config.LogLevelDebug
	newConfig.Actors.MaxBackoff = config.Duration(5 * time.Millisecond)
	newConfig.Actors.Workers = 40

	service.Apply(oldConfig, newConfig)

	assert.Equal(t, zapcore.DebugLevel, logger.Level())
	assert.Equal(t, 5*time.Millisecond, backoff.Max())

	// Without a watcher the service does nothing.
	require.NoError(t, service.Start(context.Background()))
	require.NoError(t, service.Stop(context.Background()))
	status, err := service.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthUnknown, status.State)
}
