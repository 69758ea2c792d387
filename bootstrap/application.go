package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/najoast/hashmine/config"
	"github.com/najoast/hashmine/coordinator"
	"github.com/najoast/hashmine/core"
	"github.com/najoast/hashmine/crypt"
	"github.com/najoast/hashmine/logging"
	"github.com/najoast/hashmine/worker"
)

// Options configures an Application
type Options struct {
	// Config of the run, defaults to config.DefaultConfig
	Config *config.Config

	// ConfigFile is watched for reloadable settings when set
	ConfigFile string

	// Solver used by workers, defaults to iterated SHA-256 with
	// Config.Mine.Hashes rounds
	Solver worker.Solver

	// Logger, defaults to a no-op logger
	Logger *logging.Logger

	// HandleSignals ends the run on SIGINT and SIGTERM
	HandleSignals bool
}

// Application runs one traversal of a mine
type Application struct {
	cfg       *config.Config
	logger    *logging.Logger
	lifecycle *DefaultLifecycleManager
	run       *RunService

	handleSignals bool

	mutex   sync.Mutex
	running bool
}

// NewApplication creates an application and registers its services
func NewApplication(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ApplicationError{Operation: "configure", Err: err}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	solver := opts.Solver
	if solver == nil {
		solver = crypt.NewHashSolver(cfg.Mine.Hashes)
	}

	var watcher *config.Watcher
	if opts.ConfigFile != "" {
		var err error
		watcher, err = config.NewWatcher(opts.ConfigFile, config.NewLoader(), logger.Logger)
		if err != nil {
			return nil, &ApplicationError{Operation: "configure", Service: ConfigServiceName, Err: err}
		}
	}

	backoff := coordinator.NewBackoff(cfg.Actors.MaxBackoff.Std())

	app := &Application{
		cfg:           cfg,
		logger:        logger,
		lifecycle:     NewLifecycleManager(),
		run:           NewRunService(cfg, solver, backoff, logger),
		handleSignals: opts.HandleSignals,
	}

	app.lifecycle.AddListener(func(event LifecycleEvent) {
		if event.Error != nil {
			logger.Warn(event.Type, zap.String("service", event.Service), zap.Error(event.Error))
			return
		}
		logger.Debug(event.Type, zap.String("service", event.Service))
	})

	if err := app.lifecycle.Register(NewConfigService(watcher, logger, backoff)); err != nil {
		return nil, err
	}
	if err := app.lifecycle.Register(app.run, ConfigServiceName); err != nil {
		return nil, err
	}

	return app, nil
}

// Run starts the services and waits until the run ends, a signal arrives
// or ctx is done. It then stops every service and reports the outcome.
func (app *Application) Run(ctx context.Context) (core.Outcome, error) {
	app.mutex.Lock()
	if app.running {
		app.mutex.Unlock()
		return core.Outcome{}, fmt.Errorf("application is already running")
	}
	app.running = true
	app.mutex.Unlock()

	defer func() {
		app.mutex.Lock()
		app.running = false
		app.mutex.Unlock()
	}()

	if app.handleSignals {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	app.logger.Info("starting",
		zap.String("app", app.cfg.App.Name),
		zap.String("version", app.cfg.App.Version),
		zap.Stringer("environment", app.cfg.App.Environment),
	)

	if err := app.lifecycle.Start(ctx); err != nil {
		return core.Outcome{Kind: core.OutcomeFailed, Err: err}, err
	}

	select {
	case <-app.run.Done():
	case <-ctx.Done():
		app.logger.Info("shutdown requested", zap.Error(context.Cause(ctx)))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.Shutdown.Timeout.Std())
	defer cancel()

	if err := app.lifecycle.Stop(shutdownCtx); err != nil {
		return app.run.Outcome(), err
	}

	outcome := app.run.Outcome()
	if stats, err := app.run.Stats(); err == nil {
		for _, s := range stats {
			app.logger.Debug("actor stats",
				zap.String("actor", s.Name),
				zap.Uint64("processed", s.MessagesProcessed),
				zap.Uint64("sent", s.MessagesSent),
			)
		}
	}
	return outcome, nil
}

// Health reports the health of every service
func (app *Application) Health(ctx context.Context) (map[string]HealthStatus, error) {
	return app.lifecycle.Health(ctx)
}

// LifecycleManager returns the lifecycle manager
func (app *Application) LifecycleManager() LifecycleManager {
	return app.lifecycle
}
