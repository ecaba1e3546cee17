package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/backend/builtin"
	"github.com/kbukum/flowc/compiler"
	"github.com/kbukum/flowc/config"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/observability"
)

// App is one configured flowc invocation.
type App struct {
	Name     string
	Version  string
	Cfg      *config.Config
	Logger   *logger.Logger
	Registry *backend.Registry
	Metrics  *observability.Metrics
	Summary  *Summary

	gracefulTimeout time.Duration
	output          io.Writer

	onStart []Hook
	onStop  []Hook
}

// NewApp applies defaults to cfg, validates it, initializes the logger and
// builds the backend registry with the configured plugins.
func NewApp(cfg *config.Config, version string, opts ...Option) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{
		Name:            cfg.Name,
		Version:         version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	app.output = o.output
	if o.logger != nil {
		app.Logger = o.logger
		logger.SetRoot(o.logger)
	} else {
		app.Logger = logger.Init(cfg.Logging, cfg.Name)
	}

	app.Registry = o.registry
	if app.Registry == nil {
		app.Registry = builtin.Default()
	}
	if err := builtin.InstallPlugins(app.Registry, cfg.Compiler.Plugins...); err != nil {
		return nil, err
	}

	app.Summary = NewSummary(cfg.Name, version)
	return app, nil
}

// Backend resolves target with the factory configuration from the config
// file. An empty target selects the configured default.
func (a *App) Backend(target string) (backend.Backend, error) {
	if target == "" {
		target = a.Cfg.Compiler.DefaultTarget
	}
	cfg := a.Cfg.BackendConfig(target)
	if a.output != nil {
		if cfg == nil {
			cfg = make(map[string]any, 1)
		}
		cfg[backend.OutputKey] = a.output
	}
	return a.Registry.ResolveWith(target, cfg)
}

// Compile resolves target and compiles g with the app's logger and metrics.
// The compilation is recorded in the summary.
func (a *App) Compile(ctx context.Context, g *ir.Graph, target string) (*compiler.Result, error) {
	b, err := a.Backend(target)
	if err != nil {
		return nil, err
	}
	opts := []compiler.Option{compiler.WithLogger(a.Logger.WithComponent("compiler"))}
	if a.Metrics != nil {
		opts = append(opts, compiler.WithMetrics(a.Metrics))
	}

	start := time.Now()
	res, err := compiler.New(b, opts...).Compile(ctx, g)
	if err != nil {
		return nil, err
	}
	a.Summary.TrackCompile(b.Name(), g.Len(), res.Len(), time.Since(start))
	return res, nil
}

// RunTask starts the app, runs task and shuts down. The task context is
// canceled on SIGINT or SIGTERM. The task error wins over a stop error.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.start(ctx); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("received signal, canceling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// Shutdown runs the stop hooks. Use it when managing the lifecycle without
// RunTask.
func (a *App) Shutdown() error {
	return a.stop()
}

// start brings up telemetry and runs the start hooks.
func (a *App) start(ctx context.Context) error {
	a.Logger.Debug("starting", logger.Fields("name", a.Name, "version", a.Version))

	if a.Cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, a.Cfg.TracerConfig(a.Version))
		if err != nil {
			return fmt.Errorf("tracer: %w", err)
		}
		a.OnStop(tp.Shutdown)
	}

	if a.Cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, a.Cfg.MeterConfig(a.Version))
		if err != nil {
			return fmt.Errorf("meter: %w", err)
		}
		a.OnStop(mp.Shutdown)
	}

	// The global meter is a no-op unless InitMeter ran.
	m, err := observability.NewMetrics(observability.Meter(a.Name))
	if err != nil {
		return err
	}
	a.Metrics = m

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	return nil
}

func (a *App) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	if err := runHooks(ctx, reversed(a.onStop)); err != nil {
		a.Logger.Error("shutdown completed with errors", logger.ErrorFields("stop", err))
		return err
	}
	a.Logger.Debug("shutdown complete")
	return nil
}
