// Package bootstrap owns the lifecycle of one flowc invocation.
//
// An App validates the configuration, initializes the process logger, builds
// the backend registry with the configured plugins and, when enabled, starts
// the OTLP tracer and meter providers. Commands run inside RunTask, which
// cancels the task on SIGINT or SIGTERM and runs the stop hooks afterwards.
//
//	app, err := bootstrap.NewApp(cfg, version.Get().Short())
//	if err != nil {
//	    return err
//	}
//	return app.RunTask(ctx, func(ctx context.Context) error {
//	    b, err := app.Backend("native")
//	    ...
//	})
package bootstrap
