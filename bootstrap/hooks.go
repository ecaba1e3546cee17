package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback that runs during startup or shutdown.
type Hook func(ctx context.Context) error

// OnStart registers a hook that runs after the telemetry providers are up
// and before the task.
func (a *App) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnStop registers a hook that runs after the task. Stop hooks run in
// reverse registration order.
func (a *App) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// runHooks executes hooks sequentially, returning the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}

func reversed(hooks []Hook) []Hook {
	out := make([]Hook, len(hooks))
	for i, h := range hooks {
		out[len(hooks)-1-i] = h
	}
	return out
}
