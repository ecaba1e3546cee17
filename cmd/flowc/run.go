package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/flowc/backend/native"
	"github.com/kbukum/flowc/backend/vector"
	"github.com/kbukum/flowc/bootstrap"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/observability"
	"github.com/kbukum/flowc/pipeline"
)

// runOptions defines flags for 'flowc run'.
type runOptions struct {
	*rootOptions
	target  string
	summary bool
}

func (o *runOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.target, "target", "t", "", "executable backend: native or vector (default: compiler.default_target)")
	cmd.Flags().BoolVar(&o.summary, "summary", false, "print a run summary to stderr")
}

func (o *runOptions) run(ctx context.Context, cmd *cobra.Command, path string) error {
	// run prints every target's results itself, so sinks print nothing.
	app, err := o.newApp(bootstrap.WithOutput(io.Discard))
	if err != nil {
		return err
	}
	target := o.target
	if target == "" {
		target = app.Cfg.Compiler.DefaultTarget
	}
	if target != native.Name && target != vector.Name {
		return errors.InvalidInput("target", "run needs an executable backend: native or vector").
			WithDetail("target", target)
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		ctx, span := observability.StartSpan(ctx, observability.SpanRun,
			trace.WithAttributes(attribute.String(observability.AttrTarget, target)))
		defer span.End()

		g, err := loadGraph(path, app.Logger)
		if err != nil {
			return err
		}
		res, err := app.Compile(ctx, g, target)
		if err != nil {
			return err
		}

		results := make([][]any, res.Len())
		errs := make([]error, res.Len())
		eg, egCtx := errgroup.WithContext(ctx)
		for i, art := range res.Artifacts {
			node, _ := g.Node(res.Targets[i])
			eg.Go(func() error {
				sctx, span := observability.StartSpan(egCtx, observability.SpanSink, trace.WithAttributes(
					attribute.String(observability.AttrTarget, target),
					attribute.String(observability.AttrNodeID, node.ShortID()),
					attribute.String(observability.AttrURI, node.Str("uri", "")),
				))
				defer span.End()

				results[i], errs[i] = drain(sctx, target, art)
				if errs[i] != nil {
					observability.SetSpanError(sctx, errs[i])
				}
				span.SetAttributes(attribute.Int(observability.AttrRows, len(results[i])))
				return errs[i]
			})
		}
		runErr := eg.Wait()

		for i, id := range res.Targets {
			node, _ := g.Node(id)
			app.Summary.TrackSink(node.ShortID(), len(results[i]), errs[i])
			if errs[i] == nil {
				app.Metrics.RecordRows(ctx, target, node.Str("uri", node.ShortID()), len(results[i]))
			}
		}
		if o.summary {
			app.Summary.Display(cmd.ErrOrStderr())
		}
		if runErr != nil {
			return runErr
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		for i, items := range results {
			app.Logger.Debug("target drained", logger.Fields(
				logger.FieldNodeID, res.Targets[i], logger.FieldCount, len(items)))
			for _, item := range items {
				if err := enc.Encode(item); err != nil {
					return errors.BackendExecution(target, err)
				}
			}
		}
		return nil
	})
}

// drain executes one compiled target and returns what reached it.
func drain(ctx context.Context, target string, art any) ([]any, error) {
	switch v := art.(type) {
	case native.Thunk:
		return v.Run(ctx)
	case *pipeline.Pipeline[any]:
		return pipeline.Collect(ctx, v)
	case *vector.Action:
		f, err := v.Run(ctx)
		if err != nil {
			return nil, err
		}
		return rowItems(f), nil
	case *vector.LazyFrame:
		f, err := v.Materialize(ctx)
		if err != nil {
			return nil, err
		}
		return rowItems(f), nil
	default:
		return nil, errors.Unsupported(target, "run")
	}
}

func rowItems(f *vector.Frame) []any {
	rows := f.Rows()
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// newCmdRun creates the 'run' command.
func newCmdRun(root *rootOptions) *cobra.Command {
	o := &runOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "run <pipeline.yaml|graph.json>",
		Short: "Compile a pipeline for an executable backend and run its sinks",
		Long: `Compile a pipeline for the native or vector backend and run every
target concurrently. Results are printed as JSON lines in target order.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.Context(), cmd, args[0])
		},
	}
	o.addFlags(cmd)
	return cmd
}
