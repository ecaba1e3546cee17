package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kbukum/flowc/connector"
)

type step func(ctx context.Context, f *Frame) (*Frame, error)

// LazyFrame is a source plus the column transformations queued on it.
// Nothing runs before Materialize, and every call starts from the source.
type LazyFrame struct {
	source func(ctx context.Context) (*Frame, error)
	steps  []step
}

func newLazy(source func(ctx context.Context) (*Frame, error)) *LazyFrame {
	return &LazyFrame{source: source}
}

func (lf *LazyFrame) then(s step) *LazyFrame {
	steps := make([]step, len(lf.steps), len(lf.steps)+1)
	copy(steps, lf.steps)
	return &LazyFrame{source: lf.source, steps: append(steps, s)}
}

// Steps is the number of queued transformations.
func (lf *LazyFrame) Steps() int { return len(lf.steps) }

// Materialize evaluates the source and every queued step.
func (lf *LazyFrame) Materialize(ctx context.Context) (*Frame, error) {
	f, err := lf.source(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range lf.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f, err = s(ctx, f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Action is a compiled sink. Run materializes the upstream frame, writes it
// to the sink target and returns it.
type Action struct {
	uri   string
	frame *LazyFrame
	write func(ctx context.Context, f *Frame) error
}

// URI is the sink target.
func (a *Action) URI() string { return a.uri }

// Run executes the sink.
func (a *Action) Run(ctx context.Context) (*Frame, error) {
	f, err := a.frame.Materialize(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.write(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func printRows(w io.Writer, f *Frame) error {
	for _, r := range f.Rows() {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
	}
	return nil
}

func writeFrame(ctx context.Context, loc connector.Location, f *Frame) error {
	if loc.Format == connector.FormatJSONL {
		rows := f.Rows()
		items := make([]any, len(rows))
		for i, r := range rows {
			items[i] = r
		}
		_, err := connector.Write(ctx, loc, items)
		return err
	}
	rec := f.Record()
	defer rec.Release()
	return connector.WriteRecord(ctx, loc, rec)
}
