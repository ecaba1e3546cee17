package native

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kbukum/flowc/connector"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/pipeline"
)

func (b *Backend) sinkNode(node ir.Node, in *pipeline.Pipeline[any]) Thunk {
	uri := node.Str("uri", "")
	return func(ctx context.Context) ([]any, error) {
		items, err := pipeline.Collect(ctx, in)
		if err != nil {
			return nil, err
		}
		fields := logger.Fields(logger.FieldNodeID, node.ShortID(), logger.FieldURI, uri, logger.FieldCount, len(items))

		switch uri {
		case "stdout", "console":
			return items, b.print(items)
		case "", "memory", "collect":
		default:
			loc := connector.Parse(uri)
			explicit := loc.IsFile()
			if !explicit {
				loc = connector.Location{URI: uri, Path: uri, Format: connector.FormatJSONL}
			}
			if _, err := connector.Write(ctx, loc, items); err != nil {
				if explicit || !errors.Is(err, errors.ErrCodeConnectorUnavailable) {
					return nil, errors.AtNode(err, Name, node.ID())
				}
				b.log.Warn("sink target not writable, collecting instead", logger.Fields(
					logger.FieldURI, uri, logger.FieldError, err.Error()))
			}
		}
		if b.echoSink {
			if err := b.print(items); err != nil {
				return nil, err
			}
		}
		b.log.Debug("sink drained", fields)
		return items, nil
	}
}

func (b *Backend) print(items []any) error {
	for _, item := range items {
		if err := printItem(b.out, item); err != nil {
			return errors.BackendExecution(Name, err)
		}
	}
	return nil
}

func printItem(w io.Writer, item any) error {
	data, err := json.Marshal(item)
	if err != nil {
		_, err = fmt.Fprintln(w, item)
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
