package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/flowc/ir"
)

// inspectOptions defines flags for 'flowc inspect'.
type inspectOptions struct {
	*rootOptions
}

type inspection struct {
	Graph  *ir.Graph  `json:"graph"`
	Levels [][]string `json:"levels"`
}

func (o *inspectOptions) run(_ context.Context, cmd *cobra.Command, path string) error {
	app, err := o.newApp()
	if err != nil {
		return err
	}
	g, err := loadGraph(path, app.Logger)
	if err != nil {
		return err
	}
	levels, err := ir.Levels(g)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if o.json {
		return writeJSON(out, inspection{Graph: g, Levels: levels})
	}
	if err := writeJSON(out, g); err != nil {
		return err
	}
	for i, ids := range levels {
		short := make([]string, len(ids))
		for j, id := range ids {
			n, _ := g.Node(id)
			short[j] = fmt.Sprintf("%s(%s)", n.Op(), n.ShortID())
		}
		fmt.Fprintf(out, "level %d: %s\n", i, strings.Join(short, " "))
	}
	return nil
}

// newCmdInspect creates the 'inspect' command.
func newCmdInspect(root *rootOptions) *cobra.Command {
	o := &inspectOptions{rootOptions: root}
	return &cobra.Command{
		Use:   "inspect <pipeline.yaml|graph.json>",
		Short: "Print the graph projection and its topological levels",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.Context(), cmd, args[0])
		},
	}
}
