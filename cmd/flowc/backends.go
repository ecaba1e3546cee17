package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/flowc/backend/builtin"
)

// backendsOptions defines flags for 'flowc backends'.
type backendsOptions struct {
	*rootOptions
	health bool
}

func (o *backendsOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.health, "health", false, "resolve every backend and report runtime availability")
}

type backendEntry struct {
	Name   string `json:"name"`
	Origin string `json:"origin"`
}

func (o *backendsOptions) run(ctx context.Context, cmd *cobra.Command) error {
	app, err := o.newApp()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if o.health {
		report := builtin.Health(ctx, app.Registry, app.Name, app.Version)
		if o.json {
			return writeJSON(out, report)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, h := range report.Components {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Name, h.Status, h.Details["origin"], h.Message)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "overall: %s\n", report.Status)
		return nil
	}

	entries := app.Registry.Entries()
	list := make([]backendEntry, len(entries))
	for i, e := range entries {
		list[i] = backendEntry{Name: e.Name, Origin: string(e.Origin)}
	}
	if o.json {
		return writeJSON(out, list)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%s\n", e.Name, e.Origin)
	}
	return tw.Flush()
}

// newCmdBackends creates the 'backends' command.
func newCmdBackends(root *rootOptions) *cobra.Command {
	o := &backendsOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List registered backends and where they come from",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd.Context(), cmd)
		},
	}
	o.addFlags(cmd)
	return cmd
}
