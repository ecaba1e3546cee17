package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/flowc/version"
)

// newCmdVersion creates the 'version' command. It needs no configuration.
func newCmdVersion(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if root.json {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "flowc", info.String())
			return err
		},
	}
}
