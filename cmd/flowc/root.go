package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/flowc/bootstrap"
	"github.com/kbukum/flowc/config"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/version"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	logLevel   string
	json       bool
}

func (o *rootOptions) addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.configFile, "config", "", "config file (default: ./flowc.yml or the user config dir)")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "log level: trace, debug, info, warn, error or disabled")
	cmd.PersistentFlags().BoolVar(&o.json, "json", false, "print listings and errors as JSON")
}

// newApp loads the configuration, applies flag overrides and builds the app.
func (o *rootOptions) newApp(appOpts ...bootstrap.Option) (*bootstrap.App, error) {
	var opts []config.LoaderOption
	if o.configFile != "" {
		opts = append(opts, config.WithConfigFile(o.configFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return bootstrap.NewApp(cfg, version.Get().Short(), appOpts...)
}

// newRootCmd creates the flowc command tree over o.
func newRootCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "flowc",
		Short:         "Compile dataflow pipelines to code, plans or running jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	o.addFlags(cmd)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.InvalidInput("flags", err.Error())
	})
	cmd.AddCommand(
		newCmdCompile(o),
		newCmdRun(o),
		newCmdBackends(o),
		newCmdInspect(o),
		newCmdVersion(o),
	)
	return cmd
}

// exactArgs is cobra.ExactArgs reporting INVALID_INPUT.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.InvalidInput("args",
				fmt.Sprintf("%s accepts %d arg(s), received %d", cmd.CommandPath(), n, len(args)))
		}
		return nil
	}
}

// execute runs the command line and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o := &rootOptions{}
	cmd := newRootCmd(o)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return reportError(stderr, err, o.json)
	}
	return 0
}

// reportError prints err and maps it to an exit status. Errors that carry no
// code are reported as internal errors.
func reportError(w io.Writer, err error, asJSON bool) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(appErr.ToResponse())
	} else {
		fmt.Fprintf(w, "Error: %s\n", err)
	}
	return appErr.ExitCode()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
