package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/flowc/backend/plan"
	"github.com/kbukum/flowc/backend/script"
	"github.com/kbukum/flowc/logger"
)

// compileOptions defines flags for 'flowc compile'.
type compileOptions struct {
	*rootOptions
	target string
}

func (o *compileOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.target, "target", "t", "", "backend to compile for (default: compiler.default_target)")
}

func (o *compileOptions) run(ctx context.Context, cmd *cobra.Command, path string) error {
	app, err := o.newApp()
	if err != nil {
		return err
	}
	return app.RunTask(ctx, func(ctx context.Context) error {
		g, err := loadGraph(path, app.Logger)
		if err != nil {
			return err
		}
		res, err := app.Compile(ctx, g, o.target)
		if err != nil {
			return err
		}

		texts, ok := artifactTexts(res.Artifacts)
		if !ok {
			target := o.target
			if target == "" {
				target = app.Cfg.Compiler.DefaultTarget
			}
			app.Logger.Info("artifact is executable, printing the string plan instead",
				logger.Fields(logger.FieldTarget, target, "hint", "use flowc run to execute it"))
			res, err = app.Compile(ctx, g, plan.Name)
			if err != nil {
				return err
			}
			texts, _ = artifactTexts(res.Artifacts)
		}
		return printTexts(cmd.OutOrStdout(), texts)
	})
}

// artifactTexts renders text artifacts. Programs from several targets are
// merged so shared statements print once. ok is false when any artifact is
// executable rather than text.
func artifactTexts(artifacts []any) ([]string, bool) {
	programs := make([]*script.Program, 0, len(artifacts))
	texts := make([]string, 0, len(artifacts))
	for _, art := range artifacts {
		switch v := art.(type) {
		case *script.Program:
			programs = append(programs, v)
		case string:
			texts = append(texts, v)
		case fmt.Stringer:
			texts = append(texts, v.String())
		default:
			return nil, false
		}
	}
	if len(programs) > 0 {
		texts = append([]string{script.Merge(programs...).Text()}, texts...)
	}
	return texts, true
}

func printTexts(w io.Writer, texts []string) error {
	for _, t := range texts {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}
	return nil
}

// newCmdCompile creates the 'compile' command.
func newCmdCompile(root *rootOptions) *cobra.Command {
	o := &compileOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "compile <pipeline.yaml|graph.json>",
		Short: "Compile a pipeline and print the generated artifact",
		Long: `Compile a pipeline definition or a graph projection for one backend.
Code generators print their program; executable backends print the
string plan of the graph instead.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.Context(), cmd, args[0])
		},
	}
	o.addFlags(cmd)
	return cmd
}
