package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/askiada/go-ciplan/internal/git"
	"github.com/askiada/go-ciplan/pkg/ci/lint"
	"github.com/askiada/go-ciplan/pkg/ci/report"
	"github.com/askiada/go-ciplan/pkg/pipeline/drawer"
	"github.com/askiada/go-ciplan/pkg/pipeline/measure"
)

type lintFlags struct {
	format     string
	remote     string
	noRemote   bool
	branches   string
	stepsGraph string
}

func (f *lintFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "text", "report format: text or json")
	cmd.Flags().StringVar(&f.remote, "remote", "", "git remote deploy branches are checked against (default from configuration)")
	cmd.Flags().BoolVar(&f.noRemote, "no-remote", false, "skip the checks needing the git remote")
	cmd.Flags().StringVar(&f.branches, "branches", "", "comma separated remote branches, instead of asking git")
	cmd.Flags().StringVar(&f.stepsGraph, "steps-graph", "", "write the lint pipeline steps with their timings to this DOT file")
}

func (f *lintFlags) branchLister(a *app, path string) lint.BranchLister {
	if f.branches != "" {
		var names git.Static
		for _, name := range strings.Split(f.branches, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}

		return names
	}
	if f.noRemote || !a.cfg.CheckRemote {
		return nil
	}

	remote := a.cfg.Remote
	if f.remote != "" {
		remote = f.remote
	}

	return git.NewRemote(filepath.Dir(path), remote, a.logger)
}

func newLintCmd(a *app) *cobra.Command {
	flags := &lintFlags{}

	cmd := &cobra.Command{
		Use:   "lint [file]",
		Short: "Check a pipeline definition",
		Long: `Runs every enabled rule on the definition and prints the diagnostics.
Exits with status 1 when an error diagnostic is found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, rep, err := a.lint(cmd.Context(), fileArg(args), flags)
			if err != nil {
				return err
			}

			switch flags.format {
			case "json":
				err = rep.JSON(cmd.OutOrStdout())
			default:
				err = rep.Text(cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}

			if res.Failed() {
				return &exitError{code: 1}
			}

			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func (a *app) lint(ctx context.Context, path string, flags *lintFlags) (*lint.Result, *report.Report, error) {
	if flags.format != "text" && flags.format != "json" {
		return nil, nil, errors.Errorf("unknown format %q", flags.format)
	}

	err := a.cfg.ValidateRules(lint.RuleNames())
	if err != nil {
		return nil, nil, err
	}

	cfg, exp, err := a.load(path)
	if err != nil {
		return nil, nil, err
	}

	opts := []lint.Option{
		lint.WithLogger(a.logger),
		lint.WithConcurrency(a.cfg.Concurrency),
		lint.WithDisabled(a.cfg.DisabledRules...),
	}
	if flags.stepsGraph != "" {
		m := measure.NewDefaultMeasure()
		opts = append(opts,
			lint.WithMeasure(m),
			lint.WithPipelineOptions(drawer.PipelineDrawer(drawer.NewDOTDrawer(), m, flags.stepsGraph)),
		)
	}

	res, err := lint.New(opts...).Lint(ctx, &lint.Input{
		Config:            cfg,
		Expansion:         exp,
		SupportedVersions: a.cfg.SupportedVersions,
		Branches:          flags.branchLister(a, path),
		Logger:            a.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("lint finished",
		zap.String("file", path),
		zap.Int("errors", res.Errors()),
		zap.Int("warnings", res.Warnings()),
	)

	return res, report.New(path, res), nil
}
