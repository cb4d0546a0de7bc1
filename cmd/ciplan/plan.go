package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-ciplan/pkg/ci/condition"
	"github.com/askiada/go-ciplan/pkg/ci/drawer"
	"github.com/askiada/go-ciplan/pkg/ci/model"
	"github.com/askiada/go-ciplan/pkg/ci/plan"
	"github.com/askiada/go-ciplan/pkg/ci/report"
)

// buildFlags describe the build a plan is made for.
type buildFlags struct {
	vars condition.Vars
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.vars.Branch, "branch", "", "branch of the build (default from configuration)")
	cmd.Flags().StringVar(&f.vars.Type, "type", "push", "event type: push, pull_request, api or cron")
	cmd.Flags().StringVar(&f.vars.Tag, "tag", "", "tag of the build")
	cmd.Flags().StringVar(&f.vars.Repo, "repo", "", "repository slug, owner/name")
	cmd.Flags().StringVar(&f.vars.Sender, "sender", "", "login of the user who triggered the build")
	cmd.Flags().StringVar(&f.vars.HeadBranch, "head-branch", "", "head branch of a pull request")
}

func (a *app) plan(path string, flags *buildFlags) (*plan.Plan, error) {
	cfg, exp, err := a.load(path)
	if err != nil {
		return nil, err
	}

	vars := flags.vars
	if vars.Branch == "" {
		vars.Branch = a.cfg.DefaultBranch
	}
	vars.Language = cfg.Language

	return plan.Build(cfg, exp, vars)
}

func newPlanCmd(a *app) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "plan [file]",
		Short: "Show which jobs run for a build, and in which order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.plan(fileArg(args), flags)
			if err != nil {
				return err
			}

			err = report.Plan(cmd.OutOrStdout(), p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())

			return report.Order(cmd.OutOrStdout(), p)
		},
	}
	flags.register(cmd)

	return cmd
}

func newGraphCmd(a *app) *cobra.Command {
	flags := &buildFlags{}
	var output string

	cmd := &cobra.Command{
		Use:   "graph [file]",
		Short: "Draw the plan of a build as a Graphviz graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.plan(fileArg(args), flags)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return drawer.Draw(p, cmd.OutOrStdout())
			}

			return drawer.WriteFile(p, output)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "DOT file to write, stdout when empty")

	return cmd
}

// parseExitCode parses JOB:PHASE=CODE, such as 3:script=1.
func parseExitCode(s string) (int, model.Phase, int, error) {
	jobPart, rest, ok := strings.Cut(s, ":")
	if !ok {
		return 0, "", 0, errors.Errorf("invalid exit code %q, expected JOB:PHASE=CODE", s)
	}
	phasePart, codePart, ok := strings.Cut(rest, "=")
	if !ok {
		return 0, "", 0, errors.Errorf("invalid exit code %q, expected JOB:PHASE=CODE", s)
	}

	job, err := strconv.Atoi(strings.TrimPrefix(jobPart, "#"))
	if err != nil {
		return 0, "", 0, errors.Wrapf(err, "invalid job number in %q", s)
	}
	code, err := strconv.Atoi(codePart)
	if err != nil {
		return 0, "", 0, errors.Wrapf(err, "invalid code in %q", s)
	}

	phase := model.Phase(phasePart)
	known := phase == model.PhaseDeploy
	for _, p := range model.Phases {
		known = known || p == phase
	}
	if !known {
		return 0, "", 0, errors.Errorf("unknown phase %q", phasePart)
	}

	return job, phase, code, nil
}

func newOutcomeCmd(a *app) *cobra.Command {
	flags := &buildFlags{}
	var exits []string
	var output string

	cmd := &cobra.Command{
		Use:   "outcome [file]",
		Short: "Evaluate the result of a build from the exit codes of job phases",
		Long: `Evaluates the status of every job, stage and of the build. Phases exit 0 unless
set with --exit JOB:PHASE=CODE, which can be repeated:

  ciplan outcome --exit 2:script=1 --exit 5:install=127

Exits with status 1 when the build does not pass.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := map[int]plan.ExitCodes{}
			for _, exit := range exits {
				job, phase, code, err := parseExitCode(exit)
				if err != nil {
					return err
				}
				if results[job] == nil {
					results[job] = plan.ExitCodes{}
				}
				results[job][phase] = code
			}

			p, err := a.plan(fileArg(args), flags)
			if err != nil {
				return err
			}
			for job := range results {
				if _, ok := p.Entry(job); !ok {
					return errors.Errorf("no job #%d", job)
				}
			}

			out, err := p.Evaluate(results)
			if err != nil {
				return err
			}

			err = report.Outcome(cmd.OutOrStdout(), out)
			if err != nil {
				return err
			}
			if output != "" {
				err = drawer.WriteFile(p, output)
				if err != nil {
					return err
				}
			}

			if code := out.ExitCode(); code != 0 {
				return &exitError{code: code}
			}

			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringArrayVar(&exits, "exit", nil, "exit code of a job phase, JOB:PHASE=CODE")
	cmd.Flags().StringVarP(&output, "graph", "g", "", "also draw the evaluated plan to this DOT file")

	return cmd
}
