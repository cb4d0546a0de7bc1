// Command ciplan checks, expands and plans Travis style CI pipeline definitions.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/askiada/go-ciplan/internal/config"
	"github.com/askiada/go-ciplan/internal/observability"
	"github.com/askiada/go-ciplan/pkg/ci/loader"
	"github.com/askiada/go-ciplan/pkg/ci/matrix"
	"github.com/askiada/go-ciplan/pkg/ci/model"
)

// DefaultFile is the definition read when no file is given.
const DefaultFile = ".travis.yml"

// exitError carries the exit status of a command which ran to completion but found problems.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type app struct {
	verbose    bool
	configPath string

	logger *zap.Logger
	cfg    *config.Config
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "ciplan",
		Short: "Lint, expand and plan Travis style CI pipeline definitions",
		Long: `ciplan reads a Travis style CI pipeline definition and, without running anything:
  - lints it (interpreter versions, deploy branches, workspaces, commands, secrets)
  - expands the job matrix
  - plans which jobs and stages run for a build
  - evaluates the build outcome from phase exit codes
  - draws the plan as a Graphviz graph`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a.logger, err = observability.NewLogger(a.verbose)
			if err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}

			a.cfg, err = config.Load(a.configPath)
			if err != nil {
				return errors.Wrap(err, "failed to load configuration")
			}

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "configuration file (default "+config.DefaultFile+" when present)")

	rootCmd.AddCommand(
		newLintCmd(a),
		newExpandCmd(a),
		newPlanCmd(a),
		newGraphCmd(a),
		newOutcomeCmd(a),
		newWatchCmd(a),
	)

	return rootCmd
}

func fileArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return DefaultFile
}

// load reads and expands a definition.
func (a *app) load(path string) (*model.Config, *matrix.Expansion, error) {
	cfg, err := loader.Load(path)
	if err != nil {
		return nil, nil, err
	}

	exp := matrix.Expand(cfg)
	a.logger.Debug("definition expanded",
		zap.String("file", path),
		zap.Int("jobs", len(exp.Jobs)),
		zap.Strings("stages", exp.Stages),
	)

	return cfg, exp, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintln(stderr, "Error:", err)

	return 2
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
