package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/askiada/go-ciplan/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	flags := &lintFlags{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Lint the definition again every time it changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fileArg(args)

			check := func(ctx context.Context) {
				_, rep, err := a.lint(ctx, path, flags)
				if err != nil {
					a.logger.Error("lint failed", zap.Error(err))

					return
				}
				err = rep.Text(cmd.OutOrStdout())
				if err != nil {
					a.logger.Error("unable to write report", zap.Error(err))
				}
			}

			check(cmd.Context())

			return watch.New(path, debounce, a.logger).Run(cmd.Context(), check)
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before linting again")

	return cmd
}
