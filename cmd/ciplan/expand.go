package main

import (
	"github.com/spf13/cobra"

	"github.com/askiada/go-ciplan/pkg/ci/report"
)

func newExpandCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "expand [file]",
		Short: "List the jobs of the expanded matrix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, exp, err := a.load(fileArg(args))
			if err != nil {
				return err
			}

			return report.Expansion(cmd.OutOrStdout(), exp)
		},
	}
}
