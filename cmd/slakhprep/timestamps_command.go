package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTimestampsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "timestamps [split...]",
		Short: "Detect active segments of every stem from its RMS envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			splits, err := ctx.resolveSplits(args)
			if err != nil {
				return err
			}
			if err := ctx.runPreflight(cmd, splits); err != nil {
				return err
			}
			svc, err := ctx.newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, split := range splits {
				res, err := svc.Timestamps(cmd.Context(), split)
				if err != nil {
					return fmt.Errorf("timestamps %s: %w", split, err)
				}
				fmt.Fprintln(out, renderResult(res, colorize))
			}
			return nil
		},
	}
}
