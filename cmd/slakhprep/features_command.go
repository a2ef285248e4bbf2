package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newFeaturesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features [split...]",
		Short: "Extract labelled Mel-spectrogram patches into the feature store",
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
				res, err := svc.Features(cmd.Context(), split)
				if err != nil {
					return fmt.Errorf("features %s: %w", split, err)
				}
				fmt.Fprintln(out, renderResult(res, colorize))
			}
			return nil
		},
	}

	cmd.AddCommand(newFeaturesStatsCommand(ctx))
	cmd.AddCommand(newFeaturesPruneCommand(ctx))
	return cmd
}

func newFeaturesStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <split>",
		Short: "Show patch counts per group for the latest feature run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			counts, err := svc.FeatureStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				fmt.Fprintf(out, "No completed feature run for %s\n", args[0])
				return nil
			}
			rows := make([][]string, 0, len(counts))
			total := 0
			for _, gc := range counts {
				rows = append(rows, []string{gc.Group, strconv.Itoa(gc.Count)})
				total += gc.Count
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Group", "Patches"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
				[]string{"Total", strconv.Itoa(total)},
			))
			return nil
		},
	}
}

func newFeaturesPruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune [split...]",
		Short: "Delete superseded feature runs, keeping the latest completed run",
		RunE: func(cmd *cobra.Command, args []string) error {
			splits, err := ctx.resolveSplits(args)
			if err != nil {
				return err
			}
			svc, err := ctx.newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, split := range splits {
				removed, err := svc.PruneFeatures(cmd.Context(), split)
				if err != nil {
					return fmt.Errorf("prune %s: %w", split, err)
				}
				fmt.Fprintln(out, renderStatusLine(split, statusOK, fmt.Sprintf("%d runs removed", removed), colorize))
			}
			return nil
		},
	}
}
