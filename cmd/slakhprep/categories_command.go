package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slakhprep/internal/labels"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "categories [split...]",
		Short: "Write per-stem label listings from track metadata",
		Long: `Write one listing per split with a "Track: <path>" header per track
followed by "<stem>.<ext>: <label>" lines.

Modes:
  program  MIDI program number (categories_<split>.txt)
  group    coarse instrument group from the group mapping (groups_<split>.txt)
  class    instrument class from metadata.yaml (classes_<split>.txt)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := labels.ParseMode(modeFlag)
			if err != nil {
				return err
			}
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
				res, err := svc.Categories(cmd.Context(), split, mode)
				if err != nil {
					return fmt.Errorf("categories %s: %w", split, err)
				}
				fmt.Fprintln(out, renderResult(res, colorize))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(labels.ModeProgram), "Label mode: program, group, or class")
	return cmd
}
