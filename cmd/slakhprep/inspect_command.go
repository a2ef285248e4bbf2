package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slakhprep/internal/config"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <track dir>",
		Short: "Show the stems of one track with every label kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			meta, stems, err := svc.Inspect(path)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader(path, colorize) {
				fmt.Fprintln(out, line)
			}
			if meta.UUID != "" {
				fmt.Fprintln(out, renderStatusLine("UUID", statusInfo, meta.UUID, colorize))
			}
			if meta.TargetPeak != 0 || meta.OverallGain != 0 {
				fmt.Fprintln(out, renderStatusLine("Mix", statusInfo,
					fmt.Sprintf("target peak %.2f, overall gain %.2f, normalization %.4f",
						meta.TargetPeak, meta.OverallGain, meta.NormalizationFactor), colorize))
			}

			rows := make([][]string, 0, len(stems))
			for _, s := range stems {
				file := s.File
				if file == "" {
					file = "-"
				}
				rows = append(rows, []string{
					s.ID, file, s.Program, s.InstClass, s.Group, yesNo(s.Rendered), yesNo(s.IsDrum), s.Plugin,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Stem", "File", "Program", "Class", "Group", "Rendered", "Drum", "Plugin"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
				nil,
			))
			return nil
		},
	}
}
