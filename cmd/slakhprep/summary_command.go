package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slakhprep/internal/preflight"
	"slakhprep/internal/prep"
)

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	var showGroups bool

	cmd := &cobra.Command{
		Use:   "summary [split...]",
		Short: "Summarise tracks, metadata, and stems per split",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			splits, err := ctx.resolveSplits(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, r := range preflight.RunAll(cfg, splits) {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			fmt.Fprintln(out)

			svc, err := ctx.newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			var summaries []*prep.SplitSummary
			var missing []string
			for _, split := range splits {
				summary, err := svc.Summarize(cmd.Context(), split)
				if err != nil {
					missing = append(missing, split)
					continue
				}
				summaries = append(summaries, summary)
			}

			rows := make([][]string, 0, len(summaries))
			var total prep.SplitSummary
			for _, s := range summaries {
				rows = append(rows, []string{
					s.Split,
					strconv.Itoa(s.Tracks),
					strconv.Itoa(s.MissingMetadata),
					strconv.Itoa(s.Stems),
					strconv.Itoa(s.Rendered),
					strconv.Itoa(s.Drums),
				})
				total.Tracks += s.Tracks
				total.MissingMetadata += s.MissingMetadata
				total.Stems += s.Stems
				total.Rendered += s.Rendered
				total.Drums += s.Drums
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Split", "Tracks", "No metadata", "Stems", "Rendered", "Drums"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
				[]string{"Total", strconv.Itoa(total.Tracks), strconv.Itoa(total.MissingMetadata),
					strconv.Itoa(total.Stems), strconv.Itoa(total.Rendered), strconv.Itoa(total.Drums)},
			))

			if showGroups {
				for _, s := range summaries {
					fmt.Fprintln(out)
					for _, line := range renderSectionHeader("Groups: "+s.Split, colorize) {
						fmt.Fprintln(out, line)
					}
					groupRows := make([][]string, 0, len(s.Groups))
					for _, name := range s.SortedGroups() {
						groupRows = append(groupRows, []string{name, strconv.Itoa(s.Groups[name])})
					}
					fmt.Fprintln(out, renderTable([]string{"Group", "Stems"}, groupRows,
						[]columnAlignment{alignLeft, alignRight}, nil))
				}
			}

			if len(missing) > 0 {
				return fmt.Errorf("split directories not readable: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showGroups, "groups", false, "Also show rendered stems per instrument group")
	return cmd
}
