package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dgallion1/notedex/internal/pipeline"
	"github.com/dgallion1/notedex/internal/store"
)

func loadCmd(a *app) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "load <paths...>",
		Short: "Load note files or directories and persist the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			ctx := cmd.Context()
			snap, report, err := a.pipeline().LoadPaths(ctx, args)
			if err != nil {
				return err
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			meta := store.Meta{
				Generation: snap.Generation,
				Threshold:  a.cfg.SimilarityThreshold,
				Report:     report,
			}
			if err := st.Save(ctx, snap.Documents, meta); err != nil {
				return fmt.Errorf("save load: %w", err)
			}

			if err := printReport(cmd.OutOrStdout(), report, format); err != nil {
				return err
			}
			if report.HasFailures() {
				failed := len(report.Documents) - report.Loaded()
				return &exitError{code: exitMalformed, err: fmt.Errorf("%d of %d document(s) failed to load", failed, len(report.Documents))}
			}
			return nil
		},
	}

	c.Flags().StringVar(&format, "format", "text", "Output format: text|json")
	return c
}

func printReport(w io.Writer, r *pipeline.Report, format string) error {
	if format == "json" {
		return writeJSON(w, r)
	}

	for _, d := range r.Documents {
		switch {
		case d.Status.Failed():
			fmt.Fprintf(w, "%s %s: %s\n", color.RedString("%-12s", d.Status), d.Name, d.Error)
		case len(d.Warnings) > 0:
			fmt.Fprintf(w, "%s %s (%d sections)\n", color.YellowString("%-12s", "warnings"), d.Name, d.Sections)
			for _, msg := range d.Warnings {
				fmt.Fprintf(w, "             - %s\n", msg)
			}
		default:
			fmt.Fprintf(w, "%s %s (%d sections)\n", color.GreenString("%-12s", d.Status), d.Name, d.Sections)
		}
	}
	fmt.Fprintf(w, "\nloaded %d of %d document(s), %d duplicate group(s) across %d contested path(s) in %s\n",
		r.Loaded(), len(r.Documents), r.DuplicateGroups, r.ContestedPaths, r.Duration().Round(time.Millisecond))
	return nil
}
