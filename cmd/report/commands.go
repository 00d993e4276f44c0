package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/report"
)

func newSummaryCmd(r *runner) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print totals, critical count, mean aging and per-tier counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := r.view(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(v.Summary)
			}
			return writeSummary(out, v.Summary)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func writeSummary(w io.Writer, s report.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%d\n", s.Total)
	fmt.Fprintf(tw, "Critical\t%d\n", s.Critical)
	fmt.Fprintf(tw, "Mean aging (days)\t%s\n", model.FormatDays(s.MeanAging))
	fmt.Fprintf(tw, "Matched\t%d\n", s.Matched)
	fmt.Fprintf(tw, "Needs justification\t%d\n", s.Flagged)
	for _, tc := range s.ByTier {
		fmt.Fprintf(tw, "  %s\t%d\n", tc.Tier, tc.Count)
	}
	return tw.Flush()
}

func newPivotCmd(r *runner) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "pivot",
		Short: "Cross-tabulate status or reason against tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dim, err := report.ParseDimension(by)
			if err != nil {
				return err
			}
			v, err := r.view(cmd.Context())
			if err != nil {
				return err
			}
			return writePivot(cmd.OutOrStdout(), v.Pivot(dim))
		},
	}
	cmd.Flags().StringVar(&by, "by", string(report.ByStatus), "row dimension: status or reason")
	return cmd
}

func writePivot(w io.Writer, p report.Pivot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, string(p.By))
	for _, c := range p.Columns {
		fmt.Fprintf(tw, "\t%s", c)
	}
	fmt.Fprintln(tw, "\t")
	writeCounts := func(key string, counts []int) {
		fmt.Fprint(tw, key)
		for _, n := range counts {
			fmt.Fprintf(tw, "\t%d", n)
		}
		fmt.Fprintln(tw, "\t")
	}
	for _, row := range p.Rows {
		writeCounts(row.Key, row.Counts)
	}
	writeCounts(report.TotalLabel, p.Totals)
	return tw.Flush()
}

func newExportCmd(r *runner) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every column and row of the view as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := r.view(cmd.Context())
			if err != nil {
				return err
			}
			frame := v.Project(report.Query{})
			if out == "" || out == "-" {
				return report.WriteCSV(cmd.OutOrStdout(), frame)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := report.WriteCSV(f, frame); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", frame.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
