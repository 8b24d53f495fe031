package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"hypotest/adapters/excel"
	"hypotest/app"
	"hypotest/internal/profiling"
	"hypotest/models"
)

func newCompareCmd() *cobra.Command {
	var (
		sheet, groupColumn, valueColumn string
		groupA, groupB                  string
		method, alternative, format     string
		alpha                           float64
		save                            bool
	)

	cmd := &cobra.Command{
		Use:   "compare [data-file]",
		Short: "Compare the mean of a column between two groups",
		Long: `Split a CSV or XLSX file by a grouping column and test whether the mean of a
numeric column differs between two of its groups.

Rows whose value is missing or non-numeric are skipped and reported.

Example: hypotest-cli compare trips.csv --group-column weather --value-column duration --a Good --b Bad`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := serviceFor(cmd.Context(), save)
			if err != nil {
				return err
			}
			defer closeFn()

			table, err := excel.LoadTable(args[0], sheet)
			if err != nil {
				return err
			}

			opts := app.Options{Method: method, Alternative: alternative}
			if cmd.Flags().Changed("alpha") {
				opts.Alpha = &alpha
			}

			comparison, err := svc.CompareGroups(cmd.Context(), table, app.GroupRequest{
				Name:        valueColumn + " by " + groupColumn,
				GroupColumn: groupColumn,
				ValueColumn: valueColumn,
				GroupA:      groupA,
				GroupB:      groupB,
				Options:     opts,
			})
			if err != nil {
				return err
			}

			out, err := app.RenderReport([]*models.Comparison{comparison}, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name for XLSX files (default: first sheet)")
	cmd.Flags().StringVar(&groupColumn, "group-column", "", "Column holding the group labels")
	cmd.Flags().StringVar(&valueColumn, "value-column", "", "Numeric column to compare")
	cmd.Flags().StringVar(&groupA, "a", "", "First group label")
	cmd.Flags().StringVar(&groupB, "b", "", "Second group label")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Significance level")
	cmd.Flags().StringVar(&method, "method", "", "Test method: welch|student (default from TEST_METHOD)")
	cmd.Flags().StringVar(&alternative, "alternative", "", "Alternative: two-sided|less|greater (default from TEST_ALTERNATIVE)")
	cmd.Flags().StringVar(&format, "format", app.FormatMarkdown, "Output format: markdown|html|json")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the result to DATABASE_URL")
	for _, name := range []string{"group-column", "value-column", "a", "b"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		format      string
		concurrency int
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "run [plan.yaml]",
		Short: "Run every comparison listed in a YAML plan",
		Long: `Run a batch of group comparisons described by a YAML plan file.

Data file paths in the plan are relative to the plan's directory. Each file is
read once however many comparisons use it.

Example: hypotest-cli run plans/weather.yaml --format html > report.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := app.LoadPlan(args[0])
			if err != nil {
				return err
			}
			if concurrency > 0 {
				plan.Concurrency = concurrency
			}

			svc, closeFn, err := serviceFor(cmd.Context(), save)
			if err != nil {
				return err
			}
			defer closeFn()

			results, err := svc.RunPlan(cmd.Context(), plan, excel.LoadTable)
			if err != nil {
				return err
			}

			out, err := app.RenderReport(results, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", app.FormatMarkdown, "Output format: markdown|html|json")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Comparisons run in parallel (default from plan or PLAN_CONCURRENCY)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the results to DATABASE_URL")

	return cmd
}

func newGroupsCmd() *cobra.Command {
	var sheet, column string

	cmd := &cobra.Command{
		Use:   "groups [data-file]",
		Short: "Count rows per distinct value of a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := excel.LoadTable(args[0], sheet)
			if err != nil {
				return err
			}
			counts, err := table.ValueCounts(column)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, vc := range counts {
				fmt.Fprintf(w, "%-24s %d\n", displayValue(vc.Value), vc.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name for XLSX files")
	cmd.Flags().StringVar(&column, "column", "", "Column to count")
	_ = cmd.MarkFlagRequired("column")

	return cmd
}

func newMissingCmd() *cobra.Command {
	var sheet string

	cmd := &cobra.Command{
		Use:   "missing [data-file]",
		Short: "Report missing values per column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := excel.LoadTable(args[0], sheet)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d rows\n", table.Len())
			for _, mc := range table.MissingCounts() {
				fmt.Fprintf(w, "%-24s %6d %6.2f%%\n", mc.Column, mc.Missing, mc.Percent)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name for XLSX files")

	return cmd
}

func newDescribeCmd() *cobra.Command {
	var sheet, column, groupColumn string

	cmd := &cobra.Command{
		Use:   "describe [data-file]",
		Short: "Summarize a numeric column, optionally per group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := excel.LoadTable(args[0], sheet)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if groupColumn == "" {
				values, skipped, err := table.NumericColumn(column)
				if err != nil {
					return err
				}
				return printSummary(w, column, values, skipped)
			}

			groups, err := table.ValueCounts(groupColumn)
			if err != nil {
				return err
			}
			for _, g := range groups {
				values, skipped, err := table.NumericWhere(groupColumn, g.Value, column)
				if err != nil {
					return err
				}
				if len(values) == 0 {
					continue
				}
				if err := printSummary(w, displayValue(g.Value), values, skipped); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name for XLSX files")
	cmd.Flags().StringVar(&column, "column", "", "Numeric column to summarize")
	cmd.Flags().StringVar(&groupColumn, "group-column", "", "Summarize separately for each value of this column")
	_ = cmd.MarkFlagRequired("column")

	return cmd
}

func newTopCmd() *cobra.Command {
	var (
		sheet, column string
		n             int
	)

	cmd := &cobra.Command{
		Use:   "top [data-file]",
		Short: "List the rows with the largest values of a numeric column",
		Long: `Print the header and the n rows with the largest numeric value in a column,
largest first, tab separated. Rows whose value is missing or non-numeric are left
out and equal values keep their file order.

Example: hypotest-cli top companies.csv --column trips_amount --n 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := excel.LoadTable(args[0], sheet)
			if err != nil {
				return err
			}
			rows, err := table.TopN(column, n)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, strings.Join(table.Headers, "\t"))
			cells := make([]string, len(table.Headers))
			for _, row := range rows {
				for i, h := range table.Headers {
					cells[i] = row[h]
				}
				fmt.Fprintln(w, strings.Join(cells, "\t"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name for XLSX files")
	cmd.Flags().StringVar(&column, "column", "", "Numeric column to rank by")
	cmd.Flags().IntVar(&n, "n", 10, "Number of rows to print")
	_ = cmd.MarkFlagRequired("column")

	return cmd
}

func printSummary(w io.Writer, label string, values []float64, skipped int) error {
	s, err := profiling.Describe(values)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", label)
	fmt.Fprintf(w, "  n=%d skipped=%d\n", s.N, skipped)
	fmt.Fprintf(w, "  mean=%.4g sd=%.4g\n", s.Mean, s.StdDev)
	fmt.Fprintf(w, "  min=%.4g q25=%.4g median=%.4g q75=%.4g max=%.4g\n", s.Min, s.Q25, s.Median, s.Q75, s.Max)
	return nil
}

func displayValue(v string) string {
	if v == "" {
		return "(blank)"
	}
	return v
}
