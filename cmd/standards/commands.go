package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smartfarm/flock-performance-service/internal/adapter/xlsx"
	"github.com/smartfarm/flock-performance-service/internal/standard"
)

// errRowsSkipped makes check exit non-zero once the report is printed.
var errRowsSkipped = errors.New("rows were skipped")

func newRootCmd() *cobra.Command {
	var file string

	root := &cobra.Command{
		Use:           "standards",
		Short:         "Inspect a poultry breed standard table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&file, "file", "", "semicolon-delimited standard table (default: embedded Hy-Line Max Pro)")

	load := func() (*standard.Table, standard.Report, error) {
		return standard.LoadFile(file)
	}

	root.AddCommand(
		newCheckCmd(load),
		newWeekCmd(load),
		newRangeCmd(load),
		newExportCmd(load),
	)
	return root
}

type loader func() (*standard.Table, standard.Report, error)

func newCheckCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Parse the table and list skipped rows and unreadable cells",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, report, err := load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "records: %d (weeks %s)\n", report.Records, weekSpan(table.Weeks()))
			fmt.Fprintf(out, "skipped rows: %d\n", len(report.Skipped))
			for _, s := range report.Skipped {
				fmt.Fprintf(out, "  %s\n", s)
			}
			fmt.Fprintf(out, "unreadable cells: %d\n", len(report.BadCells))
			for _, c := range report.BadCells {
				fmt.Fprintf(out, "  %s\n", c)
			}

			if len(report.Skipped) > 0 {
				return errRowsSkipped
			}
			return nil
		},
	}
}

func newWeekCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "week N",
		Short: "Print the standard for one week of age as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("week must be an integer: %q", args[0])
			}
			table, _, err := load()
			if err != nil {
				return err
			}

			ws, ok := table.ForWeek(week)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "week %d: not found\n", week)
				return nil
			}
			return printJSON(cmd.OutOrStdout(), ws)
		},
	}
}

func newRangeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "range FROM TO",
		Short: "Print the standards for an inclusive week range as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("from must be an integer: %q", args[0])
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("to must be an integer: %q", args[1])
			}
			table, _, err := load()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), table.ForWeekRange(from, to))
		},
	}
}

func newExportCmd(load loader) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the table to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, _, err := load()
			if err != nil {
				return err
			}
			if err := xlsx.WriteFile(table, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d weeks to %s\n", table.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output .xlsx path")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func weekSpan(weeks []int) string {
	if len(weeks) == 0 {
		return "none"
	}
	return fmt.Sprintf("%d-%d", weeks[0], weeks[len(weeks)-1])
}
