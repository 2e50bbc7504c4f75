package main

import (
	"fmt"
	"io"
	"os"

	"capital-risk/internal/export"
	"capital-risk/internal/filter"
	"capital-risk/internal/generator"
	"capital-risk/internal/model"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export metrics or scenarios as CSV or Parquet",
	}
	cmd.PersistentFlags().String("format", string(export.FormatCSV), "Output format: csv or parquet")
	cmd.PersistentFlags().String("out", "", "Output file (stdout when empty)")

	metrics := &cobra.Command{
		Use:   "metrics <plot>",
		Short: "Export the candidate fits of an ILD plot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plot, err := a.plotArg(args[0])
			if err != nil {
				return err
			}
			rows := export.MetricRows(plot, generator.Metrics(plot))
			return writeExport(a, cmd, func(w io.Writer, f export.Format) error {
				return export.Write(w, f, rows)
			}, len(rows))
		},
	}

	scenarios := &cobra.Command{
		Use:   "scenarios",
		Short: "Export scenarios, one row per fitted distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := filter.Apply(generator.Scenarios(a.cfg.Generator.Scenarios), facetQuery(cmd, model.FacetCategory))
			rows := export.ScenarioRows(res.Items)
			return writeExport(a, cmd, func(w io.Writer, f export.Format) error {
				return export.Write(w, f, rows)
			}, len(rows))
		},
	}
	scenarios.Flags().String("q", "", "Text search over title, description and category")
	scenarios.Flags().StringSlice(model.FacetCategory, nil, "Categories to keep")

	cmd.AddCommand(metrics, scenarios)
	return cmd
}

func writeExport(a *app, cmd *cobra.Command, write func(io.Writer, export.Format) error, n int) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		return write(a.out, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote %d rows to %s\n", n, path)
	return nil
}
