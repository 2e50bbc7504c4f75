package main

import (
	"fmt"
	"strconv"
	"strings"

	"capital-risk/internal/generator"
	"capital-risk/internal/model"
	"capital-risk/internal/selection"

	"github.com/spf13/cobra"
)

func newSelectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Change the dashboard selections",
	}

	item := &cobra.Command{
		Use:   "item <id>",
		Short: "Toggle an item of the selection table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("item id must be a number, got %q", args[0])
			}
			typ, _ := cmd.Flags().GetString("type")
			it, known := generator.ItemByID(id)
			switch {
			case known && typ != "" && model.ItemType(typ) != it.Type:
				return fmt.Errorf("%w: item %d has type %s, not %s", selection.ErrInvalidItem, id, it.Type, typ)
			case known:
				typ = string(it.Type)
			case typ == "":
				return fmt.Errorf("item %d not found; pass --type to select it anyway", id)
			}
			reg, err := a.selections(cmd.Context())
			if err != nil {
				return err
			}
			selected, err := reg.Select(cmd.Context(), model.SelectedItem{ID: id, Type: model.ItemType(typ)})
			if err != nil {
				return err
			}
			verb := "Deselected"
			if selected {
				verb = "Selected"
			}
			snap := reg.Snapshot()
			fmt.Fprintf(a.out, "%s %s item %d (%d/%d)\n", verb, typ, id, snap.Count(model.ItemType(typ)), snap.Limits.For(model.ItemType(typ)))
			return nil
		},
	}
	item.Flags().String("type", "", "Item type (ILD or Scenario); looked up when empty")

	metric := &cobra.Command{
		Use:   "metric <plot> <metric|none>",
		Short: "Choose the metric shown for an ILD plot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plot, err := a.plotArg(args[0])
			if err != nil {
				return err
			}
			var metricID *int
			if !strings.EqualFold(args[1], "none") {
				id, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("metric must be a number or none, got %q", args[1])
				}
				if _, found := generator.Metric(plot, id); !found {
					return fmt.Errorf("metric %d not found for ILD plot %d", id, plot)
				}
				metricID = &id
			}
			reg, err := a.selections(cmd.Context())
			if err != nil {
				return err
			}
			if err := reg.SetMetricForPlot(cmd.Context(), plot, metricID); err != nil {
				return err
			}
			if metricID == nil {
				fmt.Fprintf(a.out, "Cleared metric for ILD plot %d\n", plot)
			} else {
				fmt.Fprintf(a.out, "Selected metric %d for ILD plot %d\n", *metricID, plot)
			}
			return nil
		},
	}

	cmd.AddCommand(item, metric)
	return cmd
}

func newSelectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selections",
		Short: "Show the current selections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.selections(cmd.Context())
			if err != nil {
				return err
			}
			if clearAll, _ := cmd.Flags().GetBool("clear"); clearAll {
				if err := reg.ClearAll(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Cleared all selections")
				return nil
			}

			p := a.palette()
			snap := reg.Snapshot()
			fmt.Fprintf(a.out, "%s %d/%d   %s %d/%d\n",
				p.bold("ILD:"), snap.Count(model.ItemILD), snap.Limits.ILD,
				p.bold("Scenario:"), snap.Count(model.ItemScenario), snap.Limits.Scenario)

			items := snap.Items
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				name := ""
				if known, found := generator.ItemByID(it.ID); found {
					name = known.Name
				}
				rows = append(rows, []string{strconv.Itoa(it.ID), string(it.Type), name})
			}
			if err := renderTable(a.out, []string{"ID", "Type", "Name"}, rows, false); err != nil {
				return err
			}

			metrics := snap.Metrics
			rows = make([][]string, 0, len(metrics))
			for _, m := range metrics {
				dist := ""
				if known, found := generator.Metric(m.ILDID, m.MetricID); found {
					dist = fmt.Sprintf("%s p%d", known.Distribution, known.Percentile)
				}
				rows = append(rows, []string{strconv.Itoa(m.ILDID), strconv.Itoa(m.MetricID), dist})
			}
			return renderTable(a.out, []string{"ILD Plot", "Metric", "Fit"}, rows, false)
		},
	}
	cmd.Flags().Bool("clear", false, "Clear every selection")
	return cmd
}
