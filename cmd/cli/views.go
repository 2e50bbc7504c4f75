package main

import (
	"fmt"
	"strconv"

	"capital-risk/internal/analysis"
	"capital-risk/internal/filter"
	"capital-risk/internal/generator"
	"capital-risk/internal/model"

	"github.com/spf13/cobra"
)

func (a *app) plotArg(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 || id > a.cfg.Generator.Plots {
		return 0, fmt.Errorf("plot must be a number between 1 and %d, got %q", a.cfg.Generator.Plots, s)
	}
	return id, nil
}

// facetQuery reads the text flag "q" and the named comma-separated facet flags.
func facetQuery(cmd *cobra.Command, facets ...string) filter.Query {
	text, _ := cmd.Flags().GetString("q")
	q := filter.Query{Text: text}
	for _, f := range facets {
		vals, _ := cmd.Flags().GetStringSlice(f)
		if len(vals) > 0 {
			q = q.With(f, vals...)
		}
	}
	return q
}

func newMetricsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics <plot>",
		Short: "List the candidate distribution fits of an ILD plot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plot, err := a.plotArg(args[0])
			if err != nil {
				return err
			}
			res := filter.Apply(generator.Metrics(plot), facetQuery(cmd, model.FacetDistribution, model.FacetPercentile))
			sortBy, _ := cmd.Flags().GetString("sort")
			ranked, err := analysis.RankMetrics(res.Items, sortBy)
			if err != nil {
				return err
			}
			reg, err := a.selections(cmd.Context())
			if err != nil {
				return err
			}
			chosen, hasChoice := reg.MetricForPlot(plot)

			p := a.palette()
			rows := make([][]string, 0, len(ranked))
			for _, m := range ranked {
				rows = append(rows, []string{
					strconv.Itoa(m.ID),
					m.Distribution,
					strconv.Itoa(m.Percentile),
					fmtFloat(m.RWAX),
					fmt.Sprintf("%.2f", m.AIC),
					fmtFloat(m.Lambda),
					fmtFloat(m.Periods[model.Period202412].RWAX),
					fmtFloat(m.Periods[model.Period202506].RWAX),
					p.change(m.PeriodChange()),
					mark(hasChoice && chosen == m.ID),
				})
			}
			fmt.Fprintf(a.out, "%s\n", p.bold(fmt.Sprintf("ILD Plot %d", plot)))
			if err := renderTable(a.out, []string{"ID", "Distribution", "Pct", "RWA_X", "AIC", "Lambda", model.Period202412, model.Period202506, "Change", "Selected"}, rows, false); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Showing %d of %d metrics\n", len(ranked), res.Total)
			return nil
		},
	}
	cmd.Flags().String("q", "", "Text search over distribution names")
	cmd.Flags().StringSlice(model.FacetDistribution, nil, "Distribution families to keep")
	cmd.Flags().StringSlice(model.FacetPercentile, nil, "Percentiles to keep")
	cmd.Flags().String("sort", "", "Sort key: aic, rwa_x or lambda; prefix with - for descending")
	return cmd
}

func newScenariosCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List scenarios with their logn and par period changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := filter.Apply(generator.Scenarios(a.cfg.Generator.Scenarios), facetQuery(cmd, model.FacetCategory))
			p := a.palette()
			rows := make([][]string, 0, len(res.Items))
			for _, s := range res.Items {
				cmp := analysis.CompareScenario(s)
				row := []string{strconv.Itoa(s.ID), s.Title, s.Category}
				for _, d := range cmp.Distributions {
					row = append(row, fmtFloat(d.RWAXCurrent), p.change(d.RWAXChange))
				}
				rows = append(rows, row)
			}
			if err := renderTable(a.out, []string{"ID", "Title", "Category", "Logn RWA_X", "Logn Change", "Par RWA_X", "Par Change"}, rows, false); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Showing %d of %d scenarios\n", len(res.Items), res.Total)
			return nil
		},
	}
	cmd.Flags().String("q", "", "Text search over title, description and category")
	cmd.Flags().StringSlice(model.FacetCategory, nil, "Categories to keep")
	return cmd
}

func newItemsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List the selection table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.selections(cmd.Context())
			if err != nil {
				return err
			}
			res := filter.Apply(generator.Items(), facetQuery(cmd, model.FacetType, model.FacetStatus, model.FacetCategory))
			snap := reg.Snapshot()
			rows := make([][]string, 0, len(res.Items))
			for _, it := range res.Items {
				rows = append(rows, []string{
					strconv.Itoa(it.ID), it.Name, string(it.Type), it.Category, it.Date, string(it.Status), mark(snap.IsSelected(it.ID)),
				})
			}
			if err := renderTable(a.out, []string{"ID", "Name", "Type", "Category", "Date", "Status", "Selected"}, rows, false); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Showing %d of %d items\n", len(res.Items), res.Total)
			return nil
		},
	}
	cmd.Flags().String("q", "", "Text search over name and category")
	cmd.Flags().StringSlice(model.FacetType, nil, "Item types to keep (ILD, Scenario)")
	cmd.Flags().StringSlice(model.FacetStatus, nil, "Statuses to keep")
	cmd.Flags().StringSlice(model.FacetCategory, nil, "Categories to keep")
	return cmd
}
