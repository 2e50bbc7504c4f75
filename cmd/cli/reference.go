package main

import (
	"fmt"
	"strings"
	"time"

	"capital-risk/internal/data"
	"capital-risk/internal/model"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newReferenceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Show business units with their products and Basel event types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := a.dataSource()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			names, err := src.BusinessUnits(ctx)
			if err != nil {
				return err
			}
			only, _ := cmd.Flags().GetString("business-unit")

			var selected []string
			for _, name := range names {
				if only == "" || name == only {
					selected = append(selected, name)
				}
			}

			units := make([]model.BusinessUnit, len(selected))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(4)
			for i, name := range selected {
				g.Go(func() error {
					products, err := src.Products(gctx, name)
					if err != nil {
						return err
					}
					basel, err := src.BaselEventTypes(gctx, name)
					if err != nil {
						return err
					}
					units[i] = model.BusinessUnit{Name: name, Products: products, BaselEventTypes: basel}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if path, _ := cmd.Flags().GetString("save"); path != "" {
				ref := &data.ReferenceFile{UpdatedAt: time.Now().UTC().Format(time.RFC3339), BusinessUnits: units}
				if err := data.SaveReferenceFile(ref, path); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Saved %d business units to %s\n", len(units), path)
				return nil
			}

			rows := make([][]string, 0, len(units))
			for _, u := range units {
				rows = append(rows, []string{u.Name, strings.Join(u.Products, ", "), strings.Join(u.BaselEventTypes, ", ")})
			}
			return renderTable(a.out, []string{"Business Unit", "Products", "Basel Event Types"}, rows, false)
		},
	}
	cmd.Flags().String("business-unit", "", "Show a single business unit")
	cmd.Flags().String("save", "", "Write the reference data to a JSON or YAML file instead of printing it")
	return cmd
}
