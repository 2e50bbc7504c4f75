package main

import (
	"fmt"
	"os"
	"path/filepath"

	"capital-risk/internal/model"

	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage actual, experiment and scenario capital runs",
	}
	cmd.AddCommand(
		newRunsListCmd(a),
		newCreateActualCmd(a),
		newCreateExperimentCmd(a),
		newCreateScenarioCmd(a),
		newUpdateScenarioCmd(a),
		newDeleteRunCmd(a),
		newUploadCmd(a),
		newResetCmd(a),
	)
	return cmd
}

func newRunsListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := a.dataSource()
			if err != nil {
				return err
			}
			kind, _ := cmd.Flags().GetString("kind")
			ctx := cmd.Context()
			p := a.palette()

			if kind == "all" || kind == "actual" {
				list, err := src.ActualRuns(ctx)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(list))
				for _, r := range list {
					rows = append(rows, []string{r.ID, r.BusinessUnit, r.Product, r.BaselEventType, r.RunDate, r.Description, r.CreatedAt})
				}
				fmt.Fprintln(a.out, p.bold("Actual runs"))
				if err := renderTable(a.out, []string{"ID", "Business Unit", "Product", "Basel Event", "Run Date", "Description", "Created"}, rows, false); err != nil {
					return err
				}
			}
			if kind == "all" || kind == "experiment" {
				list, err := src.ExperimentRuns(ctx)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(list))
				for _, r := range list {
					var v model.FrequencyValues
					if r.Values != nil {
						v = *r.Values
					}
					rows = append(rows, []string{r.ID, r.ExperimentName, r.BusinessUnit, r.Product, r.BaselEventType, v.OneIn2, v.OneIn5, v.OneIn10, v.OneIn20})
				}
				fmt.Fprintln(a.out, p.bold("Experiment runs"))
				if err := renderTable(a.out, []string{"ID", "Name", "Business Unit", "Product", "Basel Event", "1in2", "1in5", "1in10", "1in20"}, rows, false); err != nil {
					return err
				}
			}
			if kind == "all" || kind == "scenario" {
				list, err := src.ScenarioRuns(ctx)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(list))
				for _, r := range list {
					rows = append(rows, []string{r.ID, r.Name, r.BusinessUnit, r.Product, r.Status, r.CreatedAt})
				}
				fmt.Fprintln(a.out, p.bold("Scenario runs"))
				if err := renderTable(a.out, []string{"ID", "Name", "Business Unit", "Product", "Status", "Created"}, rows, false); err != nil {
					return err
				}
			}
			switch kind {
			case "all", "actual", "experiment", "scenario":
				return nil
			}
			return fmt.Errorf("unknown run kind %q: use actual, experiment, scenario or all", kind)
		},
	}
	cmd.Flags().String("kind", "all", "Run kind: actual, experiment, scenario or all")
	return cmd
}

// classificationFlags registers the business unit, product and Basel event
// type flags shared by the create commands.
func classificationFlags(cmd *cobra.Command) {
	cmd.Flags().String("business-unit", "", "Business unit")
	cmd.Flags().String("product", "", "Product")
	cmd.Flags().String("basel-event-type", "", "Basel event type")
}

func runBase(cmd *cobra.Command) model.RunBase {
	bu, _ := cmd.Flags().GetString("business-unit")
	product, _ := cmd.Flags().GetString("product")
	basel, _ := cmd.Flags().GetString("basel-event-type")
	desc, _ := cmd.Flags().GetString("description")
	return model.RunBase{BusinessUnit: bu, Product: product, BaselEventType: basel, Description: desc}
}

func newCreateActualCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-actual",
		Short: "Record an actual run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := a.dataSource()
			if err != nil {
				return err
			}
			date, _ := cmd.Flags().GetString("date")
			res, err := src.CreateActualRun(cmd.Context(), model.ActualRun{RunBase: runBase(cmd), RunDate: date})
			if err != nil {
				return err
			}
			return a.printResult(res)
		},
	}
	classificationFlags(cmd)
	cmd.Flags().String("date", "", "Run date (YYYY-MM-DD)")
	cmd.Flags().String("description", "", "Free-text description")
	return cmd
}

func newCreateExperimentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-experiment",
		Short: "Record an experiment run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := a.dataSource()
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			var v model.FrequencyValues
			v.OneIn2, _ = cmd.Flags().GetString("1in2")
			v.OneIn5, _ = cmd.Flags().GetString("1in5")
			v.OneIn10, _ = cmd.Flags().GetString("1in10")
			v.OneIn20, _ = cmd.Flags().GetString("1in20")

			run := model.ExperimentRun{RunBase: runBase(cmd), ExperimentName: name}
			if !v.IsZero() {
				run.Values = &v
			}
			res, err := src.CreateExperimentRun(cmd.Context(), run)
			if err != nil {
				return err
			}
			return a.printResult(res)
		},
	}
	classificationFlags(cmd)
	cmd.Flags().String("name", "", "Experiment name")
	cmd.Flags().String("description", "", "Free-text description")
	for _, col := range []string{"1in2", "1in5", "1in10", "1in20"} {
		cmd.Flags().String(col, "", "Loss value for the "+col+" year frequency")
	}
	return cmd
}

func newCreateScenarioCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-scenario",
		Short: "Start a scenario run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := a.dataSource()
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			bu, _ := cmd.Flags().GetString("business-unit")
			product, _ := cmd.Flags().GetString("product")
			res, err := src.CreateScenarioRun(cmd.Context(), model.ScenarioRun{Name: name, BusinessUnit: bu, Product: product})
			if err != nil {
				return err
			}
			return a.printResult(res)
		},
	}
	cmd.Flags().String("name", "", "Scenario run name")
	cmd.Flags().String("business-unit", "", "Business unit")
	cmd.Flags().String("product", "", "Product")
	return cmd
}

func newUpdateScenarioCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-scenario <id>",
		Short: "Change the status of a scenario run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.dataSource()
			if err != nil {
				return err
			}
			status, _ := cmd.Flags().GetString("status")
			res, err := src.UpdateScenarioRun(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			return a.printResult(res)
		},
	}
	cmd.Flags().String("status", "completed", "New status")
	return cmd
}

func newDeleteRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an experiment run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.dataSource()
			if err != nil {
				return err
			}
			res, err := src.DeleteExperimentRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printResult(res)
		},
	}
}

func newUploadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Import experiment runs from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.dataSource()
			if err != nil {
				return err
			}
			bu, _ := cmd.Flags().GetString("business-unit")
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			res, err := src.UploadCSV(cmd.Context(), bu, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			return a.printResult(res)
		},
	}
	cmd.Flags().String("business-unit", "", "Business unit the rows belong to")
	return cmd
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove every stored run and restore the reference data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := a.dataSource()
			if err != nil {
				return err
			}
			res, err := src.ResetData(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(res)
		},
	}
}
