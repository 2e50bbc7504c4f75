package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"capital-risk/internal/config"
	"capital-risk/internal/data"
	"capital-risk/internal/logger"
	"capital-risk/internal/selection"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// app holds what a command needs once flags, env and the config file are
// resolved. The data source and selection registry are opened on first use.
type app struct {
	v      *viper.Viper
	out    io.Writer
	cfg    *config.Config
	log    *logger.Logger
	colors bool

	source   data.Source
	registry *selection.Registry
	closers  []func() error
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out}

	root := &cobra.Command{
		Use:           "caprisk",
		Short:         "Inspect ILD metrics, scenarios, selections and capital runs.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to YAML config file")
	flags.String("mode", "", "Data source mode: live, fixture or fallback")
	flags.String("url", "", "Base URL of the capital-risk API")
	flags.String("selections", "", "Selection state file (file backend)")
	flags.String("log-mode", "production", "Log output: development, production or off")
	flags.Bool("no-color", false, "Disable coloured output")
	if err := a.v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("bind flags: %v", err))
	}
	a.v.SetEnvPrefix("CAPRISK")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newMetricsCmd(a),
		newScenariosCmd(a),
		newItemsCmd(a),
		newSelectCmd(a),
		newSelectionsCmd(a),
		newRunsCmd(a),
		newReferenceCmd(a),
		newExportCmd(a),
	)
	return root
}

// setup merges the config file, environment and flags, flags winning.
func (a *app) setup() error {
	cfg, err := config.LoadUnchecked(a.v.GetString("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	if v := a.v.GetString("mode"); v != "" {
		cfg.DataSource.Mode = v
	}
	if v := a.v.GetString("url"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := a.v.GetString("selections"); v != "" {
		cfg.Selection.Backend = "file"
		cfg.Selection.File = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	switch mode := a.v.GetString("log-mode"); mode {
	case "off":
		a.log = logger.Nop()
	default:
		if a.log, err = logger.New(mode); err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
	}
	a.colors = !a.v.GetBool("no-color") && isTerminal(a.out)
	return nil
}

// isTerminal reports whether w is an interactive terminal; colours are only
// emitted there.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	if a.log != nil {
		a.log.Sync()
	}
	return firstErr
}

func (a *app) dataSource() (data.Source, error) {
	if a.source == nil {
		src, err := data.NewSource(a.cfg.DataSource, a.log)
		if err != nil {
			return nil, err
		}
		a.source = src
	}
	return a.source, nil
}

func (a *app) selections(ctx context.Context) (*selection.Registry, error) {
	if a.registry != nil {
		return a.registry, nil
	}
	store, closeFn, err := selection.Open(ctx, a.cfg.Selection)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeFn)
	reg, err := selection.NewRegistry(ctx, store, selection.LimitsFrom(a.cfg.Selection), a.log)
	if err != nil {
		return nil, err
	}
	a.registry = reg
	return reg, nil
}
