package main

import (
	"fmt"
	"io"

	"capital-risk/internal/model"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// palette returns colour functions, or plain fmt.Sprint when colours are off.
type palette struct {
	red, green, yellow, bold func(...any) string
}

func (a *app) palette() palette {
	if !a.colors {
		return palette{red: fmt.Sprint, green: fmt.Sprint, yellow: fmt.Sprint, bold: fmt.Sprint}
	}
	return palette{
		red:    color.New(color.FgRed).SprintFunc(),
		green:  color.New(color.FgGreen).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		bold:   color.New(color.Bold).SprintFunc(),
	}
}

func renderTable(w io.Writer, headers []string, rows [][]string, alignRight bool) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header(headers)
	if alignRight {
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// change formats a percentage change with its trend arrow.
func (p palette) change(pct float64) string {
	switch model.TrendOf(pct) {
	case model.TrendUp:
		return p.red(fmt.Sprintf("+%.2f%% ▲", pct))
	case model.TrendDown:
		return p.green(fmt.Sprintf("%.2f%% ▼", pct))
	}
	return p.yellow("0.00%")
}

func mark(selected bool) string {
	if selected {
		return "✓"
	}
	return ""
}

// printResult reports a write call. A result without Success becomes the
// command's error so the exit status reflects it.
func (a *app) printResult(res model.CreateResult) error {
	p := a.palette()
	if !res.Success {
		fmt.Fprintln(a.out, p.red(res.Message))
		return fmt.Errorf("request failed: %s", res.Message)
	}
	msg := res.Message
	if res.ID != "" {
		msg = fmt.Sprintf("%s (id %s)", msg, res.ID)
	}
	fmt.Fprintln(a.out, p.green(msg))
	return nil
}

func fmtFloat(x float64) string {
	return fmt.Sprintf("%.4f", x)
}
