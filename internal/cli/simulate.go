package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/proxprefetch/pkg/sim"
)

// simulateOpts holds the command-line flags for the simulate command.
type simulateOpts struct {
	options  optionFlags
	jsonOut  bool
	traceLog bool
}

// simulateCommand replays a scenario file against the tracker.
func (c *CLI) simulateCommand() *cobra.Command {
	var opts simulateOpts

	cmd := &cobra.Command{
		Use:   "simulate <scenario>",
		Short: "Replay a pointer trace against the prefetch heuristic",
		Long: `Replay a scenario (.toml, .yaml, .yml or .json) on a virtual clock and report
which links would be prefetched, when, and at what distance. Option flags
override the scenario's [options] table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSimulate(cmd, args[0], &opts)
		},
	}

	opts.options.register(cmd, false)
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&opts.traceLog, "trace", false, "log every tracker pass")

	return cmd
}

func (c *CLI) runSimulate(cmd *cobra.Command, path string, opts *simulateOpts) error {
	s, err := sim.LoadScenario(path)
	if err != nil {
		return err
	}

	simOpts := sim.Options{Override: opts.options.overrides(cmd).Options}
	if opts.traceLog {
		simOpts.Logger = c.Logger.WithPrefix("ProximityPrefetch")
		simOpts.Logger.SetLevel(LogDebug)
	}
	report, err := sim.Run(s, simOpts)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		return writeReportJSON(cmd.OutOrStdout(), report)
	}
	printSimReport(cmd.OutOrStdout(), report)
	return nil
}

// reportJSON is the --json encoding of a sim.Report.
type reportJSON struct {
	Scenario   string         `json:"scenario"`
	UntilMS    int64          `json:"untilMs"`
	Dispatches []dispatchJSON `json:"dispatches"`
	Failures   []failureJSON  `json:"failures"`
	Passes     int            `json:"passes"`
	Throttled  int            `json:"throttled"`
}

type dispatchJSON struct {
	Href     string   `json:"href"`
	AtMS     int64    `json:"atMs"`
	Trigger  string   `json:"trigger"`
	Distance *float64 `json:"distance,omitempty"`
	Markup   string   `json:"markup"`
}

type failureJSON struct {
	Href string `json:"href"`
	AtMS int64  `json:"atMs"`
}

func writeReportJSON(w io.Writer, r *sim.Report) error {
	out := reportJSON{
		Scenario:   r.Scenario,
		UntilMS:    r.Until.Milliseconds(),
		Dispatches: []dispatchJSON{},
		Failures:   []failureJSON{},
		Passes:     r.Stats.Passes,
		Throttled:  r.Stats.Throttled,
	}
	for _, d := range r.Dispatches {
		dj := dispatchJSON{Href: d.Href, AtMS: d.At.Milliseconds(), Trigger: string(d.Trigger), Markup: d.Markup}
		if d.HasPosition {
			dist := d.Distance
			dj.Distance = &dist
		}
		out.Dispatches = append(out.Dispatches, dj)
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, failureJSON{Href: f.Href, AtMS: f.At.Milliseconds()})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// printSimReport renders the dispatch timeline as a table.
func printSimReport(w io.Writer, r *sim.Report) {
	fmt.Fprintln(w, StyleTitle.Render(r.Scenario))
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("threshold %.0fpx · max %d · interval %s · %s simulated",
		r.Config.Threshold, r.Config.MaxPrefetch, intervalLabel(r.Config.PredictionInterval.Milliseconds()), r.Until)))
	fmt.Fprintln(w)

	if len(r.Dispatches) == 0 {
		fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" No links prefetched")
	} else {
		rows := make([][]string, 0, len(r.Dispatches))
		for _, d := range r.Dispatches {
			dist := "—"
			if d.HasPosition {
				dist = fmt.Sprintf("%.1f", d.Distance)
			}
			rows = append(rows, []string{fmt.Sprintf("%dms", d.At.Milliseconds()), d.Href, string(d.Trigger), dist})
		}

		headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
			Headers("At", "Route", "Trigger", "Distance").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == -1:
					return headerStyle
				case col == 1:
					return lipgloss.NewStyle().Foreground(colorGreen)
				default:
					return lipgloss.NewStyle().Foreground(colorGray)
				}
			})
		fmt.Fprintln(w, t.Render())
	}

	for _, f := range r.Failures {
		fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf("%dms %s failed", f.At.Milliseconds(), f.Href))
	}

	parts := []string{
		fmt.Sprintf("%d prefetched", len(r.Dispatches)),
		fmt.Sprintf("%d passes", r.Stats.Passes),
		fmt.Sprintf("%d throttled", r.Stats.Throttled),
	}
	if len(r.Failures) > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", len(r.Failures)))
	}
	fmt.Fprintln(w, "  "+StyleDim.Render(strings.Join(parts, " · ")))
}

func intervalLabel(ms int64) string {
	if ms == 0 {
		return "on move"
	}
	return fmt.Sprintf("%dms", ms)
}
