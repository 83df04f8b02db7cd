package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
	"github.com/spf13/cobra"
)

var trendsSince string

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Chart the 7-day rolling distance in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := dashboard.ParseFilter(nil, nil, trendsSince)
		if err != nil {
			return err
		}

		svc, closeStore, err := openDashboard(cmd.Context(), runtimeConfig(cmd).DBPath)
		if err != nil {
			return err
		}
		defer closeStore()

		days, err := svc.RollingStats(cmd.Context(), f.StartDate)
		if err != nil {
			return err
		}
		renderTrends(cmd.OutOrStdout(), days)
		return nil
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the activity tags and types in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openDashboard(cmd.Context(), runtimeConfig(cmd).DBPath)
		if err != nil {
			return err
		}
		defer closeStore()

		tags, err := svc.Tags(cmd.Context())
		if err != nil {
			return err
		}
		types, err := svc.Types(cmd.Context())
		if err != nil {
			return err
		}
		renderFilters(cmd.OutOrStdout(), tags, types)
		return nil
	},
}

func init() {
	trendsCmd.Flags().StringVar(&trendsSince, "since", "", "first day to chart (YYYY-MM-DD)")
	rootCmd.AddCommand(trendsCmd, tagsCmd)
}

// renderTrends plots the 7-day distance and lists the latest day.
func renderTrends(w io.Writer, days []dashboard.RollingStat) {
	if len(days) == 0 {
		fmt.Fprintln(w, "No rolling statistics yet: the store needs seven days of history.")
		return
	}

	series := make([]float64, len(days))
	for i, d := range days {
		series[i] = d.Distance7d
	}

	if len(series) > 1 {
		fmt.Fprintln(w, asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Precision(1),
			asciigraph.Caption(fmt.Sprintf("7-day distance (km), %s to %s", days[0].Day, days[len(days)-1].Day)),
		))
		fmt.Fprintln(w)
	}

	latest := days[len(days)-1]
	fmt.Fprintf(w, "%s  7d: %.1f km / %.0f min", latest.Day, latest.Distance7d, latest.Duration7d)
	if latest.Distance10d != nil && latest.Duration10d != nil {
		fmt.Fprintf(w, "  10d: %.1f km / %.0f min", *latest.Distance10d, *latest.Duration10d)
	}
	fmt.Fprintln(w)
}

// renderFilters prints the tags and types offered as activity filters.
func renderFilters(w io.Writer, tags, types []string) {
	fmt.Fprintf(w, "Types (%d): %s\n", len(types), joinOrNone(types))
	fmt.Fprintf(w, "Tags (%d): %s\n", len(tags), joinOrNone(tags))
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
