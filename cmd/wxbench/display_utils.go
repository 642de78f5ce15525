package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"wxbench/internal/db"
	"wxbench/internal/git"

	"github.com/spf13/cobra"
)

// displayAggregate formats and prints one stored aggregate with its
// per-scope timings.
func displayAggregate(cmd *cobra.Command, agg db.Aggregate, scopes []db.ScopeStat) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(out, "Benchmark:   %s\n", agg.BenchmarkName)
	fmt.Fprintf(out, "Hardware:    %s\n", agg.HardwareID)
	fmt.Fprintf(out, "Git SHA:     %s\n", git.ShortSHA(agg.GitSHA))
	if agg.NumProcs > 0 {
		fmt.Fprintf(out, "Processes:   %d\n", agg.NumProcs)
	} else {
		fmt.Fprintf(out, "Processes:   serial\n")
	}
	fmt.Fprintf(out, "Runs:        %d\n", agg.NumRuns)
	fmt.Fprintf(out, "Mean wall:   %.3fs\n", agg.MeanWallTimeS)
	if agg.StddevWallTimeS != nil {
		fmt.Fprintf(out, "Std dev:     %.3fs\n", *agg.StddevWallTimeS)
	}
	fmt.Fprintf(out, "Computed at: %s (%s)\n",
		agg.ComputedAt.Local().Format("2006-01-02 15:04:05"), formatAge(agg.ComputedAt))

	if len(scopes) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "\nSCOPE\tMEAN (MS)\tSTDDEV (MS)")
	for _, s := range scopes {
		stddev := "n/a"
		if s.StddevElapsedMS != nil {
			stddev = fmt.Sprintf("%.2f", *s.StddevElapsedMS)
		}
		fmt.Fprintf(w, "%s\t%.2f\t%s\n", s.Scope, s.MeanElapsedMS, stddev)
	}
	w.Flush()
}

// formatAge returns a compact human-readable age for a timestamp.
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}

	const day = 24 * time.Hour

	age := time.Since(t)
	if age < 0 {
		age = 0
	}

	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < day:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
