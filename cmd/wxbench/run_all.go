package main

import (
	"fmt"
	"strings"

	"wxbench/internal/bench"
	"wxbench/internal/config"

	"github.com/spf13/cobra"
)

var runAllCmd = &cobra.Command{
	Use:   "run-all",
	Short: "Run all benchmarks at each configured process count",
	RunE:  runRunAll,
}

func init() {
	rootCmd.AddCommand(runAllCmd)
	runAllCmd.Flags().IntP("num-runs", "n", 0, "Number of runs to average per benchmark")
	runAllCmd.Flags().String("num-procs", "", "Comma-separated list of MPI process counts (0 = serial)")
	runAllCmd.Flags().String("source-dir", "", "Simulator source directory")
	runAllCmd.Flags().String("build-dir", "", "Simulator build directory")
	runAllCmd.Flags().String("build-type", "", "CMake build type")
	runAllCmd.Flags().String("work-dir", "", "Working directory for benchmark runs")
	runAllCmd.Flags().String("benchmarks-dir", "", "Directory holding benchmark input files")
}

func runRunAll(cmd *cobra.Command, args []string) error {
	procCounts, err := config.ParseProcCounts(stringOpt(cmd, "num-procs", "run.num_procs"))
	if err != nil {
		return err
	}

	benchmarksDir := stringOpt(cmd, "benchmarks-dir", "paths.benchmarks_dir")
	benchmarks, err := bench.List(benchmarksDir)
	if err != nil {
		return err
	}
	if len(benchmarks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No benchmark .inp files found.")
		return nil
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runner, buildID, sha, err := newBenchRunner(cmd, store)
	if err != nil {
		return err
	}

	numRuns := intOpt(cmd, "num-runs", "run.num_runs")

	fmt.Fprintf(cmd.OutOrStdout(), "Running %d benchmark(s) x %d process count(s)\n",
		len(benchmarks), len(procCounts))
	fmt.Fprintf(cmd.OutOrStdout(), "  Benchmarks:     %s\n", strings.Join(benchmarks, ", "))
	fmt.Fprintf(cmd.OutOrStdout(), "  Process counts: %v\n", procCounts)

	return runner.Sweep(cmd.Context(), benchmarksDir, benchmarks, procCounts, numRuns, buildID, sha)
}
