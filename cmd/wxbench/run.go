package main

import (
	"fmt"

	"wxbench/internal/bench"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <benchmark>",
	Short: "Run a single benchmark",
	Long: `Runs one benchmark against the current build for the configured number
of repetitions, parses the timing report, and stores the runs and their
aggregate in the results database.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntP("num-runs", "n", 0, "Number of runs to average")
	runCmd.Flags().Int("num-procs", 0, "MPI processes (0 = serial)")
	runCmd.Flags().String("source-dir", "", "Simulator source directory")
	runCmd.Flags().String("build-dir", "", "Simulator build directory")
	runCmd.Flags().String("build-type", "", "CMake build type")
	runCmd.Flags().String("work-dir", "", "Working directory for benchmark runs")
	runCmd.Flags().String("benchmarks-dir", "", "Directory holding benchmark input files")
}

func runRun(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runner, buildID, sha, err := newBenchRunner(cmd, store)
	if err != nil {
		return err
	}

	benchmarksDir := stringOpt(cmd, "benchmarks-dir", "paths.benchmarks_dir")
	inputFile, err := bench.InputFile(benchmarksDir, args[0])
	if err != nil {
		return err
	}

	numRuns := intOpt(cmd, "num-runs", "run.num_runs")
	numProcs, _ := cmd.Flags().GetInt("num-procs")

	sweep, err := runner.RunAveraged(cmd.Context(), args[0], inputFile, buildID, sha, numRuns, numProcs)
	if err != nil {
		return err
	}
	if !sweep.Succeeded() {
		return fmt.Errorf("all %d runs of %q failed", numRuns, args[0])
	}
	return nil
}
