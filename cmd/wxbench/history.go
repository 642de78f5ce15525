package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"wxbench/internal/bench"
	"wxbench/internal/builder"
	"wxbench/internal/config"
	"wxbench/internal/history"

	"github.com/spf13/cobra"
)

const (
	defaultHistoryCommits = 30
	defaultHistoryRuns    = 3
)

var historyCmd = &cobra.Command{
	Use:   "history [num-commits] [num-runs]",
	Short: "Benchmark the most recent commits of the source tree",
	Long: `Checks out each of the newest commits on the branch in turn, builds it,
and runs the full benchmark sweep against the build. A commit whose build or
benchmarks fail is skipped and the loop continues. The original checkout is
restored when the run finishes, errors out, or is interrupted.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().String("branch", "", "Branch to walk (default: the currently checked-out branch)")
	historyCmd.Flags().String("num-procs", "", "Comma-separated list of MPI process counts (0 = serial)")
	historyCmd.Flags().String("source-dir", "", "Simulator source directory")
	historyCmd.Flags().String("build-dir", "", "Simulator build directory")
	historyCmd.Flags().String("build-type", "", "CMake build type")
	historyCmd.Flags().String("work-dir", "", "Working directory for benchmark runs")
	historyCmd.Flags().String("benchmarks-dir", "", "Directory holding benchmark input files")
	historyCmd.Flags().String("log-dir", "", "Directory for per-commit build logs (default: system temp dir)")
	historyCmd.Flags().IntP("jobs", "j", 0, "Parallel build jobs")
}

func runHistory(cmd *cobra.Command, args []string) error {
	numCommits := defaultHistoryCommits
	numRuns := defaultHistoryRuns
	var err error
	if len(args) > 0 {
		if numCommits, err = parsePositiveInt(args[0], "num-commits"); err != nil {
			return err
		}
	}
	if len(args) > 1 {
		if numRuns, err = parsePositiveInt(args[1], "num-runs"); err != nil {
			return err
		}
	}

	procCounts, err := config.ParseProcCounts(stringOpt(cmd, "num-procs", "run.num_procs"))
	if err != nil {
		return err
	}

	sourceDir := stringOpt(cmd, "source-dir", "paths.source_dir")
	buildDir := stringOpt(cmd, "build-dir", "paths.build_dir")
	benchmarksDir := stringOpt(cmd, "benchmarks-dir", "paths.benchmarks_dir")
	logDir, _ := cmd.Flags().GetString("log-dir")
	if logDir == "" {
		logDir = os.TempDir()
	}

	client := gitClientFactory()
	if !client.RepoExists(sourceDir) {
		return fmt.Errorf("%s is not a git repository", sourceDir)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	b := &builder.Builder{
		SourceDir: sourceDir,
		BuildDir:  buildDir,
		BuildType: stringOpt(cmd, "build-type", "build.build_type"),
		CMakeArgs: config.CMakeArgs(),
		Jobs:      intOpt(cmd, "jobs", "build.jobs"),
	}

	branch, _ := cmd.Flags().GetString("branch")

	runner := &history.Runner{
		Git:        client,
		SourceDir:  sourceDir,
		Branch:     branch,
		NumCommits: numCommits,
		LogDir:     logDir,
		Out:        cmd.OutOrStdout(),
		Build: func(ctx context.Context, w io.Writer) error {
			return b.Build(ctx, w)
		},
		Bench: func(ctx context.Context, sha string) error {
			benchRunner, buildID, _, err := newBenchRunner(cmd, store)
			if err != nil {
				return err
			}
			benchmarks, err := bench.List(benchmarksDir)
			if err != nil {
				return err
			}
			if len(benchmarks) == 0 {
				return fmt.Errorf("no benchmark .inp files found in %s", benchmarksDir)
			}
			return benchRunner.Sweep(ctx, benchmarksDir, benchmarks, procCounts, numRuns, buildID, sha)
		},
	}

	// The restore step must run even when the process is interrupted.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runner.Run(ctx)
}

func parsePositiveInt(s, name string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a non-negative integer", name, s)
	}
	return n, nil
}
