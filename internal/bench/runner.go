package bench

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wxbench/internal/db"
	"wxbench/internal/hardware"
)

// execCommand allows stubbing out the simulator invocation in tests.
var execCommand = exec.CommandContext

// Runner executes benchmarks against a built simulator binary and stores
// results.
type Runner struct {
	Exec        string // path to the simulator binary
	MPILauncher string // e.g. "mpiexec"
	WorkDir     string // scratch directory for run artifacts
	Store       db.Store
	Hardware    hardware.Info
	Out         io.Writer // progress output, defaults to os.Stdout
}

func (r *Runner) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}

// RunOnce executes one repetition of a benchmark. A non-zero exit of the
// simulator is recorded as a failed run, not returned as an error; errors
// are reserved for infrastructure problems (store, filesystem).
func (r *Runner) RunOnce(ctx context.Context, name, inputFile string, buildID int64, numProcs int) (Result, error) {
	runID, err := r.Store.InsertRun(buildID, name, r.Hardware.HardwareID, r.Hardware.CPU, r.Hardware.GPU, numProcs)
	if err != nil {
		return Result{}, fmt.Errorf("failed to record run: %w", err)
	}
	res := Result{RunID: runID}

	// Copy the input file into the work directory so all simulator output
	// (data/, log/, meshes/) is generated there instead of next to the
	// original.
	cwd := filepath.Join(r.WorkDir, name)
	if err := os.MkdirAll(cwd, 0755); err != nil {
		return res, fmt.Errorf("failed to create work dir: %w", err)
	}
	localInput := filepath.Join(cwd, filepath.Base(inputFile))
	if localInput != inputFile {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return res, fmt.Errorf("failed to read input file: %w", err)
		}
		if err := os.WriteFile(localInput, data, 0644); err != nil {
			return res, fmt.Errorf("failed to copy input file: %w", err)
		}
	}

	var cmd *exec.Cmd
	if numProcs > 0 {
		cmd = execCommand(ctx, r.MPILauncher, "-np", strconv.Itoa(numProcs), r.Exec, "-i", localInput)
	} else {
		cmd = execCommand(ctx, r.Exec, "-i", localInput)
	}
	cmd.Dir = cwd
	// Pin BLAS threading so the MPI process count is the only parallelism.
	cmd.Env = append(os.Environ(), "OPENBLAS_NUM_THREADS=1", "MKL_NUM_THREADS=1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	fmt.Fprintf(r.out(), "[run] %s (cwd=%s)\n", strings.Join(cmd.Args, " "), cwd)

	wallStart := time.Now()
	runErr := cmd.Run()
	res.WallTimeS = time.Since(wallStart).Seconds()
	res.Success = runErr == nil
	res.Timing = ParseTimingReport(stdout.String())

	if runErr != nil {
		slog.Error("benchmark run failed", "benchmark", name, "num_procs", numProcs, "error", runErr)
		printStderrTail(r.out(), stderr.String())
	}

	if err := r.Store.FinishRun(runID, res.WallTimeS, res.Success); err != nil {
		return res, fmt.Errorf("failed to finish run: %w", err)
	}
	if len(res.Timing.Scopes) > 0 {
		if err := r.Store.InsertTimingScopes(runID, res.Timing.Scopes); err != nil {
			return res, fmt.Errorf("failed to store timing scopes: %w", err)
		}
	}

	cleanupRunArtifacts(cwd)
	return res, nil
}

// RunAveraged runs a benchmark numRuns times at one worker count and stores
// the aggregate over the successful repetitions.
func (r *Runner) RunAveraged(ctx context.Context, name, inputFile string, buildID int64, gitSHA string, numRuns, numProcs int) (SweepResult, error) {
	sweep := SweepResult{BenchmarkName: name, NumProcs: numProcs}

	for i := 0; i < numRuns; i++ {
		if err := ctx.Err(); err != nil {
			return sweep, err
		}
		fmt.Fprintf(r.out(), "\n--- Run %d/%d for %q ---\n", i+1, numRuns, name)
		res, err := r.RunOnce(ctx, name, inputFile, buildID, numProcs)
		if err != nil {
			return sweep, err
		}
		sweep.Results = append(sweep.Results, res)
		if res.Success {
			fmt.Fprintf(r.out(), "  Wall time: %.3fs\n", res.WallTimeS)
		} else {
			fmt.Fprintln(r.out(), "  FAILED")
		}
	}

	var wallTimes []float64
	var successful []Result
	for _, res := range sweep.Results {
		if res.Success {
			successful = append(successful, res)
			wallTimes = append(wallTimes, res.WallTimeS)
		}
	}
	if len(successful) == 0 {
		fmt.Fprintln(r.out(), "All runs failed, no aggregate computed.")
		return sweep, nil
	}

	sweep.MeanWallS = Mean(wallTimes)
	sweep.StddevWallS = Stddev(wallTimes)
	sweep.ScopeStats = aggregateScopes(successful)

	aggID, err := r.Store.InsertAggregate(db.Aggregate{
		BenchmarkName:   name,
		HardwareID:      r.Hardware.HardwareID,
		GitSHA:          gitSHA,
		NumProcs:        numProcs,
		NumRuns:         len(successful),
		MeanWallTimeS:   sweep.MeanWallS,
		StddevWallTimeS: sweep.StddevWallS,
	}, sweep.ScopeStats)
	if err != nil {
		return sweep, fmt.Errorf("failed to store aggregate: %w", err)
	}
	sweep.AggregateID = aggID

	fmt.Fprintf(r.out(), "\n=== Aggregate for %q ===\n", name)
	fmt.Fprintf(r.out(), "  Successful runs: %d/%d\n", len(successful), numRuns)
	fmt.Fprintf(r.out(), "  Mean wall time:  %.3fs\n", sweep.MeanWallS)
	if sweep.StddevWallS != nil {
		fmt.Fprintf(r.out(), "  Std dev:         %.3fs\n", *sweep.StddevWallS)
	}

	return sweep, nil
}

// Sweep runs every benchmark at every worker count. Individual benchmark
// failures do not stop the sweep; the returned error summarizes which
// combinations produced no successful run.
func (r *Runner) Sweep(ctx context.Context, inputDir string, benchmarks []string, procCounts []int, numRuns int, buildID int64, gitSHA string) error {
	var failed []string

	for _, name := range benchmarks {
		inputFile, err := InputFile(inputDir, name)
		if err != nil {
			return err
		}
		for _, np := range procCounts {
			label := fmt.Sprintf("%s/np=%d", name, np)
			if np == 0 {
				label = name + "/serial"
			}
			fmt.Fprintf(r.out(), "\n%s\n  %s\n%s\n", strings.Repeat("=", 60), label, strings.Repeat("=", 60))

			sweep, err := r.RunAveraged(ctx, name, inputFile, buildID, gitSHA, numRuns, np)
			if err != nil {
				return err
			}
			if !sweep.Succeeded() {
				failed = append(failed, label)
			}
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("no successful runs for: %s", strings.Join(failed, ", "))
	}
	return nil
}

func aggregateScopes(successful []Result) []db.ScopeStat {
	// scope -> elapsed values across runs, first-seen order
	var order []string
	values := make(map[string][]float64)
	for _, res := range successful {
		for _, sc := range res.Timing.Scopes {
			if _, ok := values[sc.Scope]; !ok {
				order = append(order, sc.Scope)
			}
			values[sc.Scope] = append(values[sc.Scope], sc.ElapsedMS)
		}
	}

	stats := make([]db.ScopeStat, 0, len(order))
	for _, scope := range order {
		stats = append(stats, db.ScopeStat{
			Scope:           scope,
			MeanElapsedMS:   Mean(values[scope]),
			StddevElapsedMS: Stddev(values[scope]),
		})
	}
	return stats
}

func printStderrTail(w io.Writer, stderr string) {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > 20 {
		lines = lines[len(lines)-20:]
	}
	for _, line := range lines {
		if line != "" {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// cleanupRunArtifacts removes simulator output from the working directory.
func cleanupRunArtifacts(workDir string) {
	for _, dirname := range []string{"meshes", "data", "log"} {
		os.RemoveAll(filepath.Join(workDir, dirname))
	}
	for _, pattern := range []string{"*.inp", "*.h5"} {
		matches, _ := filepath.Glob(filepath.Join(workDir, pattern))
		for _, m := range matches {
			os.Remove(m)
		}
	}
}
