// Package history runs the benchmark sweep across a range of historical
// commits of the simulator source tree, restoring the original checkout
// afterwards no matter how the run ends.
package history

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"wxbench/internal/git"
)

// RevisionSource supplies commit history and checkout-by-identifier.
// *git.Client satisfies it; tests substitute mocks.
type RevisionSource interface {
	CurrentCommitSHA(directory string) (string, error)
	CurrentBranch(directory string) (string, error)
	Checkout(ctx context.Context, directory, ref string) error
	RecentCommits(ctx context.Context, directory, ref string, n int) ([]string, error)
}

// BuildFunc builds the checked-out tree, writing build output to w.
type BuildFunc func(ctx context.Context, w io.Writer) error

// BenchFunc runs the full benchmark sweep for the commit identified by sha.
type BenchFunc func(ctx context.Context, sha string) error

// Runner iterates over the newest commits of a branch and benchmarks each
// one: checkout, build, sweep, continue on per-commit failure.
type Runner struct {
	Git        RevisionSource
	SourceDir  string
	Branch     string // branch to walk; empty means the branch active at start
	NumCommits int
	LogDir     string // where per-commit build logs are written
	Build      BuildFunc
	Bench      BenchFunc
	Out        io.Writer
}

func (r *Runner) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}

// Run executes the history sweep. Checkout and commit-enumeration failures
// abort the run; build and benchmark failures are logged and the loop moves
// on to the next commit. The original checkout is restored on every exit
// path, including context cancellation.
func (r *Runner) Run(ctx context.Context) (err error) {
	origSHA, err := r.Git.CurrentCommitSHA(r.SourceDir)
	if err != nil {
		return fmt.Errorf("failed to record starting revision: %w", err)
	}
	// A missing branch name means a detached HEAD; restore then targets
	// the SHA instead.
	origBranch, _ := r.Git.CurrentBranch(r.SourceDir)

	restoreRef := origBranch
	if restoreRef == "" {
		restoreRef = origSHA
	}
	defer func() {
		if rerr := r.restore(restoreRef); rerr != nil && err == nil {
			err = rerr
		}
	}()

	branch := r.Branch
	if branch == "" {
		branch = origBranch
	}

	commits, err := r.Git.RecentCommits(ctx, r.SourceDir, branch, r.NumCommits)
	if err != nil {
		return fmt.Errorf("failed to enumerate commits: %w", err)
	}
	fmt.Fprintf(r.out(), "Benchmarking %d commit(s), newest first\n", len(commits))

	for i, sha := range commits {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		short := git.ShortSHA(sha)

		fmt.Fprintf(r.out(), "\n%s\n  [%d/%d] commit %s\n%s\n",
			strings.Repeat("=", 60), i+1, len(commits), short, strings.Repeat("=", 60))

		if err := r.Git.Checkout(ctx, r.SourceDir, sha); err != nil {
			return fmt.Errorf("failed to check out %s: %w", short, err)
		}

		if err := r.buildCommit(ctx, short); err != nil {
			// recovered: log and move on to the next commit
			continue
		}

		if err := r.Bench(ctx, sha); err != nil {
			fmt.Fprintf(r.out(), "BENCHMARK FAILED for %s: %v\n", short, err)
			slog.Error("benchmark sweep failed", "commit", short, "error", err)
			continue
		}

		fmt.Fprintf(r.out(), "Commit %s done\n", short)
	}

	return nil
}

func (r *Runner) buildCommit(ctx context.Context, short string) error {
	logPath := filepath.Join(r.LogDir, "wxbench-build-"+short+".log")
	logFile, err := os.Create(logPath)
	if err != nil {
		fmt.Fprintf(r.out(), "BUILD FAILED for %s: cannot create log %s: %v\n", short, logPath, err)
		return err
	}
	defer logFile.Close()

	if err := r.Build(ctx, logFile); err != nil {
		fmt.Fprintf(r.out(), "BUILD FAILED for %s (log: %s)\n", short, logPath)
		slog.Error("build failed", "commit", short, "log", logPath, "error", err)
		return err
	}
	return nil
}

// restore checks the working tree back out to the recorded starting point.
// It runs with its own context so it still works after cancellation.
func (r *Runner) restore(ref string) error {
	fmt.Fprintf(r.out(), "\nRestoring original checkout: %s\n", ref)
	if err := r.Git.Checkout(context.Background(), r.SourceDir, ref); err != nil {
		return fmt.Errorf("failed to restore original checkout %s: %w", ref, err)
	}
	return nil
}
