package main

import (
	"fmt"

	"wxbench/internal/bench"
	"wxbench/internal/builder"
	"wxbench/internal/config"
	"wxbench/internal/db"
	"wxbench/internal/hardware"

	"github.com/spf13/cobra"
)

// newBenchRunner resolves configuration into a ready benchmark runner,
// locating the built simulator and finding or creating the build record
// for the current checkout. Returns the runner and the git SHA it runs
// against.
var newBenchRunner = func(cmd *cobra.Command, store db.Store) (*bench.Runner, int64, string, error) {
	sourceDir := stringOpt(cmd, "source-dir", "paths.source_dir")
	buildDir := stringOpt(cmd, "build-dir", "paths.build_dir")
	buildType := stringOpt(cmd, "build-type", "build.build_type")

	b := &builder.Builder{SourceDir: sourceDir, BuildDir: buildDir, BuildType: buildType}
	exe, err := b.ExecPath()
	if err != nil {
		return nil, 0, "", err
	}

	client := gitClientFactory()
	sha, err := client.CurrentCommitSHA(sourceDir)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to read git state of %s: %w", sourceDir, err)
	}
	branch, _ := client.CurrentBranch(sourceDir)

	var buildID int64
	existing, err := store.FindBuild(sha, buildType)
	if err != nil {
		return nil, 0, "", err
	}
	if existing != nil {
		buildID = existing.ID
		fmt.Fprintf(cmd.OutOrStdout(), "Using existing build record (build_id=%d)\n", buildID)
	} else {
		buildID, err = store.InsertBuild(sha, branch, buildType, "")
		if err != nil {
			return nil, 0, "", fmt.Errorf("failed to record build: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created build record (build_id=%d)\n", buildID)
	}

	hw := hardware.Detect(config.CPUOverride(), config.GPUOverride())

	runner := &bench.Runner{
		Exec:        exe,
		MPILauncher: config.MPILauncher(),
		WorkDir:     stringOpt(cmd, "work-dir", "paths.work_dir"),
		Store:       store,
		Hardware:    hw,
		Out:         cmd.OutOrStdout(),
	}
	return runner, buildID, sha, nil
}
