package main

import (
	"fmt"
	"strings"

	"wxbench/internal/builder"
	"wxbench/internal/git"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the simulator from source",
	Long: `Runs the CMake configure and build steps against the configured source
tree and records the build (git SHA, branch, build type) in the results
database.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().String("source-dir", "", "Simulator source directory")
	buildCmd.Flags().String("build-dir", "", "Simulator build directory")
	buildCmd.Flags().String("build-type", "", "CMake build type (Release, Debug, RelWithDebInfo)")
	buildCmd.Flags().String("cmake-args", "", "Extra cmake arguments")
	buildCmd.Flags().IntP("jobs", "j", 0, "Parallel build jobs")
}

func runBuild(cmd *cobra.Command, args []string) error {
	sourceDir := stringOpt(cmd, "source-dir", "paths.source_dir")
	buildDir := stringOpt(cmd, "build-dir", "paths.build_dir")
	buildType := stringOpt(cmd, "build-type", "build.build_type")
	cmakeArgs := stringOpt(cmd, "cmake-args", "build.cmake_args")
	jobs := intOpt(cmd, "jobs", "build.jobs")

	fmt.Fprintf(cmd.OutOrStdout(), "Building simulator from %s\n", sourceDir)
	fmt.Fprintf(cmd.OutOrStdout(), "Build directory: %s\n", buildDir)
	fmt.Fprintf(cmd.OutOrStdout(), "Build type: %s\n", buildType)

	b := &builder.Builder{
		SourceDir: sourceDir,
		BuildDir:  buildDir,
		BuildType: buildType,
		CMakeArgs: strings.Fields(cmakeArgs),
		Jobs:      jobs,
	}
	if err := b.Build(cmd.Context(), cmd.OutOrStdout()); err != nil {
		return err
	}
	exe, err := b.ExecPath()
	if err != nil {
		return err
	}

	client := gitClientFactory()
	sha, err := client.CurrentCommitSHA(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to read git state of %s: %w", sourceDir, err)
	}
	branch, _ := client.CurrentBranch(sourceDir)

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	buildID, err := store.InsertBuild(sha, branch, buildType, cmakeArgs)
	if err != nil {
		return fmt.Errorf("failed to record build: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nBuild successful (build_id=%d)\n", buildID)
	fmt.Fprintf(cmd.OutOrStdout(), "  Git SHA:    %s\n", git.ShortSHA(sha))
	fmt.Fprintf(cmd.OutOrStdout(), "  Branch:     %s\n", branch)
	fmt.Fprintf(cmd.OutOrStdout(), "  Executable: %s\n", exe)
	return nil
}
