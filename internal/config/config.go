package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindFlag routes a command-line flag to a config key. An explicitly set
// flag then overrides file, environment, and default values.
func BindFlag(key string, f *pflag.Flag) {
	_ = viper.BindPFlag(key, f)
}

// Load initializes the configuration from file and environment variables.
func Load(cfgFile string) {
	// explicit .env loading; missing file is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("wxbench")
	}

	viper.SetEnvPrefix("WXBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	viper.SetDefault("paths.source_dir", filepath.Join(home, "src", "warpxm"))
	viper.SetDefault("paths.build_dir", filepath.Join(home, "src", "warpxm", "build"))
	viper.SetDefault("paths.work_dir", "benchmark_runs")
	viper.SetDefault("paths.db", "benchmarks.db")
	viper.SetDefault("paths.benchmarks_dir", "benchmarks")

	viper.SetDefault("run.num_procs", "0,6")
	viper.SetDefault("run.num_runs", 3)
	viper.SetDefault("run.mpi_launcher", "mpiexec")

	viper.SetDefault("build.build_type", "Release")
	viper.SetDefault("build.cmake_args", "")
	viper.SetDefault("build.jobs", 0)
}

// SourceDir returns the configured source tree path, ~ expanded.
func SourceDir() string { return ExpandHome(viper.GetString("paths.source_dir")) }

// BuildDir returns the configured build tree path, ~ expanded.
func BuildDir() string { return ExpandHome(viper.GetString("paths.build_dir")) }

// WorkDir returns the benchmark scratch directory, ~ expanded.
func WorkDir() string { return ExpandHome(viper.GetString("paths.work_dir")) }

// DBPath returns the SQLite database path, ~ expanded.
func DBPath() string { return ExpandHome(viper.GetString("paths.db")) }

// BenchmarksDir returns the directory holding benchmark input files.
func BenchmarksDir() string { return ExpandHome(viper.GetString("paths.benchmarks_dir")) }

// NumRuns returns the configured repetition count per benchmark.
func NumRuns() int { return viper.GetInt("run.num_runs") }

// NumProcsList returns the configured worker-count list string, e.g. "0,6".
func NumProcsList() string { return viper.GetString("run.num_procs") }

// MPILauncher returns the MPI launcher command.
func MPILauncher() string { return viper.GetString("run.mpi_launcher") }

// BuildType returns the CMake build type.
func BuildType() string { return viper.GetString("build.build_type") }

// CMakeArgs returns extra cmake arguments, whitespace-split.
func CMakeArgs() []string {
	s := viper.GetString("build.cmake_args")
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

// BuildJobs returns the parallel build job count (0 = let the builder pick).
func BuildJobs() int { return viper.GetInt("build.jobs") }

// CPUOverride returns the configured CPU name override, if any.
func CPUOverride() string { return viper.GetString("hardware.cpu") }

// GPUOverride returns the configured GPU name override, if any.
func GPUOverride() string { return viper.GetString("hardware.gpu") }

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}

// ParseProcCounts parses a comma-separated worker-count list like "0,6".
func ParseProcCounts(s string) ([]int, error) {
	var counts []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid process count %q: %w", part, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("invalid process count %d: must be >= 0", n)
		}
		counts = append(counts, n)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("empty process count list %q", s)
	}
	return counts, nil
}
