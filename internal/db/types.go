package db

import "time"

// Build is a recorded build of the simulation binary.
type Build struct {
	ID        int64     `json:"id"`
	GitSHA    string    `json:"git_sha"`
	GitBranch string    `json:"git_branch"`
	BuildType string    `json:"build_type"`
	CMakeArgs string    `json:"cmake_args,omitempty"`
	BuiltAt   time.Time `json:"built_at"`
}

// Run is a single benchmark execution.
type Run struct {
	ID            int64      `json:"id"`
	BuildID       int64      `json:"build_id"`
	BenchmarkName string     `json:"benchmark_name"`
	HardwareID    string     `json:"hardware_id"`
	CPU           string     `json:"cpu"`
	GPU           string     `json:"gpu"`
	NumProcs      int        `json:"num_procs"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	WallTimeS     float64    `json:"wall_time_s"`
	Success       bool       `json:"success"`
}

// ScopeTiming is one row of a run's hierarchical timing report.
type ScopeTiming struct {
	Scope        string  `json:"scope"`
	ElapsedMS    float64 `json:"elapsed_ms"`
	PercentTotal float64 `json:"percent_total"`
}

// Aggregate summarizes the successful repetitions of one benchmark sweep.
type Aggregate struct {
	ID              int64     `json:"id"`
	BenchmarkName   string    `json:"benchmark_name"`
	HardwareID      string    `json:"hardware_id"`
	GitSHA          string    `json:"git_sha"`
	NumProcs        int       `json:"num_procs"`
	NumRuns         int       `json:"num_runs"`
	MeanWallTimeS   float64   `json:"mean_wall_time_s"`
	StddevWallTimeS *float64  `json:"stddev_wall_time_s,omitempty"`
	ComputedAt      time.Time `json:"computed_at"`
}

// ScopeStat is the per-scope aggregate over a sweep's successful runs.
type ScopeStat struct {
	Scope           string   `json:"scope"`
	MeanElapsedMS   float64  `json:"mean_elapsed_ms"`
	StddevElapsedMS *float64 `json:"stddev_elapsed_ms,omitempty"`
}

// AggregateFilter narrows LatestAggregates queries.
type AggregateFilter struct {
	BenchmarkName string
	HardwareID    string
	Limit         int
}

// Store interface defines the methods for persistent storage of results.
type Store interface {
	Close() error

	InsertBuild(gitSHA, gitBranch, buildType, cmakeArgs string) (int64, error)
	FindBuild(gitSHA, buildType string) (*Build, error)

	InsertRun(buildID int64, benchmarkName, hardwareID, cpu, gpu string, numProcs int) (int64, error)
	FinishRun(runID int64, wallTimeS float64, success bool) error
	InsertTimingScopes(runID int64, scopes []ScopeTiming) error

	InsertAggregate(agg Aggregate, scopeStats []ScopeStat) (int64, error)
	LatestAggregates(filter AggregateFilter) ([]Aggregate, error)
	AggregateScopes(aggregateID int64) ([]ScopeStat, error)
}
