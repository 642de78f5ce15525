package bench

import "wxbench/internal/db"

// Timing holds the parsed timing report of a single run.
type Timing struct {
	TotalMS     float64          `json:"total_ms"`
	Scopes      []db.ScopeTiming `json:"scopes"`
	FrameTimesS []float64        `json:"frame_times_s"`
}

// Result represents one repetition of a benchmark.
type Result struct {
	RunID     int64   `json:"run_id"`
	WallTimeS float64 `json:"wall_time_s"`
	Success   bool    `json:"success"`
	Timing    Timing  `json:"timing"`
}

// SweepResult summarizes the repetitions of one benchmark at one worker count.
type SweepResult struct {
	BenchmarkName string         `json:"benchmark_name"`
	NumProcs      int            `json:"num_procs"`
	AggregateID   int64          `json:"aggregate_id,omitempty"`
	Results       []Result       `json:"results"`
	MeanWallS     float64        `json:"mean_wall_time_s"`
	StddevWallS   *float64       `json:"stddev_wall_time_s,omitempty"`
	ScopeStats    []db.ScopeStat `json:"scope_stats,omitempty"`
}

// Succeeded reports whether at least one repetition succeeded.
func (r SweepResult) Succeeded() bool {
	for _, res := range r.Results {
		if res.Success {
			return true
		}
	}
	return false
}
