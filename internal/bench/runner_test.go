package bench

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"wxbench/internal/db"
	"wxbench/internal/hardware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type finishedRun struct {
	runID     int64
	wallTimeS float64
	success   bool
}

type mockStore struct {
	nextRunID  int64
	runs       []string
	finished   []finishedRun
	scopeRuns  map[int64][]db.ScopeTiming
	aggregates []db.Aggregate
	scopeStats [][]db.ScopeStat
}

func newMockStore() *mockStore {
	return &mockStore{scopeRuns: make(map[int64][]db.ScopeTiming)}
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) InsertBuild(gitSHA, gitBranch, buildType, cmakeArgs string) (int64, error) {
	return 1, nil
}

func (m *mockStore) FindBuild(gitSHA, buildType string) (*db.Build, error) { return nil, nil }

func (m *mockStore) InsertRun(buildID int64, benchmarkName, hardwareID, cpu, gpu string, numProcs int) (int64, error) {
	m.nextRunID++
	m.runs = append(m.runs, benchmarkName)
	return m.nextRunID, nil
}

func (m *mockStore) FinishRun(runID int64, wallTimeS float64, success bool) error {
	m.finished = append(m.finished, finishedRun{runID, wallTimeS, success})
	return nil
}

func (m *mockStore) InsertTimingScopes(runID int64, scopes []db.ScopeTiming) error {
	m.scopeRuns[runID] = scopes
	return nil
}

func (m *mockStore) InsertAggregate(agg db.Aggregate, stats []db.ScopeStat) (int64, error) {
	m.aggregates = append(m.aggregates, agg)
	m.scopeStats = append(m.scopeStats, stats)
	return int64(len(m.aggregates)), nil
}

func (m *mockStore) LatestAggregates(filter db.AggregateFilter) ([]db.Aggregate, error) {
	return m.aggregates, nil
}

func (m *mockStore) AggregateScopes(aggregateID int64) ([]db.ScopeStat, error) { return nil, nil }

// stubSimulator replaces execCommand with one running cmdName, recording
// the requested argv.
func stubSimulator(t *testing.T, cmdName string, cmdArgs ...string) *[][]string {
	t.Helper()
	var calls [][]string
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string{name}, args...))
		return exec.CommandContext(ctx, cmdName, cmdArgs...)
	}
	t.Cleanup(func() { execCommand = exec.CommandContext })
	return &calls
}

func testRunner(t *testing.T, store db.Store) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "advection.inp")
	require.NoError(t, os.WriteFile(input, []byte("<sim/>"), 0644))

	return &Runner{
		Exec:        "/fake/bin/warpxm",
		MPILauncher: "mpiexec",
		WorkDir:     filepath.Join(dir, "work"),
		Store:       store,
		Hardware:    hardware.Info{CPU: "cpu", GPU: "gpu", HardwareID: "cpu | gpu"},
		Out:         io.Discard,
	}, input
}

func TestRunOnce_Success(t *testing.T) {
	report := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(report, []byte(sampleReport), 0644))
	stubSimulator(t, "cat", report)

	store := newMockStore()
	r, input := testRunner(t, store)

	res, err := r.RunOnce(context.Background(), "advection", input, 1, 0)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Greater(t, res.WallTimeS, 0.0)
	assert.NotEmpty(t, res.Timing.Scopes)

	require.Len(t, store.finished, 1)
	assert.True(t, store.finished[0].success)
	assert.NotEmpty(t, store.scopeRuns[res.RunID])

	// run artifacts cleaned up, including the copied input
	leftovers, err := filepath.Glob(filepath.Join(r.WorkDir, "advection", "*.inp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRunOnce_SimulatorFailure(t *testing.T) {
	stubSimulator(t, "false")

	store := newMockStore()
	r, input := testRunner(t, store)

	res, err := r.RunOnce(context.Background(), "advection", input, 1, 0)
	require.NoError(t, err)
	assert.False(t, res.Success)

	require.Len(t, store.finished, 1)
	assert.False(t, store.finished[0].success)
}

func TestRunOnce_MPIInvocation(t *testing.T) {
	calls := stubSimulator(t, "true")

	store := newMockStore()
	r, input := testRunner(t, store)

	_, err := r.RunOnce(context.Background(), "advection", input, 1, 6)
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	argv := (*calls)[0]
	assert.Equal(t, "mpiexec", argv[0])
	assert.Equal(t, []string{"-np", "6", "/fake/bin/warpxm"}, argv[1:4])
}

func TestRunOnce_SerialInvocation(t *testing.T) {
	calls := stubSimulator(t, "true")

	store := newMockStore()
	r, input := testRunner(t, store)

	_, err := r.RunOnce(context.Background(), "advection", input, 1, 0)
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	assert.Equal(t, "/fake/bin/warpxm", (*calls)[0][0])
}

func TestRunAveraged_StoresAggregate(t *testing.T) {
	stubSimulator(t, "true")

	store := newMockStore()
	r, input := testRunner(t, store)

	sweep, err := r.RunAveraged(context.Background(), "advection", input, 1, "abc123", 3, 0)
	require.NoError(t, err)
	assert.True(t, sweep.Succeeded())
	assert.Len(t, sweep.Results, 3)
	assert.Greater(t, sweep.MeanWallS, 0.0)
	assert.NotNil(t, sweep.StddevWallS)

	require.Len(t, store.aggregates, 1)
	agg := store.aggregates[0]
	assert.Equal(t, "advection", agg.BenchmarkName)
	assert.Equal(t, "abc123", agg.GitSHA)
	assert.Equal(t, 3, agg.NumRuns)
}

func TestRunAveraged_AllFail_NoAggregate(t *testing.T) {
	stubSimulator(t, "false")

	store := newMockStore()
	r, input := testRunner(t, store)

	sweep, err := r.RunAveraged(context.Background(), "advection", input, 1, "abc123", 2, 0)
	require.NoError(t, err)
	assert.False(t, sweep.Succeeded())
	assert.Empty(t, store.aggregates)
}

func TestSweep_ContinuesAndReportsFailures(t *testing.T) {
	stubSimulator(t, "false")

	store := newMockStore()
	r, input := testRunner(t, store)
	inputDir := filepath.Dir(input)

	err := r.Sweep(context.Background(), inputDir, []string{"advection"}, []int{0, 6}, 1, 1, "abc123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advection/serial")
	assert.Contains(t, err.Error(), "advection/np=6")
	// both combinations were still attempted
	assert.Len(t, store.runs, 2)
}

func TestSweep_AllGood(t *testing.T) {
	stubSimulator(t, "true")

	store := newMockStore()
	r, input := testRunner(t, store)

	err := r.Sweep(context.Background(), filepath.Dir(input), []string{"advection"}, []int{0, 6}, 2, 1, "abc123")
	require.NoError(t, err)
	assert.Len(t, store.aggregates, 2)
}

func TestAggregateScopes(t *testing.T) {
	results := []Result{
		{Success: true, Timing: Timing{Scopes: []db.ScopeTiming{
			{Scope: "solver", ElapsedMS: 100},
			{Scope: "io", ElapsedMS: 10},
		}}},
		{Success: true, Timing: Timing{Scopes: []db.ScopeTiming{
			{Scope: "solver", ElapsedMS: 110},
			{Scope: "io", ElapsedMS: 14},
		}}},
	}

	stats := aggregateScopes(results)
	require.Len(t, stats, 2)
	assert.Equal(t, "solver", stats[0].Scope)
	assert.InDelta(t, 105, stats[0].MeanElapsedMS, 1e-9)
	require.NotNil(t, stats[0].StddevElapsedMS)
	assert.InDelta(t, 5, *stats[0].StddevElapsedMS, 1e-9)
	assert.InDelta(t, 12, stats[1].MeanElapsedMS, 1e-9)
}
