package main

import (
	"context"

	"wxbench/internal/db"
	"wxbench/internal/git"
)

// mockGitClient implements git.IClient for command tests.
type mockGitClient struct {
	exists    bool
	sha       string
	branch    string
	commits   []string
	checkouts []string
}

var _ git.IClient = (*mockGitClient)(nil)

func (m *mockGitClient) RepoExists(dir string) bool                 { return m.exists }
func (m *mockGitClient) CurrentCommitSHA(dir string) (string, error) { return m.sha, nil }
func (m *mockGitClient) CurrentBranch(dir string) (string, error)    { return m.branch, nil }

func (m *mockGitClient) Checkout(ctx context.Context, dir, ref string) error {
	m.checkouts = append(m.checkouts, ref)
	return nil
}

func (m *mockGitClient) RecentCommits(ctx context.Context, dir, ref string, n int) ([]string, error) {
	if n < len(m.commits) {
		return m.commits[:n], nil
	}
	return m.commits, nil
}

// cmdMockStore implements db.Store for command tests.
type cmdMockStore struct {
	builds     []db.Build
	aggregates []db.Aggregate
	scopes     map[int64][]db.ScopeStat
}

var _ db.Store = (*cmdMockStore)(nil)

func (m *cmdMockStore) Close() error { return nil }

func (m *cmdMockStore) InsertBuild(gitSHA, gitBranch, buildType, cmakeArgs string) (int64, error) {
	m.builds = append(m.builds, db.Build{GitSHA: gitSHA, GitBranch: gitBranch, BuildType: buildType})
	return int64(len(m.builds)), nil
}

func (m *cmdMockStore) FindBuild(gitSHA, buildType string) (*db.Build, error) { return nil, nil }

func (m *cmdMockStore) InsertRun(buildID int64, benchmarkName, hardwareID, cpu, gpu string, numProcs int) (int64, error) {
	return 1, nil
}

func (m *cmdMockStore) FinishRun(runID int64, wallTimeS float64, success bool) error { return nil }

func (m *cmdMockStore) InsertTimingScopes(runID int64, scopes []db.ScopeTiming) error { return nil }

func (m *cmdMockStore) InsertAggregate(agg db.Aggregate, stats []db.ScopeStat) (int64, error) {
	m.aggregates = append(m.aggregates, agg)
	return int64(len(m.aggregates)), nil
}

func (m *cmdMockStore) LatestAggregates(filter db.AggregateFilter) ([]db.Aggregate, error) {
	return m.aggregates, nil
}

func (m *cmdMockStore) AggregateScopes(aggregateID int64) ([]db.ScopeStat, error) {
	return m.scopes[aggregateID], nil
}
