package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"wxbench/internal/db"
	"wxbench/internal/git"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSHA1 = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testSHA2 = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// The build step runs a real cmake against an empty source tree, which
// fails. That failure must be recovered per commit and the original
// checkout restored at the end.
func TestHistoryCmd_BuildFailuresAreRecovered(t *testing.T) {
	g := &mockGitClient{
		exists:  true,
		sha:     testSHA1,
		branch:  "main",
		commits: []string{testSHA1, testSHA2},
	}
	defer func() {
		gitClientFactory = func() git.IClient { return git.NewClient() }
		storeFactory = func(path string) (db.Store, error) { return db.NewSQLiteStore(path) }
	}()
	gitClientFactory = func() git.IClient { return g }
	storeFactory = func(path string) (db.Store, error) { return &cmdMockStore{}, nil }

	srcDir := t.TempDir()
	logDir := t.TempDir()

	output, err := execRoot(t, "history", "2", "1",
		"--source-dir", srcDir,
		"--build-dir", filepath.Join(t.TempDir(), "build"),
		"--log-dir", logDir,
	)
	assert.NoError(t, err)

	assert.Contains(t, output, "[1/2] commit "+git.ShortSHA(testSHA1))
	assert.Contains(t, output, "[2/2] commit "+git.ShortSHA(testSHA2))
	assert.Contains(t, output, "BUILD FAILED")
	assert.Contains(t, output, "Restoring original checkout: main")

	// Both commits were checked out, then the branch restored.
	assert.Equal(t, []string{testSHA1, testSHA2, "main"}, g.checkouts)

	// A build log exists per attempted commit.
	for _, sha := range []string{testSHA1, testSHA2} {
		_, statErr := os.Stat(filepath.Join(logDir, "wxbench-build-"+git.ShortSHA(sha)+".log"))
		assert.NoError(t, statErr, "missing build log for %s", sha)
	}
}

func TestHistoryCmd_NotARepository(t *testing.T) {
	g := &mockGitClient{exists: false}
	defer func() {
		gitClientFactory = func() git.IClient { return git.NewClient() }
	}()
	gitClientFactory = func() git.IClient { return g }

	_, err := execRoot(t, "history", "--source-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a git repository")
}

func TestHistoryCmd_RejectsBadArgs(t *testing.T) {
	_, err := execRoot(t, "history", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid num-commits")
}

func TestParsePositiveInt(t *testing.T) {
	n, err := parsePositiveInt("30", "num-commits")
	assert.NoError(t, err)
	assert.Equal(t, 30, n)

	_, err = parsePositiveInt("-1", "num-runs")
	assert.Error(t, err)

	_, err = parsePositiveInt("3.5", "num-runs")
	assert.Error(t, err)
}
