package git

import "context"

// IClient is an interface for interacting with Git.
type IClient interface {
	RepoExists(directory string) bool
	CurrentCommitSHA(directory string) (string, error)
	CurrentBranch(directory string) (string, error)
	Checkout(ctx context.Context, directory, ref string) error
	RecentCommits(ctx context.Context, directory, ref string, n int) ([]string, error)
}
