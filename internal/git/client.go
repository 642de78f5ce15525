package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ShortSHALen is the prefix length used for display and build-log naming.
// Two commits sharing a prefix of this length would collide on the log
// file name; we accept that, matching git's own short-SHA behavior.
const ShortSHALen = 12

// Client handles git interactions via the git binary.
type Client struct{}

// NewClient creates a new Git client.
func NewClient() *Client {
	return &Client{}
}

func (c *Client) output(ctx context.Context, dir string, args ...string) (string, error) {
	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	// Enforce no prompting
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=/bin/true")
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w\nStderr: %s", args[0], err, errBuf.String())
	}
	return strings.TrimSpace(outBuf.String()), nil
}

// RepoExists checks if the directory is a git repository.
func (c *Client) RepoExists(dir string) bool {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return false
	}
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	return cmd.Run() == nil
}

// CurrentCommitSHA returns the full SHA of HEAD.
func (c *Client) CurrentCommitSHA(dir string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return c.output(ctx, dir, "rev-parse", "HEAD")
}

// CurrentBranch returns the name of the current branch. A detached HEAD
// yields an empty string and no error.
func (c *Client) CurrentBranch(dir string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return c.output(ctx, dir, "branch", "--show-current")
}

// Checkout switches the working tree to the given ref (branch or SHA).
func (c *Client) Checkout(ctx context.Context, dir, ref string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", "checkout", "--quiet", ref)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git checkout %s failed: %w", ref, err)
	}
	return nil
}

// RecentCommits lists up to n commit SHAs reachable from ref, newest first.
// An empty ref means HEAD. Fewer than n commits in history is not an error.
func (c *Client) RecentCommits(ctx context.Context, dir, ref string, n int) ([]string, error) {
	if ref == "" {
		ref = "HEAD"
	}
	out, err := c.output(ctx, dir, "log", "-n", strconv.Itoa(n), "--format=%H", ref)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Fields(out), nil
}

// ShortSHA truncates a full commit SHA for display and log-file naming.
func ShortSHA(sha string) string {
	if len(sha) > ShortSHALen {
		return sha[:ShortSHALen]
	}
	return sha
}
