// Package gitclt executes git operations on a local working copy by running
// the git command line client.
//
// The client owns the checkout state of the working copy. Which branch is
// currently checked out is tracked explicitly and never derived from ambient
// process state, callers can rely on CheckoutBranch() being the only
// operation that changes it.
package gitclt

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/praetorius/dependamerge/internal/logfields"
)

const loggerName = "git_client"

// ConflictPolicyPreferBase resolves every conflicting hunk during a rebase
// in favor of the base branch side.
const ConflictPolicyPreferBase = "prefer-base"

// VCSError is returned when a git operation fails.
type VCSError struct {
	Args   []string
	Output string
	Err    error
}

func (e *VCSError) Unwrap() error {
	return e.Err
}

func (e *VCSError) Error() string {
	return fmt.Sprintf("git %s failed: %s, output: %s",
		strings.Join(e.Args, " "), e.Err, strings.TrimSpace(e.Output))
}

// RebaseConflictError is returned when a rebase could not be completed
// despite the conflict resolution policy, e.g. on binary file conflicts.
type RebaseConflictError struct {
	HeadBranch string
	BaseBranch string
	Err        error
}

func (e *RebaseConflictError) Unwrap() error {
	return e.Err
}

func (e *RebaseConflictError) Error() string {
	return fmt.Sprintf("rebasing %s onto %s failed with unresolvable conflicts: %s",
		e.HeadBranch, e.BaseBranch, e.Err)
}

// Client runs git operations in a single local working copy.
// It is not safe for concurrent use, the working copy only supports one
// checked out branch at a time.
type Client struct {
	dir    string
	remote string
	logger *zap.Logger

	currentBranch string
}

// New returns a client operating on the git repository in dir.
// Remote operations use the given git remote name.
func New(dir, remote string) *Client {
	return &Client{
		dir:    dir,
		remote: remote,
		logger: zap.L().Named(loggerName),
	}
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), &VCSError{
			Args:   args,
			Output: string(output),
			Err:    err,
		}
	}

	c.logger.Debug(
		"git command executed",
		logfields.Event("git_command_executed"),
		zap.Strings("git_args", args),
	)

	return string(output), nil
}

// FetchBranch fetches the branch from the remote.
func (c *Client) FetchBranch(ctx context.Context, branch string) error {
	_, err := c.run(ctx, "fetch", c.remote, branch)
	return err
}

// CheckoutBranch checks out the branch, resetting it to the state of the
// remote branch. The branch must have been fetched before.
func (c *Client) CheckoutBranch(ctx context.Context, branch string) error {
	_, err := c.run(ctx, "checkout", "-B", branch, c.remote+"/"+branch)
	if err != nil {
		return err
	}

	c.currentBranch = branch

	return nil
}

// CurrentBranch returns the branch that was checked out last.
// It returns an empty string when CheckoutBranch was never called.
func (c *Client) CurrentBranch() string {
	return c.currentBranch
}

// Rebase rebases the currently checked out head branch onto the remote base
// branch.
// The only supported conflict policy is ConflictPolicyPreferBase: hunks that
// conflict are resolved by taking the base branch version. During a rebase
// the base branch is the "ours" side, the policy maps to the "ours"
// recursive merge strategy option.
// If git can not complete the rebase despite the policy a
// RebaseConflictError is returned and the rebase is left in progress, the
// caller must run AbortRebase to restore the branch.
func (c *Client) Rebase(ctx context.Context, headBranch, baseBranch, conflictPolicy string) error {
	if conflictPolicy != ConflictPolicyPreferBase {
		return fmt.Errorf("unsupported conflict policy: %q", conflictPolicy)
	}

	if c.currentBranch != headBranch {
		return fmt.Errorf("branch %q must be checked out for rebasing, current branch is %q",
			headBranch, c.currentBranch)
	}

	// --empty=drop: a commit whose changes are fully superseded by the
	// base side would otherwise halt the rebase
	output, err := c.run(ctx, "rebase", "--empty=drop", "-X", "ours", c.remote+"/"+baseBranch)
	if err != nil {
		if isConflictOutput(output) {
			return &RebaseConflictError{
				HeadBranch: headBranch,
				BaseBranch: baseBranch,
				Err:        err,
			}
		}

		return err
	}

	return nil
}

func isConflictOutput(output string) bool {
	return strings.Contains(output, "CONFLICT") ||
		strings.Contains(output, "could not apply")
}

// ForcePush overwrites the remote branch with the local state of the branch.
func (c *Client) ForcePush(ctx context.Context, branch string) error {
	_, err := c.run(ctx, "push", "--force", c.remote, branch)
	return err
}

// AbortRebase aborts an in-progress rebase and restores the branch to its
// pre-rebase state.
// It is idempotent, calling it when no rebase is in progress is not an
// error.
func (c *Client) AbortRebase(ctx context.Context) error {
	output, err := c.run(ctx, "rebase", "--abort")
	if err != nil {
		if strings.Contains(strings.ToLower(output), "no rebase in progress") {
			return nil
		}

		return err
	}

	return nil
}
