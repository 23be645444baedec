package gitclt

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func mustRunGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "git %s failed: %s", strings.Join(args, " "), string(output))

	return string(output)
}

func mustWriteFile(t *testing.T, dir, name, content string) {
	t.Helper()

	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
	require.NoError(t, err)
}

func mustCommitFile(t *testing.T, dir, name, content, msg string) {
	t.Helper()

	mustWriteFile(t, dir, name, content)
	mustRunGit(t, dir, "add", name)
	mustRunGit(t, dir, "commit", "-m", msg)
}

// initTestRepos creates a bare upstream repository and a local clone with a
// "main" and a conflicting "update" branch, both pushed to the upstream.
func initTestRepos(t *testing.T) (workDir string) {
	t.Helper()

	upstream := t.TempDir()
	mustRunGit(t, upstream, "init", "--bare")

	workDir = t.TempDir()
	mustRunGit(t, workDir, "init")
	mustRunGit(t, workDir, "config", "user.email", "test@example.com")
	mustRunGit(t, workDir, "config", "user.name", "Test User")
	mustRunGit(t, workDir, "remote", "add", "origin", upstream)

	mustRunGit(t, workDir, "checkout", "-b", "main")
	mustCommitFile(t, workDir, "go.sum", "v1\n", "initial commit")
	mustCommitFile(t, workDir, "other.txt", "unchanged\n", "add other file")
	mustRunGit(t, workDir, "push", "origin", "main")

	mustRunGit(t, workDir, "checkout", "-b", "update")
	mustCommitFile(t, workDir, "go.sum", "v2\n", "bump dependency")
	mustRunGit(t, workDir, "push", "origin", "update")

	mustRunGit(t, workDir, "checkout", "main")
	mustCommitFile(t, workDir, "go.sum", "v3\n", "bump dependency on main")
	mustRunGit(t, workDir, "push", "origin", "main")

	return workDir
}

func TestRebasePreferBaseResolvesConflicts(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	workDir := initTestRepos(t)
	clt := New(workDir, "origin")
	ctx := context.Background()

	require.NoError(t, clt.FetchBranch(ctx, "main"))
	require.NoError(t, clt.FetchBranch(ctx, "update"))
	require.NoError(t, clt.CheckoutBranch(ctx, "update"))
	assert.Equal(t, "update", clt.CurrentBranch())

	err := clt.Rebase(ctx, "update", "main", ConflictPolicyPreferBase)
	require.NoError(t, err)

	// the conflicting hunk must contain the base branch version
	content, err := os.ReadFile(filepath.Join(workDir, "go.sum"))
	require.NoError(t, err)
	assert.Equal(t, "v3\n", string(content))

	require.NoError(t, clt.ForcePush(ctx, "update"))
}

func TestRebaseFailsOnUnresolvableConflict(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	workDir := initTestRepos(t)

	// a modify/delete conflict can not be resolved by the prefer-base
	// hunk policy
	mustRunGit(t, workDir, "checkout", "main")
	mustRunGit(t, workDir, "rm", "other.txt")
	mustRunGit(t, workDir, "commit", "-m", "remove other file")
	mustRunGit(t, workDir, "push", "origin", "main")

	mustRunGit(t, workDir, "checkout", "update")
	mustCommitFile(t, workDir, "other.txt", "changed\n", "change other file")
	mustRunGit(t, workDir, "push", "origin", "update")

	clt := New(workDir, "origin")
	ctx := context.Background()

	require.NoError(t, clt.FetchBranch(ctx, "main"))
	require.NoError(t, clt.FetchBranch(ctx, "update"))
	require.NoError(t, clt.CheckoutBranch(ctx, "update"))

	err := clt.Rebase(ctx, "update", "main", ConflictPolicyPreferBase)
	require.Error(t, err)

	var conflictErr *RebaseConflictError
	assert.ErrorAs(t, err, &conflictErr)

	require.NoError(t, clt.AbortRebase(ctx))

	// after aborting, the pre-rebase state must be restored
	content, err := os.ReadFile(filepath.Join(workDir, "other.txt"))
	require.NoError(t, err)
	assert.Equal(t, "changed\n", string(content))
}

func TestRebaseRequiresCheckedOutHeadBranch(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	workDir := initTestRepos(t)
	clt := New(workDir, "origin")

	err := clt.Rebase(context.Background(), "update", "main", ConflictPolicyPreferBase)
	require.Error(t, err)

	var conflictErr *RebaseConflictError
	assert.False(t, errors.As(err, &conflictErr))
}

func TestRebaseRejectsUnsupportedConflictPolicy(t *testing.T) {
	clt := New(t.TempDir(), "origin")

	err := clt.Rebase(context.Background(), "update", "main", "prefer-head")
	require.Error(t, err)
}

func TestAbortRebaseIsIdempotent(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	workDir := initTestRepos(t)
	clt := New(workDir, "origin")
	ctx := context.Background()

	assert.NoError(t, clt.AbortRebase(ctx))
	assert.NoError(t, clt.AbortRebase(ctx))
}

func TestRunWrapsFailuresInVCSError(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	clt := New(t.TempDir(), "origin")

	err := clt.FetchBranch(context.Background(), "main")
	require.Error(t, err)

	var vcsErr *VCSError
	assert.ErrorAs(t, err, &vcsErr)
}
