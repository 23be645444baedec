package automerge

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/praetorius/dependamerge/internal/automerge/mocks"
	"github.com/praetorius/dependamerge/internal/gitclt"
	"github.com/praetorius/dependamerge/internal/githubclt"
)

func newTestResolver(t *testing.T, ghClient GithubClient, gitClient GitClient) *ConflictResolver {
	t.Helper()

	retryer := NewRetryer()
	t.Cleanup(retryer.Stop)

	return NewConflictResolver(ghClient, gitClient, retryer, repoOwner, repo)
}

func TestResolveIsNoopForMergeablePullRequest(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	mockctrl := gomock.NewController(t)
	ghClient := mocks.NewMockGithubClient(mockctrl)
	// no git operation is configured, the mock fails the test when the
	// resolver touches the working copy
	gitClient := mocks.NewMockGitClient(mockctrl)

	pr := newTestPR(t, 42, agentLogin, targetBranch)

	// running the resolver twice on a mergeable pull request must be a
	// no-op both times
	mockMergeabilityCall(ghClient, 42, githubclt.MergeabilityMergeable).Times(2)

	resolver := newTestResolver(t, ghClient, gitClient)

	require.NoError(t, resolver.Resolve(context.Background(), pr))
	require.NoError(t, resolver.Resolve(context.Background(), pr))
}

func TestResolveRebasesAndForcePushesConflictingPullRequest(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	mockctrl := gomock.NewController(t)
	ghClient := mocks.NewMockGithubClient(mockctrl)
	gitClient := mocks.NewMockGitClient(mockctrl)

	pr := newTestPR(t, 42, agentLogin, targetBranch)
	headBranch := "dependabot/update-42"

	mockMergeabilityCall(ghClient, 42, githubclt.MergeabilityConflicting)

	gomock.InOrder(
		gitClient.EXPECT().FetchBranch(gomock.Any(), gomock.Eq(targetBranch)).Return(nil),
		gitClient.EXPECT().FetchBranch(gomock.Any(), gomock.Eq(headBranch)).Return(nil),
		gitClient.EXPECT().CheckoutBranch(gomock.Any(), gomock.Eq(headBranch)).Return(nil),
		gitClient.EXPECT().Rebase(gomock.Any(), gomock.Eq(headBranch), gomock.Eq(targetBranch), gomock.Eq(gitclt.ConflictPolicyPreferBase)).Return(nil),
		gitClient.EXPECT().ForcePush(gomock.Any(), gomock.Eq(headBranch)).Return(nil),
	)

	resolver := newTestResolver(t, ghClient, gitClient)

	require.NoError(t, resolver.Resolve(context.Background(), pr))
}

func TestResolveAbortsFailedRebase(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	mockctrl := gomock.NewController(t)
	ghClient := mocks.NewMockGithubClient(mockctrl)
	gitClient := mocks.NewMockGitClient(mockctrl)

	pr := newTestPR(t, 9, agentLogin, targetBranch)
	headBranch := "dependabot/update-42"

	rebaseErr := &gitclt.RebaseConflictError{
		HeadBranch: headBranch,
		BaseBranch: targetBranch,
		Err:        errors.New("binary file conflict"),
	}

	mockMergeabilityCall(ghClient, 9, githubclt.MergeabilityConflicting)
	ghClient.
		EXPECT().
		CreateIssueComment(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(9), gomock.Any()).
		Return(nil)

	gitClient.EXPECT().FetchBranch(gomock.Any(), gomock.Eq(targetBranch)).Return(nil)
	gitClient.EXPECT().FetchBranch(gomock.Any(), gomock.Eq(headBranch)).Return(nil)
	gitClient.EXPECT().CheckoutBranch(gomock.Any(), gomock.Eq(headBranch)).Return(nil)
	gitClient.EXPECT().Rebase(gomock.Any(), gomock.Eq(headBranch), gomock.Eq(targetBranch), gomock.Any()).Return(rebaseErr)
	gitClient.EXPECT().AbortRebase(gomock.Any()).Return(nil).Times(1)
	// ForcePush must never be called for a failed rebase

	resolver := newTestResolver(t, ghClient, gitClient)

	err := resolver.Resolve(context.Background(), pr)
	require.Error(t, err)

	var conflictErr *gitclt.RebaseConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

func TestResolveFailsWhenFetchFails(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	mockctrl := gomock.NewController(t)
	ghClient := mocks.NewMockGithubClient(mockctrl)
	gitClient := mocks.NewMockGitClient(mockctrl)

	pr := newTestPR(t, 3, agentLogin, targetBranch)

	mockMergeabilityCall(ghClient, 3, githubclt.MergeabilityConflicting)
	ghClient.
		EXPECT().
		CreateIssueComment(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(3), gomock.Any()).
		Return(nil)

	gitClient.
		EXPECT().
		FetchBranch(gomock.Any(), gomock.Eq(targetBranch)).
		Return(&gitclt.VCSError{Args: []string{"fetch"}, Err: errors.New("network unreachable")})

	resolver := newTestResolver(t, ghClient, gitClient)

	err := resolver.Resolve(context.Background(), pr)
	require.Error(t, err)

	var vcsErr *gitclt.VCSError
	assert.ErrorAs(t, err, &vcsErr)
}
