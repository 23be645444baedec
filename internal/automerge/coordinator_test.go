package automerge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-github/v43/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/praetorius/dependamerge/internal/automerge/mocks"
	"github.com/praetorius/dependamerge/internal/githubclt"
	"github.com/praetorius/dependamerge/internal/hosterr"
)

func newTestCoordinator(t *testing.T, ghClient GithubClient, gitClient GitClient) *Coordinator {
	t.Helper()

	filter, err := NewFilter(agentLogin, targetBranch, "")
	require.NoError(t, err)

	retryer := NewRetryer()
	t.Cleanup(retryer.Stop)

	resolver := NewConflictResolver(ghClient, gitClient, retryer, repoOwner, repo)
	orchestrator := NewOrchestrator(
		ghClient, retryer, repoOwner, repo, false,
		0, time.Millisecond, 8,
	)

	return NewCoordinator(ghClient, filter, resolver, orchestrator, repoOwner, repo)
}

func mockListCall(clt *mocks.MockGithubClient, prs ...*github.PullRequest) *gomock.Call {
	return clt.
		EXPECT().
		ListOpenPullRequests(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo)).
		Return(&fakePRIter{prs: prs})
}

func resultOf(t *testing.T, summary *BatchSummary, prNr int) *BatchItem {
	t.Helper()

	for _, item := range summary.Items {
		if item.PullRequest.Number == prNr {
			return item
		}
	}

	t.Fatalf("summary contains no item for PR #%d", prNr)
	return nil
}

func TestRunMergesMatchedPullRequest(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	mockctrl := gomock.NewController(t)
	ghClient := mocks.NewMockGithubClient(mockctrl)
	gitClient := mocks.NewMockGitClient(mockctrl)

	mockListCall(ghClient, newGithubPR(42, agentLogin, targetBranch))

	gomock.InOrder(
		// conflict resolver check, no conflicts
		mockMergeabilityCall(ghClient, 42, githubclt.MergeabilityUnknown),
		// orchestrator polls until the host reports mergeable
		mockMergeabilityCall(ghClient, 42, githubclt.MergeabilityUnknown),
		mockMergeabilityCall(ghClient, 42, githubclt.MergeabilityUnknown),
		mockMergeabilityCall(ghClient, 42, githubclt.MergeabilityMergeable),
		mockMergeCall(ghClient, 42, githubclt.MergeStrategyRebase, nil),
	)

	summary, err := newTestCoordinator(t, ghClient, gitClient).Run(context.Background())
	require.NoError(t, err)

	item := resultOf(t, summary, 42)
	assert.Equal(t, BatchResultMerged, item.Result)
	assert.Equal(t, OutcomeMerged, item.Outcome)
	assert.NoError(t, item.Err)
	assert.False(t, summary.Failed())
}

func TestRunSkipsPullRequestWithWrongBaseBranch(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	mockctrl := gomock.NewController(t)
	ghClient := mocks.NewMockGithubClient(mockctrl)
	gitClient := mocks.NewMockGitClient(mockctrl)

	// no mutating host calls are configured, the mock fails the test
	// when any is made for the skipped pull request
	mockListCall(ghClient, newGithubPR(7, agentLogin, "main"))

	summary, err := newTestCoordinator(t, ghClient, gitClient).Run(context.Background())
	require.NoError(t, err)

	item := resultOf(t, summary, 7)
	assert.Equal(t, BatchResultSkipped, item.Result)
	assert.Equal(t, 0, summary.MatchedCount())
	assert.False(t, summary.Failed())
}

func TestRunReportsConflictingPullRequest(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	mockctrl := gomock.NewController(t)
	ghClient := mocks.NewMockGithubClient(mockctrl)
	gitClient := mocks.NewMockGitClient(mockctrl)

	headBranch := "dependabot/update-42"

	mockListCall(ghClient, newGithubPR(9, agentLogin, targetBranch))

	// the pull request stays conflicting during the whole run
	mockMergeabilityCall(ghClient, 9, githubclt.MergeabilityConflicting).Times(2)
	ghClient.
		EXPECT().
		CreateIssueComment(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(9), gomock.Any()).
		Return(nil)

	gitClient.EXPECT().FetchBranch(gomock.Any(), gomock.Eq(targetBranch)).Return(nil)
	gitClient.EXPECT().FetchBranch(gomock.Any(), gomock.Eq(headBranch)).Return(nil)
	gitClient.EXPECT().CheckoutBranch(gomock.Any(), gomock.Eq(headBranch)).Return(nil)
	gitClient.EXPECT().Rebase(gomock.Any(), gomock.Eq(headBranch), gomock.Eq(targetBranch), gomock.Any()).
		Return(errors.New("rebase failed"))
	gitClient.EXPECT().AbortRebase(gomock.Any()).Return(nil).Times(1)

	summary, err := newTestCoordinator(t, ghClient, gitClient).Run(context.Background())
	require.NoError(t, err)

	item := resultOf(t, summary, 9)
	assert.Equal(t, BatchResultConflicting, item.Result)
	assert.Equal(t, OutcomeRejected, item.Outcome)
	assert.Error(t, item.ResolutionErr)
	assert.NoError(t, item.Err)
	assert.False(t, summary.Failed())
}

func TestRunReportsAllStrategiesFailed(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	mockctrl := gomock.NewController(t)
	ghClient := mocks.NewMockGithubClient(mockctrl)
	gitClient := mocks.NewMockGitClient(mockctrl)

	mockListCall(ghClient, newGithubPR(11, agentLogin, targetBranch))

	rejectedErr := hosterr.NewMergeRejectedError("rebase", errors.New("branch protection"))

	gomock.InOrder(
		mockMergeabilityCall(ghClient, 11, githubclt.MergeabilityMergeable),
		mockMergeabilityCall(ghClient, 11, githubclt.MergeabilityMergeable),
		mockMergeCall(ghClient, 11, githubclt.MergeStrategyRebase, rejectedErr),
		mockMergeCall(ghClient, 11, githubclt.MergeStrategySquash, rejectedErr),
		mockMergeCall(ghClient, 11, githubclt.MergeStrategyMerge, rejectedErr),
	)

	summary, err := newTestCoordinator(t, ghClient, gitClient).Run(context.Background())
	require.NoError(t, err)

	item := resultOf(t, summary, 11)
	assert.Equal(t, BatchResultAllStrategiesFailed, item.Result)
	assert.Equal(t, OutcomeAllStrategiesFailed, item.Outcome)
	assert.False(t, summary.Failed())
}

func TestRunFailsWhenListingFails(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	mockctrl := gomock.NewController(t)
	ghClient := mocks.NewMockGithubClient(mockctrl)
	gitClient := mocks.NewMockGitClient(mockctrl)

	ghClient.
		EXPECT().
		ListOpenPullRequests(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo)).
		Return(&fakePRIter{err: fmt.Errorf("%w: connection refused", hosterr.ErrHostUnavailable)})

	summary, err := newTestCoordinator(t, ghClient, gitClient).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, hosterr.ErrHostUnavailable)
	assert.Nil(t, summary)
}

func TestRunIsolatesPerPullRequestFailures(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	mockctrl := gomock.NewController(t)
	ghClient := mocks.NewMockGithubClient(mockctrl)
	gitClient := mocks.NewMockGitClient(mockctrl)

	mockListCall(ghClient,
		newGithubPR(1, agentLogin, targetBranch),
		newGithubPR(2, agentLogin, targetBranch),
	)

	// PR #1 vanishes between listing and processing, PR #2 is merged
	ghClient.
		EXPECT().
		Mergeability(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(1)).
		Return(nil, hosterr.ErrNotFound).
		Times(2)

	mockMergeabilityCall(ghClient, 2, githubclt.MergeabilityMergeable).Times(2)
	mockMergeCall(ghClient, 2, githubclt.MergeStrategyRebase, nil)

	summary, err := newTestCoordinator(t, ghClient, gitClient).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BatchResultUndetermined, resultOf(t, summary, 1).Result)
	assert.Error(t, resultOf(t, summary, 1).Err)
	assert.Equal(t, BatchResultMerged, resultOf(t, summary, 2).Result)
	assert.False(t, summary.Failed())
}
