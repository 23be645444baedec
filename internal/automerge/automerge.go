// Package automerge merges dependency-update pull requests into a designated
// base branch.
//
// A run consists of three stages that are executed over a batch of pull
// requests:
//  1. The eligibility filter selects open pull requests that were created by
//     the dependency-update agent and target the configured base branch.
//  2. The conflict resolver rebases conflicting pull request branches onto
//     their base branch, preferring the base branch side for every
//     conflicting hunk, and force-pushes the result.
//  3. The merge orchestrator polls the mergeability of each pull request and
//     attempts the configured merge strategies in a fixed order until one
//     succeeds.
//
// Failures are isolated per pull request, one failing pull request does not
// abort the batch. Nothing is persisted between runs, eligibility is
// recomputed from scratch on every run.
package automerge

import (
	"context"

	"go.uber.org/zap"

	"github.com/praetorius/dependamerge/internal/githubclt"
)

const loggerName = "automerge"

//go:generate mockgen -package mocks -destination mocks/mocks.go -source automerge.go

// GithubClient is the interface of the repository host API consumed by the
// automerge stages.
type GithubClient interface {
	ListOpenPullRequests(ctx context.Context, owner, repo string) githubclt.PRIterator
	Mergeability(ctx context.Context, owner, repo string, pullRequestNumber int) (*githubclt.MergeabilityStatus, error)
	Merge(ctx context.Context, owner, repo string, pullRequestNumber int, strategy githubclt.MergeStrategy) error
	EnableAutoMerge(ctx context.Context, owner, repo string, pullRequestNumber int, strategy githubclt.MergeStrategy) error
	CreateIssueComment(ctx context.Context, owner, repo string, issueOrPRNr int, comment string) error
}

// GitClient is the interface of the local version control system consumed by
// the conflict resolver.
// Implementations operate on a single working copy, the conflict resolver
// serializes access to it.
type GitClient interface {
	FetchBranch(ctx context.Context, branch string) error
	CheckoutBranch(ctx context.Context, branch string) error
	Rebase(ctx context.Context, headBranch, baseBranch, conflictPolicy string) error
	ForcePush(ctx context.Context, branch string) error
	AbortRebase(ctx context.Context) error
}

// Retryer is an interface used for running GithubClient methods repeatedly
// if they fail with a temporary error.
type Retryer interface {
	Run(context.Context, func(context.Context) error, []zap.Field) error
	Stop()
}
