package automerge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/praetorius/dependamerge/internal/githubclt"
	"github.com/praetorius/dependamerge/internal/gitclt"
	"github.com/praetorius/dependamerge/internal/logfields"
)

const abortRebaseTimeout = 30 * time.Second

const conflictCommentTemplate = "Automatic conflict resolution for this pull request failed, " +
	"rebasing `%s` onto `%s` could not be completed.\n" +
	"The pull request is left unchanged and will be retried on the next run."

// ConflictResolver rebases conflicting pull request branches onto their base
// branch.
// Conflicting hunks are resolved by preferring the base branch side, the
// rebased branch is force-pushed to the remote. This is only safe because
// the eligibility filter guarantees that exclusively disposable,
// agent-created branches are processed, human-authored branches must never
// be routed through the resolver.
//
// The resolver mutates a single shared local working copy, access to it is
// serialized.
type ConflictResolver struct {
	ghClient  GithubClient
	gitClient GitClient
	retryer   Retryer

	owner string
	repo  string

	// workingCopyLock serializes all operations on the local working
	// copy, it supports only one checked out branch at a time.
	workingCopyLock sync.Mutex

	logger *zap.Logger
}

func NewConflictResolver(ghClient GithubClient, gitClient GitClient, retryer Retryer, owner, repo string) *ConflictResolver {
	return &ConflictResolver{
		ghClient:  ghClient,
		gitClient: gitClient,
		retryer:   retryer,
		owner:     owner,
		repo:      repo,
		logger:    zap.L().Named(loggerName).Named("conflict_resolver"),
	}
}

// Resolve detects and resolves merge conflicts of the pull request.
// If the pull request is not in conflicting state it is a no-op.
// Otherwise the head branch is rebased onto the base branch and
// force-pushed.
// On failure the rebase is aborted, the branch is restored to its pre-rebase
// state and an error is returned. The error only concerns this pull
// request, processing other pull requests of the batch can continue.
func (r *ConflictResolver) Resolve(ctx context.Context, pr *PullRequest) error {
	logger := r.logger.With(pr.LogFields...)

	var status *githubclt.MergeabilityStatus

	err := r.retryer.Run(ctx, func(ctx context.Context) error {
		var err error
		status, err = r.ghClient.Mergeability(ctx, r.owner, r.repo, pr.Number)
		return err
	}, pr.LogFields)
	if err != nil {
		return fmt.Errorf("retrieving mergeability status failed: %w", err)
	}

	if status.State != githubclt.MergeabilityConflicting {
		logger.Debug(
			"pull request has no conflicts, nothing to resolve",
			logfields.Event("conflict_resolution_skipped"),
			zap.String("mergeability_state", string(status.State)),
		)

		return nil
	}

	// the branch names from the listing snapshot can be stale, use the
	// ones that were current when the mergeability status was retrieved
	err = r.rebaseOntoBase(ctx, status.HeadBranch, status.BaseBranch)
	if err != nil {
		logger.Info(
			"automatic conflict resolution failed",
			logfields.Event("conflict_resolution_failed"),
			zap.Error(err),
		)

		r.commentResolutionFailed(pr, status)

		return err
	}

	logger.Info(
		"conflicts resolved, rebased branch was force-pushed",
		logfields.Event("conflict_resolution_succeeded"),
	)

	return nil
}

func (r *ConflictResolver) rebaseOntoBase(ctx context.Context, headBranch, baseBranch string) error {
	r.workingCopyLock.Lock()
	defer r.workingCopyLock.Unlock()

	if err := r.gitClient.FetchBranch(ctx, baseBranch); err != nil {
		return fmt.Errorf("fetching base branch failed: %w", err)
	}

	if err := r.gitClient.FetchBranch(ctx, headBranch); err != nil {
		return fmt.Errorf("fetching head branch failed: %w", err)
	}

	if err := r.gitClient.CheckoutBranch(ctx, headBranch); err != nil {
		return fmt.Errorf("checking out head branch failed: %w", err)
	}

	err := r.gitClient.Rebase(ctx, headBranch, baseBranch, gitclt.ConflictPolicyPreferBase)
	if err != nil {
		// abort with an own context, the rebase must also be aborted
		// when the run was cancelled, the remote branch must never be
		// left in a conflicted state
		abortCtx, cancelFn := context.WithTimeout(context.Background(), abortRebaseTimeout)
		defer cancelFn()

		if abortErr := r.gitClient.AbortRebase(abortCtx); abortErr != nil {
			r.logger.Warn(
				"aborting rebase failed",
				logfields.Event("rebase_abort_failed"),
				zap.Error(abortErr),
			)
		}

		return fmt.Errorf("rebase failed: %w", err)
	}

	if err := r.gitClient.ForcePush(ctx, headBranch); err != nil {
		return fmt.Errorf("force-pushing rebased branch failed: %w", err)
	}

	return nil
}

// commentResolutionFailed posts a comment on the pull request informing that
// automatic conflict resolution failed.
// Failures are only logged, the comment is informational.
func (r *ConflictResolver) commentResolutionFailed(pr *PullRequest, status *githubclt.MergeabilityStatus) {
	ctx, cancelFn := context.WithTimeout(context.Background(), time.Minute)
	defer cancelFn()

	comment := fmt.Sprintf(conflictCommentTemplate, status.HeadBranch, status.BaseBranch)

	err := r.ghClient.CreateIssueComment(ctx, r.owner, r.repo, pr.Number, comment)
	if err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn(
			"creating pull request comment failed",
			logfields.Event("pull_request_comment_failed"),
			zap.Error(err),
		)
	}
}
