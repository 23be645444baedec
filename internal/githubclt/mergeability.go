package githubclt

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v43/github"
	"github.com/shurcooL/githubv4"

	"github.com/praetorius/dependamerge/internal/hosterr"
)

// MergeabilityState abstracts the mergeable and mergeable_state fields of
// the GitHub pull request API into a single value.
type MergeabilityState string

const (
	// MergeabilityMergeable means the pull request can be merged without
	// conflicts.
	MergeabilityMergeable MergeabilityState = "MERGEABLE"
	// MergeabilityConflicting means the pull request has merge conflicts
	// with its base branch.
	MergeabilityConflicting MergeabilityState = "CONFLICTING"
	// MergeabilityUnknown means the host has not computed the
	// mergeability status yet. It is a transient state, the host
	// recomputes the status in the background.
	MergeabilityUnknown MergeabilityState = "UNKNOWN"
)

// MergeStrategy is the method used to integrate the commits of a pull
// request into its base branch.
type MergeStrategy string

const (
	MergeStrategyRebase MergeStrategy = "rebase"
	MergeStrategySquash MergeStrategy = "squash"
	MergeStrategyMerge  MergeStrategy = "merge"
)

// MergeStrategyPreferenceOrder is the fixed order in which merge strategies
// are attempted until one succeeds.
var MergeStrategyPreferenceOrder = []MergeStrategy{
	MergeStrategyRebase,
	MergeStrategySquash,
	MergeStrategyMerge,
}

func (s MergeStrategy) graphQLMergeMethod() (githubv4.PullRequestMergeMethod, error) {
	switch s {
	case MergeStrategyRebase:
		return githubv4.PullRequestMergeMethodRebase, nil
	case MergeStrategySquash:
		return githubv4.PullRequestMergeMethodSquash, nil
	case MergeStrategyMerge:
		return githubv4.PullRequestMergeMethodMerge, nil
	default:
		return "", fmt.Errorf("unsupported merge strategy: %q", string(s))
	}
}

// MergeabilityStatus is the current mergeability of a pull request, together
// with the branch names that were current when the status was retrieved.
type MergeabilityStatus struct {
	State      MergeabilityState
	HeadBranch string
	BaseBranch string
}

// Mergeability queries the current mergeability state of the pull request.
// GitHub computes the state asynchronously, MergeabilityUnknown is returned
// while the computation has not finished.
// If the pull request does not exist hosterr.ErrNotFound is returned, if it
// was closed in the meantime ErrPullRequestIsClosed is returned.
func (clt *Client) Mergeability(ctx context.Context, owner, repo string, pullRequestNumber int) (*MergeabilityStatus, error) {
	pr, _, err := clt.restClt.PullRequests.Get(ctx, owner, repo, pullRequestNumber)
	if err != nil {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) && errResp.Response.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", hosterr.ErrNotFound, err)
		}

		return nil, clt.wrapRetryableErrors(err)
	}

	if pr.GetState() == "closed" {
		return nil, ErrPullRequestIsClosed
	}

	headBranch := pr.GetHead().GetRef()
	if headBranch == "" {
		return nil, errors.New("got pull request object with empty head ref field")
	}

	baseBranch := pr.GetBase().GetRef()
	if baseBranch == "" {
		return nil, errors.New("got pull request object with empty base ref field")
	}

	return &MergeabilityStatus{
		State:      toMergeabilityState(pr),
		HeadBranch: headBranch,
		BaseBranch: baseBranch,
	}, nil
}

func toMergeabilityState(pr *github.PullRequest) MergeabilityState {
	// the mergeable field is null while github computes the merge commit
	// in the background
	if pr.Mergeable == nil {
		return MergeabilityUnknown
	}

	if *pr.Mergeable {
		return MergeabilityMergeable
	}

	return MergeabilityConflicting
}
