package automerge

import (
	"errors"
	"fmt"

	"github.com/google/go-github/v43/github"
	"go.uber.org/zap"

	"github.com/praetorius/dependamerge/internal/logfields"
)

// PullRequest is an immutable snapshot of a pull request, taken when the
// open pull requests were listed.
// The snapshot can become stale while a run is in progress, mutating
// operations re-query the current state from the host before acting.
type PullRequest struct {
	Number     int
	Title      string
	Author     string
	BaseBranch string
	HeadBranch string
	URL        string
	LogFields  []zap.Field
}

func NewPullRequest(nr int, title, author, baseBranch, headBranch, url string) (*PullRequest, error) {
	if nr <= 0 {
		return nil, fmt.Errorf("number is %d, must be >0", nr)
	}

	if author == "" {
		return nil, errors.New("author is empty")
	}

	if baseBranch == "" {
		return nil, errors.New("base branch is empty")
	}

	if headBranch == "" {
		return nil, errors.New("head branch is empty")
	}

	return &PullRequest{
		Number:     nr,
		Title:      title,
		Author:     author,
		BaseBranch: baseBranch,
		HeadBranch: headBranch,
		URL:        url,
		LogFields: []zap.Field{
			logfields.PullRequest(nr),
			logfields.Author(author),
			logfields.BaseBranch(baseBranch),
			logfields.HeadBranch(headBranch),
		},
	}, nil
}

// NewPullRequestFromGithub converts a pull request API object into a
// PullRequest snapshot.
func NewPullRequestFromGithub(pr *github.PullRequest) (*PullRequest, error) {
	return NewPullRequest(
		pr.GetNumber(),
		pr.GetTitle(),
		pr.GetUser().GetLogin(),
		pr.GetBase().GetRef(),
		pr.GetHead().GetRef(),
		pr.GetHTMLURL(),
	)
}

func (p *PullRequest) Equal(other any) bool {
	p1, ok := other.(*PullRequest)
	if !ok {
		return false
	}

	return p.Number == p1.Number
}
