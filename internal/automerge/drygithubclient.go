package automerge

import (
	"context"

	"go.uber.org/zap"

	"github.com/praetorius/dependamerge/internal/githubclt"
)

// DryGithubClient is a github client that does not do any changes on github.
// All mutating operations are simulated and always succeed, read operations
// are forwarded to a wrapped GithubClient.
type DryGithubClient struct {
	clt    GithubClient
	logger *zap.Logger
}

func NewDryGithubClient(clt GithubClient, logger *zap.Logger) *DryGithubClient {
	return &DryGithubClient{
		clt:    clt,
		logger: logger.Named("dry_github_client"),
	}
}

func (c *DryGithubClient) ListOpenPullRequests(ctx context.Context, owner, repo string) githubclt.PRIterator {
	return c.clt.ListOpenPullRequests(ctx, owner, repo)
}

func (c *DryGithubClient) Mergeability(ctx context.Context, owner, repo string, pullRequestNumber int) (*githubclt.MergeabilityStatus, error) {
	return c.clt.Mergeability(ctx, owner, repo, pullRequestNumber)
}

func (c *DryGithubClient) Merge(context.Context, string, string, int, githubclt.MergeStrategy) error {
	c.logger.Info("simulated merging of pull request, no merge executed on github")
	return nil
}

func (c *DryGithubClient) EnableAutoMerge(context.Context, string, string, int, githubclt.MergeStrategy) error {
	c.logger.Info("simulated enabling auto-merge, nothing changed on github")
	return nil
}

func (c *DryGithubClient) CreateIssueComment(context.Context, string, string, int, string) error {
	c.logger.Info("simulated creating of github issue comment, no comment created on github")
	return nil
}
