package automerge

import (
	"context"

	"go.uber.org/zap"

	"github.com/praetorius/dependamerge/internal/logfields"
)

// DryGitClient simulates all operations on the local working copy.
// It is used together with DryGithubClient for dry runs, no branch is ever
// rebased or force-pushed.
type DryGitClient struct {
	logger *zap.Logger
}

func NewDryGitClient(logger *zap.Logger) *DryGitClient {
	return &DryGitClient{logger: logger.Named("dry_git_client")}
}

func (c *DryGitClient) FetchBranch(_ context.Context, branch string) error {
	c.logger.Info("simulated fetching branch", logfields.Branch(branch))
	return nil
}

func (c *DryGitClient) CheckoutBranch(_ context.Context, branch string) error {
	c.logger.Info("simulated checking out branch", logfields.Branch(branch))
	return nil
}

func (c *DryGitClient) Rebase(_ context.Context, headBranch, baseBranch, _ string) error {
	c.logger.Info(
		"simulated rebasing branch",
		logfields.HeadBranch(headBranch),
		logfields.BaseBranch(baseBranch),
	)
	return nil
}

func (c *DryGitClient) ForcePush(_ context.Context, branch string) error {
	c.logger.Info("simulated force-pushing branch", logfields.Branch(branch))
	return nil
}

func (c *DryGitClient) AbortRebase(context.Context) error {
	return nil
}
