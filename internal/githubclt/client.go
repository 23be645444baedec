// Package githubclt provides a github API client.
package githubclt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/google/go-github/v43/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/praetorius/dependamerge/internal/hosterr"
	"github.com/praetorius/dependamerge/internal/logfields"
)

const DefaultHTTPClientTimeout = time.Minute

const loggerName = "github_client"

var ErrPullRequestIsClosed = errors.New("pull request is closed")

// New returns a new github api client.
func New(oauthAPItoken string) *Client {
	httpClient := newHTTPClient(oauthAPItoken)
	return &Client{
		restClt:    github.NewClient(httpClient),
		graphQLClt: githubv4.NewClient(httpClient),
		logger:     zap.L().Named(loggerName),
	}
}

func newHTTPClient(apiToken string) *http.Client {
	if apiToken == "" {
		return &http.Client{
			Timeout: DefaultHTTPClientTimeout,
		}
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: apiToken},
	)

	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = DefaultHTTPClientTimeout

	return tc
}

// Client is a github API client.
// Methods return a hosterr.RetryableError when an operation can be retried.
// This is e.g. the case when the API ratelimit is exceeded.
type Client struct {
	restClt    *github.Client
	graphQLClt *githubv4.Client
	logger     *zap.Logger
}

// Merge merges the pull request via the given strategy.
// If the host refuses to merge with the strategy, e.g. because branch
// protection rules forbid the merge method, a hosterr.MergeRejectedError is
// returned.
func (clt *Client) Merge(ctx context.Context, owner, repo string, pullRequestNumber int, strategy MergeStrategy) error {
	result, _, err := clt.restClt.PullRequests.Merge(
		ctx, owner, repo, pullRequestNumber, "",
		&github.PullRequestOptions{MergeMethod: string(strategy)},
	)
	if err != nil {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) {
			switch errResp.Response.StatusCode {
			case http.StatusMethodNotAllowed, http.StatusConflict, http.StatusForbidden, http.StatusUnprocessableEntity:
				return hosterr.NewMergeRejectedError(string(strategy), err)
			case http.StatusNotFound:
				return fmt.Errorf("%w: %s", hosterr.ErrNotFound, err)
			}
		}

		return clt.wrapRetryableErrors(err)
	}

	if !result.GetMerged() {
		return hosterr.NewMergeRejectedError(string(strategy), errors.New(result.GetMessage()))
	}

	return nil
}

// EnableAutoMerge schedules merging the pull request on the host via the
// given strategy as soon as all merge requirements are fulfilled.
// The GitHub REST API does not support enabling auto-merge, the GraphQL
// enablePullRequestAutoMerge mutation is used instead.
func (clt *Client) EnableAutoMerge(ctx context.Context, owner, repo string, pullRequestNumber int, strategy MergeStrategy) error {
	nodeID, err := clt.prNodeID(ctx, owner, repo, pullRequestNumber)
	if err != nil {
		return err
	}

	method, err := strategy.graphQLMergeMethod()
	if err != nil {
		return err
	}

	var mutation struct {
		EnablePullRequestAutoMerge struct {
			PullRequest struct {
				Number githubv4.Int
			}
		} `graphql:"enablePullRequestAutoMerge(input: $input)"`
	}

	input := githubv4.EnablePullRequestAutoMergeInput{
		PullRequestID: githubv4.ID(nodeID),
		MergeMethod:   &method,
	}

	err = clt.graphQLClt.Mutate(ctx, &mutation, input, nil)
	if err != nil {
		err = clt.wrapGraphQLRetryableErrors(err)

		var retryable *hosterr.RetryableError
		if errors.As(err, &retryable) {
			return err
		}

		// the mutation fails when the pull request is in clean state
		// and could be merged directly, or when auto-merge is
		// disabled for the repository
		return hosterr.NewMergeRejectedError(string(strategy), err)
	}

	return nil
}

func (clt *Client) prNodeID(ctx context.Context, owner, repo string, pullRequestNumber int) (string, error) {
	pr, _, err := clt.restClt.PullRequests.Get(ctx, owner, repo, pullRequestNumber)
	if err != nil {
		return "", clt.wrapRetryableErrors(err)
	}

	nodeID := pr.GetNodeID()
	if nodeID == "" {
		return "", errors.New("got pull request object with empty node_id field")
	}

	return nodeID, nil
}

// CreateIssueComment creates a comment in an issue or pull request.
func (clt *Client) CreateIssueComment(ctx context.Context, owner, repo string, issueOrPRNr int, comment string) error {
	_, _, err := clt.restClt.Issues.CreateComment(ctx, owner, repo, issueOrPRNr, &github.IssueComment{Body: &comment})
	return clt.wrapRetryableErrors(err)
}

type PRIterator interface {
	Next() (*github.PullRequest, error)
}

type PRIter struct {
	clt *Client

	ctx   context.Context
	owner string
	repo  string

	unseen []*github.PullRequest

	nextPage int
	finished bool
}

// Next returns the next pull request.
// When the last result was returned a nil PullRequest is returned.
// A transport failure is reported as hosterr.ErrHostUnavailable.
func (it *PRIter) Next() (*github.PullRequest, error) {
	if len(it.unseen) > 0 {
		result := it.unseen[0]
		it.unseen = it.unseen[1:]

		return result, nil
	}

	if it.finished {
		return nil, nil
	}

	prs, resp, err := it.clt.restClt.PullRequests.List(it.ctx, it.owner, it.repo, &github.PullRequestListOptions{
		State:     "open",
		Sort:      "updated",
		Direction: "desc",
		ListOptions: github.ListOptions{
			Page:    it.nextPage,
			PerPage: 100,
		},
	})
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("%w: %s", hosterr.ErrHostUnavailable, err)
		}

		return nil, it.clt.wrapRetryableErrors(err)
	}

	if resp.NextPage == 0 || resp.PrevPage+1 == resp.LastPage || len(prs) == 0 {
		it.finished = true
	} else {
		it.nextPage = resp.NextPage
	}

	it.unseen = prs

	return it.Next()
}

// ListOpenPullRequests returns an iterator for receiving all open pull
// requests of the repository, in the order the host reports them
// (most-recently-updated first).
func (clt *Client) ListOpenPullRequests(ctx context.Context, owner, repo string) PRIterator { // interface is returned to make the method mockable
	return &PRIter{
		clt:      clt,
		ctx:      ctx,
		owner:    owner,
		repo:     repo,
		nextPage: 1,
	}
}

func (clt *Client) wrapRetryableErrors(err error) error {
	switch v := err.(type) {
	case *github.RateLimitError:
		clt.logger.Info(
			"rate limit exceeded",
			logfields.Event("github_api_rate_limit_exceeded"),
			zap.Int("github_api_rate_limit", v.Rate.Limit),
			zap.Time("github_api_rate_limit_reset_time", v.Rate.Reset.Time),
		)

		return hosterr.NewRetryableError(err, v.Rate.Reset.Time)

	case *github.ErrorResponse:
		if v.Response.StatusCode >= 500 && v.Response.StatusCode < 600 {
			return hosterr.NewRetryableAnytimeError(err)
		}
	}

	return err
}

var graphQlHTTPStatusErrRe = regexp.MustCompile(`^non-200 OK status code: ([0-9]+) .*`)

func (clt *Client) wrapGraphQLRetryableErrors(err error) error {
	matches := graphQlHTTPStatusErrRe.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return err
	}

	errcode, atoiErr := strconv.Atoi(matches[1])
	if atoiErr != nil {
		clt.logger.Info(
			"parsing http code from error string failed",
			zap.Error(atoiErr),
			zap.String("error_string", err.Error()),
			zap.String("http_errcode", matches[1]),
		)
		return err
	}

	if errcode >= 500 && errcode < 600 {
		return hosterr.NewRetryableAnytimeError(err)
	}

	return err
}
