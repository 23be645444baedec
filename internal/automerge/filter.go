package automerge

import (
	"context"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
	"go.uber.org/zap"

	"github.com/praetorius/dependamerge/internal/githubclt"
	"github.com/praetorius/dependamerge/internal/logfields"
	"github.com/praetorius/dependamerge/internal/stringutils"
)

// Filter selects the pull requests that qualify for automated merging: the
// author must be the dependency-update agent and the pull request must
// target the configured base branch.
// Both comparisons are exact-match on whitespace-trimmed values.
// An optional jq filter query further restricts the selection.
//
// Matching has no side effects and is deterministic for identical input.
type Filter struct {
	agentIdentifier string
	targetBranch    string
	filterQuery     *gojq.Query
	logger          *zap.Logger
}

// NewFilter returns a filter selecting pull requests authored by
// agentIdentifier that target targetBranch.
// jqQuery is an optional jq expression that is evaluated against a JSON
// representation of the pull request and must evaluate to a single boolean.
// An empty jqQuery matches every pull request.
func NewFilter(agentIdentifier, targetBranch, jqQuery string) (*Filter, error) {
	result := Filter{
		agentIdentifier: strings.TrimSpace(agentIdentifier),
		targetBranch:    strings.TrimSpace(targetBranch),
		logger:          zap.L().Named(loggerName).Named("filter"),
	}

	if jqQuery != "" {
		query, err := gojq.Parse(jqQuery)
		if err != nil {
			return nil, fmt.Errorf("parsing filter query failed: %w", err)
		}

		result.filterQuery = query
	}

	return &result, nil
}

// Match returns true when the pull request qualifies for automated merging.
func (f *Filter) Match(ctx context.Context, pr *PullRequest) (bool, error) {
	if !stringutils.EqualTrimmed(pr.Author, f.agentIdentifier) {
		return false, nil
	}

	if !stringutils.EqualTrimmed(pr.BaseBranch, f.targetBranch) {
		return false, nil
	}

	if f.filterQuery == nil {
		return true, nil
	}

	return f.evalFilterQuery(ctx, pr)
}

func (f *Filter) evalFilterQuery(ctx context.Context, pr *PullRequest) (bool, error) {
	input := map[string]any{
		"number":      pr.Number,
		"title":       pr.Title,
		"author":      pr.Author,
		"base_branch": pr.BaseBranch,
		"head_branch": pr.HeadBranch,
		"url":         pr.URL,
	}

	iter := f.filterQuery.RunWithContext(ctx, input)

	res, ok := iter.Next()
	if !ok {
		return false, fmt.Errorf("filter query returned 0 results, expected 1, query: %q", f.filterQuery.String())
	}

	if _, hasMore := iter.Next(); hasMore {
		return false, fmt.Errorf("filter query returned multiple results, expected 1, query: %q", f.filterQuery.String())
	}

	switch val := res.(type) {
	case error:
		return false, fmt.Errorf("filter query failed: %w", val)

	case bool:
		return val, nil

	default:
		return false, fmt.Errorf("filter query returned non-bool result: %+v (%T), query: %q",
			res, res, f.filterQuery.String())
	}
}

// MatchIter lazily filters the pull requests of a host iterator, preserving
// the host-reported order.
type MatchIter struct {
	filter *Filter
	it     githubclt.PRIterator
	ctx    context.Context

	skipped []*PullRequest
}

// Matches returns an iterator over the pull requests of it that qualify for
// automated merging.
func (f *Filter) Matches(ctx context.Context, it githubclt.PRIterator) *MatchIter {
	return &MatchIter{
		filter: f,
		it:     it,
		ctx:    ctx,
	}
}

// Next returns the next matching pull request.
// When the sequence is exhausted a nil PullRequest is returned.
func (m *MatchIter) Next() (*PullRequest, error) {
	for {
		ghPR, err := m.it.Next()
		if err != nil {
			return nil, err
		}

		if ghPR == nil {
			return nil, nil
		}

		pr, err := NewPullRequestFromGithub(ghPR)
		if err != nil {
			m.filter.logger.Warn(
				"ignoring malformed pull request object",
				logfields.Event("pull_request_object_malformed"),
				logfields.PullRequest(ghPR.GetNumber()),
				zap.Error(err),
			)

			continue
		}

		match, err := m.filter.Match(m.ctx, pr)
		if err != nil {
			return nil, err
		}

		if match {
			return pr, nil
		}

		m.skipped = append(m.skipped, pr)
	}
}

// Skipped returns the pull requests that were seen by Next() but did not
// match.
func (m *MatchIter) Skipped() []*PullRequest {
	return m.skipped
}
