package automerge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/praetorius/dependamerge/internal/logfields"
)

// Coordinator runs the three automerge stages over the batch of open pull
// requests: eligibility filtering, conflict resolution and merge
// orchestration.
//
// Matched pull requests are processed sequentially, the conflict resolver
// mutates a single shared working copy and two concurrent checkouts would
// race on it.
// Per pull request, conflict resolution always completes before merge
// orchestration starts, and the orchestrator runs regardless of the
// resolution outcome.
type Coordinator struct {
	ghClient     GithubClient
	resolver     *ConflictResolver
	orchestrator *Orchestrator
	filter       *Filter

	owner string
	repo  string

	logger *zap.Logger
}

func NewCoordinator(ghClient GithubClient, filter *Filter, resolver *ConflictResolver, orchestrator *Orchestrator, owner, repo string) *Coordinator {
	return &Coordinator{
		ghClient:     ghClient,
		filter:       filter,
		resolver:     resolver,
		orchestrator: orchestrator,
		owner:        owner,
		repo:         repo,
		logger:       zap.L().Named(loggerName).Named("coordinator"),
	}
}

// Run executes a single automerge batch and returns the per pull request
// outcomes.
// An error is only returned when the open pull requests could not be listed
// at all, every later failure is isolated to the affected pull request and
// recorded in the summary.
func (c *Coordinator) Run(ctx context.Context) (*BatchSummary, error) {
	matchIter := c.filter.Matches(ctx, c.ghClient.ListOpenPullRequests(ctx, c.owner, c.repo))

	var matched []*PullRequest

	for {
		pr, err := matchIter.Next()
		if err != nil {
			return nil, fmt.Errorf("listing open pull requests failed: %w", err)
		}

		if pr == nil {
			break
		}

		matched = append(matched, pr)
	}

	c.logger.Info(
		"eligibility filter applied",
		logfields.Event("pull_requests_filtered"),
		zap.Int("matched_count", len(matched)),
		zap.Int("skipped_count", len(matchIter.Skipped())),
	)

	resolved := make(map[int]error, len(matched))

	for _, pr := range matched {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := c.resolver.Resolve(ctx, pr)
		resolved[pr.Number] = err
		metrics.rebaseRun(err == nil)

		if err != nil {
			c.logger.Info(
				"conflict resolution failed, pull request is processed further",
				append(pr.LogFields,
					logfields.Event("conflict_resolution_failed"),
					zap.Error(err))...,
			)
		}
	}

	summary := &BatchSummary{}

	for _, pr := range matched {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := c.processMatched(ctx, pr, resolved[pr.Number])
		metrics.processedPR(item.Result)
		summary.add(item)
	}

	for _, pr := range matchIter.Skipped() {
		summary.add(&BatchItem{PullRequest: pr, Result: BatchResultSkipped})
	}

	c.logger.Info(
		"run finished",
		logfields.Event("run_finished"),
		zap.Int("matched_count", summary.MatchedCount()),
		zap.Int("total_count", len(summary.Items)),
	)

	return summary, nil
}

// processMatched runs the merge orchestrator for a matched pull request and
// converts the outcome into a batch item.
// resolveErr is the outcome of the preceding conflict resolution, it only
// affects the classification of failures, the orchestrator runs either way.
func (c *Coordinator) processMatched(ctx context.Context, pr *PullRequest, resolveErr error) *BatchItem {
	outcome, err := c.orchestrator.Process(ctx, pr)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn(
				"processing pull request failed",
				append(pr.LogFields,
					logfields.Event("pull_request_processing_failed"),
					zap.Error(err))...,
			)
		}

		// covers hosterr.ErrNotFound: the pull request disappeared
		// between listing and merging, leave it to the next run
		return &BatchItem{PullRequest: pr, Result: BatchResultUndetermined, Err: err}
	}

	item := BatchItem{PullRequest: pr, Outcome: outcome}

	switch outcome {
	case OutcomeMerged, OutcomeAutoMergeEnabled:
		item.Result = BatchResultMerged
	case OutcomeRejected:
		// an unresolvable conflict is a deferred outcome, the pull
		// request is retried on the next run
		item.Result = BatchResultConflicting
		item.ResolutionErr = resolveErr
	case OutcomeUndetermined:
		item.Result = BatchResultUndetermined
	case OutcomeAllStrategiesFailed:
		item.Result = BatchResultAllStrategiesFailed
	default:
		item.Result = BatchResultUndetermined
		item.Err = fmt.Errorf("orchestrator returned unsupported outcome: %s", outcome)
	}

	return &item
}
