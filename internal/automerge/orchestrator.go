package automerge

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/praetorius/dependamerge/internal/githubclt"
	"github.com/praetorius/dependamerge/internal/logfields"
)

// MergeOutcome is the terminal state the merge orchestrator reached for a
// pull request.
type MergeOutcome uint8

const (
	OutcomeUndefined MergeOutcome = iota
	// OutcomeMerged: the pull request was merged immediately.
	OutcomeMerged
	// OutcomeAutoMergeEnabled: a host-side auto-merge queue entry was
	// enabled, the host merges the pull request when its conditions are
	// fulfilled. The request was accepted, the eventual merge is not
	// observed in this run.
	OutcomeAutoMergeEnabled
	// OutcomeRejected: the pull request is in conflicting state, no
	// merge was attempted.
	OutcomeRejected
	// OutcomeUndetermined: the host did not compute the mergeability
	// status within the polling budget.
	OutcomeUndetermined
	// OutcomeAllStrategiesFailed: every merge strategy was refused by
	// the host.
	OutcomeAllStrategiesFailed
)

var mergeOutcomeString = [...]string{
	OutcomeUndefined:           "undefined",
	OutcomeMerged:              "merged",
	OutcomeAutoMergeEnabled:    "auto-merge enabled",
	OutcomeRejected:            "rejected, pull request is conflicting",
	OutcomeUndetermined:        "mergeability undetermined",
	OutcomeAllStrategiesFailed: "all merge strategies failed",
}

func (o MergeOutcome) String() string {
	if int(o) > len(mergeOutcomeString)-1 {
		return fmt.Sprintf("unsupported MergeOutcome value: %d", uint8(o))
	}

	return mergeOutcomeString[o]
}

// Orchestrator merges a single pull request by polling its mergeability
// status and attempting merge strategies in the fixed preference order
// until one succeeds.
//
// It runs an explicit state machine per pull request:
//
//	Polling    -> Attempting               (status is MERGEABLE)
//	Polling    -> Rejected                 (status is CONFLICTING)
//	Polling    -> Polling                  (status is UNKNOWN, budget left)
//	Polling    -> Undetermined             (polling budget exhausted)
//	Attempting -> Merged/AutoMergeEnabled  (a strategy succeeded)
//	Attempting -> AllStrategiesFailed      (every strategy was refused)
//
// Merged, AutoMergeEnabled, Rejected, Undetermined and AllStrategiesFailed
// are terminal, there are no retries across terminal states within a run.
type Orchestrator struct {
	ghClient GithubClient
	retryer  Retryer

	owner string
	repo  string

	// autoMergeMode requests a host-side deferred merge instead of
	// merging immediately
	autoMergeMode bool

	// initialDelay precedes the first poll, it gives the host time to
	// recompute mergeability after a conflict-resolution push
	initialDelay    time.Duration
	pollBackoff     time.Duration
	maxPollAttempts int

	logger *zap.Logger
}

func NewOrchestrator(ghClient GithubClient, retryer Retryer, owner, repo string, autoMergeMode bool, initialDelay, pollBackoff time.Duration, maxPollAttempts int) *Orchestrator {
	return &Orchestrator{
		ghClient:        ghClient,
		retryer:         retryer,
		owner:           owner,
		repo:            repo,
		autoMergeMode:   autoMergeMode,
		initialDelay:    initialDelay,
		pollBackoff:     pollBackoff,
		maxPollAttempts: maxPollAttempts,
		logger:          zap.L().Named(loggerName).Named("orchestrator"),
	}
}

// Process polls the mergeability of the pull request and merges it.
// It returns the terminal state that was reached, or an error when a host
// failure prevented reaching one. The two fixed delays of the polling loop
// are the only blocking points, both honor context cancellation.
func (o *Orchestrator) Process(ctx context.Context, pr *PullRequest) (MergeOutcome, error) {
	logger := o.logger.With(pr.LogFields...)

	if err := sleep(ctx, o.initialDelay); err != nil {
		return OutcomeUndefined, err
	}

	for attempt := 1; ; attempt++ {
		var status *githubclt.MergeabilityStatus

		err := o.retryer.Run(ctx, func(ctx context.Context) error {
			var err error
			status, err = o.ghClient.Mergeability(ctx, o.owner, o.repo, pr.Number)
			return err
		}, pr.LogFields)
		if err != nil {
			return OutcomeUndefined, fmt.Errorf("retrieving mergeability status failed: %w", err)
		}

		logger.Debug(
			"polled mergeability status",
			logfields.Event("mergeability_polled"),
			zap.String("mergeability_state", string(status.State)),
			zap.Int("poll_attempt", attempt),
		)

		switch status.State {
		case githubclt.MergeabilityMergeable:
			return o.attemptStrategies(ctx, pr)

		case githubclt.MergeabilityConflicting:
			logger.Info(
				"pull request is conflicting, no merge attempted",
				logfields.Event("merge_rejected"),
			)

			return OutcomeRejected, nil

		case githubclt.MergeabilityUnknown:
			if attempt >= o.maxPollAttempts {
				logger.Info(
					"mergeability still unknown after last poll attempt, leaving pull request for the next run",
					logfields.Event("mergeability_undetermined"),
					zap.Int("poll_attempts", attempt),
				)

				return OutcomeUndetermined, nil
			}

			if err := sleep(ctx, o.pollBackoff); err != nil {
				return OutcomeUndefined, err
			}

		default:
			return OutcomeUndefined, fmt.Errorf("host returned unsupported mergeability state: %q", status.State)
		}
	}
}

// attemptStrategies tries the merge strategies in preference order and
// returns on the first success.
// A refused strategy is logged and the next one is tried.
func (o *Orchestrator) attemptStrategies(ctx context.Context, pr *PullRequest) (MergeOutcome, error) {
	logger := o.logger.With(pr.LogFields...)

	for _, strategy := range githubclt.MergeStrategyPreferenceOrder {
		err := o.retryer.Run(ctx, func(ctx context.Context) error {
			if o.autoMergeMode {
				return o.ghClient.EnableAutoMerge(ctx, o.owner, o.repo, pr.Number, strategy)
			}

			return o.ghClient.Merge(ctx, o.owner, o.repo, pr.Number, strategy)
		}, pr.LogFields)
		if err != nil {
			if ctx.Err() != nil {
				return OutcomeUndefined, ctx.Err()
			}

			metrics.mergeAttemptFailed(strategy)
			logger.Info(
				"merge strategy failed, trying next strategy",
				logfields.Event("merge_strategy_failed"),
				logfields.MergeStrategy(string(strategy)),
				zap.Error(err),
			)

			continue
		}

		metrics.mergeAttemptSucceeded(strategy)

		if o.autoMergeMode {
			logger.Info(
				"auto-merge enabled for pull request",
				logfields.Event("automerge_enabled"),
				logfields.MergeStrategy(string(strategy)),
			)

			return OutcomeAutoMergeEnabled, nil
		}

		logger.Info(
			"pull request merged",
			logfields.Event("pull_request_merged"),
			logfields.MergeStrategy(string(strategy)),
		)

		return OutcomeMerged, nil
	}

	logger.Info(
		"all merge strategies failed",
		logfields.Event("all_merge_strategies_failed"),
	)

	return OutcomeAllStrategiesFailed, nil
}

// sleep blocks for the duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
