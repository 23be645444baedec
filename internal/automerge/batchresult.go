package automerge

import (
	"fmt"
	"strings"

	"github.com/praetorius/dependamerge/internal/stringutils"
)

// BatchResult classifies what happened to a single pull request during a
// run.
type BatchResult uint8

const (
	BatchResultUndefined BatchResult = iota
	// BatchResultMerged: the pull request was merged or a host-side
	// auto-merge entry was enabled for it.
	BatchResultMerged
	// BatchResultConflicting: the pull request has merge conflicts that
	// could not be resolved in this run.
	BatchResultConflicting
	// BatchResultUndetermined: the host did not compute the mergeability
	// status before the polling budget was exhausted, or a host error
	// prevented processing. The pull request is left for the next run.
	BatchResultUndetermined
	// BatchResultAllStrategiesFailed: the pull request was mergeable but
	// the host refused every merge strategy.
	BatchResultAllStrategiesFailed
	// BatchResultSkipped: the pull request did not qualify for
	// automation.
	BatchResultSkipped
)

var batchResultString = [...]string{
	BatchResultUndefined:           "undefined",
	BatchResultMerged:              "matched-and-merged",
	BatchResultConflicting:         "matched-but-conflicting",
	BatchResultUndetermined:        "matched-but-undetermined",
	BatchResultAllStrategiesFailed: "matched-all-strategies-failed",
	BatchResultSkipped:             "skipped-not-eligible",
}

func (r BatchResult) String() string {
	if int(r) > len(batchResultString)-1 {
		return fmt.Sprintf("unsupported BatchResult value: %d", uint8(r))
	}

	return batchResultString[r]
}

// BatchItem is the per pull request outcome of a run.
type BatchItem struct {
	PullRequest *PullRequest
	Result      BatchResult
	// Outcome is set for matched pull requests that were processed by
	// the merge orchestrator.
	Outcome MergeOutcome
	// Err holds the error that prevented processing the pull request, it
	// is nil when the pull request reached a terminal state.
	Err error
	// ResolutionErr holds the conflict resolution failure for pull
	// requests that stayed in conflicting state. It does not count as a
	// processing failure, the pull request is retried on the next run.
	ResolutionErr error
}

func (i *BatchItem) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "PR #%d (%s): %s", i.PullRequest.Number, i.PullRequest.Title, i.Result)

	if i.Outcome != OutcomeUndefined {
		fmt.Fprintf(&sb, ", merge outcome: %s", i.Outcome)
	}

	if i.ResolutionErr != nil {
		fmt.Fprintf(&sb, ", conflict resolution failed: %s", i.ResolutionErr)
	}

	if i.Err != nil {
		fmt.Fprintf(&sb, ", error: %s", i.Err)
	}

	return sb.String()
}

// BatchSummary aggregates the outcomes of a single run.
// It is only used for reporting, nothing is persisted between runs.
type BatchSummary struct {
	Items []*BatchItem
}

func (s *BatchSummary) add(item *BatchItem) {
	s.Items = append(s.Items, item)
}

// MatchedCount returns the number of pull requests that passed the
// eligibility filter.
func (s *BatchSummary) MatchedCount() int {
	var cnt int

	for _, item := range s.Items {
		if item.Result != BatchResultSkipped {
			cnt++
		}
	}

	return cnt
}

// Failed returns true when every matched pull request failed with an error.
// Deferred outcomes (conflicting, undetermined, all-strategies-failed) are
// terminal states, not failures.
func (s *BatchSummary) Failed() bool {
	var matched, errored int

	for _, item := range s.Items {
		if item.Result == BatchResultSkipped {
			continue
		}

		matched++
		if item.Err != nil {
			errored++
		}
	}

	return matched > 0 && matched == errored
}

func (s *BatchSummary) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "processed %d pull requests, %d matched\n", len(s.Items), s.MatchedCount())

	var items strings.Builder
	for _, item := range s.Items {
		items.WriteString(item.String() + "\n")
	}

	sb.WriteString(stringutils.IndentString(items.String(), "  "))

	return strings.TrimRight(sb.String(), "\n ")
}
