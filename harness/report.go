package harness

import (
	stdErrors "errors"

	uuid "github.com/hashicorp/go-uuid"

	laberrors "github.com/seravalle/locklab/errors"
	"github.com/seravalle/locklab/metrics"
)

// Outcome records what one actor observed.
type Outcome struct {
	ActorID   string
	Succeeded bool
	// OverlapObserved is set when the actor saw another holder inside the
	// critical section at the same time, which is direct evidence of broken
	// mutual exclusion.
	OverlapObserved bool
	// Observed is the value read back from the resource, when relevant.
	Observed int64
	// Err is ErrConflict when the actor held the lock but found the resource
	// claimed by an earlier, already-released holder; any other non-nil
	// value is a store failure.
	Err error
}

// Report aggregates the outcomes of one scenario run.
type Report struct {
	RunID    string
	Scenario string

	Attempts    int
	Successes   int
	Conflicts   int
	Violations  int
	LostUpdates int64
	StoreErrors int

	Outcomes []Outcome
}

func newReport(scenario string, attempts int) (*Report, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, err
	}
	return &Report{
		RunID:    id,
		Scenario: scenario,
		Attempts: attempts,
		Outcomes: make([]Outcome, 0, attempts),
	}, nil
}

func (r *Report) add(out Outcome) {
	r.Outcomes = append(r.Outcomes, out)
	switch {
	case out.Succeeded:
		r.Successes++
	case stdErrors.Is(out.Err, laberrors.ErrConflict):
		r.Conflicts++
	case out.Err != nil:
		r.StoreErrors++
	}
}

// finishExclusive derives the violation count for a contention run: any
// success beyond the single expected winner, plus every overlap an actor
// observed inside the critical section. Conflicts are sequential losers and
// never count.
func (r *Report) finishExclusive() {
	if r.Successes > 1 {
		r.Violations += r.Successes - 1
	}
	for _, out := range r.Outcomes {
		if out.OverlapObserved {
			r.Violations++
		}
	}
	if r.Violations > 0 {
		metrics.ViolationCounter.Add(float64(r.Violations))
	}
}

// Failed reports whether the run should be treated as a failure: an
// invariant was violated, or store errors exceeded the tolerance. Ordinary
// contention losses never fail a run.
func (r *Report) Failed(storeErrorTolerance int) bool {
	return r.Violations > 0 || r.StoreErrors > storeErrorTolerance
}
