package usage

import (
	"sort"

	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// SkipReason explains why a pair of consecutive readings contributed nothing.
type SkipReason string

const (
	SkipNone            SkipReason = ""
	SkipBeforeWindow    SkipReason = "before_window"
	SkipAfterWindow     SkipReason = "after_window"
	SkipCounterReset    SkipReason = "counter_reset"
	SkipCounterJitter   SkipReason = "counter_jitter"
	SkipDuplicate       SkipReason = "duplicate"
	SkipUnrealisticJump SkipReason = "unrealistic_jump"
)

// PairOutcome is the result of evaluating one (current, next) pair.
type PairOutcome struct {
	Contribution float64
	Capped       bool
	Reason       SkipReason
}

// EvaluatePair decides how much usage the step from cur to next adds to the
// window. It has no side effects.
func EvaluatePair(cur, next models.Reading, w Window, cfg config.EngineConfig) PairOutcome {
	if next.Timestamp.Before(w.Start) {
		return PairOutcome{Reason: SkipBeforeWindow}
	}
	if !cur.Timestamp.Before(w.End) {
		return PairOutcome{Reason: SkipAfterWindow}
	}

	delta := next.Value - cur.Value
	if delta < 0 {
		if -delta <= cfg.ResetTolerance {
			return PairOutcome{Reason: SkipCounterJitter}
		}
		return PairOutcome{Reason: SkipCounterReset}
	}

	elapsed := next.Timestamp.Sub(cur.Timestamp)
	if elapsed < cfg.MinPairElapsed {
		return PairOutcome{Reason: SkipDuplicate}
	}
	elapsedDays := elapsed.Hours() / day

	if ratePerDay(delta, elapsedDays) > cfg.MaxRatePerDay && elapsedDays < cfg.LongGapDays {
		return PairOutcome{Reason: SkipUnrealisticJump}
	}

	if limit := cfg.MaxRatePerDay * elapsedDays; elapsedDays > 0 && delta > limit {
		return PairOutcome{Contribution: limit, Capped: true}
	}
	return PairOutcome{Contribution: delta}
}

// Estimate is the usage accrued by one asset inside a window.
type Estimate struct {
	Total   float64
	Known   bool
	Pairs   int
	Capped  int
	Skipped map[SkipReason]int
}

// Accumulate walks a cleaned chronological sequence from its baseline and
// sums the contribution of every pair. A negative or zero sum yields 0.
func Accumulate(seq []models.Reading, w Window, cfg config.EngineConfig) Estimate {
	est := Estimate{Skipped: map[SkipReason]int{}}
	if len(seq) < 2 {
		return est
	}
	base, ok := baseline(seq, w)
	if !ok || base == len(seq)-1 {
		return est
	}
	est.Known = true

	var total float64
	for i := base; i < len(seq)-1; i++ {
		out := EvaluatePair(seq[i], seq[i+1], w, cfg)
		if out.Reason != SkipNone {
			est.Skipped[out.Reason]++
			continue
		}
		est.Pairs++
		if out.Capped {
			est.Capped++
		}
		total += out.Contribution
	}
	if total > 0 {
		est.Total = total
	}
	return est
}

// baseline returns the index of the last reading strictly before the window
// start, or the first reading at or after it.
func baseline(seq []models.Reading, w Window) (int, bool) {
	first := sort.Search(len(seq), func(i int) bool {
		return !seq[i].Timestamp.Before(w.Start)
	})
	if first > 0 {
		return first - 1, true
	}
	if first < len(seq) {
		return first, true
	}
	return 0, false
}
