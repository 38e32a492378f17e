package schedule

import (
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Selection is the interval surfaced for an asset together with its last service.
type Selection struct {
	Interval    *models.IntervalStatus
	OverdueBy   float64 // counter units past due, set when overdue
	RemainingTo float64 // counter units until due, set when upcoming or scheduled
	LastService *ServiceRef
}

// Select picks the interval to report. Among overdue intervals the lowest
// tier wins, ties going to the larger overdue amount; otherwise the soonest
// due pending interval wins. The selected interval's own latest service
// replaces fallback when it is at least as recent.
func Select(s Schedule, history []models.ServiceRecord, fallback *ServiceRef) Selection {
	sel := Selection{LastService: fallback}

	var best *models.IntervalStatus
	for i := range s.Statuses {
		st := &s.Statuses[i]
		if !st.Status.Pending() {
			continue
		}
		if best == nil || preferred(st, best) {
			best = st
		}
	}
	if best == nil {
		return sel
	}

	chosen := *best
	sel.Interval = &chosen
	if chosen.Status == models.StatusOverdue {
		sel.OverdueBy = s.CurrentValue - chosen.DueValue
	} else {
		sel.RemainingTo = chosen.DueValue - s.CurrentValue
	}

	if own := latestFor(history, chosen.Interval.ID); own != nil {
		if fallback == nil || !own.Date.Before(fallback.Date) {
			sel.LastService = &ServiceRef{
				IntervalID:    own.IntervalID,
				Date:          own.Date,
				Value:         own.UsageValue,
				IntervalValue: chosen.Interval.IntervalValue,
			}
		}
	}
	return sel
}

// preferred reports whether a should be surfaced instead of b.
func preferred(a, b *models.IntervalStatus) bool {
	aOver := a.Status == models.StatusOverdue
	bOver := b.Status == models.StatusOverdue
	if aOver != bOver {
		return aOver
	}
	if aOver {
		if a.Interval.IntervalValue != b.Interval.IntervalValue {
			return a.Interval.IntervalValue < b.Interval.IntervalValue
		}
		// same tier: the larger overdue amount, i.e. the earlier due point
		if a.DueValue != b.DueValue {
			return a.DueValue < b.DueValue
		}
		return a.Interval.ID < b.Interval.ID
	}
	if a.DueValue != b.DueValue {
		return a.DueValue < b.DueValue
	}
	if a.Interval.IntervalValue != b.Interval.IntervalValue {
		return a.Interval.IntervalValue < b.Interval.IntervalValue
	}
	return a.Interval.ID < b.Interval.ID
}

func latestFor(history []models.ServiceRecord, intervalID string) *models.ServiceRecord {
	var latest *models.ServiceRecord
	for i := range history {
		r := &history[i]
		if r.IntervalID != intervalID {
			continue
		}
		if latest == nil || newer(*r, *latest) {
			latest = r
		}
	}
	return latest
}
