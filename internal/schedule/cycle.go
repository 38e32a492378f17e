// Package schedule resolves where an asset stands in its cyclic preventive
// maintenance schedule and which interval should be surfaced.
package schedule

import (
	"math"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Schedule is the classified state of an asset's interval catalog.
type Schedule struct {
	Unit         models.MaintenanceUnit
	CurrentValue float64
	CycleLength  float64
	CurrentCycle int
	CycleStart   float64
	CycleEnd     float64
	Statuses     []models.IntervalStatus
}

// Resolve classifies every catalog interval for an asset whose counter is at
// currentValue. history must already be limited to preventive services of
// catalog intervals. It returns false when the catalog has no interval in the
// asset's unit, i.e. no schedule exists.
func Resolve(currentValue float64, unit models.MaintenanceUnit, catalog []models.MaintenanceInterval, history []models.ServiceRecord, cfg config.EngineConfig) (Schedule, bool) {
	var cycleLength float64
	for _, iv := range catalog {
		if unitOf(iv, unit) == unit {
			cycleLength = math.Max(cycleLength, iv.IntervalValue)
		}
	}
	if cycleLength <= 0 {
		return Schedule{}, false
	}

	cycle := int(math.Floor(currentValue/cycleLength)) + 1
	s := Schedule{
		Unit:         unit,
		CurrentValue: currentValue,
		CycleLength:  cycleLength,
		CurrentCycle: cycle,
		CycleStart:   float64(cycle-1) * cycleLength,
		CycleEnd:     float64(cycle) * cycleLength,
	}

	byID := make(map[string]models.MaintenanceInterval, len(catalog))
	for _, iv := range catalog {
		byID[iv.ID] = iv
	}
	var inCycle []models.ServiceRecord
	for _, r := range history {
		if r.UsageValue > s.CycleStart && r.UsageValue < s.CycleEnd {
			inCycle = append(inCycle, r)
		}
	}

	c := classifier{s: s, cfg: cfg, byID: byID, inCycle: inCycle, history: history}
	s.Statuses = make([]models.IntervalStatus, 0, len(catalog))
	for _, iv := range catalog {
		s.Statuses = append(s.Statuses, c.classify(iv))
	}
	return s, true
}

type classifier struct {
	s       Schedule
	cfg     config.EngineConfig
	byID    map[string]models.MaintenanceInterval
	inCycle []models.ServiceRecord
	history []models.ServiceRecord
}

func (c classifier) classify(iv models.MaintenanceInterval) models.IntervalStatus {
	st := models.IntervalStatus{Interval: iv, Status: models.StatusNotApplicable}
	if unitOf(iv, c.s.Unit) != c.s.Unit {
		return st
	}
	if iv.IsFirstCycleOnly && c.s.CurrentCycle != 1 {
		return st
	}

	due := c.s.CycleStart + iv.IntervalValue
	if due > c.s.CycleEnd {
		due = c.s.CycleEnd + iv.IntervalValue
		if due-c.s.CurrentValue > c.cfg.FarFutureThreshold {
			st.DueValue = due
			return st
		}
	}
	st.DueValue = due

	switch {
	case c.completed(iv):
		st.Status = models.StatusCompleted
	case c.covered(iv, due):
		st.Status = models.StatusCovered
	case c.s.CurrentValue >= due:
		st.Status = models.StatusOverdue
	case c.s.CurrentValue >= due-c.cfg.NearDueThreshold:
		st.Status = models.StatusUpcoming
	default:
		st.Status = models.StatusScheduled
	}
	return st
}

// completed: serviced for this exact interval in the current cycle. A
// non-recurring interval stays completed once it was serviced in any cycle.
func (c classifier) completed(iv models.MaintenanceInterval) bool {
	records := c.inCycle
	if !iv.Recurring() {
		records = c.history
	}
	for _, r := range records {
		if r.IntervalID == iv.ID {
			return true
		}
	}
	return false
}

// covered: a same-or-higher tier service of the same unit and category was
// performed in the current cycle no earlier than this interval's due point.
func (c classifier) covered(iv models.MaintenanceInterval, due float64) bool {
	for _, r := range c.inCycle {
		done, ok := c.byID[r.IntervalID]
		if !ok || r.UsageValue < due {
			continue
		}
		if done.IntervalValue < iv.IntervalValue {
			continue
		}
		if unitOf(done, c.s.Unit) != unitOf(iv, c.s.Unit) {
			continue
		}
		if done.Category != "" && iv.Category != "" && done.Category != iv.Category {
			continue
		}
		return true
	}
	return false
}

func unitOf(iv models.MaintenanceInterval, fallback models.MaintenanceUnit) models.MaintenanceUnit {
	if iv.Unit == "" {
		return fallback
	}
	return iv.Unit
}

// ServiceRef describes the service reported as an asset's last service.
type ServiceRef struct {
	IntervalID    string    `json:"interval_id"`
	Date          time.Time `json:"date"`
	Value         float64   `json:"value"`
	IntervalValue float64   `json:"interval_value"`
}

// LastService returns the most recent record of the whole history, whatever
// interval it satisfied. Same-day records prefer the higher counter value.
func LastService(history []models.ServiceRecord, catalog []models.MaintenanceInterval) *ServiceRef {
	latest := -1
	for i, r := range history {
		if latest < 0 || newer(r, history[latest]) {
			latest = i
		}
	}
	if latest < 0 {
		return nil
	}
	r := history[latest]
	ref := &ServiceRef{IntervalID: r.IntervalID, Date: r.Date, Value: r.UsageValue}
	for _, iv := range catalog {
		if iv.ID == r.IntervalID {
			ref.IntervalValue = iv.IntervalValue
			break
		}
	}
	return ref
}

func newer(a, b models.ServiceRecord) bool {
	if a.Date.Equal(b.Date) {
		return a.UsageValue > b.UsageValue
	}
	return a.Date.After(b.Date)
}
