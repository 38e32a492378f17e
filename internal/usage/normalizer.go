// Package usage reconstructs per-asset usage for a reporting window from
// fuel-dispense and inspection meter readings.
package usage

import (
	"errors"
	"sort"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ErrInvalidWindow is returned for windows whose end is not after their start.
var ErrInvalidWindow = errors.New("window end must be after start")

// Window is a half-open reporting period [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow validates and builds a window.
func NewWindow(start, end time.Time) (Window, error) {
	if !end.After(start) {
		return Window{}, ErrInvalidWindow
	}
	return Window{Start: start, End: end}, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Extend returns the window with its start moved back by margin.
func (w Window) Extend(margin time.Duration) Window {
	return Window{Start: w.Start.Add(-margin), End: w.End}
}

// AssetReadings are one asset's readings split by origin, each sorted by
// time with exact duplicates collapsed.
type AssetReadings struct {
	Fuel       []models.Reading // usage window plus lookback
	Inspection []models.Reading // usage window plus lookback
	// FuelReference covers the wider validation lookback and is only used to
	// bound inspection readings.
	FuelReference []models.Reading
}

// Merged returns fuel and inspection readings as one chronological sequence.
func (a *AssetReadings) Merged() []models.Reading {
	all := make([]models.Reading, 0, len(a.Fuel)+len(a.Inspection))
	all = append(all, a.Fuel...)
	all = append(all, a.Inspection...)
	return compact(all)
}

// Normalize groups events by asset and origin. Fuel and inspection readings
// are kept when they fall in the window extended by the usage lookback; fuel
// readings inside the validation lookback also feed FuelReference.
func Normalize(events []models.MeterReadingEvent, w Window, cfg config.EngineConfig) map[string]*AssetReadings {
	usageWindow := w.Extend(cfg.Lookback())
	referenceWindow := w.Extend(cfg.ValidationLookback())

	out := make(map[string]*AssetReadings)
	for _, e := range events {
		if !referenceWindow.Contains(e.Timestamp) {
			continue
		}
		r, ok := out[e.AssetID]
		if !ok {
			r = &AssetReadings{}
			out[e.AssetID] = r
		}
		switch e.Source {
		case models.SourceFuelTransaction:
			r.FuelReference = append(r.FuelReference, e.Reading())
			if usageWindow.Contains(e.Timestamp) {
				r.Fuel = append(r.Fuel, e.Reading())
			}
		case models.SourceInspection:
			if usageWindow.Contains(e.Timestamp) {
				r.Inspection = append(r.Inspection, e.Reading())
			}
		}
	}

	for id, r := range out {
		r.Fuel = compact(r.Fuel)
		r.Inspection = compact(r.Inspection)
		r.FuelReference = compact(r.FuelReference)
		if len(r.Fuel) == 0 && len(r.Inspection) == 0 && len(r.FuelReference) == 0 {
			delete(out, id)
		}
	}
	return out
}

// compact sorts by time (then value) and collapses consecutive readings that
// share both timestamp and value.
func compact(readings []models.Reading) []models.Reading {
	if len(readings) == 0 {
		return nil
	}
	sorted := make([]models.Reading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Value < sorted[j].Value
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := sorted[:1]
	for _, r := range sorted[1:] {
		last := out[len(out)-1]
		if last.Timestamp.Equal(r.Timestamp) && last.Value == r.Value {
			continue
		}
		out = append(out, r)
	}
	return out
}
