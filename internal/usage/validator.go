package usage

import (
	"math"
	"sort"

	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

const day = 24.0 // hours

// ValidateFuel drops fuel-dispense readings that go backwards or climb faster
// than MaxRatePerDay over a span shorter than LongGapDays. The first reading
// is always kept and each later reading is compared with the last kept one.
func ValidateFuel(readings []models.Reading, cfg config.EngineConfig) []models.Reading {
	if len(readings) == 0 {
		return nil
	}
	sorted := make([]models.Reading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	kept := []models.Reading{sorted[0]}
	for _, cur := range sorted[1:] {
		prev := kept[len(kept)-1]
		delta := cur.Value - prev.Value
		if delta < 0 {
			continue
		}
		elapsedDays := cur.Timestamp.Sub(prev.Timestamp).Hours() / day
		if elapsedDays >= cfg.LongGapDays || ratePerDay(delta, elapsedDays) <= cfg.MaxRatePerDay {
			kept = append(kept, cur)
		}
	}
	return kept
}

func ratePerDay(delta, elapsedDays float64) float64 {
	if delta == 0 {
		return 0
	}
	if elapsedDays <= 0 {
		return math.Inf(1)
	}
	return delta / elapsedDays
}

// CleaningPolicy decides which inspection readings survive.
type CleaningPolicy interface {
	Name() string
	Filter(inspection []models.Reading) []models.Reading
}

// corroboratedPolicy keeps inspection values inside a corridor derived from
// validated fuel-dispense values.
type corroboratedPolicy struct {
	low, high float64
}

func (p corroboratedPolicy) Name() string { return "corroborated" }

func (p corroboratedPolicy) Filter(inspection []models.Reading) []models.Reading {
	var out []models.Reading
	for _, r := range inspection {
		if r.Value >= p.low && r.Value <= p.high {
			out = append(out, r)
		}
	}
	return out
}

// uncorroboratedPolicy is used when no fuel data exists: nothing to compare against.
type uncorroboratedPolicy struct{}

func (uncorroboratedPolicy) Name() string { return "uncorroborated" }

func (uncorroboratedPolicy) Filter(inspection []models.Reading) []models.Reading {
	return inspection
}

// PolicyFor picks the corroborated policy when any validated fuel value is
// available. The corridor is [min - factor*range, max + factor*range] over
// the validated sequence and the reference set together.
func PolicyFor(validated, reference []models.Reading, factor float64) CleaningPolicy {
	if len(validated) == 0 && len(reference) == 0 {
		return uncorroboratedPolicy{}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, set := range [][]models.Reading{validated, reference} {
		for _, r := range set {
			lo = math.Min(lo, r.Value)
			hi = math.Max(hi, r.Value)
		}
	}
	spread := hi - lo
	return corroboratedPolicy{low: lo - factor*spread, high: hi + factor*spread}
}

// Cleaned is the outcome of cleaning one asset's readings.
type Cleaned struct {
	Sequence          []models.Reading
	Policy            string
	DroppedFuel       int
	DroppedInspection int
}

// Clean validates fuel readings, bounds inspection readings with the chosen
// policy and merges both into one deduplicated chronological sequence.
func Clean(r *AssetReadings, cfg config.EngineConfig) Cleaned {
	if r == nil {
		return Cleaned{Policy: uncorroboratedPolicy{}.Name()}
	}
	validated := ValidateFuel(r.Fuel, cfg)
	reference := ValidateFuel(r.FuelReference, cfg)
	policy := PolicyFor(validated, reference, cfg.CorridorFactor)
	inspection := policy.Filter(r.Inspection)

	merged := make([]models.Reading, 0, len(validated)+len(inspection))
	merged = append(merged, validated...)
	merged = append(merged, inspection...)

	return Cleaned{
		Sequence:          compact(merged),
		Policy:            policy.Name(),
		DroppedFuel:       len(r.Fuel) - len(validated),
		DroppedInspection: len(r.Inspection) - len(inspection),
	}
}
