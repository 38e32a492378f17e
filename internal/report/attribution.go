package report

import (
	"sort"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Attribution answers which plant an asset belonged to at a point in time.
type Attribution struct {
	history map[string][]models.PlantAssignment
	current map[string]string
}

// NewAttribution indexes the assignment history of the given assets.
func NewAttribution(assets []models.Asset, assignments []models.PlantAssignment) *Attribution {
	a := &Attribution{
		history: make(map[string][]models.PlantAssignment),
		current: make(map[string]string, len(assets)),
	}
	for _, asset := range assets {
		a.current[asset.ID] = asset.PlantID
	}
	for _, pa := range assignments {
		a.history[pa.AssetID] = append(a.history[pa.AssetID], pa)
	}
	for _, h := range a.history {
		sort.SliceStable(h, func(i, j int) bool {
			return h[i].AssignedAt.Before(h[j].AssignedAt)
		})
	}
	return a
}

// ResolvePlantAt returns the plant of the latest assignment made at or before
// ts. Assets that never moved fall back to their current plant; assets whose
// recorded history starts after ts cannot be attributed.
func (a *Attribution) ResolvePlantAt(assetID string, ts time.Time) (string, bool) {
	h, ok := a.history[assetID]
	if !ok || len(h) == 0 {
		plant := a.current[assetID]
		return plant, plant != ""
	}
	idx := sort.Search(len(h), func(i int) bool {
		return h[i].AssignedAt.After(ts)
	})
	if idx == 0 {
		return "", false
	}
	plant := h[idx-1].PlantID
	return plant, plant != ""
}
