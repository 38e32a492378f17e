package db

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// CachedStore keeps interval catalogs in memory. The catalog is read-only
// reference data, everything else passes through to the wrapped store.
type CachedStore struct {
	ReportStore
	catalog *cache.Cache
}

// NewCachedStore wraps store with a catalog cache that expires entries after ttl.
func NewCachedStore(store ReportStore, ttl time.Duration) *CachedStore {
	return &CachedStore{
		ReportStore: store,
		catalog:     cache.New(ttl, 2*ttl),
	}
}

// FindIntervals serves cached models and fetches the rest in one call.
func (s *CachedStore) FindIntervals(ctx context.Context, modelIDs []string) ([]models.MaintenanceInterval, error) {
	var out []models.MaintenanceInterval
	var missing []string
	for _, id := range modelIDs {
		if cached, ok := s.catalog.Get(id); ok {
			out = append(out, cached.([]models.MaintenanceInterval)...)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := s.ReportStore.FindIntervals(ctx, missing)
	if err != nil {
		return nil, err
	}
	byModel := make(map[string][]models.MaintenanceInterval, len(missing))
	for _, id := range missing {
		byModel[id] = nil
	}
	for _, iv := range fetched {
		byModel[iv.ModelID] = append(byModel[iv.ModelID], iv)
	}
	for id, intervals := range byModel {
		s.catalog.SetDefault(id, intervals)
	}
	return append(out, fetched...), nil
}

// Flush drops every cached catalog.
func (s *CachedStore) Flush() {
	s.catalog.Flush()
}
