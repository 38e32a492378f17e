// Package report assembles the per-asset maintenance status and usage report.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/costs"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/schedule"
	"github.com/ukydev/fleet-maintenance/internal/usage"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrStoreUnavailable is returned when a bulk read fails. The report is aborted.
	ErrStoreUnavailable = errors.New("maintenance store unavailable")
	// ErrInvalidWindow is returned when the report end is not after its start.
	ErrInvalidWindow = usage.ErrInvalidWindow
)

// Request scopes a report to a period and, optionally, a business unit or plant.
type Request struct {
	Start          time.Time
	End            time.Time
	BusinessUnitID string
	PlantID        string
}

// Report is the result of one report run. It is never stored.
type Report struct {
	ID          string                           `json:"report_id"`
	Start       time.Time                        `json:"start"`
	End         time.Time                        `json:"end"`
	GeneratedAt time.Time                        `json:"generated_at"`
	Degraded    bool                             `json:"degraded"` // cost figures missing
	Summaries   []models.AssetMaintenanceSummary `json:"summaries"`
}

// Assembler runs the usage and interval engines for every in-scope asset.
type Assembler struct {
	store       db.ReportStore
	costs       costs.Source
	engine      config.EngineConfig
	workers     int
	costTimeout time.Duration
	now         func() time.Time
}

// NewAssembler creates an assembler. costSource may be nil, in which case cost
// fields stay at zero.
func NewAssembler(store db.ReportStore, costSource costs.Source, engine config.EngineConfig, workers int, costTimeout time.Duration) *Assembler {
	if workers < 1 {
		workers = 1
	}
	return &Assembler{
		store:       store,
		costs:       costSource,
		engine:      engine,
		workers:     workers,
		costTimeout: costTimeout,
		now:         time.Now,
	}
}

type assetJob struct {
	asset     models.Asset
	plant     models.Plant
	intervals []models.MaintenanceInterval
	services  []models.ServiceRecord
	readings  *usage.AssetReadings
}

type costResult struct {
	figures map[string]models.AssetCostFigures
	err     error
}

// Generate builds the report. Only store failures are returned as errors;
// missing readings, intervals, history or cost figures leave fields empty.
func (a *Assembler) Generate(ctx context.Context, req Request) (*Report, error) {
	window, err := usage.NewWindow(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	started := a.now()
	rep := &Report{ID: uuid.NewString(), Start: req.Start, End: req.End}
	logger := log.WithFields(log.Fields{
		"report_id":     rep.ID,
		"start":         req.Start.Format(time.RFC3339),
		"end":           req.End.Format(time.RFC3339),
		"business_unit": req.BusinessUnitID,
		"plant":         req.PlantID,
	})
	logger.Info("Generating maintenance report")

	costCtx, cancelCosts := context.WithCancel(ctx)
	defer cancelCosts()
	costCh := a.fetchCosts(costCtx, req)

	jobs, err := a.loadJobs(ctx, req, window)
	if err != nil {
		logger.WithError(err).Error("Maintenance report aborted")
		return nil, err
	}

	rep.Summaries = make([]models.AssetMaintenanceSummary, len(jobs))
	var g errgroup.Group
	g.SetLimit(a.workers)
	for i := range jobs {
		i := i
		g.Go(func() error {
			rep.Summaries[i] = a.summarize(jobs[i], window, logger)
			return nil
		})
	}
	_ = g.Wait()

	if costCh != nil {
		res := <-costCh
		if res.err != nil {
			rep.Degraded = true
			logger.WithError(res.err).Warn("Cost figures unavailable, continuing without them")
		}
		for i := range rep.Summaries {
			if f, ok := res.figures[rep.Summaries[i].AssetID]; ok {
				rep.Summaries[i].ApplyCosts(f)
			}
		}
	}

	rep.GeneratedAt = a.now()
	logger.WithFields(log.Fields{
		"assets":   len(rep.Summaries),
		"degraded": rep.Degraded,
		"duration": rep.GeneratedAt.Sub(started).String(),
	}).Info("Maintenance report generated")
	return rep, nil
}

// fetchCosts calls the cost service in the background. The channel yields
// exactly one result, or is nil when no cost source is configured.
func (a *Assembler) fetchCosts(ctx context.Context, req Request) <-chan costResult {
	if a.costs == nil {
		return nil
	}
	ch := make(chan costResult, 1)
	go func() {
		if a.costTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.costTimeout)
			defer cancel()
		}
		figures, err := a.costs.AssetFigures(ctx, costs.Query{
			Start:          req.Start,
			End:            req.End,
			BusinessUnitID: req.BusinessUnitID,
			PlantID:        req.PlantID,
		})
		ch <- costResult{figures: figures, err: err}
	}()
	return ch
}

// loadJobs issues every bulk read once and groups the results per asset.
func (a *Assembler) loadJobs(ctx context.Context, req Request, window usage.Window) ([]assetJob, error) {
	org, err := a.store.LoadOrganization(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: organization: %v", ErrStoreUnavailable, err)
	}

	allIDs := make([]string, len(org.Assets))
	for i, asset := range org.Assets {
		allIDs[i] = asset.ID
	}
	assignments, err := a.store.FindPlantAssignments(ctx, allIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: plant assignments: %v", ErrStoreUnavailable, err)
	}
	attribution := NewAttribution(org.Assets, assignments)

	var jobs []assetJob
	var assetIDs, modelIDs []string
	seenModel := map[string]bool{}
	for _, asset := range org.Assets {
		plantID, ok := attribution.ResolvePlantAt(asset.ID, req.Start)
		if !ok {
			continue
		}
		plant, ok := org.PlantByID(plantID)
		if !ok {
			continue
		}
		if req.PlantID != "" && plant.ID != req.PlantID {
			continue
		}
		if req.BusinessUnitID != "" && plant.BusinessUnitID != req.BusinessUnitID {
			continue
		}
		jobs = append(jobs, assetJob{asset: asset, plant: plant})
		assetIDs = append(assetIDs, asset.ID)
		if asset.ModelID != "" && !seenModel[asset.ModelID] {
			seenModel[asset.ModelID] = true
			modelIDs = append(modelIDs, asset.ModelID)
		}
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	var intervals []models.MaintenanceInterval
	if len(modelIDs) > 0 {
		intervals, err = a.store.FindIntervals(ctx, modelIDs)
		if err != nil {
			return nil, fmt.Errorf("%w: intervals: %v", ErrStoreUnavailable, err)
		}
	}
	services, err := a.store.FindPreventiveServices(ctx, assetIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: service history: %v", ErrStoreUnavailable, err)
	}
	from := window.Extend(a.engine.ValidationLookback()).Start
	events, err := a.store.FindMeterEvents(ctx, assetIDs, from, window.End)
	if err != nil {
		return nil, fmt.Errorf("%w: meter readings: %v", ErrStoreUnavailable, err)
	}

	catalog := make(map[string][]models.MaintenanceInterval)
	intervalModel := make(map[string]string, len(intervals))
	for _, iv := range intervals {
		catalog[iv.ModelID] = append(catalog[iv.ModelID], iv)
		intervalModel[iv.ID] = iv.ModelID
	}
	history := make(map[string][]models.ServiceRecord)
	for _, r := range services {
		history[r.AssetID] = append(history[r.AssetID], r)
	}
	readings := usage.Normalize(events, window, a.engine)

	for i := range jobs {
		job := &jobs[i]
		job.intervals = catalog[job.asset.ModelID]
		for _, r := range history[job.asset.ID] {
			if intervalModel[r.IntervalID] == job.asset.ModelID {
				job.services = append(job.services, r)
			}
		}
		job.readings = readings[job.asset.ID]
	}
	return jobs, nil
}

func (a *Assembler) summarize(job assetJob, window usage.Window, logger *log.Entry) models.AssetMaintenanceSummary {
	asset := job.asset
	sum := models.AssetMaintenanceSummary{
		AssetID:         asset.ID,
		AssetCode:       asset.Code,
		AssetName:       asset.Name,
		ModelID:         asset.ModelID,
		PlantID:         job.plant.ID,
		PlantName:       job.plant.Name,
		BusinessUnitID:  job.plant.BusinessUnitID,
		MaintenanceUnit: asset.Unit(),
		CurrentValue:    asset.CurrentValue(),
	}

	cleaned := usage.Clean(job.readings, a.engine)
	est := usage.Accumulate(cleaned.Sequence, window, a.engine)
	sum.Usage = est.Total
	sum.UsageKnown = est.Known
	if logger.Logger.IsLevelEnabled(log.DebugLevel) {
		logger.WithFields(log.Fields{
			"asset_id":           asset.ID,
			"policy":             cleaned.Policy,
			"dropped_fuel":       cleaned.DroppedFuel,
			"dropped_inspection": cleaned.DroppedInspection,
			"pairs":              est.Pairs,
			"capped":             est.Capped,
			"skipped":            est.Skipped,
		}).Debug("Usage reconciled")
	}

	fallback := schedule.LastService(job.services, job.intervals)
	sel := schedule.Selection{LastService: fallback}
	if sched, ok := schedule.Resolve(sum.CurrentValue, sum.MaintenanceUnit, job.intervals, job.services, a.engine); ok {
		sel = schedule.Select(sched, job.services, fallback)
	}

	if st := sel.Interval; st != nil {
		sum.IntervalID = st.Interval.ID
		sum.IntervalName = st.Interval.Name
		sum.IntervalValue = st.Interval.IntervalValue
		sum.IntervalStatus = st.Status
		sum.IntervalDue = st.DueValue
		if st.Status == models.StatusOverdue {
			overdue := sel.OverdueBy
			sum.IntervalOverdue = &overdue
		} else {
			remaining := sel.RemainingTo
			sum.IntervalRemaining = &remaining
		}
	}
	if last := sel.LastService; last != nil {
		date := last.Date
		sum.LastServiceDate = &date
		sum.LastServiceValue = last.Value
		sum.LastServiceIntervalValue = last.IntervalValue
	}
	return sum
}
