package db

import (
	"context"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ReportStore defines the bulk reads a maintenance report needs. Every method
// is called once per report with the full asset or model set.
type ReportStore interface {
	LoadOrganization(ctx context.Context) (*models.Organization, error)
	FindPlantAssignments(ctx context.Context, assetIDs []string) ([]models.PlantAssignment, error)
	FindIntervals(ctx context.Context, modelIDs []string) ([]models.MaintenanceInterval, error)
	FindPreventiveServices(ctx context.Context, assetIDs []string) ([]models.ServiceRecord, error)
	FindMeterEvents(ctx context.Context, assetIDs []string, from, to time.Time) ([]models.MeterReadingEvent, error)
}

// FleetWriter defines the inserts used to seed a fleet.
type FleetWriter interface {
	InsertFleet(ctx context.Context, fleet Fleet) error
}

// Fleet is a full set of documents for seeding.
type Fleet struct {
	BusinessUnits    []models.BusinessUnit
	Plants           []models.Plant
	Assets           []models.Asset
	PlantAssignments []models.PlantAssignment
	Intervals        []models.MaintenanceInterval
	Services         []models.ServiceRecord
	FuelTransactions []models.FuelTransaction
	Inspections      []models.Inspection
}
