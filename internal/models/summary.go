package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the classification of a maintenance interval for an asset's current cycle.
type Status string

const (
	StatusNotApplicable Status = "not_applicable"
	StatusCompleted     Status = "completed"
	StatusCovered       Status = "covered"
	StatusOverdue       Status = "overdue"
	StatusUpcoming      Status = "upcoming"
	StatusScheduled     Status = "scheduled"
)

// Pending reports whether the status still requires action.
func (s Status) Pending() bool {
	return s == StatusOverdue || s == StatusUpcoming || s == StatusScheduled
}

// IntervalStatus is the derived state of one catalog interval. Never persisted.
type IntervalStatus struct {
	Interval MaintenanceInterval `json:"interval"`
	Status   Status              `json:"status"`
	DueValue float64             `json:"due_value"`
}

// AssetMaintenanceSummary is the per-asset line of a maintenance report.
type AssetMaintenanceSummary struct {
	AssetID         string          `json:"asset_id"`
	AssetCode       string          `json:"asset_code"`
	AssetName       string          `json:"asset_name"`
	ModelID         string          `json:"model_id"`
	PlantID         string          `json:"plant_id"`
	PlantName       string          `json:"plant_name"`
	BusinessUnitID  string          `json:"business_unit_id"`
	MaintenanceUnit MaintenanceUnit `json:"maintenance_unit"`
	CurrentValue    float64         `json:"current_value"`
	Usage           float64         `json:"usage"`
	UsageKnown      bool            `json:"usage_known"`

	IntervalID        string   `json:"interval_id,omitempty"`
	IntervalName      string   `json:"interval_name,omitempty"`
	IntervalValue     float64  `json:"interval_value,omitempty"`
	IntervalStatus    Status   `json:"interval_status,omitempty"`
	IntervalDue       float64  `json:"interval_due,omitempty"`
	IntervalOverdue   *float64 `json:"interval_overdue,omitempty"`
	IntervalRemaining *float64 `json:"interval_remaining,omitempty"`

	LastServiceDate          *time.Time `json:"last_service_date,omitempty"`
	LastServiceValue         float64    `json:"last_service_value,omitempty"`
	LastServiceIntervalValue float64    `json:"last_service_interval_value,omitempty"`

	PreventiveCost   decimal.Decimal `json:"preventive_cost"`
	CorrectiveCost   decimal.Decimal `json:"corrective_cost"`
	FuelCost         decimal.Decimal `json:"fuel_cost"`
	FuelVolume       decimal.Decimal `json:"fuel_volume"`
	PreventiveOrders int             `json:"preventive_orders"`
	CorrectiveOrders int             `json:"corrective_orders"`
	ThroughputCount  int64           `json:"throughput_count"`
}

// ApplyCosts copies externally computed figures onto the summary.
func (s *AssetMaintenanceSummary) ApplyCosts(c AssetCostFigures) {
	s.PreventiveCost = c.PreventiveCost
	s.CorrectiveCost = c.CorrectiveCost
	s.FuelCost = c.FuelCost
	s.FuelVolume = c.FuelVolume
	s.PreventiveOrders = c.PreventiveOrders
	s.CorrectiveOrders = c.CorrectiveOrders
	s.ThroughputCount = c.ThroughputCount
}
