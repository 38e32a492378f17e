package models

import "github.com/shopspring/decimal"

// AssetCostFigures are the per-asset totals computed by the cost aggregation service.
type AssetCostFigures struct {
	AssetID          string          `json:"asset_id"`
	PreventiveCost   decimal.Decimal `json:"preventive_cost"`
	CorrectiveCost   decimal.Decimal `json:"corrective_cost"`
	FuelCost         decimal.Decimal `json:"fuel_cost"`
	FuelVolume       decimal.Decimal `json:"fuel_volume"` // in liters
	PreventiveOrders int             `json:"preventive_orders"`
	CorrectiveOrders int             `json:"corrective_orders"`
	ThroughputCount  int64           `json:"throughput_count"`
}

// TotalMaintenanceCost sums preventive and corrective cost.
func (c AssetCostFigures) TotalMaintenanceCost() decimal.Decimal {
	return c.PreventiveCost.Add(c.CorrectiveCost)
}
