package models

// MaintenanceUnit is the counter an asset's maintenance schedule is driven by.
type MaintenanceUnit string

const (
	UnitHours    MaintenanceUnit = "hours"
	UnitDistance MaintenanceUnit = "distance"
)

// IsValid reports whether u is a known unit.
func (u MaintenanceUnit) IsValid() bool {
	return u == UnitHours || u == UnitDistance
}

// Asset represents a piece of equipment (vehicle, generator, loader) tracked by the fleet.
type Asset struct {
	ID              string          `bson:"_id" json:"id"`
	Code            string          `bson:"code" json:"code"`
	Name            string          `bson:"name" json:"name"`
	ModelID         string          `bson:"model_id" json:"model_id"`
	PlantID         string          `bson:"plant_id" json:"plant_id"` // current plant
	MaintenanceUnit MaintenanceUnit `bson:"maintenance_unit" json:"maintenance_unit"`
	CurrentHours    float64         `bson:"current_hours" json:"current_hours"`
	CurrentDistance float64         `bson:"current_distance" json:"current_distance"` // in kilometers
}

// CurrentValue returns the cumulative counter matching the asset's maintenance unit.
// Assets without a unit are treated as hour-driven.
func (a Asset) CurrentValue() float64 {
	if a.MaintenanceUnit == UnitDistance {
		return a.CurrentDistance
	}
	return a.CurrentHours
}

// Unit returns the asset's maintenance unit, defaulting to hours.
func (a Asset) Unit() MaintenanceUnit {
	if a.MaintenanceUnit.IsValid() {
		return a.MaintenanceUnit
	}
	return UnitHours
}
