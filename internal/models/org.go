package models

import "time"

// BusinessUnit represents the top level of the organizational hierarchy.
type BusinessUnit struct {
	ID   string `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// Plant represents an operating site that owns assets.
type Plant struct {
	ID             string `bson:"_id" json:"id"`
	BusinessUnitID string `bson:"business_unit_id" json:"business_unit_id"`
	Name           string `bson:"name" json:"name"`
}

// PlantAssignment records that an asset moved to a plant at a point in time.
type PlantAssignment struct {
	AssetID    string    `bson:"asset_id" json:"asset_id"`
	PlantID    string    `bson:"plant_id" json:"plant_id"`
	AssignedAt time.Time `bson:"assigned_at" json:"assigned_at"`
}

// Organization is a snapshot of the hierarchy: business units, plants and their assets.
type Organization struct {
	BusinessUnits []BusinessUnit
	Plants        []Plant
	Assets        []Asset
}

// PlantByID returns the plant with the given id.
func (o *Organization) PlantByID(id string) (Plant, bool) {
	for _, p := range o.Plants {
		if p.ID == id {
			return p, true
		}
	}
	return Plant{}, false
}

// BusinessUnitByID returns the business unit with the given id.
func (o *Organization) BusinessUnitByID(id string) (BusinessUnit, bool) {
	for _, bu := range o.BusinessUnits {
		if bu.ID == id {
			return bu, true
		}
	}
	return BusinessUnit{}, false
}
