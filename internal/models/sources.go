package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// FuelTransaction is a fuel dispense with the meter reading taken at the pump.
// DispensedAt and MeterReading are left loosely typed: older rows hold
// strings typed in by attendants.
type FuelTransaction struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AssetID      string             `bson:"asset_id" json:"asset_id"`
	DispensedAt  interface{}        `bson:"dispensed_at" json:"dispensed_at"`
	MeterReading interface{}        `bson:"meter_reading" json:"meter_reading"`
	Liters       float64            `bson:"liters" json:"liters"`
}

// Event converts the transaction into a meter reading event.
func (f FuelTransaction) Event() (MeterReadingEvent, bool) {
	return NewMeterReadingEvent(f.AssetID, f.DispensedAt, f.MeterReading, SourceFuelTransaction)
}

// Inspection is a checklist submission carrying an operator-entered meter reading.
type Inspection struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AssetID      string             `bson:"asset_id" json:"asset_id"`
	SubmittedAt  interface{}        `bson:"submitted_at" json:"submitted_at"`
	MeterReading interface{}        `bson:"meter_reading" json:"meter_reading"`
	Inspector    string             `bson:"inspector" json:"inspector"`
}

// Event converts the inspection into a meter reading event.
func (i Inspection) Event() (MeterReadingEvent, bool) {
	return NewMeterReadingEvent(i.AssetID, i.SubmittedAt, i.MeterReading, SourceInspection)
}
