package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// MaintenanceInterval is a catalog entry for an equipment model: a task that
// falls due every IntervalValue units within a cycle.
type MaintenanceInterval struct {
	ID               string          `bson:"_id" json:"id"`
	ModelID          string          `bson:"model_id" json:"model_id"`
	Name             string          `bson:"name" json:"name"`
	IntervalValue    float64         `bson:"interval_value" json:"interval_value"`
	Unit             MaintenanceUnit `bson:"type" json:"type"`
	Category         string          `bson:"maintenance_category,omitempty" json:"maintenance_category,omitempty"`
	IsRecurring      *bool           `bson:"is_recurring,omitempty" json:"is_recurring,omitempty"`
	IsFirstCycleOnly bool            `bson:"is_first_cycle_only" json:"is_first_cycle_only"`
}

// Recurring reports whether the interval repeats every cycle. Missing values default to true.
func (i MaintenanceInterval) Recurring() bool {
	return i.IsRecurring == nil || *i.IsRecurring
}

// ServiceType is the normalized kind of a service record.
type ServiceType string

const (
	ServicePreventive ServiceType = "preventive"
	ServiceCorrective ServiceType = "corrective"
	ServiceUnknown    ServiceType = "unknown"
)

var (
	folder = cases.Fold()

	serviceSpellings = map[string]ServiceType{
		"preventive":               ServicePreventive,
		"preventative":             ServicePreventive,
		"preventivo":               ServicePreventive,
		"preventiva":               ServicePreventive,
		"mantenimiento preventivo": ServicePreventive,
		"corrective":               ServiceCorrective,
		"correctivo":               ServiceCorrective,
		"correctiva":               ServiceCorrective,
		"mantenimiento correctivo": ServiceCorrective,
	}
)

// ParseServiceType folds case and surrounding whitespace and maps the known
// English and Spanish spellings onto a ServiceType.
func ParseServiceType(raw string) ServiceType {
	key := strings.Join(strings.Fields(folder.String(raw)), " ")
	if t, ok := serviceSpellings[key]; ok {
		return t
	}
	return ServiceUnknown
}

// ServiceRecord is a completed maintenance service. IntervalID points directly
// at the MaintenanceInterval it satisfied.
type ServiceRecord struct {
	ID         string      `bson:"_id" json:"id"`
	AssetID    string      `bson:"asset_id" json:"asset_id"`
	IntervalID string      `bson:"interval_id" json:"interval_id"`
	UsageValue float64     `bson:"usage_value" json:"usage_value"` // counter at service time
	Date       time.Time   `bson:"date" json:"date"`
	RawType    string      `bson:"type" json:"-"`
	Type       ServiceType `bson:"-" json:"type"`
}

// Normalize fills Type from the stored spelling.
func (r *ServiceRecord) Normalize() {
	r.Type = ParseServiceType(r.RawType)
}

// IsPreventive reports whether the record is a preventive service.
func (r ServiceRecord) IsPreventive() bool {
	return r.Type == ServicePreventive
}
