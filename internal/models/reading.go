package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReadingSource identifies where a meter reading was captured.
type ReadingSource string

const (
	SourceFuelTransaction ReadingSource = "fuel_transaction"     // meter read at fuel dispense time
	SourceInspection      ReadingSource = "inspection_checklist" // operator-entered on an inspection
)

// MeterReadingEvent is a single counter observation for an asset.
type MeterReadingEvent struct {
	AssetID   string        `json:"asset_id"`
	Timestamp time.Time     `json:"timestamp"`
	Value     float64       `json:"value"`
	Source    ReadingSource `json:"source"`
}

// Reading is a (timestamp, value) point of a per-asset sequence.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Reading drops the asset and source from the event.
func (e MeterReadingEvent) Reading() Reading {
	return Reading{Timestamp: e.Timestamp, Value: e.Value}
}

var meterTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// NewMeterReadingEvent builds an event from loosely typed store values. It
// returns false when the value is not a finite non-negative number or the
// timestamp cannot be parsed, so callers can drop the event.
func NewMeterReadingEvent(assetID string, ts interface{}, value interface{}, source ReadingSource) (MeterReadingEvent, bool) {
	if assetID == "" {
		return MeterReadingEvent{}, false
	}
	t, ok := parseMeterTime(ts)
	if !ok {
		return MeterReadingEvent{}, false
	}
	v, ok := parseMeterValue(value)
	if !ok {
		return MeterReadingEvent{}, false
	}
	return MeterReadingEvent{AssetID: assetID, Timestamp: t, Value: v, Source: source}, true
}

func parseMeterTime(raw interface{}) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), !v.IsZero()
	case primitive.DateTime:
		return v.Time().UTC(), v != 0
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range meterTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func parseMeterValue(raw interface{}) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case primitive.Decimal128:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}
