package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// equipmentModel is a catalog entry the simulator can build assets from.
type equipmentModel struct {
	ID        string
	Name      string
	Unit      models.MaintenanceUnit
	DailyUse  [2]float64 // min, max counter units per working day
	StartMax  float64    // counter at simulation start, upper bound
	Intervals []models.MaintenanceInterval
}

func boolPtr(v bool) *bool { return &v }

var catalog = []equipmentModel{
	{
		ID: "model-exc-320", Name: "Excavator 320", Unit: models.UnitHours,
		DailyUse: [2]float64{4, 12}, StartMax: 9000,
		Intervals: []models.MaintenanceInterval{
			{ID: "exc-50", ModelID: "model-exc-320", Name: "Break-in inspection", IntervalValue: 50, Unit: models.UnitHours, IsFirstCycleOnly: true, IsRecurring: boolPtr(false)},
			{ID: "exc-250", ModelID: "model-exc-320", Name: "Service 250 h", IntervalValue: 250, Unit: models.UnitHours},
			{ID: "exc-500", ModelID: "model-exc-320", Name: "Service 500 h", IntervalValue: 500, Unit: models.UnitHours},
			{ID: "exc-1000", ModelID: "model-exc-320", Name: "Service 1000 h", IntervalValue: 1000, Unit: models.UnitHours},
			{ID: "exc-2000", ModelID: "model-exc-320", Name: "Service 2000 h", IntervalValue: 2000, Unit: models.UnitHours},
		},
	},
	{
		ID: "model-trk-770", Name: "Haul truck 770", Unit: models.UnitDistance,
		DailyUse: [2]float64{80, 320}, StartMax: 180000,
		Intervals: []models.MaintenanceInterval{
			{ID: "trk-10k", ModelID: "model-trk-770", Name: "Service 10000 km", IntervalValue: 10000, Unit: models.UnitDistance},
			{ID: "trk-20k", ModelID: "model-trk-770", Name: "Service 20000 km", IntervalValue: 20000, Unit: models.UnitDistance},
			{ID: "trk-40k", ModelID: "model-trk-770", Name: "Service 40000 km", IntervalValue: 40000, Unit: models.UnitDistance},
			{ID: "trk-1000h", ModelID: "model-trk-770", Name: "Engine hours check", IntervalValue: 1000, Unit: models.UnitHours},
		},
	},
}

var serviceSpellings = []string{"Preventive", "preventivo", "PREVENTATIVE", " Mantenimiento  Preventivo "}

// Options controls the size and noise of the generated fleet.
type Options struct {
	Assets      int
	Days        int
	End         time.Time
	GlitchRate  float64 // fuel readings typed with an extra digit
	MalformRate float64 // readings stored as unparseable strings
	ResetRate   float64 // assets whose meter is replaced mid-period
	MoveRate    float64 // assets that change plant mid-period
}

// DefaultOptions returns a 40-asset, 120-day fleet ending now.
func DefaultOptions() Options {
	return Options{
		Assets:      40,
		Days:        120,
		End:         time.Now().UTC().Truncate(24 * time.Hour),
		GlitchRate:  0.03,
		MalformRate: 0.02,
		ResetRate:   0.1,
		MoveRate:    0.15,
	}
}

// GenerateFleet builds a synthetic fleet. The same rng seed yields the same fleet.
func GenerateFleet(rng *rand.Rand, opts Options) db.Fleet {
	var fleet db.Fleet
	fleet.BusinessUnits = []models.BusinessUnit{
		{ID: "bu-mining", Name: "Mining"},
		{ID: "bu-construction", Name: "Construction"},
	}
	fleet.Plants = []models.Plant{
		{ID: "plant-north", BusinessUnitID: "bu-mining", Name: "North Pit"},
		{ID: "plant-south", BusinessUnitID: "bu-mining", Name: "South Pit"},
		{ID: "plant-city", BusinessUnitID: "bu-construction", Name: "City Works"},
		{ID: "plant-port", BusinessUnitID: "bu-construction", Name: "Port Expansion"},
	}
	for _, m := range catalog {
		fleet.Intervals = append(fleet.Intervals, m.Intervals...)
	}

	start := opts.End.AddDate(0, 0, -opts.Days)
	for i := 0; i < opts.Assets; i++ {
		model := catalog[rng.Intn(len(catalog))]
		asset := models.Asset{
			ID:              fmt.Sprintf("asset-%03d", i+1),
			Code:            fmt.Sprintf("%s-%03d", strings.ToUpper(model.ID[6:9]), i+1),
			Name:            fmt.Sprintf("%s #%d", model.Name, i+1),
			ModelID:         model.ID,
			MaintenanceUnit: model.Unit,
		}

		plant := fleet.Plants[rng.Intn(len(fleet.Plants))]
		fleet.PlantAssignments = append(fleet.PlantAssignments, models.PlantAssignment{
			AssetID: asset.ID, PlantID: plant.ID, AssignedAt: start.AddDate(-1, 0, 0),
		})
		if rng.Float64() < opts.MoveRate {
			next := fleet.Plants[rng.Intn(len(fleet.Plants))]
			if next.ID != plant.ID {
				plant = next
				fleet.PlantAssignments = append(fleet.PlantAssignments, models.PlantAssignment{
					AssetID: asset.ID, PlantID: plant.ID, AssignedAt: start.AddDate(0, 0, 1+rng.Intn(opts.Days)),
				})
			}
		}
		asset.PlantID = plant.ID

		meter := simulateAsset(rng, opts, start, asset, model, &fleet)
		if model.Unit == models.UnitDistance {
			asset.CurrentDistance = meter
		} else {
			asset.CurrentHours = meter
		}
		fleet.Assets = append(fleet.Assets, asset)
	}
	return fleet
}

// simulateAsset walks the period day by day, recording readings and services.
// It returns the final meter value.
func simulateAsset(rng *rand.Rand, opts Options, start time.Time, asset models.Asset, model equipmentModel, fleet *db.Fleet) float64 {
	meter := math.Round(rng.Float64() * model.StartMax)
	base := model.Intervals[0].IntervalValue
	if model.Intervals[0].IsFirstCycleOnly && len(model.Intervals) > 1 {
		base = model.Intervals[1].IntervalValue
	}
	nextService := (math.Floor(meter/base) + 1) * base

	resetDay := -1
	if rng.Float64() < opts.ResetRate {
		resetDay = opts.Days/3 + rng.Intn(opts.Days/3+1)
	}

	for d := 0; d < opts.Days; d++ {
		day := start.AddDate(0, 0, d)
		if day.Weekday() != time.Sunday {
			meter += model.DailyUse[0] + rng.Float64()*(model.DailyUse[1]-model.DailyUse[0])
		}
		if d == resetDay {
			// replaced meter restarts near zero
			meter = math.Round(rng.Float64() * 20)
			nextService = base
		}

		if meter >= nextService {
			fleet.Services = append(fleet.Services, serviceRecord(rng, asset.ID, model, nextService, day))
			nextService += base
		}

		if rng.Intn(3) == 0 {
			fleet.FuelTransactions = append(fleet.FuelTransactions, fuelTransaction(rng, opts, asset.ID, day, meter))
		}
		if d%7 == 3 {
			fleet.Inspections = append(fleet.Inspections, inspection(rng, opts, asset.ID, day, meter))
		}
	}
	return math.Round(meter*10) / 10
}

// serviceRecord services the highest tier due at the given counter value.
func serviceRecord(rng *rand.Rand, assetID string, model equipmentModel, due float64, day time.Time) models.ServiceRecord {
	chosen := model.Intervals[0]
	for _, iv := range model.Intervals {
		if iv.Unit != model.Unit || iv.IsFirstCycleOnly {
			continue
		}
		if math.Mod(due, iv.IntervalValue) == 0 && iv.IntervalValue >= chosen.IntervalValue {
			chosen = iv
		}
	}
	return models.ServiceRecord{
		ID:         uuid.NewString(),
		AssetID:    assetID,
		IntervalID: chosen.ID,
		UsageValue: due + math.Round(rng.Float64()*due*0.01),
		Date:       day.Add(time.Duration(8+rng.Intn(8)) * time.Hour),
		RawType:    serviceSpellings[rng.Intn(len(serviceSpellings))],
	}
}

func fuelTransaction(rng *rand.Rand, opts Options, assetID string, day time.Time, meter float64) models.FuelTransaction {
	at := day.Add(time.Duration(6+rng.Intn(12)) * time.Hour)
	tx := models.FuelTransaction{
		AssetID:      assetID,
		DispensedAt:  at,
		MeterReading: math.Round(meter*10) / 10,
		Liters:       math.Round(80 + rng.Float64()*300),
	}
	switch r := rng.Float64(); {
	case r < opts.GlitchRate:
		tx.MeterReading = meter * 10
	case r < opts.GlitchRate+opts.MalformRate:
		tx.MeterReading = "n/a"
	case r < opts.GlitchRate+opts.MalformRate+0.05:
		// attendant-entered row
		tx.DispensedAt = at.Format("2006-01-02 15:04")
		tx.MeterReading = strings.Replace(strconv.FormatFloat(meter, 'f', 1, 64), ".", ",", 1)
	}
	return tx
}

func inspection(rng *rand.Rand, opts Options, assetID string, day time.Time, meter float64) models.Inspection {
	in := models.Inspection{
		AssetID:      assetID,
		SubmittedAt:  day.Add(time.Duration(7+rng.Intn(3)) * time.Hour),
		MeterReading: math.Round(meter + (rng.Float64()*2-1)*5),
		Inspector:    fmt.Sprintf("inspector-%02d", 1+rng.Intn(12)),
	}
	if rng.Float64() < opts.MalformRate {
		in.MeterReading = ""
	}
	return in
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.WithField(key, v).Warn("Invalid value, using default")
	}
	return def
}

func main() {
	opts := DefaultOptions()
	opts.Assets = envInt("FLEET_SIZE", opts.Assets)
	opts.Days = envInt("SIM_DAYS", opts.Days)
	seed := int64(envInt("SIM_SEED", int(time.Now().UnixNano()%math.MaxInt32)))

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "fleet"
	}
	client, err := db.ConnectMongo(os.Getenv("MONGO_URI"))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	store := db.NewMongoStore(client.Database(dbName))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if os.Getenv("SIM_RESET") == "true" {
		if err := store.DropFleet(ctx); err != nil {
			log.WithError(err).Fatal("Failed to drop existing fleet")
		}
		log.Info("Existing fleet dropped")
	}

	fleet := GenerateFleet(rand.New(rand.NewSource(seed)), opts)
	if err := store.InsertFleet(ctx, fleet); err != nil {
		log.WithError(err).Fatal("Failed to seed fleet")
	}
	log.WithFields(log.Fields{
		"seed":        seed,
		"database":    dbName,
		"assets":      len(fleet.Assets),
		"services":    len(fleet.Services),
		"fuel":        len(fleet.FuelTransactions),
		"inspections": len(fleet.Inspections),
		"assignments": len(fleet.PlantAssignments),
	}).Info("Fleet seeded")
}
