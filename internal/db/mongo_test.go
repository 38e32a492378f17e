package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo("mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestMongoStore_NilDatabase(t *testing.T) {
	store := &MongoStore{}
	ctx := context.Background()

	_, err := store.LoadOrganization(ctx)
	assert.ErrorIs(t, err, ErrNilDatabase)
	_, err = store.FindMeterEvents(ctx, []string{"a1"}, time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, ErrNilDatabase)
	assert.ErrorIs(t, store.InsertFleet(ctx, Fleet{}), ErrNilDatabase)
}

func TestTimeRangeFilter(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	f := timeRangeFilter([]string{"a1"}, "dispensed_at", from, to)
	assert.Equal(t, bson.M{"$in": []string{"a1"}}, f["asset_id"])
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	assert.Len(t, or, 2)
}

// Integration test (requires running MongoDB)
func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "uri" {
		t.Skip("MONGO_URI not set or invalid, skipping integration test")
		return
	}
	client, err := ConnectMongo(uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
		return
	}
	defer client.Disconnect(context.Background())

	ctx := context.Background()
	store := NewMongoStore(client.Database("test_fleet_maintenance"))
	require.NoError(t, store.DropFleet(ctx))

	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	fleet := Fleet{
		BusinessUnits: []models.BusinessUnit{{ID: "bu1", Name: "Mining"}},
		Plants:        []models.Plant{{ID: "p1", BusinessUnitID: "bu1", Name: "North"}},
		Assets:        []models.Asset{{ID: "a1", ModelID: "m1", PlantID: "p1", MaintenanceUnit: models.UnitHours, CurrentHours: 1200}},
		Intervals:     []models.MaintenanceInterval{{ID: "i1", ModelID: "m1", IntervalValue: 250, Unit: models.UnitHours}},
		Services: []models.ServiceRecord{
			{ID: "s1", AssetID: "a1", IntervalID: "i1", UsageValue: 1000, Date: at, RawType: "Preventivo"},
			{ID: "s2", AssetID: "a1", IntervalID: "i1", UsageValue: 1100, Date: at, RawType: "Correctivo"},
			{ID: "s3", AssetID: "a1", UsageValue: 1150, Date: at, RawType: "preventive"},
		},
		FuelTransactions: []models.FuelTransaction{
			{AssetID: "a1", DispensedAt: at, MeterReading: 1180.0},
			{AssetID: "a1", DispensedAt: "2024-03-11 08:00:00", MeterReading: "1190"},
			{AssetID: "a1", DispensedAt: "garbage", MeterReading: 1.0},
		},
		Inspections: []models.Inspection{{AssetID: "a1", SubmittedAt: at.Add(time.Hour), MeterReading: int32(1181)}},
	}
	require.NoError(t, store.InsertFleet(ctx, fleet))

	org, err := store.LoadOrganization(ctx)
	require.NoError(t, err)
	assert.Len(t, org.Assets, 1)

	services, err := store.FindPreventiveServices(ctx, []string{"a1"})
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "s1", services[0].ID)

	events, err := store.FindMeterEvents(ctx, []string{"a1"}, at.Add(-24*time.Hour), at.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Len(t, events, 3)
}
