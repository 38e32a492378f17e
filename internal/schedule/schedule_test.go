package schedule

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

func interval(id string, value float64) models.MaintenanceInterval {
	return models.MaintenanceInterval{ID: id, Name: id, IntervalValue: value, Unit: models.UnitHours}
}

func service(intervalID string, usage float64, date time.Time) models.ServiceRecord {
	return models.ServiceRecord{ID: "svc-" + intervalID, IntervalID: intervalID, UsageValue: usage, Date: date, Type: models.ServicePreventive}
}

func statusOf(t *testing.T, s Schedule, id string) models.IntervalStatus {
	t.Helper()
	for _, st := range s.Statuses {
		if st.Interval.ID == id {
			return st
		}
	}
	t.Fatalf("interval %s not classified", id)
	return models.IntervalStatus{}
}

var jan = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestResolve_HoursScenario(t *testing.T) {
	catalog := []models.MaintenanceInterval{interval("i300", 300), interval("i600", 600), interval("i3000", 3000)}

	s, ok := Resolve(3450, models.UnitHours, catalog, nil, config.DefaultEngine())
	require.True(t, ok)
	assert.Equal(t, 3000.0, s.CycleLength)
	assert.Equal(t, 2, s.CurrentCycle)
	assert.Equal(t, 3000.0, s.CycleStart)
	assert.Equal(t, 6000.0, s.CycleEnd)

	i300 := statusOf(t, s, "i300")
	assert.Equal(t, models.StatusOverdue, i300.Status)
	assert.Equal(t, 3300.0, i300.DueValue)

	// 150 remaining is outside the default 100-unit near-due window
	i600 := statusOf(t, s, "i600")
	assert.Equal(t, 3600.0, i600.DueValue)
	assert.Equal(t, models.StatusScheduled, i600.Status)

	i3000 := statusOf(t, s, "i3000")
	assert.Equal(t, 6000.0, i3000.DueValue)
	assert.Equal(t, models.StatusScheduled, i3000.Status)

	sel := Select(s, nil, nil)
	require.NotNil(t, sel.Interval)
	assert.Equal(t, "i300", sel.Interval.Interval.ID)
	assert.Equal(t, 150.0, sel.OverdueBy)
	assert.Nil(t, sel.LastService)
}

func TestResolve_NearDueThresholdIsConfigurable(t *testing.T) {
	cfg := config.DefaultEngine()
	cfg.NearDueThreshold = 150
	catalog := []models.MaintenanceInterval{interval("i300", 300), interval("i600", 600), interval("i3000", 3000)}

	s, ok := Resolve(3450, models.UnitHours, catalog, nil, cfg)
	require.True(t, ok)
	assert.Equal(t, models.StatusUpcoming, statusOf(t, s, "i600").Status)
}

func TestResolve_CycleArithmetic(t *testing.T) {
	catalog := []models.MaintenanceInterval{interval("a", 250), interval("b", 500), interval("c", 1000)}
	for _, v := range []float64{0, 1, 249.5, 999, 1000, 1001, 4321, 12000} {
		s, ok := Resolve(v, models.UnitHours, catalog, nil, config.DefaultEngine())
		require.True(t, ok)
		wantCycle := int(math.Floor(v/1000)) + 1
		assert.Equal(t, wantCycle, s.CurrentCycle, "value %v", v)
		for _, st := range s.Statuses {
			assert.Equal(t, float64(wantCycle-1)*1000+st.Interval.IntervalValue, st.DueValue, "value %v interval %s", v, st.Interval.ID)
		}
	}
}

func TestResolve_NoSchedule(t *testing.T) {
	_, ok := Resolve(100, models.UnitHours, nil, nil, config.DefaultEngine())
	assert.False(t, ok)

	_, ok = Resolve(100, models.UnitHours, []models.MaintenanceInterval{interval("zero", 0)}, nil, config.DefaultEngine())
	assert.False(t, ok)

	km := models.MaintenanceInterval{ID: "km", IntervalValue: 10000, Unit: models.UnitDistance}
	_, ok = Resolve(100, models.UnitHours, []models.MaintenanceInterval{km}, nil, config.DefaultEngine())
	assert.False(t, ok)
}

func TestResolve_OtherUnitIsNotApplicable(t *testing.T) {
	km := models.MaintenanceInterval{ID: "km", IntervalValue: 10000, Unit: models.UnitDistance}
	s, ok := Resolve(100, models.UnitHours, []models.MaintenanceInterval{interval("h", 250), km}, nil, config.DefaultEngine())
	require.True(t, ok)
	assert.Equal(t, 250.0, s.CycleLength)
	assert.Equal(t, models.StatusNotApplicable, statusOf(t, s, "km").Status)
}

func TestResolve_CompletedAndCovered(t *testing.T) {
	catalog := []models.MaintenanceInterval{interval("a", 250), interval("b", 500), interval("c", 1000)}
	cfg := config.DefaultEngine()

	tests := []struct {
		name    string
		history []models.ServiceRecord
		want    map[string]models.Status
	}{
		{
			name:    "higher tier after due covers lower tier",
			history: []models.ServiceRecord{service("b", 1550, jan)},
			want:    map[string]models.Status{"a": models.StatusCovered, "b": models.StatusCompleted, "c": models.StatusScheduled},
		},
		{
			name:    "higher tier before due does not cover",
			history: []models.ServiceRecord{service("b", 1200, jan)},
			want:    map[string]models.Status{"a": models.StatusOverdue, "b": models.StatusCompleted, "c": models.StatusScheduled},
		},
		{
			name:    "lower tier never covers higher tier",
			history: []models.ServiceRecord{service("a", 1590, jan)},
			want:    map[string]models.Status{"a": models.StatusCompleted, "b": models.StatusOverdue, "c": models.StatusScheduled},
		},
		{
			name:    "service from a prior cycle is ignored",
			history: []models.ServiceRecord{service("a", 900, jan), service("b", 999, jan)},
			want:    map[string]models.Status{"a": models.StatusOverdue, "b": models.StatusOverdue, "c": models.StatusScheduled},
		},
		{
			name:    "service exactly at cycle start is outside the cycle",
			history: []models.ServiceRecord{service("c", 1000, jan)},
			want:    map[string]models.Status{"a": models.StatusOverdue, "b": models.StatusOverdue, "c": models.StatusScheduled},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := Resolve(1600, models.UnitHours, catalog, tt.history, cfg)
			require.True(t, ok)
			assert.Equal(t, 2, s.CurrentCycle)
			for id, want := range tt.want {
				assert.Equal(t, want, statusOf(t, s, id).Status, "interval %s", id)
			}
		})
	}
}

func TestResolve_CoverageRespectsCategory(t *testing.T) {
	engine := interval("engine", 250)
	engine.Category = "engine"
	hydraulic := interval("hydraulic", 500)
	hydraulic.Category = "hydraulic"
	general := interval("general", 1000)

	history := []models.ServiceRecord{service("hydraulic", 1550, jan)}
	s, ok := Resolve(1600, models.UnitHours, []models.MaintenanceInterval{engine, hydraulic, general}, history, config.DefaultEngine())
	require.True(t, ok)
	assert.Equal(t, models.StatusOverdue, statusOf(t, s, "engine").Status)

	// an uncategorized service may cover a categorized interval
	history = []models.ServiceRecord{service("general", 1550, jan)}
	s, ok = Resolve(1600, models.UnitHours, []models.MaintenanceInterval{engine, hydraulic, general}, history, config.DefaultEngine())
	require.True(t, ok)
	assert.Equal(t, models.StatusCovered, statusOf(t, s, "engine").Status)
	assert.Equal(t, models.StatusCovered, statusOf(t, s, "hydraulic").Status)
}

func TestResolve_FirstCycleOnly(t *testing.T) {
	runIn := interval("run-in", 50)
	runIn.IsFirstCycleOnly = true
	catalog := []models.MaintenanceInterval{runIn, interval("full", 500)}

	s, _ := Resolve(120, models.UnitHours, catalog, nil, config.DefaultEngine())
	assert.Equal(t, models.StatusOverdue, statusOf(t, s, "run-in").Status)

	s, _ = Resolve(620, models.UnitHours, catalog, nil, config.DefaultEngine())
	assert.Equal(t, models.StatusNotApplicable, statusOf(t, s, "run-in").Status)
}

func TestResolve_NonRecurringStaysCompleted(t *testing.T) {
	once := interval("commissioning", 100)
	off := false
	once.IsRecurring = &off
	catalog := []models.MaintenanceInterval{once, interval("full", 500)}
	history := []models.ServiceRecord{service("commissioning", 110, jan)}

	s, _ := Resolve(700, models.UnitHours, catalog, history, config.DefaultEngine())
	assert.Equal(t, models.StatusCompleted, statusOf(t, s, "commissioning").Status)
}

func TestResolve_UpcomingWindow(t *testing.T) {
	catalog := []models.MaintenanceInterval{interval("a", 500), interval("b", 1000)}
	s, _ := Resolve(400, models.UnitHours, catalog, nil, config.DefaultEngine())
	assert.Equal(t, models.StatusUpcoming, statusOf(t, s, "a").Status)
	s, _ = Resolve(399, models.UnitHours, catalog, nil, config.DefaultEngine())
	assert.Equal(t, models.StatusScheduled, statusOf(t, s, "a").Status)
	s, _ = Resolve(500, models.UnitHours, catalog, nil, config.DefaultEngine())
	assert.Equal(t, models.StatusOverdue, statusOf(t, s, "a").Status)
}

func TestLastService(t *testing.T) {
	catalog := []models.MaintenanceInterval{interval("a", 250), interval("b", 500)}
	assert.Nil(t, LastService(nil, catalog))

	history := []models.ServiceRecord{
		service("b", 500, jan),
		service("a", 740, jan.AddDate(0, 2, 0)),
		service("b", 760, jan.AddDate(0, 2, 0)),
		service("a", 260, jan.AddDate(0, -3, 0)),
	}
	ref := LastService(history, catalog)
	require.NotNil(t, ref)
	assert.Equal(t, "b", ref.IntervalID)
	assert.Equal(t, 760.0, ref.Value)
	assert.Equal(t, 500.0, ref.IntervalValue)
	assert.True(t, ref.Date.Equal(jan.AddDate(0, 2, 0)))
}

func TestSelect_LowestOverdueTierWins(t *testing.T) {
	s := Schedule{
		CurrentValue: 5000,
		Statuses: []models.IntervalStatus{
			{Interval: interval("big", 600), Status: models.StatusOverdue, DueValue: 4200},
			{Interval: interval("small", 300), Status: models.StatusOverdue, DueValue: 4900},
			{Interval: interval("soon", 100), Status: models.StatusUpcoming, DueValue: 5010},
		},
	}
	sel := Select(s, nil, nil)
	require.NotNil(t, sel.Interval)
	assert.Equal(t, "small", sel.Interval.Interval.ID)
	assert.Equal(t, 100.0, sel.OverdueBy)
	assert.Zero(t, sel.RemainingTo)
}

func TestSelect_OverdueTieGoesToLargerOverdue(t *testing.T) {
	s := Schedule{
		CurrentValue: 5000,
		Statuses: []models.IntervalStatus{
			{Interval: interval("late", 300), Status: models.StatusOverdue, DueValue: 4900},
			{Interval: interval("later", 300), Status: models.StatusOverdue, DueValue: 4700},
		},
	}
	sel := Select(s, nil, nil)
	assert.Equal(t, "later", sel.Interval.Interval.ID)
	assert.Equal(t, 300.0, sel.OverdueBy)
}

func TestSelect_SoonestPendingWhenNothingOverdue(t *testing.T) {
	s := Schedule{
		CurrentValue: 5000,
		Statuses: []models.IntervalStatus{
			{Interval: interval("sched", 3000), Status: models.StatusScheduled, DueValue: 6000},
			{Interval: interval("up", 600), Status: models.StatusUpcoming, DueValue: 5050},
			{Interval: interval("done", 300), Status: models.StatusCompleted, DueValue: 4900},
			{Interval: interval("cov", 250), Status: models.StatusCovered, DueValue: 4750},
		},
	}
	sel := Select(s, nil, nil)
	assert.Equal(t, "up", sel.Interval.Interval.ID)
	assert.Equal(t, 50.0, sel.RemainingTo)
}

func TestSelect_NothingPendingKeepsFallback(t *testing.T) {
	fallback := &ServiceRef{IntervalID: "b", Date: jan, Value: 900, IntervalValue: 500}
	s := Schedule{Statuses: []models.IntervalStatus{{Interval: interval("b", 500), Status: models.StatusCompleted}}}
	sel := Select(s, nil, fallback)
	assert.Nil(t, sel.Interval)
	assert.Equal(t, fallback, sel.LastService)
}

func TestSelect_IntervalSpecificLastService(t *testing.T) {
	s := Schedule{
		CurrentValue: 5000,
		Statuses:     []models.IntervalStatus{{Interval: interval("a", 300), Status: models.StatusOverdue, DueValue: 4900}},
	}
	fallback := &ServiceRef{IntervalID: "b", Date: jan.AddDate(0, 1, 0), Value: 4500, IntervalValue: 3000}

	t.Run("older specific record keeps fallback", func(t *testing.T) {
		history := []models.ServiceRecord{service("a", 4200, jan)}
		sel := Select(s, history, fallback)
		assert.Equal(t, fallback, sel.LastService)
		assert.Equal(t, 3000.0, sel.LastService.IntervalValue)
	})

	t.Run("equally recent specific record replaces fallback", func(t *testing.T) {
		history := []models.ServiceRecord{service("a", 4200, jan), service("a", 4550, jan.AddDate(0, 1, 0))}
		sel := Select(s, history, fallback)
		require.NotNil(t, sel.LastService)
		assert.Equal(t, "a", sel.LastService.IntervalID)
		assert.Equal(t, 4550.0, sel.LastService.Value)
		assert.Equal(t, 300.0, sel.LastService.IntervalValue)
	})

	t.Run("no fallback", func(t *testing.T) {
		history := []models.ServiceRecord{service("a", 4200, jan)}
		sel := Select(s, history, nil)
		require.NotNil(t, sel.LastService)
		assert.Equal(t, 4200.0, sel.LastService.Value)
	})
}
