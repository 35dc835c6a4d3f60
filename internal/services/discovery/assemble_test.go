package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/plant_monitor/internal/health"
	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
)

func TestBuildResult(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	snaps := []entities.Snapshot{
		{PlantID: "p3", RoomID: "living_room", Readings: entities.Readings{"temperature": 40}},
		{PlantID: "p1", RoomID: "living_room", Readings: entities.Readings{"temperature": 22, "humidity": 50}},
		{PlantID: "p2", RoomID: "bedroom", Readings: entities.Readings{"temperature": 22, "humidity": 25}},
	}

	res := BuildResult("pass-1", snaps, health.MustDefaultCatalog(), now)

	require.Len(t, res.Plants, 3)
	assert.Equal(t, []string{"p1", "p2", "p3"}, []string{res.Plants[0].ID, res.Plants[1].ID, res.Plants[2].ID})
	assert.Equal(t, 100, res.Plants[0].Health)
	assert.Equal(t, 50, res.Plants[1].Health)
	assert.Equal(t, entities.StatusWarning, res.Plants[1].Status)
	assert.Equal(t, entities.StatusCritical, res.Plants[1].MetricStatus[entities.MetricHumidity])
	assert.Equal(t, entities.StatusCritical, res.Plants[2].Status)

	require.Len(t, res.Rooms, 2)
	assert.Equal(t, "bedroom", res.Rooms[0].ID)
	assert.Equal(t, "Bedroom", res.Rooms[0].Name)
	assert.Equal(t, "living_room", res.Rooms[1].ID)
	assert.Equal(t, "Living Room", res.Rooms[1].Name)
	assert.Equal(t, []string{"p1", "p3"}, res.Rooms[1].PlantIDs)
	assert.Equal(t, 50, res.Rooms[1].AverageHealth)
	assert.Equal(t, entities.StatusCritical, res.Rooms[1].Status)

	assert.Equal(t, map[entities.Metric]float64{
		entities.MetricTemperature: 22,
		entities.MetricHumidity:    25,
	}, res.Rooms[0].Averages)
	assert.InDelta(t, 31.0, res.Rooms[1].Averages[entities.MetricTemperature], 1e-9)
	assert.InDelta(t, 50.0, res.Rooms[1].Averages[entities.MetricHumidity], 1e-9)
	assert.NotContains(t, res.Rooms[1].Averages, entities.MetricMoisture)

	assert.Equal(t, "pass-1", res.PassID)
	assert.Equal(t, 3, res.Summary.TotalPlants)
	assert.Equal(t, 2, res.Summary.TotalRooms)
	assert.Equal(t, now, res.Summary.LastUpdate)
	assert.InDelta(t, 28.0, res.Summary.Averages[entities.MetricTemperature], 1e-9)
	assert.InDelta(t, 37.5, res.Summary.Averages[entities.MetricHumidity], 1e-9)
}

func TestBuildResult_CopiesReadings(t *testing.T) {
	readings := entities.Readings{"temperature": 22}
	res := BuildResult("x", []entities.Snapshot{{PlantID: "p1", RoomID: "r", Readings: readings}}, health.MustDefaultCatalog(), time.Now())

	readings["temperature"] = 99
	assert.Equal(t, 22.0, res.Plants[0].Readings["temperature"])
}

func TestBuildResult_Empty(t *testing.T) {
	res := BuildResult("x", nil, health.MustDefaultCatalog(), time.Now())
	assert.NotNil(t, res.Plants)
	assert.NotNil(t, res.Rooms)
	assert.Equal(t, 0, res.Summary.TotalPlants)
}
