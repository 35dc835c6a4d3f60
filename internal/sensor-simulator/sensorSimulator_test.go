package sensor_simulator

import (
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/logger"
)

type fakePublisher struct {
	msgs   []interface{}
	closed bool
}

func (p *fakePublisher) PublishMessage(m interface{}) error {
	p.msgs = append(p.msgs, m)
	return nil
}

func (p *fakePublisher) Close() { p.closed = true }

type fakeMessage struct{ payload []byte }

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return WaterTopic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestSensorSimulator_PublishOnce(t *testing.T) {
	pub := &fakePublisher{}
	g, _ := newTestGenerator(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	sim := NewSensorSimulator(nil, pub, g, Device{ID: "plant_01", RoomID: "kitchen"}, logger.NewTestLogger())

	require.NoError(t, sim.publishOnce())
	require.Len(t, pub.msgs, 1)
	sd, ok := pub.msgs[0].(messages.SensorData)
	require.True(t, ok)
	assert.Equal(t, "plant_01", sd.DeviceID)
	assert.Equal(t, "kitchen", sd.RoomID)
}

func TestSensorSimulator_HandleWaterCommand(t *testing.T) {
	g, _ := newTestGenerator(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	g.moisture = 30
	sim := NewSensorSimulator(nil, &fakePublisher{}, g, Device{ID: "plant_01"}, logger.NewTestLogger())

	water := mqtt.Message(fakeMessage{payload: []byte(`{"device_id":"plant_01","amount_pct":15}`)})
	require.NoError(t, sim.handleMessage(WaterTopic, water))
	assert.Equal(t, 45.0, g.moisture)

	// redelivery of the same command is ignored
	require.NoError(t, sim.handleMessage(WaterTopic, water))
	assert.Equal(t, 45.0, g.moisture)

	other := fakeMessage{payload: []byte(`{"device_id":"plant_02","amount_pct":15}`)}
	require.NoError(t, sim.handleMessage(WaterTopic, other))
	assert.Equal(t, 45.0, g.moisture)

	assert.Error(t, sim.handleMessage(WaterTopic, fakeMessage{payload: []byte(`{`)}))
}

func TestSensorSimulator_HandleDirectWaterCommand(t *testing.T) {
	g, _ := newTestGenerator(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	g.moisture = 30
	sim := NewSensorSimulator(nil, &fakePublisher{}, g, Device{ID: "plant_01"}, logger.NewTestLogger())

	topics := WaterTopics("plant_01")
	assert.Equal(t, []string{"plants/water", "plants/water/plant_01"}, topics)

	require.NoError(t, sim.handleMessage(topics[1], fakeMessage{payload: []byte(`{"amount_pct":10}`)}))
	assert.Equal(t, 40.0, g.moisture)

	// without a device id the broadcast topic addresses nobody
	require.NoError(t, sim.handleMessage(topics[0], fakeMessage{payload: []byte(`{"amount_pct":5}`)}))
	assert.Equal(t, 40.0, g.moisture)
}
