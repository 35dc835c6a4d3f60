package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/plant_monitor/pkg/dedup"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/logger"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/rabbitmq"
)

type fakeWriter struct {
	points []*write.Point
	err    error
}

func (f *fakeWriter) WritePoint(_ context.Context, p ...*write.Point) error {
	if f.err != nil {
		return f.err
	}
	f.points = append(f.points, p...)
	return nil
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

// fakeConsumer replays messages to the installed handler.
type fakeConsumer struct {
	handler rabbitmq.Handler
	msgs    []fakeMessage
	errs    []error
}

func (c *fakeConsumer) SetHandler(h rabbitmq.Handler) { c.handler = h }

func (c *fakeConsumer) ConsumeMessage(context.Context) {
	for _, m := range c.msgs {
		c.errs = append(c.errs, c.handler(m.topic, mqtt.Message(m)))
	}
}

const payload = `{"device_id":"p1","room_id":"kitchen","readings":{"climate":{"temperature":21}}}`

func TestService_Start(t *testing.T) {
	w := &fakeWriter{}
	c := &fakeConsumer{msgs: []fakeMessage{
		{topic: "SensorData/p1", payload: []byte(payload)},
		{topic: "SensorData/p1", payload: []byte(payload)},
		{topic: "SensorData/p2", payload: []byte(`{"device_id":"p2","readings":{}}`)},
		{topic: "SensorData/p3", payload: []byte(`not json`)},
	}}

	svc := NewService(c, w, "sensorData", dedup.New(time.Minute, 100), logger.NewTestLogger())
	svc.Start(context.Background())

	require.Len(t, w.points, 1)
	assert.Equal(t, "sensorData", w.points[0].Name())
	assert.Equal(t, Stats{Written: 1, Duplicates: 1, Skipped: 1, Invalid: 1}, svc.Stats())
	for _, err := range c.errs {
		assert.NoError(t, err)
	}
}

func TestService_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("influx unavailable")}
	svc := NewService(&fakeConsumer{}, w, "sensorData", nil, logger.NewTestLogger())
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return ts }

	assert.Equal(t, 99999*time.Hour, svc.LastWriteErrorAge())

	err := svc.handle(context.Background(), "SensorData/p1", []byte(payload))
	assert.EqualError(t, err, "influx unavailable")
	assert.Equal(t, uint64(1), svc.Stats().WriteErr)

	ts = ts.Add(10 * time.Second)
	assert.Equal(t, 10*time.Second, svc.LastWriteErrorAge())
}

type conn bool

func (c conn) IsConnectionOpen() bool { return bool(c) }

func TestHealthHandlers(t *testing.T) {
	svc := NewService(&fakeConsumer{}, &fakeWriter{}, "sensorData", nil, logger.NewTestLogger())

	rec := httptest.NewRecorder()
	NewHealthHandler(conn(true), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	NewHealthHandler(conn(false), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Contains(t, rec.Body.String(), `"status":"down"`)

	rec = httptest.NewRecorder()
	NewReadyHandler(conn(true), svc, 2*time.Second).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewReadyHandler(conn(false), svc, 2*time.Second).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
