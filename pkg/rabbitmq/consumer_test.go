package rabbitmq

import (
	"context"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/plant_monitor/pkg/logger"
)

// fakeClient records subscriptions; the embedded interface panics on anything else.
type fakeClient struct {
	mqtt.Client

	mu     sync.Mutex
	subs   map[string]mqtt.MessageHandler
	qos    map[string]byte
	unsubs []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{subs: map[string]mqtt.MessageHandler{}, qos: map[string]byte{}}
}

func (c *fakeClient) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[topic] = cb
	c.qos[topic] = qos
	return &mqtt.DummyToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubs = append(c.unsubs, topics...)
	return &mqtt.DummyToken{}
}

func (c *fakeClient) handler(topic string) mqtt.MessageHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[topic]
}

func (c *fakeClient) unsubscribed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.unsubs...)
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

func TestMultiConsumer_DispatchesEveryTopic(t *testing.T) {
	client := newFakeClient()
	topics := []string{"plants/water", "plants/water/plant_01"}

	var mu sync.Mutex
	var got []string
	mc := NewMultiConsumer(client, topics, nil, logger.NewTestLogger())
	mc.SetHandler(func(topic string, msg mqtt.Message) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, topic+"="+string(msg.Payload()))
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		mc.ConsumeMessage(ctx)
	}()

	require.Eventually(t, func() bool {
		return client.handler(topics[0]) != nil && client.handler(topics[1]) != nil
	}, time.Second, 5*time.Millisecond)

	client.handler(topics[0])(client, fakeMessage{topic: topics[0], payload: []byte("a")})
	client.handler(topics[1])(client, fakeMessage{topic: topics[1], payload: []byte("b")})

	cancel()
	<-done

	mu.Lock()
	assert.Equal(t, []string{"plants/water=a", "plants/water/plant_01=b"}, got)
	mu.Unlock()
	assert.Equal(t, byte(1), client.qos[topics[1]])
	assert.ElementsMatch(t, topics, client.unsubscribed())
}

func TestConsumer_HandlerErrorDoesNotStopConsumption(t *testing.T) {
	client := newFakeClient()
	calls := 0
	c := NewConsumer(client, "SensorData/#", func(string, mqtt.Message) error {
		calls++
		return assert.AnError
	}, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.ConsumeMessage(ctx)
	}()
	require.Eventually(t, func() bool { return client.handler("SensorData/#") != nil }, time.Second, 5*time.Millisecond)

	h := client.handler("SensorData/#")
	h(client, fakeMessage{topic: "SensorData/p1"})
	h(client, fakeMessage{topic: "SensorData/p2"})
	cancel()
	<-done

	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"SensorData/#"}, client.unsubscribed())
}
