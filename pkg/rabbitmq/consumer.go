package rabbitmq

import (
	"context"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// Handler processes one message received on topic.
type Handler func(topic string, message mqtt.Message) error

// IConsumer subscribes and feeds messages to the handler until ctx is done.
type IConsumer interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler Handler)
}

// Consumer subscribes to a single topic filter.
type Consumer struct {
	client  mqtt.Client
	handler Handler
	topic   string
	log     zerolog.Logger
}

func NewConsumer(client mqtt.Client, topic string, handler Handler, log zerolog.Logger) *Consumer {
	return &Consumer{
		client:  client,
		topic:   topic,
		handler: handler,
		log:     log,
	}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

// QoSFor returns the QoS used for topic. Device telemetry, discovery updates and
// watering commands are delivered at least once, everything else at most once.
func QoSFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "SensorData/") ||
		strings.HasPrefix(t, "plants/discovery") ||
		strings.HasPrefix(t, "plants/water") {
		return 1
	}
	return 0
}

// ConsumeMessage subscribes to the topic and blocks until ctx is cancelled.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	token := c.client.Subscribe(c.topic, QoSFor(c.topic), func(_ mqtt.Client, message mqtt.Message) {
		if c.handler == nil {
			c.log.Warn().Str("topic", c.topic).Msg("no handler set")
			return
		}
		if err := c.handler(message.Topic(), message); err != nil {
			c.log.Error().Err(err).Str("topic", message.Topic()).Msg("error handling message")
		}
	})
	if token.Wait() && token.Error() != nil {
		c.log.Error().Err(token.Error()).Str("topic", c.topic).Msg("error subscribing")
		return
	}
	c.log.Info().Str("topic", c.topic).Msg("subscribed")

	<-ctx.Done()

	c.client.Unsubscribe(c.topic).Wait()
}

// MultiConsumer subscribes to several topic filters with one handler.
type MultiConsumer struct {
	client  mqtt.Client
	topics  []string
	handler Handler
	log     zerolog.Logger
}

func NewMultiConsumer(client mqtt.Client, topics []string, handler Handler, log zerolog.Logger) *MultiConsumer {
	return &MultiConsumer{
		client:  client,
		topics:  topics,
		handler: handler,
		log:     log,
	}
}

func (m *MultiConsumer) SetHandler(handler Handler) {
	m.handler = handler
}

func (m *MultiConsumer) ConsumeMessage(ctx context.Context) {
	for _, topic := range m.topics {
		topic := topic
		token := m.client.Subscribe(topic, QoSFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			if m.handler == nil {
				m.log.Warn().Str("topic", topic).Msg("no handler set")
				return
			}
			if err := m.handler(msg.Topic(), msg); err != nil {
				m.log.Error().Err(err).Str("topic", msg.Topic()).Msg("error handling message")
			}
		})
		token.Wait()
		if token.Error() != nil {
			m.log.Error().Err(token.Error()).Str("topic", topic).Msg("error subscribing")
		} else {
			m.log.Info().Str("topic", topic).Msg("subscribed")
		}
	}

	<-ctx.Done()

	for _, topic := range m.topics {
		m.client.Unsubscribe(topic)
	}
}
