package rabbitmq

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// IPublisher publishes to one fixed topic.
type IPublisher interface {
	PublishMessage(message interface{}) error
	Close()
}

// Publisher holds the client and topic for publishing messages.
type Publisher struct {
	client mqtt.Client
	topic  string
	qos    byte
	retain bool
	log    zerolog.Logger
}

// NewPublisher creates a Publisher for topic. The QoS follows QoSFor.
func NewPublisher(client mqtt.Client, topic string, retain bool, log zerolog.Logger) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
		qos:    QoSFor(topic),
		retain: retain,
		log:    log,
	}
}

// PublishMessage sends strings and byte slices as they are and JSON-encodes anything else.
func (p *Publisher) PublishMessage(message interface{}) error {
	payload, err := encodePayload(message)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, p.qos, p.retain, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message: %w", token.Error())
	}

	p.log.Debug().Str("topic", p.topic).Int("bytes", len(payload)).Msg("message published")
	return nil
}

func encodePayload(message interface{}) ([]byte, error) {
	switch m := message.(type) {
	case string:
		return []byte(m), nil
	case []byte:
		return m, nil
	default:
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("invalid message format: %w", err)
		}
		return b, nil
	}
}

// Close disconnects the underlying client.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		p.log.Info().Msg("mqtt client disconnected")
	}
}
