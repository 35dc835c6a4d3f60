// Package rabbitmq wraps the MQTT connection to the RabbitMQ broker shared by all
// plant monitor services, plus small consumer and publisher helpers around it.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string
	// MaxElapsed bounds the whole connect retry loop. Zero means 10s.
	MaxElapsed time.Duration
	MaxRetries int
}

// BrokerURL returns the tcp:// address for cfg.
func (cfg *RabbitMQConfig) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)
}

func NewRabbitMQConn(ctx context.Context, cfg *RabbitMQConfig, log zerolog.Logger) (mqtt.Client, error) {
	connAddr := cfg.BrokerURL()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(connAddr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", connAddr).Msg("mqtt connection lost")
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	if cfg.MaxElapsed > 0 {
		bo.MaxElapsedTime = cfg.MaxElapsed
	}
	maxRetries := 5
	if cfg.MaxRetries > 0 {
		maxRetries = cfg.MaxRetries
	}

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("broker", connAddr).Msg("failed to connect to mqtt broker")
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries-1)), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}

	log.Info().Str("broker", connAddr).Str("client_id", cfg.ClientID).Msg("connected to mqtt broker")

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
		log.Info().Msg("mqtt connection closed")
	}()

	return client, nil
}

func CloseRabbitMQConn(client mqtt.Client, log zerolog.Logger) {
	if client.IsConnected() {
		client.Disconnect(250)
		log.Info().Msg("mqtt connection closed")
	}
}
