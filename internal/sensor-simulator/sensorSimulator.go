// Package sensor_simulator publishes device payloads for simulated plants and
// reacts to watering commands.
package sensor_simulator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/LeonardoBeccarini/plant_monitor/pkg/dedup"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/rabbitmq"
)

// WaterTopic carries watering commands for every simulated device. A command on
// WaterTopic/{device_id} is addressed to that device alone.
const WaterTopic = "plants/water"

// WaterTopics returns the topics a device listens on for watering commands.
func WaterTopics(deviceID string) []string {
	return []string{WaterTopic, WaterTopic + "/" + deviceID}
}

// WaterCommand asks a device to raise its soil moisture. DeviceID may be
// omitted on the per-device topic.
type WaterCommand struct {
	DeviceID  string  `json:"device_id"`
	AmountPct float64 `json:"amount_pct"`
}

type SensorSimulator struct {
	device    Device
	generator *DataGenerator
	publisher rabbitmq.IPublisher
	consumer  rabbitmq.IConsumer
	deduper   *dedup.Deduper
	log       zerolog.Logger
}

func NewSensorSimulator(consumer rabbitmq.IConsumer, publisher rabbitmq.IPublisher,
	gen *DataGenerator, device Device, log zerolog.Logger) *SensorSimulator {
	return &SensorSimulator{
		device:    device,
		generator: gen,
		publisher: publisher,
		consumer:  consumer,
		deduper:   dedup.New(2*time.Minute, 10000),
		log:       log.With().Str("device_id", device.ID).Logger(),
	}
}

// Start listens for watering commands and publishes a reading every interval
// until ctx is cancelled.
func (s *SensorSimulator) Start(ctx context.Context, interval time.Duration) {
	if s.consumer != nil {
		s.consumer.SetHandler(s.handleMessage)
		go s.consumer.ConsumeMessage(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-ticker.C:
			if err := s.publishOnce(); err != nil {
				s.log.Warn().Err(err).Msg("publish error")
			}
		}
	}
}

func (s *SensorSimulator) publishOnce() error {
	sd := s.generator.Next(s.device)
	s.log.Debug().Str("room_id", sd.RoomID).Msg("publishing reading")
	return s.publisher.PublishMessage(sd)
}

func (s *SensorSimulator) handleMessage(topic string, msg mqtt.Message) error {
	// QoS1 redelivery carries the same payload, hence the same hash
	h := sha256.Sum256(msg.Payload())
	if s.deduper != nil && !s.deduper.ShouldProcess(hex.EncodeToString(h[:])) {
		return nil
	}

	var cmd WaterCommand
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		return fmt.Errorf("invalid water command: %w", err)
	}
	direct := topic == WaterTopic+"/"+s.device.ID
	if cmd.DeviceID != s.device.ID && !(direct && cmd.DeviceID == "") {
		return nil
	}
	s.generator.Water(cmd.AmountPct)
	s.log.Info().Float64("amount_pct", cmd.AmountPct).Msg("watered")
	return nil
}
