// Package ingest stores device readings published over MQTT into InfluxDB,
// where the discovery service reads them back.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/LeonardoBeccarini/plant_monitor/pkg/dedup"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/rabbitmq"
)

// PointWriter is the subset of api.WriteAPIBlocking the service needs.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Stats counts what happened to incoming messages.
type Stats struct {
	Written    uint64 `json:"written"`
	Duplicates uint64 `json:"duplicates"`
	Skipped    uint64 `json:"skipped"`
	Invalid    uint64 `json:"invalid"`
	WriteErr   uint64 `json:"write_errors"`
}

type Service struct {
	consumer    rabbitmq.IConsumer
	writer      PointWriter
	dedup       *dedup.Deduper
	measurement string
	log         zerolog.Logger
	now         func() time.Time

	written, duplicates, skipped, invalid, writeErr atomic.Uint64
	lastWriteErr                                    atomic.Int64
}

func NewService(consumer rabbitmq.IConsumer, writer PointWriter, measurement string, d *dedup.Deduper, log zerolog.Logger) *Service {
	return &Service{
		consumer:    consumer,
		writer:      writer,
		dedup:       d,
		measurement: measurement,
		log:         log,
		now:         time.Now,
	}
}

// Start installs the handler and consumes until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.consumer.SetHandler(func(topic string, msg mqtt.Message) error {
		return s.handle(ctx, topic, msg.Payload())
	})
	s.consumer.ConsumeMessage(ctx)
}

func (s *Service) handle(ctx context.Context, topic string, payload []byte) error {
	// QoS 1 redeliveries arrive with identical payloads
	if s.dedup != nil {
		sum := sha256.Sum256(append([]byte(topic+"\x00"), payload...))
		if !s.dedup.ShouldProcess(hex.EncodeToString(sum[:])) {
			s.duplicates.Add(1)
			return nil
		}
	}

	r, err := Decode(topic, payload, s.now().UTC())
	switch {
	case errors.Is(err, ErrNoFields):
		s.skipped.Add(1)
		s.log.Debug().Str("topic", topic).Msg("payload without metric fields, skipped")
		return nil
	case err != nil:
		s.invalid.Add(1)
		s.log.Warn().Err(err).Str("topic", topic).Msg("invalid sensor payload")
		// keep the stream going
		return nil
	}

	if err := s.writer.WritePoint(ctx, ToPoint(s.measurement, r)); err != nil {
		s.writeErr.Add(1)
		s.lastWriteErr.Store(s.now().UnixNano())
		return err
	}
	s.written.Add(1)
	s.log.Debug().
		Str("plant_id", r.PlantID).
		Str("room_id", r.RoomID).
		Int("fields", len(r.Fields)).
		Msg("reading stored")
	return nil
}

func (s *Service) Stats() Stats {
	return Stats{
		Written:    s.written.Load(),
		Duplicates: s.duplicates.Load(),
		Skipped:    s.skipped.Load(),
		Invalid:    s.invalid.Load(),
		WriteErr:   s.writeErr.Load(),
	}
}

// LastWriteErrorAge returns how long ago the last write failed; a large value
// when none has.
func (s *Service) LastWriteErrorAge() time.Duration {
	ns := s.lastWriteErr.Load()
	if ns == 0 {
		return 99999 * time.Hour
	}
	return s.now().Sub(time.Unix(0, ns))
}
