package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	sensorSimulator "github.com/LeonardoBeccarini/plant_monitor/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/plant_monitor/internal/services/ingest"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/logger"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/rabbitmq"
)

func main() {
	deviceID := flag.String("device-id", "plant_01", "device (plant) identifier")
	roomID := flag.String("room-id", "living_room", "room the plant stands in; empty to omit")
	clientID := flag.String("client-id", "", "MQTT client ID, defaults to sim-<device-id>")
	host := flag.String("host", "localhost", "broker host")
	port := flag.Int("port", 1883, "broker MQTT port")
	interval := flag.Duration("interval", 10*time.Second, "publish interval")
	legacyLight := flag.Bool("legacy-light", false, "report Light/Dark instead of lux")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	root, err := logger.New(logger.Config{Level: *level})
	if err != nil {
		stdlog.Fatal(err)
	}
	log := logger.WithComponent(root, "sensor-simulator")

	if *clientID == "" {
		*clientID = "sim-" + *deviceID
	}
	cfg := &rabbitmq.RabbitMQConfig{
		Host:     *host,
		Port:     *port,
		User:     "guest",
		Password: "guest",
		ClientID: *clientID,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := rabbitmq.NewRabbitMQConn(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connection error")
	}

	publisher := rabbitmq.NewPublisher(client, ingest.TopicPrefix+*deviceID, false, log)
	consumer := rabbitmq.NewMultiConsumer(client, sensorSimulator.WaterTopics(*deviceID), nil, log)
	device := sensorSimulator.Device{ID: *deviceID, RoomID: *roomID, LegacyLight: *legacyLight}

	sim := sensorSimulator.NewSensorSimulator(consumer, publisher, sensorSimulator.NewDataGenerator(*seed), device, log)
	log.Info().Str("device_id", *deviceID).Dur("interval", *interval).Msg("simulator running")
	sim.Start(ctx, *interval)
}
