package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/LeonardoBeccarini/plant_monitor/internal/services/ingest"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/dedup"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/logger"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/rabbitmq"
)

func main() {
	cfg := loadConfig()

	root, err := logger.New(cfg.Log)
	if err != nil {
		stdlog.Fatalf("ingest: logger: %v", err)
	}
	log := logger.WithComponent(root, "ingest")

	if cfg.InfluxToken == "" {
		log.Fatal().Msg("INFLUX_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === InfluxDB ===
	influx := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	defer influx.Close()
	writeAPI := influx.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket)

	// === MQTT ===
	mqttClient, err := rabbitmq.NewRabbitMQConn(ctx, &cfg.Rabbit, log)
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connection error")
	}
	defer rabbitmq.CloseRabbitMQConn(mqttClient, log)

	consumer := rabbitmq.NewConsumer(mqttClient, cfg.Topic, nil, log)
	svc := ingest.NewService(consumer, writeAPI, cfg.InfluxMeasurement, dedup.New(cfg.DedupTTL, cfg.DedupMax), log)

	// === HTTP ===
	mux := http.NewServeMux()
	mux.Handle("/healthz", ingest.NewHealthHandler(mqttClient, svc))
	mux.Handle("/readyz", ingest.NewReadyHandler(mqttClient, svc, 2*time.Second))

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("http listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	log.Info().Str("topic", cfg.Topic).Str("bucket", cfg.InfluxBucket).Msg("ingest service running")
	svc.Start(ctx)

	log.Info().Msg("shutting down")
	shCtx, shCancel := context.WithTimeout(context.Background(), cfg.ReadinessGrace)
	defer shCancel()
	_ = hs.Shutdown(shCtx)
}
