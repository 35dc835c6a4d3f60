package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/plant_monitor/pkg/logger"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/rabbitmq"
)

type config struct {
	Rabbit rabbitmq.RabbitMQConfig
	Log    logger.Config

	InfluxURL         string
	InfluxToken       string
	InfluxOrg         string
	InfluxBucket      string
	InfluxMeasurement string

	Topic    string
	DedupTTL time.Duration
	DedupMax int

	HTTPPort       int
	ReadinessGrace time.Duration
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func loadConfig() config {
	return config{
		Rabbit: rabbitmq.RabbitMQConfig{
			Host:     envStr("RABBITMQ_HOST", "localhost"),
			Port:     envInt("RABBITMQ_PORT", 1883),
			User:     envStr("RABBITMQ_USER", "guest"),
			Password: envStr("RABBITMQ_PASSWORD", "guest"),
			ClientID: envStr("HOSTNAME", "ingest-service"),
		},
		Log: logger.Config{
			Level:  envStr("LOG_LEVEL", "info"),
			Output: envStr("LOG_OUTPUT", "stdout"),
		},

		InfluxURL:         envStr("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:       os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:         envStr("INFLUX_ORG", "plants"),
		InfluxBucket:      envStr("INFLUX_BUCKET", "sensors"),
		InfluxMeasurement: envStr("INFLUX_MEASUREMENT", "sensorData"),

		Topic:    envStr("INGEST_TOPIC", "SensorData/#"),
		DedupTTL: envDuration("DEDUP_TTL", 10*time.Minute),
		DedupMax: envInt("DEDUP_MAX", 20000),

		HTTPPort:       envInt("HTTP_PORT", 8081),
		ReadinessGrace: 5 * time.Second,
	}
}
