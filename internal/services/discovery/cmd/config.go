package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/plant_monitor/internal/datasource/influx"
	"github.com/LeonardoBeccarini/plant_monitor/internal/services/discovery"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/logger"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/rabbitmq"
)

type config struct {
	Log       logger.Config
	Discovery discovery.Config
	Influx    influx.Config

	InfluxURL   string
	InfluxToken string

	// MQTTEnabled turns on discovery notifications over the broker.
	MQTTEnabled bool
	Rabbit      rabbitmq.RabbitMQConfig

	CatalogPath     string
	RefreshInterval time.Duration
	StaleAfter      time.Duration

	HTTPPort int
	GRPCPort int
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

func envBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
		Log: logger.Config{
			Level:  envStr("LOG_LEVEL", "info"),
			Debug:  envBool("DEBUG", false),
			Output: envStr("LOG_OUTPUT", "stdout"),
		},
		Discovery: discovery.Config{
			MaxAge:           envDuration("DISCOVERY_CACHE_TTL", 5*time.Minute),
			FetchConcurrency: envInt("DISCOVERY_FETCH_CONCURRENCY", 8),
			FetchTimeout:     envDuration("DISCOVERY_FETCH_TIMEOUT", 5*time.Second),
		},
		Influx: influx.Config{
			Org:             envStr("INFLUX_ORG", "plants"),
			Bucket:          envStr("INFLUX_BUCKET", "sensors"),
			Measurement:     envStr("INFLUX_MEASUREMENT", "sensorData"),
			ListWindow:      envDuration("INFLUX_LIST_WINDOW", 30*24*time.Hour),
			SnapshotWindow:  envDuration("INFLUX_SNAPSHOT_WINDOW", time.Hour),
			QueryTimeout:    envDuration("INFLUX_QUERY_TIMEOUT", 5*time.Second),
			BreakerFails:    envInt("CB_INFLUX_FAILS", 5),
			BreakerOpen:     envDuration("CB_INFLUX_OPEN", 30*time.Second),
			BreakerInterval: envDuration("CB_INFLUX_INTERVAL", time.Minute),
		},

		InfluxURL:   envStr("INFLUX_URL", "http://localhost:8086"),
		InfluxToken: os.Getenv("INFLUX_TOKEN"),

		MQTTEnabled: envBool("MQTT_ENABLED", true),
		Rabbit: rabbitmq.RabbitMQConfig{
			Host:     envStr("RABBITMQ_HOST", "localhost"),
			Port:     envInt("RABBITMQ_PORT", 1883),
			User:     envStr("RABBITMQ_USER", "guest"),
			Password: envStr("RABBITMQ_PASSWORD", "guest"),
			ClientID: envStr("HOSTNAME", "discovery-service"),
		},

		CatalogPath:     os.Getenv("THRESHOLDS_FILE"),
		RefreshInterval: envDuration("DISCOVERY_INTERVAL", time.Minute),
		StaleAfter:      envDuration("HEALTH_STALE_AFTER", 15*time.Minute),

		HTTPPort: envInt("HTTP_PORT", 8080),
		GRPCPort: envInt("GRPC_PORT", 9090),
	}
}
