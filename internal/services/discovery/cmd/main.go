package main

import (
	"context"
	"errors"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/LeonardoBeccarini/plant_monitor/internal/datasource/influx"
	plants "github.com/LeonardoBeccarini/plant_monitor/internal/health"
	"github.com/LeonardoBeccarini/plant_monitor/internal/services/discovery"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/logger"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/rabbitmq"
)

func main() {
	cfg := loadConfig()

	root, err := logger.New(cfg.Log)
	if err != nil {
		stdlog.Fatalf("discovery: logger: %v", err)
	}
	log := logger.WithComponent(root, "discovery")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === Threshold catalog ===
	catalog := plants.MustDefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = plants.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("cannot load threshold catalog")
		}
	}

	// === InfluxDB ===
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	defer client.Close()
	if ok, err := client.Ping(ctx); !ok || err != nil {
		log.Warn().Err(err).Str("url", cfg.InfluxURL).Msg("influx not reachable yet, passes will fail until it is")
	}
	source := influx.New(client, cfg.Influx, logger.WithComponent(root, "influx"))

	// === MQTT notifications ===
	var notifier discovery.Notifier
	if cfg.MQTTEnabled {
		mqttClient, err := rabbitmq.NewRabbitMQConn(ctx, &cfg.Rabbit, log)
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connection error")
		}
		defer rabbitmq.CloseRabbitMQConn(mqttClient, log)
		notifier = discovery.NewMQTTNotifier(
			rabbitmq.NewPublisher(mqttClient, discovery.TopicDiscovery, true, log),
			rabbitmq.NewPublisher(mqttClient, discovery.TopicDiscoveryStatus, false, log),
		)
	}

	// === Engine ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := discovery.NewMetrics(reg)
	svc := discovery.NewService(source, notifier, catalog, cfg.Discovery, metrics, log)

	if cfg.CatalogPath != "" {
		go func() {
			err := plants.WatchCatalog(ctx, cfg.CatalogPath, log, func(c *plants.Catalog) {
				svc.SetCatalog(c)
				if _, err := svc.Refresh(ctx, true); err != nil {
					log.Warn().Err(err).Msg("refresh after catalog reload failed")
				}
			})
			if err != nil {
				log.Error().Err(err).Msg("catalog watcher stopped")
			}
		}()
	}

	go discovery.NewScheduler(svc, cfg.RefreshInterval, log).Run(ctx)

	// === gRPC health ===
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Int("port", cfg.GRPCPort).Msg("grpc listen error")
	}
	go func() {
		log.Info().Int("port", cfg.GRPCPort).Msg("grpc health listening")
		if err := gs.Serve(lis); err != nil {
			log.Error().Err(err).Msg("grpc server stopped")
		}
	}()
	go discovery.RunGRPCHealth(ctx, hs, svc, cfg.StaleAfter, 10*time.Second, log)

	// === HTTP ===
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           discovery.NewRouter(svc, metrics, cfg.StaleAfter, os.Stdout),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	gs.GracefulStop()
}
