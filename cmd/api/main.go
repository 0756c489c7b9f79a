package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frossokourou/exercise-tracker/internal/api"
	"github.com/frossokourou/exercise-tracker/internal/config"
	"github.com/frossokourou/exercise-tracker/internal/domain"
	"github.com/frossokourou/exercise-tracker/internal/events"
	"github.com/frossokourou/exercise-tracker/internal/idgen"
	"github.com/frossokourou/exercise-tracker/internal/observability"
	"github.com/frossokourou/exercise-tracker/internal/persistence"
	httptransport "github.com/frossokourou/exercise-tracker/internal/transport/http"
	"github.com/frossokourou/exercise-tracker/internal/web"
)

func main() {
	if err := run(config.Load()); err != nil {
		log.Fatalf("exercise-tracker: %v", err)
	}
	log.Printf("shut down cleanly")
}

func run(cfg config.Config) error {
	logger := log.Default()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limitMode, err := domain.ParseLimitMode(cfg.LogLimitMode)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	openCtx, openCancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := persistence.Open(openCtx, cfg)
	openCancel()
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	defer store.Close()
	log.Printf("using %s store", cfg.StoreDriver)

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Printf("publishing events to %s on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	}
	defer publisher.Close()

	service := domain.NewService(store, idgen.UUID{},
		domain.WithPublisher(publisher),
		domain.WithPublishTimeout(cfg.PublishTimeout),
		domain.WithLimitMode(limitMode),
		domain.WithLogger(logger),
	)

	handler := api.NewHandler(service,
		api.WithStoreTimeout(cfg.StoreTimeout),
		api.WithLogger(logger),
	)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	web.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:           cfg.HTTPAddress,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, httptransport.Chain(mux,
		httptransport.Logging(logger),
		httptransport.CORS(cfg.CORSOrigin),
		observability.Instrument,
	))

	return httptransport.Run(ctx, server, cfg.ShutdownTimeout)
}
