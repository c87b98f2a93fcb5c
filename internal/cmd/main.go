package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/dbconfig"
	"github.com/evergreen-games/ecocity/internal/gateway"
	"github.com/evergreen-games/ecocity/internal/outbox"
	"github.com/evergreen-games/ecocity/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg := dbconfig.NewConfigFromEnv()
	pool, err := setupPool(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up database pool")
	}
	defer pool.Close()

	sqlDB, err := setupSQLDB(dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up outbox database connection")
	}
	defer sqlDB.Close()

	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.NATS.URL).Msg("failed to connect to NATS")
	}
	defer nc.Close()

	clock := clockwork.NewRealClock()
	services := setupServices(pool, clock)

	// Outbox worker drains domain events to NATS.
	publisher := outbox.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)
	worker := outbox.NewWorker(sqlDB, publisher, cfg.outboxConfig())
	if err := worker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start outbox worker")
	}
	defer worker.Stop()

	// Gateway pushes the events to connected players.
	connectionManager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	go connectionManager.Start(ctx)

	consumerCfg := gateway.DefaultConsumerConfig()
	consumerCfg.URL = cfg.NATS.URL
	consumerCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
	consumer, err := gateway.NewEventConsumer(connectionManager, consumerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event consumer")
	}
	defer consumer.Stop()
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("event consumer stopped")
		}
	}()

	// Periodic challenges and disasters.
	sched := scheduler.New(services.Challenges, services.Disasters, cfg.schedulerConfig(), clock)
	go sched.Run(ctx)

	verifier := setupVerifier(cfg)
	wsHandler := gateway.NewWebSocketHandler(connectionManager, verifier)
	health := outbox.NewHealthChecker(worker, sqlDB, nc)
	server := setupServer(cfg, wsHandler, health)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
