package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nightfall-games/mafia/internal/events"
	"github.com/nightfall-games/mafia/internal/gateway"
	"github.com/nightfall-games/mafia/internal/registry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := loadConfig(getEnv("MAFIA_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var mirror *events.Publisher
	if cfg.NATS.Enabled {
		pubCfg := events.DefaultPublisherConfig()
		pubCfg.URL = cfg.NATS.URL
		pubCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		mirror, err = events.NewPublisher(pubCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect event mirror")
		}
		defer mirror.Close()
	}

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), mirror)
	reg := registry.New(cfg.rules(), clockwork.NewRealClock(), cm, rand.New(rand.NewSource(time.Now().UnixNano())))
	gw := gateway.NewGateway(reg, cm)

	server := setupServer(cfg, gw)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go cm.Start(ctx)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	log.Info().Msg("server shutdown complete")
}
