package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/raihanakbr/scamguard-monitor/internal/config"
	"github.com/raihanakbr/scamguard-monitor/internal/observability"
	"github.com/raihanakbr/scamguard-monitor/internal/observability/logging"
	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
	"github.com/raihanakbr/scamguard-monitor/internal/replay"
)

func main() {
	// Load environment variables from .env if present
	envErr := godotenv.Load()

	cfg := config.Load()
	port := flag.String("port", cfg.Replay.Port, "listen port")
	scriptPath := flag.String("script", cfg.Replay.ScriptPath, "replay script (JSON)")
	explicitReady := flag.Bool("explicit-ready", cfg.Replay.ExplicitReady, "send READY and wait for {action:start}")
	realtime := flag.Bool("realtime", cfg.Replay.Realtime, "honour each event's delay_ms")
	flag.Parse()

	if _, err := logging.Init(logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise logging")
	}
	if envErr != nil {
		log.Info().Msg("No .env file found; using system environment variables")
	}

	script, err := replay.LoadScript(*scriptPath)
	if err != nil {
		log.Fatal().Err(err).Str("script", *scriptPath).Msg("Failed to load replay script")
	}

	srv := replay.NewServer(script, replay.Options{
		ExplicitReady: *explicitReady,
		Realtime:      *realtime,
	})

	addr := ":" + *port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var metricsServer *observability.Server
	if cfg.Observability.MetricsAddr != "" {
		metricsServer = observability.NewServer(cfg.Observability.MetricsAddr, nil)
		metricsServer.Start()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("addr", addr).
			Int("events", len(script.Events)).
			Bool("explicitReady", *explicitReady).
			Bool("realtime", *realtime).
			Msg("Starting replay backend")
		log.Info().Msgf("WebSocket endpoint: ws://localhost%s%s", addr, protocol.AnalyzePath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Replay server shutdown failed")
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	log.Info().Int("sessions", srv.Store().Len()).Msg("Replay backend stopped")
}
