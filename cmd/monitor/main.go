package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/raihanakbr/scamguard-monitor/internal/app"
	"github.com/raihanakbr/scamguard-monitor/internal/config"
	"github.com/raihanakbr/scamguard-monitor/internal/events"
	"github.com/raihanakbr/scamguard-monitor/internal/observability"
	"github.com/raihanakbr/scamguard-monitor/internal/observability/logging"
	"github.com/raihanakbr/scamguard-monitor/internal/playback"
	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
	"github.com/raihanakbr/scamguard-monitor/internal/synchronizer"
	"github.com/raihanakbr/scamguard-monitor/internal/textcheck"
	"github.com/raihanakbr/scamguard-monitor/internal/ui"
	"github.com/raihanakbr/scamguard-monitor/internal/websocket"
)

func main() {
	// Load environment variables from .env if present
	envErr := godotenv.Load()

	cfg := config.Load()
	backend := flag.String("backend", cfg.Backend.URL, "analysis backend base URL")
	audio := flag.String("audio", cfg.Playback.AudioPath, "audio file whose duration drives playback")
	duration := flag.Float64("duration", cfg.Playback.Duration, "audio duration in seconds (0 probes -audio)")
	uiMode := flag.String("ui", cfg.UI.Mode, "presentation: tui or plain")
	autoplay := flag.Bool("autoplay", cfg.Playback.Autoplay, "press play on startup")
	readiness := flag.String("readiness", cfg.Backend.ReadinessMode, "readiness mode: auto, implicit or explicit")
	flag.Parse()

	logCfg := logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	}
	if *uiMode != config.UIPlain {
		logCfg.File = cfg.Observability.LogFile
	}
	logCloser, err := logging.Init(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if envErr != nil {
		log.Debug().Msg("No .env file found; using system environment variables")
	}

	if err := run(cfg, options{
		backend:   *backend,
		audio:     *audio,
		duration:  *duration,
		uiMode:    *uiMode,
		autoplay:  *autoplay,
		readiness: websocket.ParseReadiness(*readiness),
	}); err != nil {
		log.Error().Err(err).Msg("Monitor failed")
		fmt.Fprintln(os.Stderr, err)
		logCloser.Close()
		os.Exit(1)
	}
}

type options struct {
	backend   string
	audio     string
	duration  float64
	uiMode    string
	autoplay  bool
	readiness websocket.Readiness
}

func run(cfg *config.Configuration, opts options) error {
	length := opts.duration
	if length <= 0 {
		d, err := playback.ProbeDuration(opts.audio)
		if err != nil {
			return fmt.Errorf("cannot determine audio duration (set -duration or AUDIO_DURATION): %w", err)
		}
		length = d
	}

	streamURL, err := protocol.StreamURL(opts.backend)
	if err != nil {
		return err
	}
	checker, err := textcheck.NewClient(opts.backend, cfg.Backend.CheckTimeout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pub := events.New(&events.Config{
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.AlertTopic,
		Principal: cfg.Kafka.Principal,
		Enabled:   cfg.Kafka.Enabled,
	})
	defer pub.Close()

	session := synchronizer.NewSession()
	alerts := events.NewAlertView(pub, session.ID)
	defer alerts.Wait()

	dialer := websocket.NewDialer()
	streams := func(l websocket.Listener) app.Stream {
		return websocket.NewManager(streamURL, opts.readiness, dialer, l)
	}

	var loop *app.Loop
	onAction := func(a ui.Action) { loop.Act(a) }

	var tui *ui.TUI
	view := ui.Multi{alerts}
	if opts.uiMode == config.UIPlain {
		view = append(view, ui.NewPlain(os.Stdout))
	} else {
		tui = ui.NewTUI(onAction)
		view = append(view, tui)
	}
	loop = newLoop(cfg, opts, session, view, length, streams, checker, cancel)

	if cfg.Observability.MetricsAddr != "" {
		srv := observability.NewServer(cfg.Observability.MetricsAddr, loop.Ready)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	log.Info().
		Str("backend", opts.backend).
		Str("stream", streamURL).
		Str("readiness", opts.readiness.String()).
		Float64("duration", length).
		Str("sessionId", session.ID).
		Msg("Starting monitor")

	if tui == nil {
		go func() {
			if err := ui.ReadCommands(os.Stdin, onAction); err != nil {
				log.Warn().Err(err).Msg("Reading commands failed")
			}
		}()
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = loop.Run(ctx)
		tui.Quit()
	}()

	err = tui.Run()
	cancel()
	<-loopDone
	return err
}

func newLoop(cfg *config.Configuration, opts options, session *synchronizer.Session, view ui.View,
	length float64, streams app.StreamFactory, checker app.Checker, quit func()) *app.Loop {
	return app.New(app.Options{
		Synchronizer: synchronizer.New(session, view, cfg.UI.ToastDuration),
		View:         view,
		Clock:        playback.NewClock(length),
		Streams:      streams,
		Checker:      checker,
		TickInterval: cfg.Playback.TickInterval,
		Autoplay:     opts.autoplay,
		OnQuit:       quit,
	})
}
