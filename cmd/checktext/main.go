package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/raihanakbr/scamguard-monitor/internal/app"
	"github.com/raihanakbr/scamguard-monitor/internal/config"
	"github.com/raihanakbr/scamguard-monitor/internal/observability/logging"
	"github.com/raihanakbr/scamguard-monitor/internal/textcheck"
	"github.com/raihanakbr/scamguard-monitor/internal/ui"
)

// Exit codes.
const (
	exitFailure = 1
	exitEmpty   = 2
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	backend := flag.String("backend", cfg.Backend.URL, "analysis backend base URL")
	timeout := flag.Duration("timeout", cfg.Backend.CheckTimeout, "request timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: checktext [-backend URL] \"text...\"\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	// The verdict goes to stdout; keep routine request logs out of it.
	level := cfg.Observability.LogLevel
	if level == "info" {
		level = "warn"
	}
	if _, err := logging.Init(logging.Config{Level: level, Format: "console"}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logging: %v\n", err)
		os.Exit(exitFailure)
	}

	os.Exit(run(*backend, *timeout, strings.Join(flag.Args(), " ")))
}

func run(backend string, timeout time.Duration, text string) int {
	out := ui.NewPlain(os.Stdout)

	client, err := textcheck.NewClient(backend, timeout)
	if err != nil {
		log.Error().Err(err).Msg("Invalid backend URL")
		return exitFailure
	}
	log.Debug().Str("url", client.URL()).Msg("Checking text")

	v, err := client.Check(context.Background(), text)
	out.CheckResult(app.CheckResult(v, err))
	switch {
	case errors.Is(err, textcheck.ErrEmptyText):
		return exitEmpty
	case err != nil:
		return exitFailure
	}
	return 0
}
