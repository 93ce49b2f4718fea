package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/streamloc/streamloc/internal/config"
	"github.com/streamloc/streamloc/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogFile)

	shutdown, err := observability.InitTracer(observability.TracerConfig{
		ServiceName:    "streamloc",
		ServiceVersion: version,
		Endpoint:       cfg.TraceEndpoint,
		Protocol:       cfg.TraceProtocol,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer shutdown(context.Background())
	}

	if err := Execute(cfg); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
