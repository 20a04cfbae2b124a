// Command bridge runs a development signaling bridge: it holds client
// websockets and serves the /notify and /notify-broadcast control plane the
// relay forwards to.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/Wyydra/relay/internal/adapter/driven/gateway/ws"
	handler "github.com/Wyydra/relay/internal/adapter/driving/http"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	w := zerolog.ConsoleWriter{Out: os.Stdout}
	log.Logger = zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()
	l := log.Logger

	if config.BridgeSecret == "" {
		l.Warn().Msg("BRIDGE_SECRET is empty, control plane is unauthenticated")
	}

	hub := ws.NewHub()
	go hub.Run()

	h := handler.NewBridgeHandler(hub, config.BridgeSecret)
	srv := &http.Server{
		Addr:              config.Address(),
		Handler:           h.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Info().Str("address", srv.Addr).Msg("Starting bridge")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("Failed to start bridge")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down bridge...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Bridge forced to shutdown")
	}

	hub.Stop()
	l.Info().Msg("Bridge exited")
	return nil
}
