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
	"github.com/Wyydra/relay/internal/adapter/driven/gateway/bridge"
	"github.com/Wyydra/relay/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/relay/internal/adapter/driven/signer/jwtauth"
	handler "github.com/Wyydra/relay/internal/adapter/driving/http"
	"github.com/Wyydra/relay/internal/core/port"
	"github.com/Wyydra/relay/internal/core/service"
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
	if err := config.Validate(); err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	w := zerolog.ConsoleWriter{Out: os.Stdout}
	log.Logger = zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()
	l := log.Logger

	// A missing signer keeps /notify serving; /token answers 500 until fixed.
	var signer port.TokenSigner
	if s, err := jwtauth.NewSigner(config.APIKey, config.APISecret); err != nil {
		l.Warn().Err(err).Msg("Token issuance disabled")
	} else {
		signer = s
	}

	var sessions port.SessionVerifier
	if config.SessionSecret != "" {
		sessions = jwtauth.NewSessionVerifier(config.SessionSecret)
	}

	var (
		signaling port.SignalingBridge
		hub       *ws.Hub
	)
	if config.BridgeURL != "" {
		signaling = bridge.NewClient(config.BridgeURL, config.BridgeTimeout, bridge.WithSecret(config.BridgeSecret))
		l.Info().Str("bridge", config.BridgeURL).Dur("timeout", config.BridgeTimeout).Msg("Using remote signaling bridge")
	} else {
		hub = ws.NewHub()
		go hub.Run()
		defer hub.Stop()
		signaling = hub
		l.Info().Msg("Using embedded signaling hub")
	}

	tokenService := service.NewTokenService(signer, config.MediaURL, config.TokenTTL)
	notificationService := service.NewNotificationService(signaling, config.BroadcastTypeList())
	h := handler.NewHandler(tokenService, notificationService, sessions, hub)

	srv := &http.Server{
		Addr:              config.Address(),
		Handler:           h.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		l.Info().Str("address", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		l.Info().Msg("Shutting down server...")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	l.Info().Msg("Server exited")
	return nil
}
